package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/paneprobe/paneprobe/strategy"
)

var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List registered delivery strategies",
	Long: `The strategies subcommand lists the delivery strategies the
scenario configs can name, in their canonical order.`,
	Run: func(cmd *cobra.Command, args []string) {
		for _, s := range strategy.All() {
			fmt.Println(s.Name())
		}
	},
}

func init() {
	RootCmd.AddCommand(strategiesCmd)
}
