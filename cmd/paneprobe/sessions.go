package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/paneprobe/paneprobe/tmux"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List candidate tmux sessions",
	Long: `The sessions subcommand lists the tmux sessions visible on
the configured socket, one name per line. Use it to find
a target for --session or to check what a --pattern
would match.`,
	Run: func(cmd *cobra.Command, args []string) {
		var opts []tmux.Option
		if socketName != "" {
			opts = append(opts, tmux.WithSocket(socketName))
		}
		driver := tmux.New(opts...)

		names, err := driver.ListSessions(context.Background())
		if err != nil {
			log.SetOutput(os.Stderr)
			log.Fatal(err)
		}
		for _, name := range names {
			fmt.Println(name)
		}
	},
}

func init() {
	RootCmd.AddCommand(sessionsCmd)
}
