package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var everyCmd = &cobra.Command{
	Use:   "every",
	Short: "Run delivery probes indefinitely at an interval",
	Long: `The every subcommand runs the configured scenarios at the
interval you specify. The report of each run is saved to
storage. Additionally, if a Notifier is configured, it
will be called to analyze and potentially notify you of
degraded delivery.

This command never unblocks, so you must signal the
program to exit.

Interval formats are the same as those for Go's
time.ParseDuration() syntax:
https://golang.org/pkg/time/#ParseDuration - with a
few shortcuts: minute, hour, day, and week.

Examples:

  $ paneprobe every 10m
  $ paneprobe every hour
  $ paneprobe every 1h30m`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			fmt.Println(cmd.Long)
			os.Exit(1)
		}
		if printLogs {
			log.SetOutput(os.Stdout)
		}

		itvlStr := strings.ToLower(args[0])
		switch itvlStr {
		case "minute":
			itvlStr = "1m"
		case "hour":
			itvlStr = "1h"
		case "day":
			itvlStr = "24h"
		case "week":
			itvlStr = "168h"
		}

		interval, err := time.ParseDuration(itvlStr)
		if err != nil {
			log.Fatal(err)
		}

		h := loadHarness()
		if len(h.Scenarios) == 0 {
			log.Fatal("no scenarios configured")
		}
		if h.Storage == nil {
			log.Fatal("no storage configured")
		}

		for range time.Tick(interval) {
			if _, err := h.RunAndStore(context.Background()); err != nil {
				log.Printf("run failed: %v", err)
			}
		}
	},
}

func init() {
	RootCmd.AddCommand(everyCmd)
}
