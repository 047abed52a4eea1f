package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/paneprobe/paneprobe"
	"github.com/paneprobe/paneprobe/scenario"
	"github.com/paneprobe/paneprobe/tmux"
	"github.com/paneprobe/paneprobe/types"
)

var configFile string
var sessionName string
var sessionPattern string
var socketName string
var storeReport bool
var printLogs bool
var noColor bool
var scenarioFilter []string
var sweepStrategies []string
var sweepIterations int

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "paneprobe",
	Short: "Measure text delivery reliability into tmux sessions",
	Long: `Paneprobe drives delivery scenarios against a live tmux
session and reports which injection strategy reliably
gets text received and processed.

Paneprobe will always look for a paneprobe.json file in
the current working directory by default and use it.
You can specify a different file location using the
--config/-c flag.

Running paneprobe without any arguments will invoke a
single run and print the ranked report to stdout. To
persist the report, use --store. Use --scenarios to run
a subset of the configured scenarios, or --strategies
and --iterations to sweep strategies head to head.`,

	Run: func(cmd *cobra.Command, args []string) {
		if printLogs {
			log.SetOutput(os.Stdout)
		} else {
			log.SetOutput(nullWriter{})
		}

		if noColor {
			types.DisableColor()
		}

		h := loadHarness()
		applyRunSelection(h)

		if len(h.Scenarios) == 0 {
			log.SetOutput(os.Stderr)
			log.Fatal("no scenarios selected")
		}

		if storeReport && h.Storage == nil {
			log.SetOutput(os.Stderr)
			log.Fatal("no storage configured")
		}

		ctx := context.Background()

		var report *types.RunReport
		var err error
		if storeReport {
			report, err = h.RunAndStore(ctx)
		} else {
			report, err = h.Run(ctx)
		}
		if err != nil {
			log.SetOutput(os.Stderr)
			log.Fatal(err)
		}

		// A run that produced no ranking still exits zero; only
		// harness failures are fatal.
		fmt.Println(report)
	},
}

// loadHarness reads the config file, decodes the harness, applies flag
// overrides, and wires in a live tmux driver.
func loadHarness() *paneprobe.Harness {
	configBytes, err := os.ReadFile(configFile)
	if err != nil {
		log.SetOutput(os.Stderr)
		log.Fatal(err)
	}

	var h paneprobe.Harness
	if err := json.Unmarshal(configBytes, &h); err != nil {
		log.SetOutput(os.Stderr)
		log.Fatal(err)
	}

	if sessionName != "" {
		h.Session = sessionName
	}
	if sessionPattern != "" {
		h.SessionPattern = sessionPattern
	}

	var opts []tmux.Option
	if socketName != "" {
		opts = append(opts, tmux.WithSocket(socketName))
	}
	h.Driver = tmux.New(opts...)

	return &h
}

// applyRunSelection narrows a configured harness to what the run
// flags selected: --scenarios keeps only the named scenario types, and
// --strategies/--iterations swap the configured scenarios for a single
// registry sweep.
func applyRunSelection(h *paneprobe.Harness) {
	if len(scenarioFilter) > 0 {
		var keep []scenario.Scenario
		for _, sc := range h.Scenarios {
			for _, name := range scenarioFilter {
				if sc.Type() == name {
					keep = append(keep, sc)
					break
				}
			}
		}
		h.Scenarios = keep
	}

	if len(sweepStrategies) > 0 || sweepIterations > 0 {
		h.Scenarios = []scenario.Scenario{scenario.SweepPlan(sweepStrategies, sweepIterations)}
	}
}

// nullWriter discards log output when -v is not given, so the report
// table stays clean on stdout.
type nullWriter struct{}

func (nullWriter) Write(p []byte) (int, error) { return len(p), nil }

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "paneprobe.json", "JSON config file")
	RootCmd.PersistentFlags().StringVar(&sessionName, "session", "", "Target session name (overrides config)")
	RootCmd.PersistentFlags().StringVar(&sessionPattern, "pattern", "", "Target session regexp (overrides config)")
	RootCmd.PersistentFlags().StringVarP(&socketName, "socket", "L", "", "tmux socket name")
	RootCmd.Flags().BoolVar(&storeReport, "store", false, "Store the run report")
	RootCmd.Flags().StringSliceVar(&scenarioFilter, "scenarios", nil, "Run only the named scenario types from the config")
	RootCmd.Flags().StringSliceVar(&sweepStrategies, "strategies", nil, "Sweep only the named strategies instead of the configured scenarios")
	RootCmd.Flags().IntVar(&sweepIterations, "iterations", 0, "Attempts per strategy for a sweep (default 3)")
	RootCmd.PersistentFlags().BoolVar(&printLogs, "v", false, "Enable logging to standard output")
	RootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable color in the report table")
}
