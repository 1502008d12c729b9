/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/moamenhredeen/oascontract/internal/exchange"
	"github.com/moamenhredeen/oascontract/internal/models"
	"github.com/moamenhredeen/oascontract/internal/output"
	"github.com/moamenhredeen/oascontract/internal/recorder"
	"github.com/moamenhredeen/oascontract/internal/tester"
	"github.com/moamenhredeen/oascontract/internal/validator"
	"github.com/spf13/cobra"
)

var (
	outputFormat string
	outputFile   string
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify [cassette...]",
	Short: "Verify recorded exchanges",
	Long: `Verify the requests and responses recorded in one or more cassettes against
the OpenAPI document.

Examples:
  # Verify a cassette
  oascontract verify --openapi api.yaml exchanges.yaml

  # Export results to JSON
  oascontract verify --openapi api.yaml exchanges.yaml -o json --output-file results.json`,
	Args: cobra.MinimumNArgs(1),
	Run:  runVerify,
}

func runVerify(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var format output.Format
	if outputFormat != "" {
		if format, err = output.ParseFormat(outputFormat); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	logger, err := newLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	v, err := validator.New(ctx, fs, cfg.OpenAPI)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var sources []tester.Source
	for _, path := range args {
		recordings, err := recorder.LoadCassette(fs, path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading cassette: %v\n", err)
			os.Exit(1)
		}
		for _, rec := range recordings {
			sources = append(sources, rec)
		}
	}

	if len(sources) == 0 {
		fmt.Println("No exchanges found in the given cassettes")
		os.Exit(0)
	}

	t := tester.NewTester(exchange.NewBuilder(fs, cfg.MultipartBoundary), v, logger)

	// Results go to stdout as JSON or CSV, progress would corrupt them
	live := outputFormat == "" || outputFile != ""

	var s *spinner.Spinner
	onEvent := func(event tester.TestEvent) {
		if !live {
			return
		}
		switch event.Type {
		case tester.EventStarting:
			if isTTY {
				s = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
				s.Suffix = fmt.Sprintf(" [%d/%d] %s", event.Index+1, event.Total, event.Name)
				s.Start()
			}
		case tester.EventCompleted:
			if isTTY && s != nil {
				s.Stop()
			}
			printResult(event.Index, event.Total, *event.Result)
		}
	}

	summary := t.TestExchanges(ctx, sources, onEvent)

	if outputFormat != "" {
		if err := output.ExportTestSummary(fs, summary, format, outputFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error exporting results: %v\n", err)
			os.Exit(1)
		}
		if outputFile != "" {
			fmt.Printf("\nResults exported to: %s\n", outputFile)
		}
	}

	if live {
		displaySummary(summary)
	}

	if summary.Failed > 0 {
		os.Exit(1)
	}
}

func printResult(index, total int, result models.TestResult) {
	status := green("✓ PASS")
	if !result.Passed {
		status = red("✗ FAIL")
	}

	fmt.Printf("[%d/%d] %s %s", index+1, total, status, result.Name)
	if result.Operation != "" {
		fmt.Printf(" %s", cyan(result.Operation))
	}
	fmt.Println()

	if !result.Passed && result.Error != "" {
		fmt.Printf("    %s\n", red(result.Error))
	}
	if verbose {
		fmt.Printf("    Request:     %s %s\n", result.Method, result.Path)
		fmt.Printf("    Status Code: %d\n", result.StatusCode)
	}
}

func displaySummary(summary models.TestSummary) {
	fmt.Println()
	fmt.Printf("%s\n", white("=== Verification Results ==="))
	fmt.Printf("Total:  %d\n", summary.TotalTests)
	fmt.Printf("Passed: %s\n", green(summary.Passed))
	if summary.Failed > 0 {
		fmt.Printf("Failed: %s\n", red(summary.Failed))
	} else {
		fmt.Printf("Failed: %d\n", summary.Failed)
	}
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVarP(&outputFormat, "output", "o", "", "Output format: json, csv")
	verifyCmd.Flags().StringVar(&outputFile, "output-file", "", "Write output to file (default: stdout)")
}
