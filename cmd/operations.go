/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/moamenhredeen/oascontract/internal/models"
	"github.com/moamenhredeen/oascontract/internal/parser"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	filter string
	tags   []string
)

// operationsCmd represents the operations command
var operationsCmd = &cobra.Command{
	Use:   "operations [openapi-spec-file]",
	Short: "List the operations declared in the OpenAPI document",
	Long: `List the operations exchanges are matched against, in document order.
The document defaults to the configured one.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		specFile := viper.GetString("openapi")
		if len(args) == 1 {
			specFile = args[0]
		}
		if specFile == "" {
			fmt.Fprintln(os.Stderr, "Error: no OpenAPI document given")
			os.Exit(1)
		}

		p, err := parser.ParseFile(fs, specFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing OpenAPI file: %v\n", err)
			os.Exit(1)
		}

		filteredOps := filterOperations(p.GetOperations(), filter, tags)
		if len(filteredOps) == 0 {
			fmt.Println("No operations found matching the criteria")
			os.Exit(0)
		}

		if basePaths := p.BasePaths(); len(basePaths) > 0 && verbose {
			fmt.Printf("%s %s\n\n", white("Base paths:"), strings.Join(basePaths, ", "))
		}

		for _, op := range filteredOps {
			fmt.Printf("%-7s %s", strings.ToUpper(op.Method), cyan(op.Path))
			if op.OperationID != "" {
				fmt.Printf("  %s", op.OperationID)
			}
			if len(op.Tags) > 0 {
				fmt.Printf("  [%s]", strings.Join(op.Tags, ", "))
			}
			fmt.Println()

			if verbose {
				details, err := p.GetOperationDetails(op.Path, op.Method)
				if err == nil {
					fmt.Printf("        responses: %s\n", strings.Join(details.DeclaredStatusCodes(), ", "))
				}
			}
		}
	},
}

func filterOperations(operations []models.Operation, filterStr string, tagFilters []string) []models.Operation {
	var filtered []models.Operation

	for _, op := range operations {
		// Filter by path pattern or operation ID
		if filterStr != "" {
			if !strings.Contains(op.Path, filterStr) && !strings.Contains(op.OperationID, filterStr) {
				continue
			}
		}

		if len(tagFilters) > 0 && !hasAnyTag(op.Tags, tagFilters) {
			continue
		}

		filtered = append(filtered, op)
	}

	return filtered
}

func hasAnyTag(opTags, wanted []string) bool {
	for _, want := range wanted {
		for _, tag := range opTags {
			if tag == want {
				return true
			}
		}
	}
	return false
}

func init() {
	rootCmd.AddCommand(operationsCmd)

	operationsCmd.Flags().StringVar(&filter, "filter", "", "Filter operations by path pattern or operation ID")
	operationsCmd.Flags().StringSliceVar(&tags, "tags", []string{}, "Filter by OpenAPI tags (can be specified multiple times)")
}
