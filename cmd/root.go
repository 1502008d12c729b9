/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/moamenhredeen/oascontract"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	verbose bool

	fs    = afero.NewOsFs()
	isTTY = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

	// Color helpers
	green = color.New(color.FgGreen).SprintFunc()
	red   = color.New(color.FgRed).SprintFunc()
	cyan  = color.New(color.FgCyan, color.Bold).SprintFunc()
	white = color.New(color.FgWhite, color.Bold).SprintFunc()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "oascontract",
	Short: "Check recorded HTTP exchanges against an OpenAPI document",
	Long: `oascontract checks that HTTP requests and responses recorded during tests
conform to an OpenAPI document.

The document and the multipart boundary are read from config.toml in the
current directory, from OAS_* environment variables or from flags.`,
	SilenceUsage: true,
}

func Execute() {
	cobra.OnInitialize(initConfig)
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetConfigName("config")
	viper.SetConfigType("toml")
	viper.AddConfigPath(".")
	viper.SetEnvPrefix("OAS")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
			os.Exit(1)
		}
	}
}

// loadConfig reads and validates the module configuration
func loadConfig() (oascontract.Config, error) {
	cfg, err := oascontract.LoadConfig(viper.GetViper())
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate(fs)
}

func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

func init() {
	rootCmd.PersistentFlags().String("openapi", "", "Path of the OpenAPI document")
	rootCmd.PersistentFlags().String("multipart-boundary", "", "Boundary used to re-encode multipart request bodies")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed output")

	cobra.CheckErr(viper.BindPFlag(oascontract.KeyOpenAPI, rootCmd.PersistentFlags().Lookup("openapi")))
	cobra.CheckErr(viper.BindPFlag(oascontract.KeyMultipartBoundary, rootCmd.PersistentFlags().Lookup("multipart-boundary")))
}
