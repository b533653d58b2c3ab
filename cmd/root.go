package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/reshiftsecurity/reshift-scanner/cmd/scan"
	"github.com/reshiftsecurity/reshift-scanner/cmd/version"
	"github.com/reshiftsecurity/reshift-scanner/internal/config"
	cmderrors "github.com/reshiftsecurity/reshift-scanner/pkg/errors"
)

var (
	cfgFile   string
	AppConfig *config.Config
	rootCmd   = &cobra.Command{
		Use:                   "reshift [command]",
		SilenceUsage:          true,
		SilenceErrors:         true,
		DisableFlagsInUseLine: true,
		Short:                 "Reshift builds a unified vulnerability report for JavaScript projects.",
		Long: `Reshift combines the npm dependency audit, an ESLint security scan and git blame
attribution into one report that can be saved locally or submitted to a reporting endpoint.`,
	}
)

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $RESHIFT_CONFIG or config.yml)")
	rootCmd.AddCommand(version.NewVersionCmd())
	rootCmd.AddCommand(scan.ScanCmd)
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	if err := rootCmd.Execute(); err != nil {
		var cmdErr *cmderrors.CommandError
		if errors.As(err, &cmdErr) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", cmdErr)
			return cmdErr.ExitCode
		}
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		return 1
	}
	return 0
}

func initConfig() {
	var err error

	if cfgFile == "" {
		cfgFile = os.Getenv("RESHIFT_CONFIG")
	}
	if cfgFile == "" {
		cfgFile = "config.yml"
	}
	AppConfig, err = config.LoadConfig(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize config: %v\n", err)
		os.Exit(1)
	}
	if err := config.ValidateConfig(AppConfig); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	scan.Init(AppConfig)
	version.Init(AppConfig)
}
