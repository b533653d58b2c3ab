package scan

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/reshiftsecurity/reshift-scanner/internal/audit"
	"github.com/reshiftsecurity/reshift-scanner/internal/ci"
	"github.com/reshiftsecurity/reshift-scanner/internal/config"
	"github.com/reshiftsecurity/reshift-scanner/internal/files"
	"github.com/reshiftsecurity/reshift-scanner/internal/git"
	"github.com/reshiftsecurity/reshift-scanner/internal/logger"
	"github.com/reshiftsecurity/reshift-scanner/internal/report"
	"github.com/reshiftsecurity/reshift-scanner/internal/upload"
	"github.com/reshiftsecurity/reshift-scanner/pkg/errors"
)

// RunOptionsScan holds the arguments for the scan command.
type RunOptionsScan struct {
	OutputPath     string
	Format         string
	Baseline       string
	Upload         bool
	RequireVCS     bool
	SkipAudit      bool
	FailOnDegraded bool
}

// Global variables for configuration and command arguments
var (
	AppConfig        *config.Config
	scanOptions      RunOptionsScan
	exampleScanUsage = `  # Scanning the current directory and printing the report
  reshift scan

  # Scanning a project and saving the report to a file
  reshift scan --output /path/to/report.json /path/to/my_project

  # Exporting findings as SARIF
  reshift scan --format sarif --output /path/to/report.sarif /path/to/my_project

  # Comparing findings with a previous report
  reshift scan --baseline /path/to/previous.json /path/to/my_project

  # Scanning a git repository and submitting the report
  RESHIFT_TOKEN=... reshift scan --require-vcs --upload /path/to/my_project`
)

// ScanCmd represents the scan command.
var ScanCmd = &cobra.Command{
	Use:                   "scan [--output/-o PATH] [--format/-f json|sarif] [--baseline PATH] [--upload] [--require-vcs] [--skip-audit] [PATH]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleScanUsage,
	Short:                 "Builds the vulnerability report of a JavaScript project",
	Args:                  cobra.MaximumNArgs(1),
	RunE:                  runScanCommand,
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

// runScanCommand executes the scan command.
func runScanCommand(cmd *cobra.Command, args []string) error {
	logger := logger.NewLogger(AppConfig, "core-scan")
	ctx := cmd.Context()

	root, err := validateScanArgs(&scanOptions, args)
	if err != nil {
		logger.Error("invalid scan arguments", "error", err)
		return err
	}
	if root, err = filepath.Abs(root); err != nil {
		return err
	}

	start := time.Now()
	logger.Info("starting scan", "project", root)

	client, err := git.Open(root, logger)
	if err != nil {
		if scanOptions.RequireVCS {
			logger.Error(noGitError, "error", err)
			return errors.NewCommandError(fmt.Errorf("%s: %w", noGitError, err), 1)
		}
		logger.Warn("project is not a git repository, version control data is skipped", "error", err)
	}

	var repo report.VCS
	if client != nil {
		env := ci.Detect()
		if env != nil {
			logger.Debug("running in CI", "provider", env.Kind.String(), "branch", env.Branch)
		}
		repo = withCIEnvironment(client, env)
		if err := checkRepositoryState(repo, logger, config.GetBoolValue(AppConfig, "Git.FailOnAhead", true)); err != nil {
			return errors.NewCommandError(err, 1)
		}
	}

	listing, err := files.Build(root, files.Options{
		Extensions: config.Extensions(AppConfig),
		Ignore:     config.IgnorePatterns(AppConfig),
	}, logger)
	if err != nil {
		logger.Error("failed to list project files", "error", err)
		return err
	}

	var auditResult json.RawMessage
	if !scanOptions.SkipAudit {
		logger.Info("running dependency audit")
		auditResult, err = audit.NewRunner(AppConfig, logger).Audit(ctx, root)
		if err != nil {
			logger.Warn("dependency audit failed", "error", err)
			auditResult = nil
		}
	}

	var baseline *report.Bundle
	if scanOptions.Baseline != "" {
		if baseline, err = report.LoadFile(scanOptions.Baseline); err != nil {
			logger.Error("failed to load baseline report", "error", err)
			return err
		}
	}

	logger.Info("executing security scanning", "files", listing.Len())
	assembler := newAssembler(AppConfig, logger, repo, baseline)
	bundle := assembler.Assemble(ctx, auditResult, start, root, listing, repo != nil)

	if err := writeReport(bundle, scanOptions.Format, scanOptions.OutputPath); err != nil {
		logger.Error("failed to write report", "error", err)
		return err
	}

	if scanOptions.Upload {
		uploader, err := upload.NewClient(AppConfig, logger)
		if err != nil {
			logger.Error("report upload is not possible", "error", err)
			return err
		}
		if _, err := uploader.Submit(ctx, bundle); err != nil {
			logger.Error("report upload failed", "error", err)
			return errors.NewCommandError(err, 1)
		}
	}

	logger.Info("scan finished", "state", bundle.Status.State, "duration", time.Since(start).Round(time.Millisecond))
	return exitError(bundle, scanOptions.FailOnDegraded)
}

// Initialize flags for the scan command.
func init() {
	ScanCmd.Flags().StringVarP(&scanOptions.OutputPath, "output", "o", "", "Path to the output file. The report is printed to stdout when empty.")
	ScanCmd.Flags().StringVarP(&scanOptions.Format, "format", "f", FormatJSON, "Format of the report: json or sarif.")
	ScanCmd.Flags().StringVar(&scanOptions.Baseline, "baseline", "", "Path to a previous JSON report to compare findings with.")
	ScanCmd.Flags().BoolVar(&scanOptions.Upload, "upload", false, "Submit the report to the configured endpoint.")
	ScanCmd.Flags().BoolVar(&scanOptions.RequireVCS, "require-vcs", false, "Fail when the project is not a git repository.")
	ScanCmd.Flags().BoolVar(&scanOptions.SkipAudit, "skip-audit", false, "Do not run the npm dependency audit.")
	ScanCmd.Flags().BoolVar(&scanOptions.FailOnDegraded, "fail-on-degraded", false, "Exit with the report exit code when the report is degraded.")
	ScanCmd.Flags().BoolP("help", "h", false, "Show help for the scan command.")
}
