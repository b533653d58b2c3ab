package scan

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"

	"github.com/reshiftsecurity/reshift-scanner/cmd/version"
	"github.com/reshiftsecurity/reshift-scanner/internal/config"
	"github.com/reshiftsecurity/reshift-scanner/internal/eslint"
	"github.com/reshiftsecurity/reshift-scanner/internal/git"
	"github.com/reshiftsecurity/reshift-scanner/internal/host"
	"github.com/reshiftsecurity/reshift-scanner/internal/report"
	"github.com/reshiftsecurity/reshift-scanner/internal/sarif"
	"github.com/reshiftsecurity/reshift-scanner/internal/syntax"
	"github.com/reshiftsecurity/reshift-scanner/pkg/errors"
	"github.com/reshiftsecurity/reshift-scanner/pkg/issuecorrelation"
)

// Report formats
const (
	FormatJSON  = "json"
	FormatSARIF = "sarif"
)

const noGitError = "unable to retrieve git project information, either git is not installed or project is not a git directory"

// statusReader is the part of the git client the repository checks need.
type statusReader interface {
	Status() (*git.Status, error)
}

// checkRepositoryState warns about local changes and missing upstreams. A
// branch ahead of its upstream is an error when failOnAhead is set, since the
// service would not be able to resolve the commit.
func checkRepositoryState(repo statusReader, logger hclog.Logger, failOnAhead bool) error {
	st, err := repo.Status()
	if err != nil {
		logger.Error(noGitError, "error", err)
		return fmt.Errorf("%s: %w", noGitError, err)
	}
	if st.Tracking == "" {
		logger.Warn("unable to get project git state, project is either in a detached state or out of sync with remote", "local", st.Local, "detached", st.Detached)
	}
	if !st.Clean {
		logger.Warn("git project has local changes, changed files are scanned without blame attribution")
	}
	if st.Ahead > 0 {
		if failOnAhead {
			logger.Error("git project seems to be ahead of remote, make sure local copy is in sync with remote", "ahead", st.Ahead)
			return fmt.Errorf("repository is %d commits ahead of %s", st.Ahead, st.Tracking)
		}
		logger.Warn("git project seems to be ahead of remote", "ahead", st.Ahead)
	}
	return nil
}

// newAssembler wires the report assembler from the configuration. repo is nil
// outside a repository.
func newAssembler(cfg *config.Config, logger hclog.Logger, repo report.VCS, baseline *report.Bundle) *report.Assembler {
	var scheme string
	if cfg != nil {
		scheme = cfg.Identity.Scheme
	}
	a := &report.Assembler{
		Logger:      logger,
		Analyzer:    eslint.NewRunner(cfg, logger),
		Parser:      syntax.NewTreeSitterParser(config.ASTMaxDepth(cfg), config.ParseTimeout(cfg)),
		Machine:     host.Identify,
		Scheme:      issuecorrelation.ParseScheme(scheme),
		Concurrency: config.Concurrency(cfg),
		SkipBlame:   !config.GetBoolValue(cfg, "Git.Blame", true),
		Baseline:    baseline,
		VCS:         repo,
	}
	return a
}

// writeReport writes b in format to path, or to stdout when path is empty.
func writeReport(b *report.Bundle, format, path string) error {
	if path == "" {
		if format == FormatSARIF {
			return sarif.Write(os.Stdout, b, version.CoreVersion)
		}
		return report.Write(os.Stdout, b)
	}

	if format == FormatSARIF {
		return sarif.WriteFile(path, b, version.CoreVersion)
	}
	return report.WriteFile(path, b)
}

// exitError converts the report state into the command result. Failed
// reports always fail the command, degraded ones only when requested.
func exitError(b *report.Bundle, failOnDegraded bool) error {
	switch b.Status.State {
	case report.StateFailed:
		return errors.NewCommandError(fmt.Errorf("scan failed: %v", b.Status.Reasons), b.Status.ExitCode)
	case report.StateDegraded:
		if failOnDegraded {
			return errors.NewCommandError(fmt.Errorf("scan degraded: %v", b.Status.Reasons), b.Status.ExitCode)
		}
	}
	return nil
}
