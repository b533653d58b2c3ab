// Package audit runs the npm dependency audit of a project.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/tidwall/gjson"

	"github.com/reshiftsecurity/reshift-scanner/internal/config"
	"github.com/reshiftsecurity/reshift-scanner/internal/logger"
	"github.com/reshiftsecurity/reshift-scanner/internal/manifest"
)

// ErrInvalidReport is returned when npm does not print a usable JSON report.
var ErrInvalidReport = errors.New("invalid audit report")

// Summary counts the advisories of an audit report by severity.
type Summary struct {
	Info         int64 `json:"info"`
	Low          int64 `json:"low"`
	Moderate     int64 `json:"moderate"`
	High         int64 `json:"high"`
	Critical     int64 `json:"critical"`
	Total        int64 `json:"total"`
	Dependencies int64 `json:"dependencies"`
}

// Runner invokes npm in the project root.
type Runner struct {
	logger           hclog.Logger
	npm              string
	timeout          time.Duration
	generateLockfile bool
}

// NewRunner creates a Runner from the audit section of cfg.
func NewRunner(cfg *config.Config, logger hclog.Logger) *Runner {
	r := &Runner{
		logger:           logger.Named("audit"),
		npm:              config.NpmPath(cfg),
		timeout:          config.DefaultAuditTimeout,
		generateLockfile: config.GetBoolValue(cfg, "Audit.GenerateLockfile", true),
	}
	if cfg != nil {
		r.timeout = config.SetThen(cfg.Audit.Timeout, config.DefaultAuditTimeout)
	}
	return r
}

// Audit returns the raw `npm audit --json` report of projectRoot. It returns
// nil without error when the project has no manifest. A lockfile is generated
// first when it is missing.
func (r *Runner) Audit(ctx context.Context, projectRoot string) (json.RawMessage, error) {
	if _, err := os.Stat(filepath.Join(projectRoot, manifest.FileName)); err != nil {
		r.logger.Info("unable to locate base package information, dependency audit skipped", "path", projectRoot)
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if _, err := os.Stat(filepath.Join(projectRoot, manifest.LockFileName)); os.IsNotExist(err) && r.generateLockfile {
		r.logger.Info("creating lockfile for dependency audit", "path", projectRoot)
		if _, err := r.run(ctx, projectRoot, "i", "--package-lock-only"); err != nil {
			return nil, fmt.Errorf("failed to create lockfile: %w", err)
		}
	}

	out, err := r.run(ctx, projectRoot, "audit", "--json")
	// npm audit exits non-zero when vulnerabilities are found
	if !gjson.ValidBytes(out) || len(bytes.TrimSpace(out)) == 0 {
		if err != nil {
			return nil, fmt.Errorf("npm audit execution error: %w", err)
		}
		return nil, ErrInvalidReport
	}
	if e := gjson.GetBytes(out, "error"); e.Exists() {
		return nil, fmt.Errorf("%w: %s %s", ErrInvalidReport, e.Get("code").String(), e.Get("summary").String())
	}

	r.logger.Info("dependency audit finished", "path", projectRoot)
	return json.RawMessage(bytes.TrimSpace(out)), nil
}

func (r *Runner) run(ctx context.Context, dir string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, r.npm, args...)
	cmd.Dir = dir
	r.logger.Debug("debug info", "cmd", cmd.Args, "dir", dir)

	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = logger.ProcessOutput(r.logger)

	err := cmd.Run()
	return stdout.Bytes(), err
}

// Summarize extracts the severity counters of report. It supports the report
// layouts of npm 6 and npm 7 or later, and returns nil when report carries
// no vulnerability metadata.
func Summarize(report json.RawMessage) *Summary {
	if len(report) == 0 {
		return nil
	}
	vulns := gjson.GetBytes(report, "metadata.vulnerabilities")
	if !vulns.Exists() {
		return nil
	}

	s := &Summary{
		Info:     vulns.Get("info").Int(),
		Low:      vulns.Get("low").Int(),
		Moderate: vulns.Get("moderate").Int(),
		High:     vulns.Get("high").Int(),
		Critical: vulns.Get("critical").Int(),
	}
	if total := vulns.Get("total"); total.Exists() {
		s.Total = total.Int()
	} else {
		s.Total = s.Info + s.Low + s.Moderate + s.High + s.Critical
	}

	if deps := gjson.GetBytes(report, "metadata.dependencies.total"); deps.Exists() {
		s.Dependencies = deps.Int()
	} else {
		s.Dependencies = gjson.GetBytes(report, "metadata.totalDependencies").Int()
	}
	return s
}
