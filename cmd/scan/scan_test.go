package scan

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reshiftsecurity/reshift-scanner/internal/config"
	"github.com/reshiftsecurity/reshift-scanner/internal/git"
	"github.com/reshiftsecurity/reshift-scanner/internal/normalizer"
	"github.com/reshiftsecurity/reshift-scanner/internal/report"
	cmderrors "github.com/reshiftsecurity/reshift-scanner/pkg/errors"
	"github.com/reshiftsecurity/reshift-scanner/pkg/issuecorrelation"
)

func TestValidateScanArgs(t *testing.T) {
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "report.json")
	require.NoError(t, os.WriteFile(tmpFile, []byte("{}"), 0o644))

	tests := []struct {
		name       string
		options    RunOptionsScan
		args       []string
		wantTarget string
		wantFormat string
		wantErr    string
	}{
		{
			name:       "Current directory by default",
			options:    RunOptionsScan{},
			args:       nil,
			wantTarget: ".",
			wantFormat: FormatJSON,
		},
		{
			name:       "Target path with sarif format",
			options:    RunOptionsScan{Format: FormatSARIF},
			args:       []string{tmpDir},
			wantTarget: tmpDir,
			wantFormat: FormatSARIF,
		},
		{
			name:    "Missing target path",
			options: RunOptionsScan{},
			args:    []string{filepath.Join(tmpDir, "missing")},
			wantErr: "the target path does not exist",
		},
		{
			name:    "Target path is a file",
			options: RunOptionsScan{},
			args:    []string{tmpFile},
			wantErr: "the target path is not a directory",
		},
		{
			name:    "Unsupported format",
			options: RunOptionsScan{Format: "html"},
			args:    []string{tmpDir},
			wantErr: "unsupported report format",
		},
		{
			name:    "Missing baseline",
			options: RunOptionsScan{Baseline: filepath.Join(tmpDir, "previous.json")},
			args:    []string{tmpDir},
			wantErr: "the baseline report is not readable",
		},
		{
			name:       "Existing baseline",
			options:    RunOptionsScan{Baseline: tmpFile},
			args:       []string{tmpDir},
			wantTarget: tmpDir,
			wantFormat: FormatJSON,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			options := tt.options
			target, err := validateScanArgs(&options, tt.args)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantTarget, target)
			assert.Equal(t, tt.wantFormat, options.Format)
		})
	}
}

type fakeStatus struct {
	status *git.Status
	err    error
}

func (f *fakeStatus) Status() (*git.Status, error) { return f.status, f.err }

func TestCheckRepositoryState(t *testing.T) {
	tests := []struct {
		name        string
		repo        *fakeStatus
		failOnAhead bool
		wantErr     bool
	}{
		{
			name: "In sync",
			repo: &fakeStatus{status: &git.Status{Clean: true, Local: "main", Tracking: "origin/main"}},
		},
		{
			name: "Dirty and detached only warn",
			repo: &fakeStatus{status: &git.Status{Detached: true}},
		},
		{
			name:        "Ahead of upstream",
			repo:        &fakeStatus{status: &git.Status{Clean: true, Local: "main", Tracking: "origin/main", Ahead: 2}},
			failOnAhead: true,
			wantErr:     true,
		},
		{
			name: "Ahead of upstream allowed",
			repo: &fakeStatus{status: &git.Status{Clean: true, Local: "main", Tracking: "origin/main", Ahead: 2}},
		},
		{
			name:        "Status unavailable",
			repo:        &fakeStatus{err: errors.New("worktree is bare")},
			failOnAhead: true,
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkRepositoryState(tt.repo, hclog.NewNullLogger(), tt.failOnAhead)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckRepositoryStateDirtyWarning(t *testing.T) {
	var buf bytes.Buffer
	logger := hclog.New(&hclog.LoggerOptions{Output: &buf, Level: hclog.Warn})

	err := checkRepositoryState(&fakeStatus{status: &git.Status{Local: "main", Tracking: "origin/main"}}, logger, true)

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "without blame attribution")
	assert.NotContains(t, buf.String(), "will not be scanned")
}

func TestExitError(t *testing.T) {
	success := &report.Bundle{Status: report.Status{State: report.StateSuccess}}
	degraded := &report.Bundle{Status: report.Status{State: report.StateDegraded, ExitCode: 1, Reasons: []string{"no audit"}}}
	failed := &report.Bundle{Status: report.Status{State: report.StateFailed, ExitCode: 2}}

	assert.NoError(t, exitError(success, true))
	assert.NoError(t, exitError(degraded, false))

	var cmdErr *cmderrors.CommandError
	require.ErrorAs(t, exitError(degraded, true), &cmdErr)
	assert.Equal(t, 1, cmdErr.ExitCode)
	require.ErrorAs(t, exitError(failed, false), &cmdErr)
	assert.Equal(t, 2, cmdErr.ExitCode)
}

func TestWriteReport(t *testing.T) {
	rule := "CODE_EXECUTION"
	b := &report.Bundle{
		ScanID: "scan-1",
		Status: report.Status{State: report.StateSuccess, Reasons: []string{}},
		Project: report.Project{
			ESLintReport: []normalizer.FileFindings{{
				FilePath: "/p/a.js",
				Messages: []normalizer.Diagnostic{{RuleID: &rule, Severity: 2, Line: 1, EndLine: 1, InstanceHash: "h"}},
			}},
			ProjectMeta: report.ProjectMeta{AbsolutePath: "/p", Root: "."},
		},
	}
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "report.json")
	require.NoError(t, writeReport(b, FormatJSON, jsonPath))
	loaded, err := report.LoadFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "scan-1", loaded.ScanID)

	sarifPath := filepath.Join(dir, "report.sarif")
	require.NoError(t, writeReport(b, FormatSARIF, sarifPath))
	data, err := os.ReadFile(sarifPath)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "2.1.0", decoded["version"])
}

func TestWriteReportFileErrors(t *testing.T) {
	b := &report.Bundle{Status: report.Status{State: report.StateSuccess, Reasons: []string{}}}
	missing := filepath.Join(t.TempDir(), "missing", "report")

	assert.Error(t, writeReport(b, FormatJSON, missing+".json"))
	assert.Error(t, writeReport(b, FormatSARIF, missing+".sarif"))
}

func TestNewAssembler(t *testing.T) {
	a := newAssembler(nil, hclog.NewNullLogger(), nil, nil)
	assert.Nil(t, a.VCS)
	assert.NotNil(t, a.Analyzer)
	assert.NotNil(t, a.Parser)
	assert.False(t, a.SkipBlame)
	assert.Equal(t, issuecorrelation.SchemeV1, a.Scheme)

	disabled := false
	cfg := &config.Config{Git: config.Git{Blame: &disabled}, Identity: config.Identity{Scheme: "legacy"}}
	a = newAssembler(cfg, hclog.NewNullLogger(), nil, nil)
	assert.True(t, a.SkipBlame)
	assert.Equal(t, issuecorrelation.SchemeLegacy, a.Scheme)
}
