package audit

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reshiftsecurity/reshift-scanner/internal/config"
)

const npm7Report = `{"auditReportVersion":2,"vulnerabilities":{},"metadata":{"vulnerabilities":{"info":0,"low":1,"moderate":2,"high":0,"critical":1,"total":4},"dependencies":{"prod":10,"dev":3,"total":13}}}`

const npm6Report = `{"actions":[],"advisories":{},"metadata":{"vulnerabilities":{"info":1,"low":0,"moderate":0,"high":2,"critical":0},"dependencies":20,"devDependencies":5,"totalDependencies":25}}`

const fakeNpm = `#!/bin/sh
case "$1" in
  i) echo '{}' > package-lock.json; exit 0 ;;
  audit) printf '%s' "$FAKE_NPM_REPORT"; exit 1 ;;
esac
exit 3
`

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake npm is a shell script")
	}
	path := filepath.Join(t.TempDir(), "npm")
	require.NoError(t, os.WriteFile(path, []byte(fakeNpm), 0o755))
	cfg := &config.Config{Audit: config.Audit{NpmPath: path}}
	return NewRunner(cfg, hclog.NewNullLogger())
}

func TestAuditWithoutManifest(t *testing.T) {
	r := newTestRunner(t)

	report, err := r.Audit(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, report)
}

func TestAuditCreatesLockfile(t *testing.T) {
	r := newTestRunner(t)
	t.Setenv("FAKE_NPM_REPORT", npm7Report)

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "package.json"), []byte(`{"name":"demo"}`), 0o644))

	report, err := r.Audit(context.Background(), root)
	require.NoError(t, err)
	assert.JSONEq(t, npm7Report, string(report))
	assert.FileExists(t, filepath.Join(root, "package-lock.json"))
}

func TestAuditErrorReport(t *testing.T) {
	r := newTestRunner(t)
	t.Setenv("FAKE_NPM_REPORT", `{"error":{"code":"ENOLOCK","summary":"This command requires an existing lockfile."}}`)

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "package.json"), []byte(`{}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "package-lock.json"), []byte(`{}`), 0o644))

	_, err := r.Audit(context.Background(), root)
	assert.ErrorIs(t, err, ErrInvalidReport)
	assert.Contains(t, err.Error(), "ENOLOCK")
}

func TestAuditGarbageOutput(t *testing.T) {
	r := newTestRunner(t)
	t.Setenv("FAKE_NPM_REPORT", "npm ERR! something broke")

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "package.json"), []byte(`{}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "package-lock.json"), []byte(`{}`), 0o644))

	_, err := r.Audit(context.Background(), root)
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name   string
		report string
		want   *Summary
	}{
		{
			name:   "npm 7",
			report: npm7Report,
			want:   &Summary{Low: 1, Moderate: 2, Critical: 1, Total: 4, Dependencies: 13},
		},
		{
			name:   "npm 6 computes total",
			report: npm6Report,
			want:   &Summary{Info: 1, High: 2, Total: 3, Dependencies: 25},
		},
		{
			name:   "no metadata",
			report: `{"advisories":{}}`,
			want:   nil,
		},
		{
			name:   "empty",
			report: "",
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Summarize(json.RawMessage(tt.report)))
		})
	}
}
