package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/reshiftsecurity/reshift-scanner/internal/audit"
	"github.com/reshiftsecurity/reshift-scanner/internal/blame"
	"github.com/reshiftsecurity/reshift-scanner/internal/files"
	"github.com/reshiftsecurity/reshift-scanner/internal/manifest"
	"github.com/reshiftsecurity/reshift-scanner/internal/normalizer"
	"github.com/reshiftsecurity/reshift-scanner/pkg/issuecorrelation"
)

// State is the overall outcome of a scan.
type State string

const (
	StateSuccess  State = "success"
	StateDegraded State = "degraded"
	StateFailed   State = "failed"
)

// ExitCode returns the process exit code of the state.
func (s State) ExitCode() int {
	switch s {
	case StateSuccess:
		return 0
	case StateDegraded:
		return 1
	default:
		return 2
	}
}

// Bundle is the complete report of one scan. Every field is always
// serialized; values that are not available are null.
type Bundle struct {
	ScanID      string  `json:"scan_id"`
	Date        Date    `json:"date"`
	MachineName *string `json:"machine_name"`
	Status      Status  `json:"status"`
	Project     Project `json:"project"`
}

// Date records when the scan ran.
type Date struct {
	Start      time.Time `json:"start"`
	Finish     time.Time `json:"finish"`
	DurationMS int64     `json:"duration_ms"`
}

// Status explains the state of the scan.
type Status struct {
	State    State    `json:"state"`
	ExitCode int      `json:"exit_code"`
	Reasons  []string `json:"reasons"`
}

// Project holds the findings of every source.
type Project struct {
	DependencyReport json.RawMessage           `json:"dependency_report"`
	AuditSummary     *audit.Summary            `json:"audit_summary"`
	ESLintReport     []normalizer.FileFindings `json:"eslint_report"`
	Correlation      *issuecorrelation.Summary `json:"correlation"`
	ProjectMeta      ProjectMeta               `json:"project_meta"`
}

// ProjectMeta describes the scanned project.
type ProjectMeta struct {
	ProjectName  *string                  `json:"project_name"`
	Dependencies []manifest.DependencyRef `json:"dependencies"`
	AbsolutePath string                   `json:"absolute_path"`
	Root         string                   `json:"root"`
	FileInfo     files.Listing            `json:"file_info"`
	VCSInfo      VCSInfo                  `json:"vcs_info"`
}

// VCSInfo holds version control data. DependencyBlame is null outside a
// repository and maps each dependency to the attribution of its declaration.
type VCSInfo struct {
	GitURL          *string                  `json:"git_url"`
	GitHash         *string                  `json:"git_hash"`
	Branch          *string                  `json:"branch"`
	DependencyBlame map[string]*blame.Record `json:"dependency_blame"`
}

// Write encodes b as indented JSON.
func Write(w io.Writer, b *Bundle) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// WriteFile writes b to path. A failed close is reported, since it can leave
// a truncated file behind.
func WriteFile(path string, b *Bundle) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	return writeAndClose(f, b)
}

func writeAndClose(wc io.WriteCloser, b *Bundle) error {
	if err := Write(wc, b); err != nil {
		wc.Close()
		return err
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close report file: %w", err)
	}
	return nil
}

// LoadFile reads a bundle written by WriteFile.
func LoadFile(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report file: %w", err)
	}
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to decode report file %s: %w", path, err)
	}
	return &b, nil
}
