// Package report assembles the scan report from the audit result, the
// normalized analyzer findings and the version control data.
package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/reshiftsecurity/reshift-scanner/internal/audit"
	"github.com/reshiftsecurity/reshift-scanner/internal/blame"
	"github.com/reshiftsecurity/reshift-scanner/internal/eslint"
	"github.com/reshiftsecurity/reshift-scanner/internal/files"
	"github.com/reshiftsecurity/reshift-scanner/internal/git"
	"github.com/reshiftsecurity/reshift-scanner/internal/manifest"
	"github.com/reshiftsecurity/reshift-scanner/internal/normalizer"
	"github.com/reshiftsecurity/reshift-scanner/internal/syntax"
	"github.com/reshiftsecurity/reshift-scanner/pkg/issuecorrelation"
)

// VCS is the version control data source.
type VCS interface {
	RevisionHash() (string, error)
	RemoteInfo() (*git.RemoteInfo, error)
	Status() (*git.Status, error)
	BlameText(path string) (string, error)
}

// Analyzer runs static analysis over a list of files.
type Analyzer interface {
	Analyze(ctx context.Context, files []string) (*eslint.Result, error)
}

// Assembler builds report bundles. VCS may be nil for projects outside a
// repository; Machine defaults to no machine name.
type Assembler struct {
	Logger      hclog.Logger
	VCS         VCS
	Analyzer    Analyzer
	Parser      syntax.Parser
	Machine     func(ctx context.Context) *string
	Scheme      issuecorrelation.Scheme
	Concurrency int
	SkipBlame   bool
	Baseline    *Bundle
	Now         func() time.Time
}

// vcsData is what the repository contributes to a report.
type vcsData struct {
	revision *string
	name     *string
	url      *string
	branch   *string
	blame    map[string]string
	// changed counts files whose blame was dropped for local changes.
	changed int
}

// Assemble builds the report of projectRoot. It never fails: every source
// that is unavailable leaves a null field and a reason in the status.
func (a *Assembler) Assemble(ctx context.Context, auditResult json.RawMessage, start time.Time, projectRoot string, listing files.Listing, isVCSProject bool) *Bundle {
	logger := a.logger()
	var reasons []string

	var machine *string
	if a.Machine != nil {
		machine = a.Machine(ctx)
	}
	if machine == nil {
		logger.Warn("unable to determine machine name")
	}

	manifestPath := filepath.Join(projectRoot, manifest.FileName)

	vcs := &vcsData{}
	if isVCSProject && a.VCS != nil {
		vcs = a.collectVCS(logger, listing, manifestPath)
	}
	if vcs.revision == nil {
		reasons = append(reasons, "version control information unavailable")
	}
	if vcs.changed > 0 {
		reasons = append(reasons, fmt.Sprintf("%d files have local changes, their blame is omitted", vcs.changed))
	}

	m, dependencies := manifest.LoadDependencies(manifestPath, logger)
	if m == nil {
		reasons = append(reasons, "dependency manifest unavailable")
	}
	var dependencyBlame map[string]*blame.Record
	if isVCSProject && a.VCS != nil {
		dependencyBlame = attributeDependencies(dependencies, vcs.blame, manifestPath)
	}

	if auditResult == nil {
		reasons = append(reasons, "dependency audit result unavailable")
	}

	state := StateSuccess
	findings := []normalizer.FileFindings{}
	analysis, err := a.analyze(ctx, listing)
	if err != nil {
		logger.Error("static analysis failed", "error", err)
		reasons = append(reasons, fmt.Sprintf("static analysis failed: %v", err))
		state = StateFailed
	} else {
		if n := len(analysis.Skipped); n > 0 {
			reasons = append(reasons, fmt.Sprintf("%d files skipped by the static analyzer", n))
		}
		norm := &normalizer.Normalizer{
			Logger:      logger,
			Parser:      a.Parser,
			Scheme:      a.Scheme,
			Concurrency: a.Concurrency,
		}
		findings = norm.Normalize(ctx, analysis.Files, vcs.blame, projectRoot, vcs.revision)
		if a.Parser != nil {
			if n := countUnparsable(findings); n > 0 {
				reasons = append(reasons, fmt.Sprintf("%d files could not be parsed", n))
			}
		}
	}

	if state == StateSuccess && len(reasons) > 0 {
		state = StateDegraded
	}
	if reasons == nil {
		reasons = []string{}
	}
	if listing == nil {
		listing = files.Listing{}
	}

	finish := a.now()
	bundle := &Bundle{
		ScanID: uuid.New().String(),
		Date: Date{
			Start:      start,
			Finish:     finish,
			DurationMS: finish.Sub(start).Milliseconds(),
		},
		MachineName: machine,
		Status: Status{
			State:    state,
			ExitCode: state.ExitCode(),
			Reasons:  reasons,
		},
		Project: Project{
			DependencyReport: auditResult,
			AuditSummary:     audit.Summarize(auditResult),
			ESLintReport:     findings,
			Correlation:      Correlate(findings, projectRoot, a.Baseline),
			ProjectMeta: ProjectMeta{
				ProjectName:  vcs.name,
				Dependencies: dependencies,
				AbsolutePath: projectRoot,
				Root:         ".",
				FileInfo:     listing,
				VCSInfo: VCSInfo{
					GitURL:          vcs.url,
					GitHash:         vcs.revision,
					Branch:          vcs.branch,
					DependencyBlame: dependencyBlame,
				},
			},
		},
	}

	logger.Info("report assembled", "scan_id", bundle.ScanID, "state", state, "files", len(findings))
	for _, reason := range reasons {
		logger.Warn("report is degraded", "reason", reason)
	}
	return bundle
}

func (a *Assembler) collectVCS(logger hclog.Logger, listing files.Listing, manifestPath string) *vcsData {
	data := &vcsData{}

	if rev, err := a.VCS.RevisionHash(); err != nil {
		logger.Warn("unable to get git commit info", "error", err)
	} else {
		data.revision = &rev
	}

	if info, err := a.VCS.RemoteInfo(); err != nil {
		logger.Warn("unable to get git repository info", "error", err)
	} else {
		url := info.URL
		data.url = &url
		if info.FullName != "" {
			name := info.FullName
			data.name = &name
		}
	}

	if st, err := a.VCS.Status(); err != nil {
		logger.Warn("unable to get git status info", "error", err)
	} else if branch := st.Branch(); branch != "" {
		data.branch = &branch
	}

	if a.SkipBlame {
		return data
	}
	data.blame = map[string]string{}
	paths := listing.Flatten()
	if _, err := os.Stat(manifestPath); err == nil {
		paths = append(paths, manifestPath)
	}
	for _, path := range paths {
		text, err := a.VCS.BlameText(path)
		if errors.Is(err, git.ErrLocalChanges) {
			logger.Debug("file differs from HEAD, blame omitted", "path", path)
			data.changed++
			continue
		}
		if err != nil {
			logger.Debug("no blame for file", "path", path, "error", err)
			continue
		}
		data.blame[path] = text
	}
	return data
}

// attributeDependencies finds the blame of the line declaring each
// dependency in the manifest. Dependencies without attribution map to nil.
func attributeDependencies(deps []manifest.DependencyRef, blameByFile map[string]string, manifestPath string) map[string]*blame.Record {
	var src *blame.Source
	if raw, ok := blameByFile[manifestPath]; ok {
		src = blame.NewSource(&raw)
	}

	out := make(map[string]*blame.Record, len(deps))
	for _, dep := range deps {
		var rec *blame.Record
		if dep.Line > 0 {
			rec = src.Line(dep.Line - 1)
		}
		if rec == nil {
			rec = src.Find(`"` + dep.Name + `"`)
		}
		if _, seen := out[dep.Name]; seen && rec == nil {
			continue
		}
		out[dep.Name] = rec
	}
	return out
}

func (a *Assembler) analyze(ctx context.Context, listing files.Listing) (*eslint.Result, error) {
	if a.Analyzer == nil {
		return nil, fmt.Errorf("no static analyzer configured")
	}
	res, err := a.Analyzer.Analyze(ctx, listing.Flatten())
	if err != nil {
		return nil, err
	}
	if res == nil {
		res = &eslint.Result{}
	}
	return res, nil
}

func countUnparsable(findings []normalizer.FileFindings) int {
	n := 0
	for _, f := range findings {
		if f.AST == nil {
			n++
		}
	}
	return n
}

func (a *Assembler) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *Assembler) logger() hclog.Logger {
	if a.Logger == nil {
		return hclog.NewNullLogger()
	}
	return a.Logger.Named("report")
}
