// Package sarif exports report findings as a SARIF 2.1.0 log.
package sarif

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/reshiftsecurity/reshift-scanner/internal/normalizer"
	"github.com/reshiftsecurity/reshift-scanner/internal/report"
	"github.com/reshiftsecurity/reshift-scanner/pkg/issuecorrelation"
)

const (
	toolName           = "reshift"
	toolInformationURI = "https://github.com/reshiftsecurity/reshift-scanner"

	// FingerprintKey names the partial fingerprint holding the finding identity.
	FingerprintKey = "instanceHash/v1"

	parseErrorRuleID = "PARSE_ERROR"
)

// FromBundle converts the analyzer findings of b into a SARIF log with one
// rule per taxonomy label and one result per finding.
func FromBundle(b *report.Bundle, version string) (*sarif.Report, error) {
	if b == nil {
		return nil, fmt.Errorf("report is nil")
	}
	log, err := sarif.New(sarif.Version210)
	if err != nil {
		return nil, fmt.Errorf("failed to create sarif report: %w", err)
	}

	run := sarif.NewRunWithInformationURI(toolName, toolInformationURI)
	if version != "" {
		run.Tool.Driver.Version = &version
	}

	for _, id := range ruleIDs(b.Project.ESLintReport) {
		run.AddRule(id).
			WithName(id).
			WithShortDescription(sarif.NewMultiformatMessageString(describe(id)))
	}

	root := b.Project.ProjectMeta.AbsolutePath
	for _, file := range b.Project.ESLintReport {
		uri := strings.TrimPrefix(issuecorrelation.RelativePath(file.FilePath, root), "./")
		for _, d := range file.Messages {
			addResult(run, uri, d)
		}
	}

	if vcs := b.Project.ProjectMeta.VCSInfo; vcs.GitURL != nil {
		details := &sarif.VersionControlDetails{RepositoryURI: vcs.GitURL}
		details.RevisionID = vcs.GitHash
		details.Branch = vcs.Branch
		run.VersionControlProvenance = append(run.VersionControlProvenance, details)
	}

	log.AddRun(run)
	return log, nil
}

// Write converts b and writes the indented SARIF log to w.
func Write(w io.Writer, b *report.Bundle, version string) error {
	log, err := FromBundle(b, version)
	if err != nil {
		return err
	}
	return log.PrettyWrite(w)
}

// WriteFile writes the SARIF log of b to path. A failed close is reported,
// since it can leave a truncated file behind.
func WriteFile(path string, b *report.Bundle, version string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create sarif file: %w", err)
	}
	return writeAndClose(f, b, version)
}

func writeAndClose(wc io.WriteCloser, b *report.Bundle, version string) error {
	if err := Write(wc, b, version); err != nil {
		wc.Close()
		return err
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close sarif file: %w", err)
	}
	return nil
}

func addResult(run *sarif.Run, uri string, d normalizer.Diagnostic) {
	region := sarif.NewSimpleRegion(max(d.Line, 1), max(d.EndLine, d.Line, 1))
	if d.Column > 0 {
		region.WithStartColumn(d.Column)
	}
	if d.EndColumn != nil && *d.EndColumn > 0 {
		region.WithEndColumn(*d.EndColumn)
	}

	level := "warning"
	if d.Severity == 2 {
		level = "error"
	}

	result := run.CreateResultForRule(ruleID(d)).
		WithLevel(level).
		WithMessage(sarif.NewTextMessage(d.Message))
	result.AddLocation(sarif.NewLocationWithPhysicalLocation(
		sarif.NewPhysicalLocation().
			WithArtifactLocation(sarif.NewSimpleArtifactLocation(uri)).
			WithRegion(region),
	))
	result.PartialFingerprints = map[string]interface{}{FingerprintKey: d.InstanceHash}
	if len(d.Blame) > 0 {
		result.Properties = sarif.Properties{
			"commit": d.Blame[0].Commit,
			"author": d.Blame[0].Author,
		}
	}
}

func ruleID(d normalizer.Diagnostic) string {
	if d.RuleID == nil {
		return parseErrorRuleID
	}
	return *d.RuleID
}

func ruleIDs(files []normalizer.FileFindings) []string {
	seen := map[string]struct{}{}
	for _, file := range files {
		for _, d := range file.Messages {
			seen[ruleID(d)] = struct{}{}
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func describe(id string) string {
	if id == parseErrorRuleID {
		return "Source file could not be parsed"
	}
	return strings.ReplaceAll(strings.ToLower(id), "_", " ")
}
