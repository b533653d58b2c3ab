package report

import (
	"github.com/reshiftsecurity/reshift-scanner/internal/normalizer"
	"github.com/reshiftsecurity/reshift-scanner/pkg/issuecorrelation"
)

// correlationFindings flattens the findings of a report for correlation.
// Paths are made relative to projectRoot so that reports of different
// checkouts compare.
func correlationFindings(report []normalizer.FileFindings, projectRoot string) []issuecorrelation.Finding {
	var out []issuecorrelation.Finding
	for _, file := range report {
		path := issuecorrelation.RelativePath(file.FilePath, projectRoot)
		for _, d := range file.Messages {
			rule := ""
			if d.RuleID != nil {
				rule = *d.RuleID
			}
			out = append(out, issuecorrelation.Finding{
				RuleID:       rule,
				Path:         path,
				StartLine:    d.Line,
				EndLine:      d.EndLine,
				InstanceHash: d.InstanceHash,
			})
		}
	}
	return out
}

// Correlate compares the findings of current against baseline.
func Correlate(current []normalizer.FileFindings, currentRoot string, baseline *Bundle) *issuecorrelation.Summary {
	if baseline == nil {
		return nil
	}
	known := correlationFindings(baseline.Project.ESLintReport, baseline.Project.ProjectMeta.AbsolutePath)
	c := issuecorrelation.NewCorrelator(correlationFindings(current, currentRoot), known)
	c.Process()
	return c.Summarize()
}
