// Package normalizer turns raw analyzer results into report findings: rule
// ids are classified, every diagnostic gets an identity and its blame, and
// each file gets a syntax tree.
package normalizer

import (
	"context"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/reshiftsecurity/reshift-scanner/internal/blame"
	"github.com/reshiftsecurity/reshift-scanner/internal/config"
	"github.com/reshiftsecurity/reshift-scanner/internal/eslint"
	"github.com/reshiftsecurity/reshift-scanner/internal/syntax"
	"github.com/reshiftsecurity/reshift-scanner/internal/taxonomy"
	"github.com/reshiftsecurity/reshift-scanner/internal/utils"
	"github.com/reshiftsecurity/reshift-scanner/pkg/issuecorrelation"
)

// Diagnostic is one normalized finding.
type Diagnostic struct {
	RuleID       *string        `json:"rule_id"`
	Severity     int            `json:"severity"`
	Message      string         `json:"message"`
	Line         int            `json:"line"`
	Column       int            `json:"column"`
	EndLine      int            `json:"end_line"`
	EndColumn    *int           `json:"end_column"`
	NodeType     *string        `json:"node_type"`
	Fatal        bool           `json:"fatal"`
	InstanceHash string         `json:"instance_hash"`
	Blame        []blame.Record `json:"blame"`
}

// FileFindings holds the normalized findings of one file.
type FileFindings struct {
	FilePath     string       `json:"file_path"`
	Messages     []Diagnostic `json:"messages"`
	ErrorCount   int          `json:"error_count"`
	WarningCount int          `json:"warning_count"`
	Duplicates   int          `json:"duplicates"`
	AST          *syntax.Tree `json:"ast"`
}

// Normalizer converts analyzer results. Parser may be nil, in which case no
// trees are attached.
type Normalizer struct {
	Logger      hclog.Logger
	Parser      syntax.Parser
	Scheme      issuecorrelation.Scheme
	Concurrency int
}

// Normalize processes results in order. blameByFile maps absolute file paths
// to their raw blame text; revision may be nil outside a repository. The raw
// source carried by results is cleared once a file is processed.
func (n *Normalizer) Normalize(ctx context.Context, results []eslint.FileResult, blameByFile map[string]string, projectRoot string, revision *string) []FileFindings {
	logger := n.logger()
	if revision == nil {
		logger.Debug("no revision available, finding identities are only stable within this scan")
	}

	findings := make([]FileFindings, len(results))
	indices := make([]int, len(results))
	for i := range indices {
		indices[i] = i
	}

	concurrency := n.Concurrency
	if concurrency < 1 {
		concurrency = config.DefaultConcurrency
	}
	utils.ForEveryWithBoundedGoroutines(concurrency, indices, func(_ int, i int) {
		findings[i] = n.normalizeFile(ctx, logger, &results[i], blameByFile, projectRoot, revision)
	})
	return findings
}

func (n *Normalizer) normalizeFile(ctx context.Context, logger hclog.Logger, res *eslint.FileResult, blameByFile map[string]string, projectRoot string, revision *string) FileFindings {
	relativePath := issuecorrelation.RelativePath(res.FilePath, projectRoot)

	var blameSource *blame.Source
	if raw, ok := blameByFile[res.FilePath]; ok {
		blameSource = blame.NewSource(&raw)
	}

	source := n.source(logger, res)
	lines := strings.Split(source, "\n")

	var tree *syntax.Tree
	if n.Parser != nil {
		t, err := n.Parser.Parse(ctx, []byte(source))
		if err != nil {
			logger.Warn("unable to build syntax tree", "path", relativePath, "error", err)
		} else {
			tree = t
		}
	}

	out := FileFindings{
		FilePath: res.FilePath,
		Messages: make([]Diagnostic, 0, len(res.Messages)),
		AST:      tree,
	}
	seen := make(map[string]struct{}, len(res.Messages))
	for j := range res.Messages {
		msg := &res.Messages[j]
		d := diagnostic(msg, n.Scheme, source, lines, relativePath, revision, blameSource)
		msg.Source = nil

		key := d.InstanceHash
		if d.RuleID != nil {
			key += "\x00" + *d.RuleID
		}
		if _, dup := seen[key]; dup {
			out.Duplicates++
		}
		seen[key] = struct{}{}

		if d.Severity == eslint.SeverityError {
			out.ErrorCount++
		} else {
			out.WarningCount++
		}
		out.Messages = append(out.Messages, d)
	}
	if out.Duplicates > 0 {
		logger.Debug("findings share an identity", "path", relativePath, "count", out.Duplicates)
	}

	res.Source = nil
	return out
}

func diagnostic(msg *eslint.Message, scheme issuecorrelation.Scheme, source string, lines []string, relativePath string, revision *string, blameSource *blame.Source) Diagnostic {
	endLine := msg.Line
	if msg.EndLine != nil {
		endLine = *msg.EndLine
	}
	column := 0
	if msg.Column != nil {
		column = *msg.Column
	}

	var ruleID *string
	if msg.RuleID != nil {
		label := taxonomy.Classify(*msg.RuleID)
		ruleID = &label
	}

	span := issuecorrelation.ExtractSpan(source, lines, msg.Line, endLine, column, msg.EndColumn)
	hash := issuecorrelation.Identify(revision, relativePath, issuecorrelation.NormalizeSpan(scheme, span))

	return Diagnostic{
		RuleID:       ruleID,
		Severity:     msg.Severity,
		Message:      msg.Message,
		Line:         msg.Line,
		Column:       column,
		EndLine:      endLine,
		EndColumn:    msg.EndColumn,
		NodeType:     msg.NodeType,
		Fatal:        msg.Fatal,
		InstanceHash: hash,
		Blame:        blameSource.Attribute(msg.Line-1, endLine),
	}
}

// source returns the file text carried by the analyzer, falling back to the
// file on disk.
func (n *Normalizer) source(logger hclog.Logger, res *eslint.FileResult) string {
	if res.Source != nil {
		return *res.Source
	}
	data, err := os.ReadFile(res.FilePath)
	if err != nil {
		logger.Warn("unable to read source, identities use empty spans", "path", res.FilePath, "error", err)
		return ""
	}
	return string(data)
}

func (n *Normalizer) logger() hclog.Logger {
	if n.Logger == nil {
		return hclog.NewNullLogger()
	}
	return n.Logger.Named("normalizer")
}
