// Package eslint runs ESLint with the security plugin and decodes its JSON report.
package eslint

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/reshiftsecurity/reshift-scanner/internal/config"
	"github.com/reshiftsecurity/reshift-scanner/internal/logger"
	"github.com/reshiftsecurity/reshift-scanner/internal/taxonomy"
	"github.com/reshiftsecurity/reshift-scanner/internal/utils"
)

// SeverityError is the ESLint severity of rules configured as errors.
const SeverityError = 2

// ErrAnalyzerFailed is returned when no chunk of the file list could be analysed.
var ErrAnalyzerFailed = errors.New("static analyzer failed")

// Message is one problem reported for a file.
type Message struct {
	RuleID    *string `json:"ruleId"`
	Severity  int     `json:"severity"`
	Message   string  `json:"message"`
	Line      int     `json:"line"`
	Column    *int    `json:"column"`
	EndLine   *int    `json:"endLine"`
	EndColumn *int    `json:"endColumn"`
	NodeType  *string `json:"nodeType"`
	Fatal     bool    `json:"fatal"`
	Source    *string `json:"source"`
}

// FileResult is the ESLint report of one file.
type FileResult struct {
	FilePath     string    `json:"filePath"`
	Messages     []Message `json:"messages"`
	ErrorCount   int       `json:"errorCount"`
	WarningCount int       `json:"warningCount"`
	Source       *string   `json:"source"`
}

// Result is the outcome of an analyzer run. Skipped holds the files of chunks
// that could not be analysed.
type Result struct {
	Files   []FileResult
	Skipped []string
}

// Runner invokes the ESLint binary.
type Runner struct {
	logger             hclog.Logger
	binary             string
	resolvePluginsDir  string
	chunkSize          int
	concurrency        int
	timeout            time.Duration
	additionalArgument []string
}

// NewRunner creates a Runner from the analyzer section of cfg.
func NewRunner(cfg *config.Config, logger hclog.Logger) *Runner {
	r := &Runner{
		logger:      logger.Named("eslint"),
		binary:      config.ESLintPath(cfg),
		chunkSize:   config.DefaultChunkSize,
		concurrency: config.Concurrency(cfg),
		timeout:     config.DefaultLintTimeout,
	}
	if cfg != nil {
		r.resolvePluginsDir = cfg.Analyzer.ResolvePluginsDir
		r.chunkSize = config.SetThen(cfg.Analyzer.ChunkSize, config.DefaultChunkSize)
		r.timeout = config.SetThen(cfg.Analyzer.Timeout, config.DefaultLintTimeout)
		r.additionalArgument = cfg.Analyzer.AdditionalArguments
	}
	return r
}

// BuildArgs returns the command line for one chunk of files. Only the rules
// known to the taxonomy are enabled, all as errors.
func (r *Runner) BuildArgs(files []string) []string {
	args := []string{"--no-eslintrc", "--env", "node,es6", "--plugin", "security"}
	if r.resolvePluginsDir != "" {
		args = append(args, "--resolve-plugins-relative-to", r.resolvePluginsDir)
	}
	for _, rule := range taxonomy.Rules() {
		args = append(args, "--rule", fmt.Sprintf("%s:%d", rule, SeverityError))
	}
	args = append(args, r.additionalArgument...)
	args = append(args, "--format", "json")
	return append(args, files...)
}

// Analyze runs ESLint over files in chunks. A chunk that fails is logged and
// its files are reported as skipped; an error is returned only when every
// chunk failed.
func (r *Runner) Analyze(ctx context.Context, files []string) (*Result, error) {
	result := &Result{Files: []FileResult{}}
	if len(files) == 0 {
		return result, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	chunks := utils.Chunk(files, r.chunkSize)
	outputs := make([][]FileResult, len(chunks))
	failed := make([]bool, len(chunks))

	r.logger.Info("analysis is starting", "files", len(files), "chunks", len(chunks))
	utils.ForEveryWithBoundedGoroutines(r.concurrency, chunks, func(i int, chunk []string) {
		out, err := r.runChunk(ctx, chunk)
		if err != nil {
			r.logger.Warn("analyzer chunk failed, files skipped", "chunk", i, "files", len(chunk), "error", err)
			failed[i] = true
			return
		}
		outputs[i] = out
	})

	failures := 0
	for i, chunk := range chunks {
		if failed[i] {
			failures++
			result.Skipped = append(result.Skipped, chunk...)
			continue
		}
		result.Files = append(result.Files, ErrorResults(outputs[i])...)
	}

	if failures == len(chunks) {
		return nil, fmt.Errorf("%w: all %d chunks failed", ErrAnalyzerFailed, failures)
	}
	r.logger.Info("analysis finished", "files with errors", len(result.Files), "skipped", len(result.Skipped))
	return result, nil
}

func (r *Runner) runChunk(ctx context.Context, chunk []string) ([]FileResult, error) {
	cmd := exec.CommandContext(ctx, r.binary, r.BuildArgs(chunk)...)
	r.logger.Debug("debug info", "cmd", cmd.Args)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = io.MultiWriter(logger.ProcessOutput(r.logger), &stderr)

	err := cmd.Run()
	if err != nil {
		// exit code 1 means lint errors were found, the report is still on stdout
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) || exitErr.ExitCode() != 1 {
			return nil, fmt.Errorf("eslint execution error: %w. Output: %s", err, stderr.String())
		}
	}

	return ParseOutput(stdout.Bytes())
}

// ParseOutput decodes an ESLint JSON report.
func ParseOutput(data []byte) ([]FileResult, error) {
	var results []FileResult
	if err := json.Unmarshal(bytes.TrimSpace(data), &results); err != nil {
		return nil, fmt.Errorf("failed to decode eslint report: %w", err)
	}
	return results, nil
}

// ErrorResults keeps only error-severity messages and drops files left without
// any message.
func ErrorResults(results []FileResult) []FileResult {
	filtered := make([]FileResult, 0, len(results))
	for _, res := range results {
		var messages []Message
		for _, m := range res.Messages {
			if m.Severity == SeverityError {
				messages = append(messages, m)
			}
		}
		if len(messages) == 0 {
			continue
		}
		res.Messages = messages
		res.ErrorCount = len(messages)
		res.WarningCount = 0
		filtered = append(filtered, res)
	}
	return filtered
}
