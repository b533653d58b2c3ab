// Package syntax builds best-effort syntax trees of JavaScript sources.
package syntax

import (
	"context"
	"errors"
	"fmt"
	"time"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

// ErrUnrecoverable is returned when no usable tree could be built.
var ErrUnrecoverable = errors.New("unrecoverable syntax error")

// Position is a 1-based line and 0-based column, matching analyzer locations.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Node is one named node of the tree.
type Node struct {
	Type     string   `json:"type"`
	Start    Position `json:"start"`
	End      Position `json:"end"`
	Children []*Node  `json:"children"`
}

// SyntaxError locates a node the parser had to skip or invent.
type SyntaxError struct {
	Kind  string   `json:"kind"`
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Tree is the serialisable syntax tree of one file.
type Tree struct {
	Root      *Node         `json:"root"`
	Errors    []SyntaxError `json:"errors"`
	Truncated bool          `json:"truncated"`
}

// Parser parses a full source file into a Tree.
type Parser interface {
	Parse(ctx context.Context, src []byte) (*Tree, error)
}

// TreeSitterParser parses JavaScript with tree-sitter, which recovers from
// syntax errors by wrapping unparsable regions in ERROR nodes.
type TreeSitterParser struct {
	maxDepth int
	timeout  time.Duration
}

// NewTreeSitterParser returns a parser that truncates trees deeper than
// maxDepth and gives up after timeout per file. Zero values disable the limits.
func NewTreeSitterParser(maxDepth int, timeout time.Duration) *TreeSitterParser {
	return &TreeSitterParser{maxDepth: maxDepth, timeout: timeout}
}

// Parse builds the tree of src. It fails only when parsing was cancelled or
// when nothing at the top level could be recovered.
func (p *TreeSitterParser) Parse(ctx context.Context, src []byte) (*Tree, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(javascript.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnrecoverable, err)
	}
	if tree == nil {
		return nil, ErrUnrecoverable
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, ErrUnrecoverable
	}
	if isError(root) || (root.HasError() && !hasRecoveredChild(root)) {
		return nil, fmt.Errorf("%w: no statement could be recovered", ErrUnrecoverable)
	}

	b := &builder{maxDepth: p.maxDepth}
	out := &Tree{
		Root:   b.convert(root, 0),
		Errors: b.errors,
	}
	out.Truncated = b.truncated
	return out, nil
}

// hasRecoveredChild reports whether at least one top-level named node parsed
// without being an error node.
func hasRecoveredChild(root *sitter.Node) bool {
	count := int(root.NamedChildCount())
	if count == 0 {
		return false
	}
	for i := 0; i < count; i++ {
		child := root.NamedChild(i)
		if child != nil && !isError(child) {
			return true
		}
	}
	return false
}

type builder struct {
	maxDepth  int
	truncated bool
	errors    []SyntaxError
}

func (b *builder) convert(n *sitter.Node, depth int) *Node {
	node := &Node{
		Type:     n.Type(),
		Start:    position(n.StartPoint()),
		End:      position(n.EndPoint()),
		Children: []*Node{},
	}
	if isError(n) || n.IsMissing() {
		kind := "error"
		if n.IsMissing() {
			kind = "missing"
		}
		b.errors = append(b.errors, SyntaxError{Kind: kind, Start: node.Start, End: node.End})
	}

	if b.maxDepth > 0 && depth >= b.maxDepth {
		if n.NamedChildCount() > 0 {
			b.truncated = true
		}
		return node
	}

	// missing nodes are unnamed, walk every child so they are reported
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		if !child.IsNamed() {
			if child.IsMissing() {
				b.errors = append(b.errors, SyntaxError{Kind: "missing", Start: position(child.StartPoint()), End: position(child.EndPoint())})
			}
			continue
		}
		node.Children = append(node.Children, b.convert(child, depth+1))
	}
	return node
}

func isError(n *sitter.Node) bool {
	return n.Type() == "ERROR"
}

func position(p sitter.Point) Position {
	return Position{Line: int(p.Row) + 1, Column: int(p.Column)}
}
