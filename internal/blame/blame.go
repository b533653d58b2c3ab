// Package blame slices and parses per-line version-control attribution text.
package blame

import (
	"regexp"
	"strconv"
	"strings"
)

// Record is the attribution of a single source line.
type Record struct {
	Commit     string `json:"commit"`
	Author     string `json:"author"`
	Date       string `json:"date"`
	LineNumber int    `json:"line_number"`
	Raw        string `json:"raw"`
}

// lineRe matches the default `git blame` output:
// <hash> [<file>] (<author> <yyyy-mm-dd hh:mm:ss zone> <line>) <text>
var lineRe = regexp.MustCompile(`^(\^?[0-9a-fA-F]+)\s+(?:\S+\s+)?\((.*?)\s+(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2} [+-]\d{4})\s+(\d+)\)`)

// Parse converts one raw attribution line into a Record. Lines that do not
// follow the blame format keep only the raw text.
func Parse(line string) Record {
	rec := Record{Raw: line}
	m := lineRe.FindStringSubmatch(line)
	if m == nil {
		return rec
	}
	rec.Commit = strings.TrimPrefix(m[1], "^")
	rec.Author = strings.TrimSpace(m[2])
	rec.Date = m[3]
	if n, err := strconv.Atoi(m[4]); err == nil {
		rec.LineNumber = n
	}
	return rec
}

// Source is the attribution text of one file split into lines.
// A nil *Source stands for a file without attribution.
type Source struct {
	lines []string
}

// NewSource splits raw once. It returns nil when raw is nil.
func NewSource(raw *string) *Source {
	if raw == nil {
		return nil
	}
	return &Source{lines: strings.Split(*raw, "\n")}
}

// Len returns the number of attribution lines.
func (s *Source) Len() int {
	if s == nil {
		return 0
	}
	return len(s.lines)
}

// Attribute returns the records of the zero-based half-open range [start, end).
// It returns nil for a nil Source and a non-nil, possibly empty, slice
// otherwise. Bounds are clamped, so inverted or oversized ranges never fail.
func (s *Source) Attribute(start, end int) []Record {
	if s == nil {
		return nil
	}
	if start < 0 {
		start = 0
	}
	if end > len(s.lines) {
		end = len(s.lines)
	}
	records := make([]Record, 0, max(end-start, 0))
	for i := start; i < end; i++ {
		records = append(records, Parse(s.lines[i]))
	}
	return records
}

// Find returns the record of the first line whose text contains needle, or nil.
func (s *Source) Find(needle string) *Record {
	if s == nil || needle == "" {
		return nil
	}
	for _, line := range s.lines {
		if strings.Contains(line, needle) {
			rec := Parse(line)
			return &rec
		}
	}
	return nil
}

// Line returns the record of the zero-based line index, or nil when out of range.
func (s *Source) Line(index int) *Record {
	if s == nil || index < 0 || index >= len(s.lines) {
		return nil
	}
	rec := Parse(s.lines[index])
	return &rec
}

// Attribute splits raw and returns the records of [start, end).
// A nil raw yields nil, distinct from an empty slice.
func Attribute(raw *string, start, end int) []Record {
	return NewSource(raw).Attribute(start, end)
}

// FindDeclaration returns the record of the first line of raw containing
// needle. It returns nil when raw is nil or nothing matches.
func FindDeclaration(raw *string, needle string) *Record {
	return NewSource(raw).Find(needle)
}
