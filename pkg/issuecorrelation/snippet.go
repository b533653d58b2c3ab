package issuecorrelation

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"
)

// Scheme selects how an extracted span is normalised before hashing.
// Changing the scheme changes every identity, so it is versioned explicitly.
type Scheme int

const (
	// SchemeV1 removes the first whitespace character of the span.
	SchemeV1 Scheme = iota
	// SchemeLegacy removes the first literal "s" of the span, reproducing
	// identities computed by the historical JavaScript scanner.
	SchemeLegacy
)

// ParseScheme converts a configuration value into a Scheme. Unknown and empty
// values select SchemeV1.
func ParseScheme(name string) Scheme {
	if strings.EqualFold(strings.TrimSpace(name), "legacy") {
		return SchemeLegacy
	}
	return SchemeV1
}

// String returns the configuration name of the scheme.
func (s Scheme) String() string {
	if s == SchemeLegacy {
		return "legacy"
	}
	return "v1"
}

// RelativePath replaces the first occurrence of projectRoot in filePath with ".".
func RelativePath(filePath, projectRoot string) string {
	return strings.Replace(filePath, projectRoot, ".", 1)
}

// ExtractSpan returns the source text a diagnostic points at.
//
// A diagnostic that starts and ends on line 1 is taken as a column range of the
// raw source, which covers minified single-line files. Every other diagnostic
// selects lines [line-1, endLine) of the split source, joined without
// separators. Out-of-range bounds are clamped.
func ExtractSpan(source string, lines []string, line, endLine, column int, endColumn *int) string {
	if line == endLine && endLine == 1 {
		return sliceUTF16(source, column, endColumn)
	}

	start := clamp(line-1, 0, len(lines))
	end := clamp(endLine, 0, len(lines))
	if start >= end {
		return ""
	}
	return strings.Join(lines[start:end], "")
}

// NormalizeSpan strips the span according to scheme. Only a single character
// is removed in both schemes; full whitespace stripping would be a new scheme.
func NormalizeSpan(scheme Scheme, span string) string {
	if scheme == SchemeLegacy {
		return strings.Replace(span, "s", "", 1)
	}
	if i := strings.IndexFunc(span, unicode.IsSpace); i >= 0 {
		_, size := utf8.DecodeRuneInString(span[i:])
		return span[:i] + span[i+size:]
	}
	return span
}

// Identify returns the finding identity for a span: the hex MD5 digest of
// revision, relative path and span concatenated. A nil revision contributes
// nothing, so such identities are only stable within one scan session.
func Identify(revision *string, relativePath, span string) string {
	var rev string
	if revision != nil {
		rev = *revision
	}
	sum := md5.Sum([]byte(rev + relativePath + span))
	return hex.EncodeToString(sum[:])
}

// sliceUTF16 slices s by UTF-16 code unit offsets, the unit analyzer columns
// are expressed in. A nil end means the end of s.
func sliceUTF16(s string, start int, end *int) string {
	units := utf16.Encode([]rune(s))
	b := clamp(start, 0, len(units))
	e := len(units)
	if end != nil {
		e = clamp(*end, 0, len(units))
	}
	if b >= e {
		return ""
	}
	return string(utf16.Decode(units[b:e]))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
