// Package taxonomy maps static-analysis rule identifiers onto vulnerability classes.
package taxonomy

import "sort"

// Label is a vulnerability class reported upstream.
type Label string

// Vulnerability classes known to the report consumer.
const (
	DDOS                         Label = "DDOS"
	BufferOverflows              Label = "BUFFER_OVERFLOWS"
	XSS                          Label = "XSS"
	CodeExecution                Label = "CODE_EXECUTION"
	CSRF                         Label = "CSRF"
	UnauthorizedAccessFileSystem Label = "UNAUTHORIZED_ACCESS_FILE_SYSTEM"
	InsecureRequire              Label = "INSECURE_REQUIRE"
	InsecureObject               Label = "INSECURE_OBJECT"
	TimeAttack                   Label = "TIME_ATTACK"
	InsecureCrypto               Label = "INSECURE_CRYPTO"
)

// rules is read-only after package initialisation.
var rules = map[string]Label{
	"security/detect-unsafe-regex":                   DDOS,
	"security/detect-buffer-noassert":                BufferOverflows,
	"security/detect-disable-mustache-escape":        XSS,
	"security/detect-eval-with-expression":           CodeExecution,
	"security/detect-no-csrf-before-method-override": CSRF,
	"security/detect-non-literal-fs-filename":        UnauthorizedAccessFileSystem,
	"security/detect-non-literal-regexp":             DDOS,
	"security/detect-non-literal-require":            InsecureRequire,
	"security/detect-object-injection":               InsecureObject,
	"security/detect-possible-timing-attacks":        TimeAttack,
	"security/detect-pseudoRandomBytes":              InsecureCrypto,
}

// Classify returns the vulnerability class for ruleID, or ruleID itself when
// the rule is not part of the taxonomy.
func Classify(ruleID string) string {
	if label, ok := rules[ruleID]; ok {
		return string(label)
	}
	return ruleID
}

// Lookup reports the label for ruleID and whether the rule is mapped.
func Lookup(ruleID string) (Label, bool) {
	label, ok := rules[ruleID]
	return label, ok
}

// Rules returns the mapped rule identifiers in lexical order.
func Rules() []string {
	ids := make([]string, 0, len(rules))
	for id := range rules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Labels returns the distinct vulnerability classes in lexical order.
func Labels() []Label {
	seen := make(map[Label]struct{}, len(rules))
	labels := make([]Label, 0, len(rules))
	for _, label := range rules {
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })
	return labels
}

// IsLabel reports whether value is one of the vulnerability classes.
func IsLabel(value string) bool {
	for _, label := range rules {
		if string(label) == value {
			return true
		}
	}
	return false
}
