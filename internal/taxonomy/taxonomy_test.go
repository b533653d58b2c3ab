package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		ruleID string
		want   string
	}{
		{"security/detect-unsafe-regex", "DDOS"},
		{"security/detect-non-literal-regexp", "DDOS"},
		{"security/detect-buffer-noassert", "BUFFER_OVERFLOWS"},
		{"security/detect-disable-mustache-escape", "XSS"},
		{"security/detect-eval-with-expression", "CODE_EXECUTION"},
		{"security/detect-no-csrf-before-method-override", "CSRF"},
		{"security/detect-non-literal-fs-filename", "UNAUTHORIZED_ACCESS_FILE_SYSTEM"},
		{"security/detect-non-literal-require", "INSECURE_REQUIRE"},
		{"security/detect-object-injection", "INSECURE_OBJECT"},
		{"security/detect-possible-timing-attacks", "TIME_ATTACK"},
		{"security/detect-pseudoRandomBytes", "INSECURE_CRYPTO"},
		// unmapped ids pass through
		{"no-eval", "no-eval"},
		{"security/detect-child-process", "security/detect-child-process"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.ruleID, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.ruleID))
		})
	}
}

func TestClassifyEveryRule(t *testing.T) {
	for _, id := range Rules() {
		label, ok := Lookup(id)
		assert.True(t, ok, id)
		assert.Equal(t, string(label), Classify(id))
		assert.True(t, IsLabel(Classify(id)))
	}
}

func TestRulesAndLabels(t *testing.T) {
	assert.Len(t, Rules(), 11)
	assert.Len(t, Labels(), 10)
	assert.True(t, IsLabel("XSS"))
	assert.False(t, IsLabel("security/detect-unsafe-regex"))
}
