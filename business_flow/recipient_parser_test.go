package businessflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRecipients(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected []string
	}{
		{
			name:     "newline separated",
			raw:      "+15550000001\n+15550000002\n+15550000003",
			expected: []string{"+15550000001", "+15550000002", "+15550000003"},
		},
		{
			name:     "semicolon separated",
			raw:      "+15550000001;+15550000002",
			expected: []string{"+15550000001", "+15550000002"},
		},
		{
			name:     "mixed separators with empty runs",
			raw:      "1;2;;3\n4",
			expected: []string{"1", "2", "3", "4"},
		},
		{
			name:     "carriage returns",
			raw:      "1\r\n2\r\n3",
			expected: []string{"1", "2", "3"},
		},
		{
			name:     "surrounding whitespace trimmed",
			raw:      "  +15550000001  \n\t+15550000002\t",
			expected: []string{"+15550000001", "+15550000002"},
		},
		{
			name:     "whitespace-only entries dropped",
			raw:      "1\n   \n2",
			expected: []string{"1", "2"},
		},
		{
			name:     "duplicates and order preserved",
			raw:      "2\n1\n2",
			expected: []string{"2", "1", "2"},
		},
		{
			name:     "empty input",
			raw:      "",
			expected: []string{},
		},
		{
			name:     "separators only",
			raw:      ";\n;\r\n;",
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseRecipients(tt.raw))
		})
	}
}
