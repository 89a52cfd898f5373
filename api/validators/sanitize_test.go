package validators

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeString(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{name: "trims", input: "  BAYAN10 ", maxLen: 40, want: "BAYAN10"},
		{name: "strips angle brackets", input: "<script>x</script>", maxLen: 0, want: "scriptx/script"},
		{name: "drops control characters", input: "ab\x00c\x1bd", maxLen: 0, want: "abcd"},
		{name: "keeps newlines inside notes", input: "ligne 1\nligne 2", maxLen: 0, want: "ligne 1\nligne 2"},
		{name: "caps by runes", input: "éééééé", maxLen: 4, want: "éééé"},
		{name: "arabic text is not split", input: "بيان كوسمتيك", maxLen: 4, want: "بيان"},
		{name: "no limit", input: "crème", maxLen: 0, want: "crème"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := SanitizeString(tc.input, tc.maxLen)
			assert.Equal(t, tc.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestSanitizeStringNeverSplitsMultibyte(t *testing.T) {
	input := strings.Repeat("é", 10)
	for maxLen := 1; maxLen <= 12; maxLen++ {
		got := SanitizeString(input, maxLen)
		require.True(t, utf8.ValidString(got), "maxLen %d produced invalid utf-8", maxLen)
		assert.Equal(t, min(maxLen, 10), utf8.RuneCountInString(got))
	}
}

func TestSanitizeOptional(t *testing.T) {
	assert.Nil(t, SanitizeOptional(nil, 10))

	in := " <note> "
	out := SanitizeOptional(&in, 10)
	require.NotNil(t, out)
	assert.Equal(t, "note", *out)
}
