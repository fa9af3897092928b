package vision

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected *Detection
	}{
		{
			name:     "class and score",
			line:     "cup | 0.91",
			expected: &Detection{Class: "cup", Score: 0.91},
		},
		{
			name:     "class is lowercased and trimmed",
			line:     "  Wine Glass |0.5 ",
			expected: &Detection{Class: "wine glass", Score: 0.5},
		},
		{
			name:     "bullet prefix",
			line:     "- book | 0.8",
			expected: &Detection{Class: "book", Score: 0.8},
		},
		{
			name:     "unparsable score defaults to 1",
			line:     "bowl | high",
			expected: &Detection{Class: "bowl", Score: 1},
		},
		{
			name:     "out of range score defaults to 1",
			line:     "bowl | 7",
			expected: &Detection{Class: "bowl", Score: 1},
		},
		{
			// Lines without a pipe separator are indistinguishable from preamble.
			name:     "class only without pipe",
			line:     "chair",
			expected: nil,
		},
		{
			name:     "header row",
			line:     "class | confidence",
			expected: nil,
		},
		{
			name:     "empty line",
			line:     "",
			expected: nil,
		},
		{
			name:     "header line Here",
			line:     "Here are the objects:",
			expected: nil,
		},
		{
			name:     "header line Based on",
			line:     "Based on the image | I see",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLine(tt.line))
		})
	}
}

func TestParseResponse(t *testing.T) {
	raw := "Here is what I found:\ncup | 0.9\ncup | 0.8\n\nbook | 0.7\nnot a detection\n"

	got := ParseResponse(raw)
	require.Len(t, got, 3)
	assert.Equal(t, "cup", got[0].Class)
	assert.Equal(t, "cup", got[1].Class)
	assert.Equal(t, "book", got[2].Class)
}

func TestParseResponse_Empty(t *testing.T) {
	got := ParseResponse("")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestUnavailable(t *testing.T) {
	_, err := Unavailable{}.Detect(context.Background(), strings.NewReader("x"), "image/jpeg")
	assert.ErrorIs(t, err, ErrUnavailable)
}
