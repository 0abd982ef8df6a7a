package metrics_test

import (
	"testing"

	"github.com/petasbytes/course-agent/internal/metrics"
)

func TestCountQueryFeatures_Table(t *testing.T) {
	cases := []struct {
		name string
		in   string
		exp  metrics.QueryFeatures
	}{
		{
			name: "Empty",
			in:   "",
			exp:  metrics.QueryFeatures{},
		},
		{
			name: "Question",
			in:   "What is MCP?",
			exp:  metrics.QueryFeatures{Bytes: 12, Runes: 12, Words: 3, Lines: 1, Terms: 3, Questions: 1},
		},
		{
			name: "RepeatedTermsCountOnce",
			in:   "RAG rag, Rag!",
			exp:  metrics.QueryFeatures{Bytes: 13, Runes: 13, Words: 3, Lines: 1, Terms: 1},
		},
		{
			name: "Multibyte",
			in:   "héllo 世界", // bytes=13, runes=8
			exp:  metrics.QueryFeatures{Bytes: 13, Runes: 8, Words: 2, Lines: 1, Terms: 2},
		},
		{
			name: "Multiline_Trailing",
			in:   "a\nb\n",
			exp:  metrics.QueryFeatures{Bytes: 4, Runes: 4, Words: 2, Lines: 3, Terms: 2},
		},
		{
			name: "LessonNumber",
			in:   "lesson 3 of course 3??",
			exp:  metrics.QueryFeatures{Bytes: 22, Runes: 22, Words: 5, Lines: 1, Terms: 4, Questions: 2},
		},
		{
			name: "OnlyWhitespace",
			in:   " \t\n",
			exp:  metrics.QueryFeatures{Bytes: 3, Runes: 3, Words: 0, Lines: 2, Terms: 0},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := metrics.CountQueryFeatures(tc.in)
			if got != tc.exp {
				t.Fatalf("CountQueryFeatures(%q) = %+v, want %+v", tc.in, got, tc.exp)
			}
		})
	}
}
