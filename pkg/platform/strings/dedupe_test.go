package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{name: "nil", in: nil, want: nil},
		{name: "blanks dropped", in: []string{"", "  ", "a"}, want: []string{"a"}},
		{name: "trimmed before comparing", in: []string{" a", "a ", "b"}, want: []string{"a", "b"}},
		{name: "case sensitive", in: []string{"A", "a"}, want: []string{"A", "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DedupeAndTrim(tt.in))
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Equal(t,
		[]string{"a:9092", "b:9092", "c:9092"},
		SplitList([]string{"a:9092, b:9092", "a:9092", "c:9092,"}, ","),
	)
	assert.Empty(t, SplitList([]string{" , "}, ","))
}
