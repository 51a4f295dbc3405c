package versions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiff(t *testing.T) {
	cases := []struct {
		name     string
		previous string
		current  string
		want     ChangesSummary
	}{
		{
			name:     "modified and appended",
			previous: "a\nb\nc",
			current:  "a\nX\nc\nd",
			want:     ChangesSummary{Added: 1, Modified: 1, TotalChanges: 2, ChangePercentage: 50},
		},
		{
			name:    "first version counts every line as added",
			current: "hello\nworld",
			want:    ChangesSummary{Added: 2, TotalChanges: 2, ChangePercentage: 100},
		},
		{
			name: "both empty",
			want: ChangesSummary{},
		},
		{
			name:     "identical",
			previous: "same\ntext",
			current:  "same\ntext",
			want:     ChangesSummary{},
		},
		{
			name:     "truncated",
			previous: "one\ntwo\nthree",
			current:  "one",
			want:     ChangesSummary{Removed: 2, TotalChanges: 2, ChangePercentage: 67},
		},
		{
			name:     "leading insertion shifts every later line",
			previous: "b\nc",
			current:  "a\nb\nc",
			want:     ChangesSummary{Added: 1, Modified: 2, TotalChanges: 3, ChangePercentage: 100},
		},
		{
			name:     "blank line replacing text is a removal",
			previous: "x\ny",
			current:  "\ny",
			want:     ChangesSummary{Removed: 1, TotalChanges: 1, ChangePercentage: 50},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Diff(tc.previous, tc.current))
		})
	}
}
