package versions

import (
	"math"
	"strings"
)

// Diff compares two texts line by line at equal positions. It is not an LCS
// diff: one inserted line near the top shifts every later comparison and is
// counted as a run of modifications.
func Diff(previous, current string) ChangesSummary {
	oldLines := splitLines(previous)
	newLines := splitLines(current)

	n := len(oldLines)
	if len(newLines) > n {
		n = len(newLines)
	}

	var s ChangesSummary
	for i := 0; i < n; i++ {
		o := lineAt(oldLines, i)
		c := lineAt(newLines, i)
		switch {
		case o != "" && c == "":
			s.Removed++
		case o == "" && c != "":
			s.Added++
		case o != "" && c != "" && o != c:
			s.Modified++
		}
	}
	s.TotalChanges = s.Added + s.Removed + s.Modified
	if n > 0 {
		s.ChangePercentage = int(math.Round(float64(s.TotalChanges) / float64(n) * 100))
	}
	return s
}

// splitLines treats the empty text as having no lines.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func lineAt(lines []string, i int) string {
	if i < len(lines) {
		return lines[i]
	}
	return ""
}
