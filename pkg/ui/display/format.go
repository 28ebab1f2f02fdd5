package display

import (
	"strconv"
	"unicode/utf8"
)

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

// LabelWidth is the widest row label of the summary, for column alignment.
func (s Summary) LabelWidth() int {
	width := 0
	for _, section := range s.Sections {
		for _, row := range section.Rows {
			if n := utf8.RuneCountInString(row.Label); n > width {
				width = n
			}
		}
	}
	return width
}
