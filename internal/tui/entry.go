package tui

import (
	"strings"

	"github.com/Makepad-fr/tada/internal/model"
)

// Entry is a parsed add line.
type Entry struct {
	Text     string
	Category string
	Deadline *model.Date
}

// ParseEntry reads "text #category @YYYY-MM-DD". The tags may appear
// anywhere; the last of each kind wins. Everything else is the text.
func ParseEntry(line string) (Entry, error) {
	var e Entry
	var words []string
	for _, f := range strings.Fields(line) {
		switch {
		case len(f) > 1 && f[0] == '#':
			e.Category = f[1:]
		case len(f) > 1 && f[0] == '@':
			d, err := model.ParseDate(f[1:])
			if err != nil {
				return Entry{}, err
			}
			e.Deadline = d.Ptr()
		default:
			words = append(words, f)
		}
	}
	e.Text = strings.Join(words, " ")
	return e, nil
}
