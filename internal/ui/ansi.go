package ui

import (
	"fmt"
	"io"
	"strings"

	xansi "github.com/charmbracelet/x/ansi"
)

func OK(w io.Writer, msg string) {
	fmt.Fprintln(w, current.Success.Render(current.SymDone+" "+msg))
}

func Fail(w io.Writer, msg string) {
	fmt.Fprintln(w, current.Error.Render(current.SymCross+" "+msg))
}

// Width is the printed width of s, ignoring escape sequences.
func Width(s string) int { return xansi.StringWidth(s) }

// Fit cuts s to w cells with an ellipsis, or pads it with spaces to exactly w.
func Fit(s string, w int) string {
	if w <= 0 {
		return ""
	}
	n := xansi.StringWidth(s)
	switch {
	case n > w && w == 1:
		return xansi.Cut(s, 0, 1)
	case n > w:
		return xansi.Cut(s, 0, w-1) + "…"
	case n < w:
		return s + strings.Repeat(" ", w-n)
	}
	return s
}
