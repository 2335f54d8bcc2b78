package report

// Measurer reports the rendered width of text in millimetres and breaks text
// into lines that fit a width.
type Measurer interface {
	TextWidth(text string, font Font) float64
	Split(text string, font Font, width float64) []string
}

// truncate caps s at limit runes, replacing the tail with "..." when cut.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}
