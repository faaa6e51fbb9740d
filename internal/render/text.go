package render

import "strings"

// TextMeasurer measures text runs. Every Renderer is one.
type TextMeasurer interface {
	MeasureText(text string, style TextStyle) (width, height float64)
}

// WrapText breaks text into lines no wider than maxWidth, splitting on
// whitespace. A single word wider than maxWidth gets a line of its own.
func WrapText(m TextMeasurer, text string, style TextStyle, maxWidth float64) []string {
	words := strings.Fields(text)
	var lines []string
	var currentLine string

	for _, word := range words {
		candidate := word
		if currentLine != "" {
			candidate = currentLine + " " + word
		}

		if w, _ := m.MeasureText(candidate, style); w > maxWidth && currentLine != "" {
			lines = append(lines, currentLine)
			currentLine = word
		} else {
			currentLine = candidate
		}
	}

	if currentLine != "" {
		lines = append(lines, currentLine)
	}

	return lines
}
