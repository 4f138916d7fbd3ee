// Package render lays a report.Document out on pages and writes it as PDF
// or as a Markdown summary.
package render

import (
	"strings"

	"propertyreport/internal/report"
)

// ptToMM converts font points to millimetres.
const ptToMM = 25.4 / 72

// Font is a core PDF font face.
type Font struct {
	Family string
	Style  string
	Size   float64
}

// LineHeight is the leading of one text line in mm.
func (f Font) LineHeight() float64 {
	return f.Size * ptToMM * 1.4
}

// Measurer reports the printed width of a string in mm.
type Measurer interface {
	TextWidth(s string, f Font) float64
}

var (
	fontBody      = Font{Family: "Helvetica", Size: 10.5}
	fontBold      = Font{Family: "Helvetica", Style: "B", Size: 10.5}
	fontHighlight = Font{Family: "Helvetica", Style: "B", Size: 13}
	fontCaption   = Font{Family: "Helvetica", Style: "I", Size: 9.5}
	fontMuted     = Font{Family: "Helvetica", Style: "I", Size: 9.5}
	fontTableHead = Font{Family: "Helvetica", Style: "B", Size: 12}
	fontTableBody = Font{Family: "Helvetica", Size: 11}
	fontH1        = Font{Family: "Helvetica", Style: "B", Size: 18}
	fontH2        = Font{Family: "Helvetica", Style: "B", Size: 14}
	fontH3        = Font{Family: "Helvetica", Style: "B", Size: 12}
)

func paragraphFont(s report.TextStyle) Font {
	switch s {
	case report.StyleHighlight:
		return fontHighlight
	case report.StyleCaption:
		return fontCaption
	case report.StyleMuted:
		return fontMuted
	default:
		return fontBody
	}
}

func headingFont(level int) Font {
	switch level {
	case 1:
		return fontH1
	case 2:
		return fontH2
	default:
		return fontH3
	}
}

// wrap breaks text into lines no wider than width. Explicit newlines are
// kept; words wider than a line are broken by character.
func wrap(m Measurer, text string, f Font, width float64) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := ""
		for _, word := range words {
			candidate := word
			if line != "" {
				candidate = line + " " + word
			}
			if m.TextWidth(candidate, f) <= width {
				line = candidate
				continue
			}
			if line != "" {
				lines = append(lines, line)
				line = ""
			}
			for m.TextWidth(word, f) > width {
				cut := fitPrefix(m, word, f, width)
				lines = append(lines, word[:cut])
				word = word[cut:]
			}
			line = word
		}
		lines = append(lines, line)
	}
	// trailing blank lines add height without content
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// fitPrefix returns the byte length of the longest rune-aligned prefix of
// word that fits width, at least one rune.
func fitPrefix(m Measurer, word string, f Font, width float64) int {
	cut := 0
	for i := range word {
		if i > 0 && m.TextWidth(word[:i], f) > width {
			break
		}
		cut = i
	}
	if cut == 0 {
		for i := range word {
			if i > 0 {
				return i
			}
		}
		return len(word)
	}
	return cut
}
