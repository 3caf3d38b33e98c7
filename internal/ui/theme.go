package ui

import (
	"strings"

	"github.com/fatih/color"
)

// Theme bundles palette + symbols + box borders.
// All UI helpers pull from `current`.
type Theme struct {
	Title, Muted, Accent, Success, Error   *color.Color
	Bullet                                 string
	CornerTL, CornerTR, CornerBL, CornerBR string
	H, V                                   string
	SymOK, SymFail                         string
}

var current = classic()

func classic() Theme {
	return Theme{
		Title: color.New(color.Bold), Muted: color.New(color.FgHiBlack),
		Accent: color.New(color.FgBlue), Success: color.New(color.FgGreen),
		Error:    color.New(color.FgRed),
		Bullet:   "•",
		CornerTL: "┌", CornerTR: "┐", CornerBL: "└", CornerBR: "┘",
		H: "─", V: "│",
		SymOK: "✔", SymFail: "✖",
	}
}

// SetTheme switches to classic, neon or mono. Unknown names mean classic.
func SetTheme(name string) {
	switch strings.ToLower(name) {
	case "neon":
		current = Theme{
			Title: color.New(color.FgHiMagenta), Muted: color.New(color.FgHiBlack),
			Accent: color.New(color.FgHiCyan), Success: color.New(color.FgGreen),
			Error:    color.New(color.FgRed),
			Bullet:   "◆",
			CornerTL: "╭", CornerTR: "╮", CornerBL: "╰", CornerBR: "╯",
			H: "─", V: "│",
			SymOK: "✔", SymFail: "✖",
		}
	case "mono":
		current = Theme{
			Bullet:   "-",
			CornerTL: "+", CornerTR: "+", CornerBL: "+", CornerBR: "+",
			H: "-", V: "|",
			SymOK: "ok:", SymFail: "error:",
		}
	default:
		current = classic()
	}
}

// Expose what renderers need
func Current() Theme { return current }
