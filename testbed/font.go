// Bitmap font loading mirrors loaders.BitmapFontLoader.importFNTFile
// (assets/loaders/bitmap_font.go): parse a .fnt descriptor with
// fzipp/bmfont and flatten its glyph table into the shape the UI phase's
// text feature needs to emit quads from.
package testbed

import (
	"fmt"

	"github.com/fzipp/bmfont"
)

// Glyph is one flattened bmfont character cell, in atlas pixel space.
type Glyph struct {
	Codepoint             rune
	X, Y, Width, Height   uint16
	XOffset, YOffset      int16
	XAdvance              int16
	Page                  uint8
}

// Font is a loaded bitmap font ready for the UI text feature to lay runes
// out with.
type Font struct {
	Face       string
	LineHeight int
	Baseline   int
	AtlasPages []string
	Glyphs     map[rune]Glyph
	Kerning    map[[2]rune]int16
}

func LoadFont(path string) (*Font, error) {
	descriptor, err := bmfont.Load(path)
	if err != nil {
		return nil, fmt.Errorf("testbed: load font %s: %w", path, err)
	}

	font := &Font{
		Face:       descriptor.Info.Face,
		LineHeight: descriptor.Common.LineHeight,
		Baseline:   descriptor.Common.Base,
		Glyphs:     make(map[rune]Glyph, len(descriptor.Chars)),
		Kerning:    make(map[[2]rune]int16, len(descriptor.Kerning)),
	}
	for _, p := range descriptor.Pages {
		font.AtlasPages = append(font.AtlasPages, p.File)
	}
	for _, c := range descriptor.Chars {
		font.Glyphs[rune(c.ID)] = Glyph{
			Codepoint: rune(c.ID),
			X:         uint16(c.X), Y: uint16(c.Y),
			Width: uint16(c.Width), Height: uint16(c.Height),
			XOffset: int16(c.XOffset), YOffset: int16(c.YOffset),
			XAdvance: int16(c.XAdvance), Page: uint8(c.Page),
		}
	}
	for pair, k := range descriptor.Kerning {
		font.Kerning[[2]rune{rune(pair.First), rune(pair.Second)}] = int16(k.Amount)
	}
	return font, nil
}

// Layout returns the glyph advance sequence for text, in text order,
// skipping runes the font has no glyph for: the minimal shape the UI text
// feature's Prepare stage needs to build per-glyph submit nodes.
func (f *Font) Layout(text string) []Glyph {
	out := make([]Glyph, 0, len(text))
	for _, r := range text {
		if g, ok := f.Glyphs[r]; ok {
			out = append(out, g)
		}
	}
	return out
}
