package isoflow

import (
	"image"
	"image/draw"

	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

type TextVertex struct {
	Pos   [2]float32
	UV    [2]float32
	Color [4]float32
}

type TextItem struct {
	Text     string
	Position [2]float32 // pixels, top-left origin
	Scale    float32
	Color    [4]float32
}

type GlyphInfo struct {
	UVMin [2]float32
	UVMax [2]float32
	Size  [2]float32
	Adv   float32
}

// TextRenderer rasterizes the built-in monospace bitmap face into a
// fixed-grid alpha atlas. No font assets are loaded from disk.
type TextRenderer struct {
	AtlasImage *image.Alpha
	Glyphs     map[rune]GlyphInfo
	lineHeight float32
	ascent     float32
}

const (
	atlasCols = 16
	atlasRows = 6
)

func NewTextRenderer() *TextRenderer {
	face := basicfont.Face7x13
	cellW := face.Advance
	cellH := face.Height + face.Descent

	atlasW := atlasCols * cellW
	atlasH := atlasRows * cellH
	atlas := image.NewAlpha(image.Rect(0, 0, atlasW, atlasH))
	glyphs := make(map[rune]GlyphInfo)

	for r := rune(32); r < 127; r++ {
		i := int(r - 32)
		cx := (i % atlasCols) * cellW
		cy := (i / atlasCols) * cellH

		dot := fixed.P(cx, cy+face.Ascent)
		dr, mask, maskp, _, ok := face.Glyph(dot, r)
		if !ok {
			continue
		}
		draw.DrawMask(atlas, dr, image.Opaque, image.Point{}, mask, maskp, draw.Src)

		glyphs[r] = GlyphInfo{
			UVMin: [2]float32{float32(cx) / float32(atlasW), float32(cy) / float32(atlasH)},
			UVMax: [2]float32{float32(cx+cellW) / float32(atlasW), float32(cy+cellH) / float32(atlasH)},
			Size:  [2]float32{float32(cellW), float32(cellH)},
			Adv:   float32(face.Advance),
		}
	}

	metrics := face.Metrics()
	return &TextRenderer{
		AtlasImage: atlas,
		Glyphs:     glyphs,
		lineHeight: float32(metrics.Height.Ceil()) + float32(face.Descent),
		ascent:     float32(metrics.Ascent.Ceil()),
	}
}

// BuildVertices turns queued items into NDC triangles against the
// current framebuffer size.
func (tr *TextRenderer) BuildVertices(items []TextItem, screenW, screenH int) []TextVertex {
	vertices := make([]TextVertex, 0, len(items)*6)

	sw := float32(screenW)
	sh := float32(screenH)

	for _, item := range items {
		startX := item.Position[0]
		posX := startX
		posY := item.Position[1]

		for _, r := range item.Text {
			if r == '\n' {
				posX = startX
				posY += tr.lineHeight * item.Scale
				continue
			}

			g, ok := tr.Glyphs[r]
			if !ok {
				continue
			}

			x0 := posX/sw*2.0 - 1.0
			y0 := 1.0 - posY/sh*2.0
			x1 := (posX+g.Size[0]*item.Scale)/sw*2.0 - 1.0
			y1 := 1.0 - (posY+g.Size[1]*item.Scale)/sh*2.0

			vertices = append(vertices,
				TextVertex{Pos: [2]float32{x0, y0}, UV: [2]float32{g.UVMin[0], g.UVMin[1]}, Color: item.Color},
				TextVertex{Pos: [2]float32{x1, y0}, UV: [2]float32{g.UVMax[0], g.UVMin[1]}, Color: item.Color},
				TextVertex{Pos: [2]float32{x0, y1}, UV: [2]float32{g.UVMin[0], g.UVMax[1]}, Color: item.Color},
				TextVertex{Pos: [2]float32{x1, y0}, UV: [2]float32{g.UVMax[0], g.UVMin[1]}, Color: item.Color},
				TextVertex{Pos: [2]float32{x1, y1}, UV: [2]float32{g.UVMax[0], g.UVMax[1]}, Color: item.Color},
				TextVertex{Pos: [2]float32{x0, y1}, UV: [2]float32{g.UVMin[0], g.UVMax[1]}, Color: item.Color},
			)

			posX += g.Adv * item.Scale
		}
	}

	return vertices
}

// MeasureText returns the pixel width and height of a string at scale.
func (tr *TextRenderer) MeasureText(text string, scale float32) (float32, float32) {
	maxW := float32(0)
	currentW := float32(0)
	lines := 1

	for _, r := range text {
		if r == '\n' {
			if currentW > maxW {
				maxW = currentW
			}
			currentW = 0
			lines++
			continue
		}
		g, ok := tr.Glyphs[r]
		if !ok {
			continue
		}
		currentW += g.Adv * scale
	}
	if currentW > maxW {
		maxW = currentW
	}
	return maxW, tr.lineHeight * scale * float32(lines)
}
