// Package socialimage renders branded Open Graph / Twitter cards for posts.
package socialimage

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Card geometry and palette.
const (
	Width  = 1200
	Height = 630

	margin     = 60
	titleScale = 5
	brandScale = 3
	lineGap    = 12
	brandText  = "Technofatty"
)

var (
	backgroundColor = color.RGBA{15, 23, 42, 255}
	titleColor      = color.RGBA{255, 255, 255, 255}
	brandColor      = color.RGBA{14, 165, 233, 255}
)

var face = basicfont.Face7x13

// Render draws text onto a card and returns PNG bytes. Output depends only on text.
func Render(text string) ([]byte, error) {
	dst := image.NewRGBA(image.Rect(0, 0, Width, Height))
	xdraw.Draw(dst, dst.Bounds(), image.NewUniform(backgroundColor), image.Point{}, xdraw.Src)

	lineHeight := face.Height*titleScale + lineGap
	brandTop := Height - margin - face.Height*brandScale
	maxLines := (brandTop - margin - lineGap) / lineHeight

	y := margin
	for _, line := range wrap(asciiOnly(text), maxChars(titleScale), maxLines) {
		drawLine(dst, line, margin, y, titleScale, titleColor)
		y += lineHeight
	}

	xdraw.Draw(dst, image.Rect(margin, brandTop-20, margin+80, brandTop-14), image.NewUniform(brandColor), image.Point{}, xdraw.Src)
	drawLine(dst, brandText, margin, brandTop, brandScale, brandColor)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("failed to encode card: %w", err)
	}
	return buf.Bytes(), nil
}

// drawLine renders at the bitmap font's native size and scales it up.
func drawLine(dst *image.RGBA, text string, x, y, scale int, c color.Color) {
	if text == "" {
		return
	}
	w := font.MeasureString(face, text).Ceil()
	src := image.NewRGBA(image.Rect(0, 0, w, face.Height))
	d := &font.Drawer{
		Dst:  src,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(0, face.Ascent),
	}
	d.DrawString(text)

	dr := image.Rect(x, y, x+w*scale, y+face.Height*scale)
	xdraw.NearestNeighbor.Scale(dst, dr, src, src.Bounds(), xdraw.Over, nil)
}

func maxChars(scale int) int {
	return (Width - 2*margin) / (face.Advance * scale)
}

func wrap(text string, width, maxLines int) []string {
	var lines []string
	line := ""
	for _, word := range strings.Fields(text) {
		for len(word) > width {
			if line != "" {
				lines = append(lines, line)
				line = ""
			}
			lines = append(lines, word[:width])
			word = word[width:]
		}
		switch {
		case line == "":
			line = word
		case len(line)+1+len(word) <= width:
			line += " " + word
		default:
			lines = append(lines, line)
			line = word
		}
	}
	if line != "" {
		lines = append(lines, line)
	}
	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[:maxLines]
		last := lines[maxLines-1]
		if len(last) > width-3 {
			last = last[:width-3]
		}
		lines[maxLines-1] = last + "..."
	}
	return lines
}

// asciiOnly maps characters outside the bitmap font to '?'.
func asciiOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\t' || r == '\n' {
			return ' '
		}
		if r < 0x20 || r > 0x7e {
			return '?'
		}
		return r
	}, s)
}

// Filename returns "{slug}-{md5(text)[:8]}{suffix}.png".
func Filename(slug, text, suffix string) string {
	base := strings.ReplaceAll(slug, "/", "-")
	if base == "" {
		base = "post"
	}
	sum := md5.Sum([]byte(text))
	return base + "-" + hex.EncodeToString(sum[:])[:8] + suffix + ".png"
}
