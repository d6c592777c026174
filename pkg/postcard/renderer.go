package postcard

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"
	"sync"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Renderer draws a static-layout invitation card from the prompt text using
// only local primitives. No network access.
type Renderer struct {
	now func() time.Time

	once    sync.Once
	title   font.Face
	body    font.Face
	faceErr error
}

// NewRenderer creates a Renderer using the bundled Go fonts (which cover
// Cyrillic).
func NewRenderer() *Renderer {
	return &Renderer{now: time.Now}
}

var (
	bgColor     = color.RGBA{R: 0x2b, G: 0x1d, B: 0x0e, A: 0xff}
	panelColor  = color.RGBA{R: 0x43, G: 0x2d, B: 0x16, A: 0xff}
	borderColor = color.RGBA{R: 0xd9, G: 0xa4, B: 0x41, A: 0xff}
	textColor   = color.RGBA{R: 0xf3, G: 0xe5, B: 0xc8, A: 0xff}
)

// Render produces a PNG with title, date, the wrapped prompt text and a
// decorative panel. It fails only if the bundled fonts cannot be parsed or
// the image cannot be encoded.
func (r *Renderer) Render(req Request) ([]byte, error) {
	if err := r.loadFaces(); err != nil {
		return nil, err
	}

	width, height := req.Width, req.Height
	if width <= 0 {
		width = 1024
	}
	if height <= 0 {
		height = 1024
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(bgColor), image.Point{}, draw.Src)

	// Decorative panel with a border.
	const inset = 48
	panel := image.Rect(inset, inset, width-inset, height-inset)
	draw.Draw(img, panel, image.NewUniform(borderColor), image.Point{}, draw.Src)
	draw.Draw(img, panel.Inset(4), image.NewUniform(panelColor), image.Point{}, draw.Src)

	margin := inset + 40
	y := inset + 110

	drawLine(img, r.title, "Пивная среда", margin, y)
	y += 64

	drawLine(img, r.body, r.now().Format("02.01.2006"), margin, y)
	y += 56

	maxWidth := fixed.I(width - 2*margin)
	for _, line := range wrapText(r.body, req.Prompt, maxWidth) {
		if y > height-inset-30 {
			break
		}
		drawLine(img, r.body, line, margin, y)
		y += 34
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode rendered postcard: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) loadFaces() error {
	r.once.Do(func() {
		titleFont, err := opentype.Parse(gobold.TTF)
		if err != nil {
			r.faceErr = fmt.Errorf("failed to parse title font: %w", err)
			return
		}
		bodyFont, err := opentype.Parse(goregular.TTF)
		if err != nil {
			r.faceErr = fmt.Errorf("failed to parse body font: %w", err)
			return
		}

		r.title, err = opentype.NewFace(titleFont, &opentype.FaceOptions{
			Size: 52, DPI: 72, Hinting: font.HintingFull,
		})
		if err != nil {
			r.faceErr = fmt.Errorf("failed to create title face: %w", err)
			return
		}
		r.body, err = opentype.NewFace(bodyFont, &opentype.FaceOptions{
			Size: 26, DPI: 72, Hinting: font.HintingFull,
		})
		if err != nil {
			r.faceErr = fmt.Errorf("failed to create body face: %w", err)
		}
	})
	return r.faceErr
}

func drawLine(dst draw.Image, face font.Face, text string, x, y int) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(textColor),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// wrapText breaks text into lines no wider than maxWidth, measured with the
// given face. Existing newlines are respected.
func wrapText(face font.Face, text string, maxWidth fixed.Int26_6) []string {
	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			continue
		}

		line := words[0]
		for _, word := range words[1:] {
			candidate := line + " " + word
			if font.MeasureString(face, candidate) > maxWidth {
				lines = append(lines, line)
				line = word
				continue
			}
			line = candidate
		}
		lines = append(lines, line)
	}
	return lines
}
