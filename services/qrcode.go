package services

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"unicode/utf8"

	"turbineops/models"

	"github.com/skip2/go-qrcode"
	"golang.org/x/image/font"
	"golang.org/x/image/font/inconsolata"
	"golang.org/x/image/math/fixed"
)

const (
	qrSize      = 384
	labelHeight = 48
	maxLabelLen = 40
)

// TurbineTagContent is what a turbine asset tag encodes.
func TurbineTagContent(id string) string {
	return "turbine:" + id
}

func drawLabel(img *image.RGBA, x, y int, label string) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{30, 30, 30, 255}),
		Face: inconsolata.Bold8x16,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(label)
}

// TurbineTagPNG renders the asset tag of t: a QR code with the turbine name underneath.
func TurbineTagPNG(t *models.Turbine) ([]byte, error) {
	qr, err := qrcode.New(TurbineTagContent(t.ID), qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("qr code generation failed: %w", err)
	}
	qrImg := qr.Image(qrSize)
	size := qrImg.Bounds().Dx()

	img := image.NewRGBA(image.Rect(0, 0, size, size+labelHeight))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)
	draw.Draw(img, qrImg.Bounds(), qrImg, image.Point{}, draw.Src)

	label := truncate(t.Name, maxLabelLen)
	// 8px glyphs; centre the label
	x := (size - utf8.RuneCountInString(label)*8) / 2
	if x < 0 {
		x = 0
	}
	drawLabel(img, x, size+labelHeight/2+6, label)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("png encoding failed: %w", err)
	}
	return buf.Bytes(), nil
}
