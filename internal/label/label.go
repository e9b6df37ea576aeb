package label

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"os"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/jmorenas/stageinv/internal/domain"
)

const (
	// defaultModuleSize is the rendered pixel size of one QR module.
	defaultModuleSize = 10

	// logoScale sizes the center logo relative to the QR image's shorter
	// dimension. High error correction (~30% recovery) absorbs the modules
	// the overlay destroys; lower levels would not survive it.
	logoScale = 0.22

	// Printable label: 100mm x 54mm at 300 DPI.
	labelDPI      = 300
	labelWidthMM  = 100
	labelHeightMM = 54
)

// Generator composes QR label images. The zero module size falls back to the
// default; FontPath names a TTF used for printable label text, with a
// built-in bitmap font as fallback when the file is absent.
type Generator struct {
	ModuleSize int
	fontData   *opentype.Font
}

func NewGenerator(fontPath string) *Generator {
	g := &Generator{ModuleSize: defaultModuleSize}
	if data, err := os.ReadFile(fontPath); err == nil {
		if f, err := opentype.Parse(data); err == nil {
			g.fontData = f
		}
	}
	return g
}

// QRCode encodes payload at high error correction and, when a file exists at
// logoPath, composites it centered over the code using the logo's alpha
// channel as mask.
func (g *Generator) QRCode(payload, logoPath string) (*image.RGBA, error) {
	q, err := qrcode.New(payload, qrcode.High)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR payload: %w", err)
	}

	moduleSize := g.ModuleSize
	if moduleSize <= 0 {
		moduleSize = defaultModuleSize
	}
	// Negative size renders each module at that many pixels, with the
	// standard 4-module quiet zone around the code.
	src := q.Image(-moduleSize)

	img := image.NewRGBA(src.Bounds())
	xdraw.Draw(img, img.Bounds(), src, src.Bounds().Min, xdraw.Src)

	if logoPath != "" {
		if _, err := os.Stat(logoPath); err == nil {
			if err := compositeLogo(img, logoPath); err != nil {
				return nil, err
			}
		}
	}
	return img, nil
}

func compositeLogo(dst *image.RGBA, logoPath string) error {
	f, err := os.Open(logoPath)
	if err != nil {
		return fmt.Errorf("failed to open logo: %w", err)
	}
	defer func() { _ = f.Close() }()

	logo, _, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("failed to decode logo: %w", err)
	}

	b := dst.Bounds()
	maxSide := int(float64(minInt(b.Dx(), b.Dy())) * logoScale)

	lw, lh := logo.Bounds().Dx(), logo.Bounds().Dy()
	tw, th := lw, lh
	if lw > maxSide || lh > maxSide {
		scale := float64(maxSide) / float64(maxInt(lw, lh))
		tw = int(float64(lw) * scale)
		th = int(float64(lh) * scale)
	}
	if tw < 1 || th < 1 {
		return nil
	}

	x0 := b.Min.X + (b.Dx()-tw)/2
	y0 := b.Min.Y + (b.Dy()-th)/2
	rect := image.Rect(x0, y0, x0+tw, y0+th)
	xdraw.CatmullRom.Scale(dst, rect, logo, logo.Bounds(), xdraw.Over, nil)
	return nil
}

// Printable composes the fixed-physical-size label for an item: the QR code
// (encoding just the inventory code) left-packed at 90% of canvas height, and
// three text lines to the right.
func (g *Generator) Printable(item *domain.Item, logoPath string) (*image.RGBA, error) {
	dpi := float64(labelDPI)
	widthPx := int(float64(labelWidthMM) / 25.4 * dpi)
	heightPx := int(float64(labelHeightMM) / 25.4 * dpi)

	canvas := image.NewRGBA(image.Rect(0, 0, widthPx, heightPx))
	xdraw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, xdraw.Src)

	qr, err := g.QRCode(item.InventoryID, logoPath)
	if err != nil {
		return nil, err
	}

	margin := int(float64(heightPx) * 0.05)
	qrSize := int(float64(heightPx) * 0.9)
	qrRect := image.Rect(margin, margin, margin+qrSize, margin+qrSize)
	xdraw.CatmullRom.Scale(canvas, qrRect, qr, qr.Bounds(), xdraw.Src, nil)

	large, err := g.face(float64(heightPx) * 0.1)
	if err != nil {
		return nil, err
	}
	small, err := g.face(float64(heightPx) * 0.08)
	if err != nil {
		return nil, err
	}

	makerModel := strings.TrimSpace(deref(item.Manufacturer) + " " + deref(item.Model))

	x := margin + qrSize + int(float64(heightPx)*0.1)
	y := int(float64(heightPx) * 0.12)
	drawText(canvas, large, x, y, item.InventoryID)
	y += int(float64(heightPx) * 0.16)
	drawText(canvas, small, x, y, item.Name)
	y += int(float64(heightPx) * 0.12)
	drawText(canvas, small, x, y, makerModel)

	return canvas, nil
}

// face returns a font.Face of roughly pxSize pixel height, falling back to
// the built-in bitmap font when no TTF was loaded.
func (g *Generator) face(pxSize float64) (font.Face, error) {
	if g.fontData == nil {
		return basicfont.Face7x13, nil
	}
	face, err := opentype.NewFace(g.fontData, &opentype.FaceOptions{
		Size:    pxSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	return face, nil
}

// drawText draws s with its top edge near y.
func drawText(dst *image.RGBA, face font.Face, x, y int, s string) {
	if s == "" {
		return
	}
	ascent := face.Metrics().Ascent.Ceil()
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.Black,
		Face: face,
		Dot:  fixed.P(x, y+ascent),
	}
	d.DrawString(s)
}

// Payload is the multi-line text encoded into a regenerated label's QR code.
func Payload(item *domain.Item) string {
	return fmt.Sprintf("ID: %s\nName: %s\nCategory: %s\nSN: %s\nManufacturer: %s\nModel: %s",
		item.InventoryID,
		item.Name,
		deref(item.Category),
		deref(item.SerialNumber),
		deref(item.Manufacturer),
		deref(item.Model),
	)
}

// EncodePNG renders img to PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
