// Package render draws certificates: a PNG preview with gg, embedded in an
// A4 landscape PDF with fpdf.
package render

import (
	"bytes"
	"fmt"
	"image/color"
	"os"
	"sync"
	"time"

	"github.com/fogleman/gg"
	"github.com/go-pdf/fpdf"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	// A4 at 150 dpi, landscape
	pageWidth  = 1754
	pageHeight = 1240
)

var (
	navy  = color.RGBA{R: 0x12, G: 0x2b, B: 0x4f, A: 0xff}
	gold  = color.RGBA{R: 0xc8, G: 0x9b, B: 0x3c, A: 0xff}
	ink   = color.RGBA{R: 0x22, G: 0x22, B: 0x22, A: 0xff}
	muted = color.RGBA{R: 0x6b, G: 0x72, B: 0x80, A: 0xff}
)

// CertificateData is everything printed on a certificate.
type CertificateData struct {
	StudentName      string
	FormationTitle   string
	DurationHours    int
	Code             string
	VerificationCode string
	VerifyURL        string
	IssuedAt         time.Time
	RegisteredAt     time.Time
}

// Document holds the rendered outputs.
type Document struct {
	Preview []byte // PNG
	PDF     []byte
}

// Renderer is safe for concurrent use.
type Renderer struct {
	mu      sync.Mutex
	regular *truetype.Font
	bold    *truetype.Font
}

// New loads fontPath for the body text when set, otherwise the Go fonts.
func New(fontPath string) (*Renderer, error) {
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse regular font: %w", err)
	}
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bold font: %w", err)
	}
	if fontPath != "" {
		fontBytes, err := os.ReadFile(fontPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read font file: %w", err)
		}
		custom, err := truetype.Parse(fontBytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse TTF: %w", err)
		}
		regular, bold = custom, custom
	}
	return &Renderer{regular: regular, bold: bold}, nil
}

func face(f *truetype.Font, size float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingNone})
}

// Render produces the preview image and the PDF for data.
func (r *Renderer) Render(data CertificateData) (*Document, error) {
	if data.StudentName == "" || data.FormationTitle == "" || data.Code == "" {
		return nil, fmt.Errorf("certificate data incomplete")
	}

	r.mu.Lock()
	preview, err := r.drawPreview(data)
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}

	pdf, err := wrapPDF(data, preview)
	if err != nil {
		return nil, err
	}
	return &Document{Preview: preview, PDF: pdf}, nil
}

func (r *Renderer) drawPreview(data CertificateData) ([]byte, error) {
	const w, h = float64(pageWidth), float64(pageHeight)
	dc := gg.NewContext(pageWidth, pageHeight)

	dc.SetColor(color.White)
	dc.Clear()

	// Frame
	dc.SetColor(navy)
	dc.SetLineWidth(18)
	dc.DrawRectangle(40, 40, w-80, h-80)
	dc.Stroke()
	dc.SetColor(gold)
	dc.SetLineWidth(4)
	dc.DrawRectangle(80, 80, w-160, h-160)
	dc.Stroke()

	dc.SetColor(navy)
	dc.SetFontFace(face(r.bold, 44))
	dc.DrawStringAnchored("CODE212 · UNIVERSITÉ CADI AYYAD", w/2, 190, 0.5, 0.5)

	dc.SetColor(gold)
	dc.SetFontFace(face(r.bold, 78))
	dc.DrawStringAnchored("CERTIFICAT DE RÉUSSITE", w/2, 320, 0.5, 0.5)

	dc.SetColor(muted)
	dc.SetFontFace(face(r.regular, 36))
	dc.DrawStringAnchored("Ce certificat est décerné à", w/2, 450, 0.5, 0.5)

	dc.SetColor(ink)
	dc.SetFontFace(face(r.bold, 84))
	dc.DrawStringAnchored(data.StudentName, w/2, 560, 0.5, 0.5)

	dc.SetColor(muted)
	dc.SetFontFace(face(r.regular, 36))
	dc.DrawStringAnchored("pour avoir complété avec succès la formation", w/2, 680, 0.5, 0.5)

	dc.SetColor(navy)
	dc.SetFontFace(face(r.bold, 56))
	dc.DrawStringWrapped(data.FormationTitle, w/2, 760, 0.5, 0, w-400, 1.3, gg.AlignCenter)

	dc.SetColor(ink)
	dc.SetFontFace(face(r.regular, 30))
	issued := "Délivré le " + data.IssuedAt.Format("02/01/2006")
	if data.DurationHours > 0 {
		issued += fmt.Sprintf(" · %d heures", data.DurationHours)
	}
	dc.DrawStringAnchored(issued, w/2, 960, 0.5, 0.5)

	dc.SetColor(muted)
	dc.SetFontFace(face(r.regular, 24))
	dc.DrawStringAnchored("N° "+data.Code, 140, h-150, 0, 0.5)
	if data.VerifyURL != "" {
		dc.DrawStringAnchored("Vérifier : "+data.VerifyURL, w-140, h-150, 1, 0.5)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

func wrapPDF(data CertificateData, preview []byte) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Certificat "+data.Code, false)
	pdf.SetAuthor("Code212", false)
	pdf.SetCreator("code212", false)
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	pageW, pageH := pdf.GetPageSize()
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("certificate", opts, bytes.NewReader(preview))
	pdf.ImageOptions("certificate", 0, 0, pageW, pageH, false, opts, 0, "")

	if data.VerifyURL != "" {
		pdf.LinkString(pageW/2-60, pageH-20, 120, 10, data.VerifyURL)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}
