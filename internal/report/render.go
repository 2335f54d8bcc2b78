package report

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"unicode"

	"github.com/go-pdf/fpdf"
)

const fontFamily = "Helvetica"

// FontMeasurer measures text with the Helvetica metrics used by Render.
// It is not safe for concurrent use.
type FontMeasurer struct {
	pdf       *fpdf.Fpdf
	translate func(string) string
}

// NewFontMeasurer creates a measurer backed by fpdf's core font metrics.
func NewFontMeasurer() *FontMeasurer {
	pdf := fpdf.New("P", "mm", "A4", "")
	return &FontMeasurer{pdf: pdf, translate: pdf.UnicodeTranslatorFromDescriptor("")}
}

// TextWidth implements Measurer.
func (m *FontMeasurer) TextWidth(text string, font Font) float64 {
	setFont(m.pdf, font)
	return m.pdf.GetStringWidth(m.translate(text))
}

// Split implements Measurer with fpdf's SplitText. Lines break at spaces and
// explicit newlines; a word wider than width is broken between characters.
// Empty text yields one empty line.
func (m *FontMeasurer) Split(text string, font Font, width float64) []string {
	setFont(m.pdf, font)

	// SplitText indexes the single-byte font widths by rune, so it runs on the
	// code page form and the lines are cut from the original by rune offset.
	original := []rune(text)
	encoded := m.translate(text)
	proxy := make([]rune, len(encoded))
	for i := 0; i < len(encoded); i++ {
		proxy[i] = rune(encoded[i])
	}

	split := m.pdf.SplitText(string(proxy), width+2*m.pdf.GetCellMargin())
	if len(split) == 0 {
		return []string{""}
	}

	lines := make([]string, 0, len(split))
	pos := 0
	for _, line := range split {
		end := min(pos+len([]rune(line)), len(original))
		lines = append(lines, string(original[pos:end]))
		pos = end
		// A break at whitespace consumes that one separator.
		if pos < len(proxy) && unicode.IsSpace(proxy[pos]) {
			pos++
		}
	}
	return lines
}

// Render writes doc as PDF to w. The document is serialized completely
// before anything is written, so a failure leaves w untouched.
func Render(doc *Document, w io.Writer) error {
	if doc == nil || len(doc.Pages) == 0 {
		return errors.New("Render: empty document")
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(Margin, TopY, Margin)
	pdf.SetTitle(doc.Title, true)
	pdf.SetCreator(ProductName, true)
	pdf.SetCreationDate(doc.GeneratedAt)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for _, page := range doc.Pages {
		pdf.AddPage()
		for _, b := range page.Blocks {
			drawBlock(pdf, tr, b)
		}
		if err := pdf.Error(); err != nil {
			return fmt.Errorf("Render: page %d: %w", page.Number, err)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return fmt.Errorf("Render: output: %w", err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("Render: write: %w", err)
	}
	return nil
}

func drawBlock(pdf *fpdf.Fpdf, tr func(string) string, b Block) {
	switch b.Kind {
	case KindText:
		drawText(pdf, tr, b.X, b.Y, b.Text, b.Font, b.Color, b.Align)
	case KindRule:
		pdf.SetDrawColor(int(b.Color.R), int(b.Color.G), int(b.Color.B))
		pdf.SetLineWidth(b.LineWidth)
		pdf.Line(b.X, b.Y, b.X2, b.Y2)
	case KindCard:
		pdf.SetFillColor(int(b.Fill.R), int(b.Fill.G), int(b.Fill.B))
		pdf.SetDrawColor(int(b.Color.R), int(b.Color.G), int(b.Color.B))
		pdf.SetLineWidth(0.2)
		pdf.RoundedRect(b.X, b.Y, b.W, b.H, 3, "1234", "FD")
	case KindBar:
		if b.W <= 0 {
			return
		}
		pdf.SetFillColor(int(b.Fill.R), int(b.Fill.G), int(b.Fill.B))
		pdf.Rect(b.X, b.Y, b.W, b.H, "F")
	case KindTableRow:
		drawRow(pdf, tr, b)
	case KindLink:
		pdf.LinkString(b.X, b.Y, b.W, b.H, b.URL)
	}
}

func drawRow(pdf *fpdf.Fpdf, tr func(string) string, b Block) {
	if b.Header {
		pdf.SetFillColor(int(b.Fill.R), int(b.Fill.G), int(b.Fill.B))
		pdf.Rect(b.X, b.Y, b.W, b.H, "F")
	}
	for _, c := range b.Cells {
		drawText(pdf, tr, c.X, b.Y+RowTextOffset, c.Text, b.Font, b.Color, c.Align)
	}
	if !b.Header {
		pdf.SetDrawColor(int(b.Fill.R), int(b.Fill.G), int(b.Fill.B))
		pdf.SetLineWidth(b.LineWidth)
		pdf.Line(b.X, b.Y+b.H, b.X+b.W, b.Y+b.H)
	}
}

func drawText(pdf *fpdf.Fpdf, tr func(string) string, x, y float64, text string, font Font, color Color, align Align) {
	setFont(pdf, font)
	pdf.SetTextColor(int(color.R), int(color.G), int(color.B))
	s := tr(text)
	switch align {
	case AlignRight:
		x -= pdf.GetStringWidth(s)
	case AlignCenter:
		x -= pdf.GetStringWidth(s) / 2
	}
	pdf.Text(x, y, s)
}

func setFont(pdf *fpdf.Fpdf, font Font) {
	style := ""
	if font.Bold {
		style = "B"
	}
	pdf.SetFont(fontFamily, style, font.Size)
}
