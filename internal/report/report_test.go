package report

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/Tomcat63/FinanceAnalyzer/internal/advisory"
	"github.com/Tomcat63/FinanceAnalyzer/internal/domain"
)

// monoMeasurer gives every rune the same width.
type monoMeasurer struct{}

func (monoMeasurer) TextWidth(text string, font Font) float64 {
	return float64(utf8.RuneCountInString(text)) * font.Size * 0.2
}

// Split breaks greedily at spaces and newlines and cuts over-wide words.
func (m monoMeasurer) Split(text string, font Font, width float64) []string {
	perLine := max(int(width/(font.Size*0.2)), 1)
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		line := ""
		for _, word := range strings.Fields(para) {
			candidate := word
			if line != "" {
				candidate = line + " " + word
			}
			if m.TextWidth(candidate, font) <= width {
				line = candidate
				continue
			}
			if line != "" {
				lines = append(lines, line)
			}
			for r := []rune(word); len(r) > perLine; r = r[perLine:] {
				lines = append(lines, string(r[:perLine]))
				word = string(r[perLine:])
			}
			line = word
		}
		lines = append(lines, line)
	}
	return lines
}

var generatedAt = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func fixedCosts(n int) []domain.Transaction {
	out := make([]domain.Transaction, n)
	start := civil.Date{Year: 2025, Month: 3, Day: 1}
	for i := range out {
		out[i] = domain.Transaction{
			BookingDate: start.AddDays(-i),
			Payee:       fmt.Sprintf("Vertrag %02d", i),
			Amount:      decimal.NewFromInt(int64(-10 - i)),
			Category:    "Wohnen",
			FixedCost:   true,
		}
	}
	return out
}

func baseInput() Input {
	return Input{
		Metrics: Metrics{
			Income:     decimal.NewFromInt(3000),
			Expenses:   decimal.NewFromInt(1200),
			FixedCosts: decimal.NewFromInt(1000),
			Balance:    decimal.RequireFromString("4321.09"),
		},
		BuildID:     "test-build",
		GeneratedAt: generatedAt,
	}
}

func blocks(doc *Document, kind BlockKind) []Block {
	var out []Block
	for _, p := range doc.Pages {
		for _, b := range p.Blocks {
			if b.Kind == kind {
				out = append(out, b)
			}
		}
	}
	return out
}

func dataRows(doc *Document) []Block {
	var out []Block
	for _, b := range blocks(doc, KindTableRow) {
		if !b.Header {
			out = append(out, b)
		}
	}
	return out
}

func findText(doc *Document, substr string) (Block, bool) {
	for _, b := range blocks(doc, KindText) {
		if strings.Contains(b.Text, substr) {
			return b, true
		}
	}
	return Block{}, false
}

func TestLayout_MinimalReport(t *testing.T) {
	doc, err := Layout(baseInput(), monoMeasurer{})
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}

	if len(doc.Pages) != 1 {
		t.Fatalf("len(Pages) = %d, want 1", len(doc.Pages))
	}
	for _, want := range []string{Title, "Build: test-build", "Erstellt am 14.03.2025 09:30", "AKTUELLER KONTOSTAND", "FIXKOSTEN-QUOTE", "FIXKOSTEN (TOP 20)", "KI-BERATUNG & INSIGHTS"} {
		if _, ok := findText(doc, want); !ok {
			t.Errorf("missing text %q", want)
		}
	}
	if n := len(blocks(doc, KindCard)); n != 2 {
		t.Errorf("cards = %d, want 2", n)
	}
	headers := 0
	for _, b := range blocks(doc, KindTableRow) {
		if b.Header {
			headers++
		}
	}
	if headers != 1 {
		t.Errorf("table header rows = %d, want 1", headers)
	}
	if _, ok := findText(doc, "MEINE NOTIZEN"); ok {
		t.Error("notes box must be omitted for empty notes")
	}
	if doc.FileName != "Finanzanalyse_Bericht_2025-03-14.pdf" {
		t.Errorf("FileName = %q", doc.FileName)
	}
}

func TestLayout_FixedCostTableCapsRows(t *testing.T) {
	in := baseInput()
	in.FixedCosts = fixedCosts(25)

	doc, err := Layout(in, monoMeasurer{})
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}

	if n := len(dataRows(doc)); n != MaxFixedCostRows {
		t.Errorf("data rows = %d, want %d", n, MaxFixedCostRows)
	}
	var summaries int
	for _, b := range blocks(doc, KindText) {
		if strings.Contains(b.Text, "weitere Positionen") {
			summaries++
			if b.Text != "... und 5 weitere Positionen" {
				t.Errorf("summary line = %q", b.Text)
			}
		}
	}
	if summaries != 1 {
		t.Errorf("summary lines = %d, want 1", summaries)
	}
}

func TestLayout_NoSummaryLineUpToLimit(t *testing.T) {
	in := baseInput()
	in.FixedCosts = fixedCosts(MaxFixedCostRows)

	doc, err := Layout(in, monoMeasurer{})
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	if _, ok := findText(doc, "weitere Positionen"); ok {
		t.Error("unexpected summary line for exactly 20 rows")
	}
}

func TestLayout_TablePageBreak(t *testing.T) {
	in := baseInput()
	in.FixedCosts = fixedCosts(20)

	doc, err := Layout(in, monoMeasurer{})
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}

	// Table heading at 115, header row at 125, rows from 133: 18 rows fit
	// above the printable bottom.
	if len(doc.Pages) != 2 {
		t.Fatalf("len(Pages) = %d, want 2", len(doc.Pages))
	}
	perPage := map[int]int{}
	for _, p := range doc.Pages {
		for _, b := range p.Blocks {
			if b.Kind == KindTableRow && !b.Header {
				perPage[p.Number]++
				if b.Bottom() > PrintableBottom {
					t.Errorf("row on page %d ends at %v, beyond %v", p.Number, b.Bottom(), PrintableBottom)
				}
			}
		}
	}
	if perPage[1] != 18 || perPage[2] != 2 {
		t.Errorf("rows per page = %v, want 18 and 2", perPage)
	}
	if first := dataRows(doc)[18]; first.Y != TopY {
		t.Errorf("first row on new page at y=%v, want %v", first.Y, TopY)
	}
}

func TestLayout_FooterOnEveryPage(t *testing.T) {
	in := baseInput()
	in.FixedCosts = fixedCosts(25)

	doc, err := Layout(in, monoMeasurer{})
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}

	for _, p := range doc.Pages {
		var links, refs int
		for _, b := range p.Blocks {
			if b.Kind == KindLink && b.URL == ReferenceURL {
				links++
			}
			if b.Kind == KindText && strings.HasPrefix(b.Text, "Referenz-Grundlage") && b.Y == FooterY {
				refs++
			}
		}
		if links != 1 || refs != 1 {
			t.Errorf("page %d: links = %d, footer lines = %d", p.Number, links, refs)
		}
	}
}

func TestLayout_Tips(t *testing.T) {
	in := baseInput()
	in.Tips = []advisory.Tip{
		{ID: "a", Title: "Miete senken", Description: strings.Repeat("wort ", 40), Confidence: 0.9, Polarity: advisory.Negative, Selected: true},
		{ID: "b", Title: "Abgewählt", Description: "nicht drucken", Confidence: 0.7, Selected: false},
		{ID: "c", Title: "Gut gemacht", Description: "kurz", Confidence: 0.95, Polarity: advisory.Positive, Selected: true},
	}

	doc, err := Layout(in, monoMeasurer{})
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}

	if _, ok := findText(doc, "Abgewählt"); ok {
		t.Error("deselected tip was rendered")
	}
	first, ok := findText(doc, "Miete senken")
	if !ok {
		t.Fatal("missing first tip")
	}
	second, ok := findText(doc, "Gut gemacht")
	if !ok {
		t.Fatal("missing second tip")
	}
	if first.Color != colorRed || second.Color != colorGreen {
		t.Errorf("tip colours = %v / %v", first.Color, second.Color)
	}

	// 200 chars at 2mm each over 180mm wrap into 3 lines:
	// title 5 + 3 lines * 5 + spacing 8.
	if got, want := second.Y-first.Y, LineHeight+3*LineHeight+TipSpacing; got != want {
		t.Errorf("tip advance = %v, want %v", got, want)
	}
	if _, ok := findText(doc, "Konfidenz: 90,0 %"); !ok {
		t.Error("missing confidence indicator")
	}
}

func TestLayout_TipsPageBreak(t *testing.T) {
	in := baseInput()
	for i := range 40 {
		in.Tips = append(in.Tips, advisory.Tip{
			ID:          fmt.Sprintf("t%02d", i),
			Title:       fmt.Sprintf("Tipp %02d", i),
			Description: strings.Repeat("wort ", 20),
			Confidence:  0.8,
			Selected:    true,
		})
	}

	doc, err := Layout(in, monoMeasurer{})
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	if len(doc.Pages) < 3 {
		t.Errorf("len(Pages) = %d, want at least 3", len(doc.Pages))
	}
	for _, p := range doc.Pages {
		for _, b := range p.Blocks {
			tipText := strings.HasPrefix(b.Text, "Tipp ") || strings.HasPrefix(b.Text, "wort")
			if b.Kind == KindText && tipText && b.Y > PrintableBottom {
				t.Errorf("text %q on page %d at y=%v, beyond %v", b.Text, p.Number, b.Y, PrintableBottom)
			}
		}
	}
	if _, ok := findText(doc, "Tipp 39"); !ok {
		t.Error("last tip missing")
	}
}

func TestLayout_NotesPageBreak(t *testing.T) {
	tests := []struct {
		name      string
		lines     int
		wantPages int
	}{
		{name: "short note stays on page one", lines: 3, wantPages: 1},
		{name: "long note moves to a new page", lines: 40, wantPages: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := baseInput()
			in.Notes = strings.TrimSuffix(strings.Repeat("Zeile\n", tt.lines), "\n")

			doc, err := Layout(in, monoMeasurer{})
			if err != nil {
				t.Fatalf("Layout() error = %v", err)
			}

			var page int
			for _, p := range doc.Pages {
				for _, b := range p.Blocks {
					if b.Kind == KindText && b.Text == "MEINE NOTIZEN" {
						page = p.Number
					}
				}
			}
			if page == 0 {
				t.Fatal("notes heading missing")
			}
			if tt.wantPages == 2 && page != 2 {
				t.Errorf("notes on page %d, want 2", page)
			}
			if tt.wantPages == 1 && page != 1 {
				t.Errorf("notes on page %d, want 1", page)
			}
			for _, card := range blocks(doc, KindCard) {
				if card.Bottom() > PrintableBottom {
					t.Errorf("card ends at %v, beyond printable area", card.Bottom())
				}
			}
		})
	}
}

func TestLayout_FixedCostQuotaBar(t *testing.T) {
	tests := []struct {
		name       string
		income     int64
		fixed      int64
		wantFilled float64
	}{
		{name: "half", income: 2000, fixed: 1000, wantFilled: 27.5},
		{name: "capped at track", income: 1000, fixed: 2500, wantFilled: 55},
		{name: "no income", income: 0, fixed: 500, wantFilled: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := baseInput()
			in.Metrics.Income = decimal.NewFromInt(tt.income)
			in.Metrics.FixedCosts = decimal.NewFromInt(tt.fixed)

			doc, err := Layout(in, monoMeasurer{})
			if err != nil {
				t.Fatalf("Layout() error = %v", err)
			}
			bars := blocks(doc, KindBar)
			if len(bars) != 2 {
				t.Fatalf("bars = %d, want 2", len(bars))
			}
			if bars[0].W != 55 {
				t.Errorf("track width = %v, want 55", bars[0].W)
			}
			if bars[1].W != tt.wantFilled {
				t.Errorf("filled width = %v, want %v", bars[1].W, tt.wantFilled)
			}
		})
	}
}

func TestLayout_PayeeTruncation(t *testing.T) {
	in := baseInput()
	in.FixedCosts = fixedCosts(2)
	in.FixedCosts[0].Payee = strings.Repeat("ä", 60)
	in.FixedCosts[1].Payee = strings.Repeat("b", 50)

	doc, err := Layout(in, monoMeasurer{})
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	rows := dataRows(doc)
	if got := rows[0].Cells[1].Text; got != strings.Repeat("ä", 47)+"..." {
		t.Errorf("long payee = %q", got)
	}
	if got := rows[1].Cells[1].Text; got != strings.Repeat("b", 50) {
		t.Errorf("50-char payee = %q", got)
	}
	if got := rows[0].Cells[0].Text; got != "01.03.2025" {
		t.Errorf("date cell = %q", got)
	}
}

func TestLayout_RequiresMeasurer(t *testing.T) {
	if _, err := Layout(baseInput(), nil); err == nil {
		t.Error("Expected error without measurer")
	}
}

func TestMonoMeasurer_Split(t *testing.T) {
	m := monoMeasurer{}
	font := Font{Size: 10} // 2mm per rune

	tests := []struct {
		name  string
		text  string
		width float64
		want  []string
	}{
		{name: "fits", text: "kurzer Text", width: 40, want: []string{"kurzer Text"}},
		{name: "breaks between words", text: "eins zwei drei", width: 20, want: []string{"eins zwei", "drei"}},
		{name: "explicit newline", text: "a\nb", width: 40, want: []string{"a", "b"}},
		{name: "long word is split", text: "Donaudampfschifffahrt", width: 20, want: []string{"Donaudampf", "schifffahr", "t"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Split(tt.text, font, tt.width)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("Split() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFontMeasurer_Split(t *testing.T) {
	m := NewFontMeasurer()
	font := Font{Size: 10}
	const width = 30.0

	text := "Miete für 3 Monate à 800 € überprüfen\nund Verträge vergleichen"
	lines := m.Split(text, font, width)
	if len(lines) < 3 {
		t.Fatalf("Split() = %q, want at least 3 lines", lines)
	}
	for _, line := range lines {
		if w := m.TextWidth(line, font); w > width {
			t.Errorf("line %q is %.2fmm wide, limit %.0fmm", line, w, width)
		}
		if strings.Contains(line, "überprüfen") && strings.Contains(line, "und") {
			t.Errorf("line %q ignores the explicit newline", line)
		}
	}
	if got, want := strings.Fields(strings.Join(lines, " ")), strings.Fields(text); strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("words = %q, want %q", got, want)
	}

	if got := m.Split("", font, width); len(got) != 1 || got[0] != "" {
		t.Errorf("Split(\"\") = %q, want one empty line", got)
	}
}

func TestRender(t *testing.T) {
	in := baseInput()
	in.Notes = "Kfz-Versicherung vergleichen."
	in.FixedCosts = fixedCosts(25)
	in.Tips = []advisory.Tip{{ID: "x", Title: "Überprüfen Sie Ihre Miete", Description: "Die Wohnkosten übersteigen 30 % des Einkommens.", Confidence: 0.8, Polarity: advisory.Negative, Selected: true}}

	doc, pdf, err := Generate(in)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF-")) {
		t.Errorf("output does not look like a PDF: %q", pdf[:min(len(pdf), 8)])
	}
	if len(doc.Pages) < 2 {
		t.Errorf("len(Pages) = %d, want at least 2", len(doc.Pages))
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestRender_Errors(t *testing.T) {
	if err := Render(&Document{}, &bytes.Buffer{}); err == nil {
		t.Error("Expected error for empty document")
	}

	doc, err := Layout(baseInput(), NewFontMeasurer())
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	if err := Render(doc, failingWriter{}); err == nil {
		t.Error("Expected write error to be returned")
	}
}
