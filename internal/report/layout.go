package report

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Tomcat63/FinanceAnalyzer/internal/advisory"
	"github.com/Tomcat63/FinanceAnalyzer/internal/domain"
)

// Metrics is the figure snapshot printed on the summary cards.
type Metrics struct {
	Income     decimal.Decimal
	Expenses   decimal.Decimal
	FixedCosts decimal.Decimal
	Balance    decimal.Decimal
}

// FixedCostQuota returns fixed costs as a percentage of income, 0 without income.
func (m Metrics) FixedCostQuota() float64 {
	if !m.Income.IsPositive() {
		return 0
	}
	return m.FixedCosts.Mul(decimal.NewFromInt(100)).Div(m.Income).InexactFloat64()
}

// Input is everything the report is built from.
type Input struct {
	Metrics     Metrics
	Tips        []advisory.Tip
	Notes       string
	FixedCosts  []domain.Transaction // newest first
	BuildID     string
	GeneratedAt time.Time
}

// Layout positions every block of the report. It is a pure function of in
// and the measurer.
func Layout(in Input, m Measurer) (*Document, error) {
	if m == nil {
		return nil, errors.New("Layout: measurer is required")
	}

	l := &layout{m: m}
	l.newPage()

	l.header(in)
	l.cards(in.Metrics)
	l.tips(in.Tips)
	l.notes(in.Notes)
	l.fixedCosts(in.FixedCosts)
	l.footers()

	if err := l.validate(); err != nil {
		return nil, fmt.Errorf("Layout: %w", err)
	}

	return &Document{
		Title:       Title,
		FileName:    FileName(in.GeneratedAt),
		GeneratedAt: in.GeneratedAt,
		Pages:       l.pages,
	}, nil
}

type layout struct {
	m     Measurer
	pages []Page
	y     float64
}

func (l *layout) newPage() {
	l.pages = append(l.pages, Page{Number: len(l.pages) + 1})
	l.y = TopY
}

func (l *layout) add(b Block) {
	p := &l.pages[len(l.pages)-1]
	p.Blocks = append(p.Blocks, b)
}

func (l *layout) text(x, y float64, s string, font Font, color Color, align Align) {
	l.add(Block{Kind: KindText, X: x, Y: y, Text: s, Font: font, Color: color, Align: align})
}

func (l *layout) header(in Input) {
	right := PageWidth - Margin

	l.text(Margin, l.y, Title, fontTitle, colorDarkBlue, AlignLeft)
	l.text(Margin, l.y+6, "Erstellt am "+in.GeneratedAt.Format("02.01.2006 15:04"), fontBody, colorGray, AlignLeft)
	l.text(right, l.y, ProductName, fontProduct, colorBlue, AlignRight)
	l.text(right, l.y+5, "Build: "+in.BuildID, fontSmall, colorGray, AlignRight)

	l.y += 15
	l.add(Block{Kind: KindRule, X: Margin, Y: l.y, X2: right, Y2: l.y, Color: colorBlue, LineWidth: 1})
	l.y += 10
}

func (l *layout) cards(m Metrics) {
	cardWidth := (PageWidth - 2*Margin - CardGap) / 2
	top := l.y

	l.add(Block{Kind: KindCard, X: Margin, Y: top, W: cardWidth, H: CardHeight, Color: colorBorder, Fill: colorSlate50})
	l.text(Margin+5, top+10, "AKTUELLER KONTOSTAND", fontLabel, colorGray, AlignLeft)
	l.text(Margin+5, top+22, formatEUR(m.Balance), fontFigure, colorSlate900, AlignLeft)

	x := Margin + cardWidth + CardGap
	quote := m.FixedCostQuota()
	l.add(Block{Kind: KindCard, X: x, Y: top, W: cardWidth, H: CardHeight, Color: colorBlue200, Fill: colorBlue50})
	l.text(x+5, top+10, "FIXKOSTEN-QUOTE", fontLabel, colorDarkBlue, AlignLeft)
	l.text(x+5, top+22, formatPercent(quote), fontFigure, colorDarkBlue, AlignLeft)

	track := cardWidth - 30
	progress := math.Min(math.Max(quote/100*track, 0), track)
	l.add(Block{Kind: KindBar, X: x + 5, Y: top + 28, W: track, H: 2, Fill: colorBlue200})
	l.add(Block{Kind: KindBar, X: x + 5, Y: top + 28, W: progress, H: 2, Fill: colorBlue})

	l.y += CardHeight + 15
}

func (l *layout) section(title string) {
	l.add(Block{Kind: KindRule, X: Margin, Y: l.y, X2: Margin, Y2: l.y + 5, Color: colorBlue, LineWidth: 1.5})
	l.text(Margin+4, l.y+4, title, fontSection, colorDarkBlue, AlignLeft)
	l.y += 10
}

func (l *layout) tips(tips []advisory.Tip) {
	l.section("KI-BERATUNG & INSIGHTS")

	width := PageWidth - 2*Margin
	for _, tip := range tips {
		if !tip.Selected {
			continue
		}
		lines := l.m.Split(tip.Description, fontBody, width)
		if l.y+float64(len(lines)+1)*LineHeight > PrintableBottom {
			l.newPage()
		}

		l.text(Margin, l.y, tip.Title, fontBold, polarityColor(tip.Polarity), AlignLeft)
		l.text(PageWidth-Margin, l.y, "Konfidenz: "+formatPercent(tip.Confidence*100), fontSmall, colorGray, AlignRight)
		l.y += LineHeight

		for i, line := range lines {
			l.text(Margin, l.y+float64(i)*LineHeight, line, fontBody, colorSlate700, AlignLeft)
		}
		l.y += float64(len(lines))*LineHeight + TipSpacing
	}
}

func (l *layout) notes(notes string) {
	if strings.TrimSpace(notes) == "" {
		l.y += 10
		return
	}

	l.y += 5
	width := PageWidth - 2*Margin
	lines := l.m.Split(notes, fontBody, width-10)
	height := float64(len(lines))*LineHeight + 20

	if l.y+height > PrintableBottom {
		l.newPage()
	}

	l.add(Block{Kind: KindCard, X: Margin, Y: l.y, W: width, H: height, Color: colorBlue200, Fill: colorSky50})
	l.text(Margin+5, l.y+8, "MEINE NOTIZEN", fontBold, colorDarkBlue, AlignLeft)
	for i, line := range lines {
		l.text(Margin+5, l.y+16+float64(i)*LineHeight, line, fontBody, colorDarkBlue, AlignLeft)
	}
	l.y += height + 15
}

func (l *layout) fixedCosts(txs []domain.Transaction) {
	if l.y+40 > PrintableBottom {
		l.newPage()
	}

	l.section(fmt.Sprintf("FIXKOSTEN (TOP %d)", MaxFixedCostRows))

	width := PageWidth - 2*Margin
	amountX := PageWidth - Margin - 2
	l.add(Block{
		Kind: KindTableRow, X: Margin, Y: l.y, W: width, H: RowHeight,
		Font: fontLabel, Color: colorGray, Fill: colorSlate50, Header: true,
		Cells: []Cell{
			{X: Margin + 2, Text: "DATUM", Align: AlignLeft},
			{X: Margin + 40, Text: "EMPFÄNGER", Align: AlignLeft},
			{X: amountX, Text: "BETRAG", Align: AlignRight},
		},
	})
	l.y += RowHeight

	if len(txs) == 0 {
		l.text(Margin+2, l.y+RowTextOffset, "Keine Fixkosten im gewählten Zeitraum.", fontSmall, colorGray, AlignLeft)
		l.y += RowHeight
		return
	}

	for i, tx := range txs {
		if i == MaxFixedCostRows {
			break
		}
		if l.y+RowHeight > PrintableBottom {
			l.newPage()
		}
		l.add(Block{
			Kind: KindTableRow, X: Margin, Y: l.y, W: width, H: RowHeight,
			Font: fontSmall, Color: colorSlate900, Fill: colorRowBorder, LineWidth: 0.5,
			Cells: []Cell{
				{X: Margin + 2, Text: formatDate(tx), Align: AlignLeft},
				{X: Margin + 40, Text: truncate(tx.Payee, PayeeMaxLen), Align: AlignLeft},
				{X: amountX, Text: formatEUR(tx.Amount.Abs()), Align: AlignRight},
			},
		})
		l.y += RowHeight
	}

	if rest := len(txs) - MaxFixedCostRows; rest > 0 {
		l.y += 5
		if l.y > PrintableBottom {
			l.newPage()
		}
		l.text(PageWidth/2, l.y, fmt.Sprintf("... und %d weitere Positionen", rest), fontSmall, colorGray, AlignCenter)
	}
}

func (l *layout) footers() {
	for i := range l.pages {
		p := &l.pages[i]
		p.Blocks = append(p.Blocks,
			Block{Kind: KindText, X: PageWidth / 2, Y: FooterY, Text: "Referenz-Grundlage: Verbraucherzentrale Benchmarks", Font: fontSmall, Color: colorGray, Align: AlignCenter},
			Block{Kind: KindLink, X: PageWidth/2 - 20, Y: FooterY - 3, W: 40, H: 5, URL: ReferenceURL},
			Block{Kind: KindText, X: PageWidth / 2, Y: FooterY + 5, Text: ProductName + " Advisor Pro | Vertraulicher Bericht", Font: fontSmall, Color: colorGray, Align: AlignCenter},
		)
	}
}

func (l *layout) validate() error {
	for _, p := range l.pages {
		for _, b := range p.Blocks {
			for _, v := range []float64{b.X, b.Y, b.W, b.H} {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					return fmt.Errorf("page %d: %s block has invalid geometry", p.Number, b.Kind)
				}
			}
		}
	}
	return nil
}

func formatDate(tx domain.Transaction) string {
	d := tx.BookingDate
	return fmt.Sprintf("%02d.%02d.%04d", d.Day, int(d.Month), d.Year)
}
