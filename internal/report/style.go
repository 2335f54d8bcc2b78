package report

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Tomcat63/FinanceAnalyzer/internal/advisory"
)

var (
	colorBlue      = Color{37, 99, 235}
	colorDarkBlue  = Color{30, 58, 138}
	colorGray      = Color{100, 116, 139}
	colorSlate700  = Color{51, 65, 85}
	colorSlate900  = Color{15, 23, 42}
	colorBorder    = Color{226, 232, 240}
	colorRowBorder = Color{241, 245, 249}
	colorSlate50   = Color{248, 250, 252}
	colorBlue50    = Color{239, 246, 255}
	colorBlue200   = Color{191, 219, 254}
	colorSky50     = Color{240, 249, 255}
	colorGreen     = Color{22, 163, 74}
	colorRed       = Color{220, 38, 38}
)

var (
	fontTitle   = Font{Size: 22, Bold: true}
	fontProduct = Font{Size: 14, Bold: true}
	fontSection = Font{Size: 12, Bold: true}
	fontFigure  = Font{Size: 18, Bold: true}
	fontBody    = Font{Size: 10}
	fontBold    = Font{Size: 10, Bold: true}
	fontSmall   = Font{Size: 8}
	fontLabel   = Font{Size: 8, Bold: true}
)

// printer formats numbers the German way ("1.234,56").
var printer = message.NewPrinter(language.German)

func formatEUR(d decimal.Decimal) string {
	return printer.Sprintf("%.2f €", d.Round(2).InexactFloat64())
}

func formatPercent(v float64) string {
	return printer.Sprintf("%.1f %%", v)
}

func polarityColor(p advisory.Polarity) Color {
	switch p {
	case advisory.Positive:
		return colorGreen
	case advisory.Negative:
		return colorRed
	}
	return colorDarkBlue
}
