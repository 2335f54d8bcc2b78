package advisory

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"google.golang.org/genai"

	"github.com/Tomcat63/FinanceAnalyzer/internal/aggregate"
	"github.com/Tomcat63/FinanceAnalyzer/internal/domain"
)

func TestAnalyst_Analyze(t *testing.T) {
	var gotSystem, gotQuestion string
	models := &mockContentGenerator{
		GenerateContentFunc: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			gotSystem = config.SystemInstruction.Parts[0].Text
			gotQuestion = contents[0].Parts[0].Text
			return textResponse("  **Zusammenfassung**: solide.  "), nil
		},
	}

	categories := []aggregate.CategorySummary{{Name: "Wohnen", Amount: decimal.NewFromInt(1000), Count: 1}}
	largest := []domain.Transaction{{Payee: "Hausverwaltung", Amount: decimal.NewFromInt(-1000), Memo: "Miete"}}

	got, err := NewAnalyst(models, "").Analyze(context.Background(), categories, largest, "")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if got != "**Zusammenfassung**: solide." {
		t.Errorf("Analyze() = %q", got)
	}
	if gotQuestion != DefaultQuestion {
		t.Errorf("question = %q, want default", gotQuestion)
	}
	for _, want := range []string{"- Wohnen: 1000.00 € (1 Transaktionen)", "Hausverwaltung | -1000.00 € | Miete"} {
		if !strings.Contains(gotSystem, want) {
			t.Errorf("system instruction missing %q:\n%s", want, gotSystem)
		}
	}
}

func TestAnalyst_EmptyAnswer(t *testing.T) {
	models := &mockContentGenerator{
		GenerateContentFunc: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return textResponse(""), nil
		},
	}
	if _, err := NewAnalyst(models, "").Analyze(context.Background(), nil, nil, "Wie viel spare ich?"); err == nil {
		t.Error("Expected error for empty answer")
	}
}
