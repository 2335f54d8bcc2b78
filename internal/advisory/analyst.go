package advisory

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/Tomcat63/FinanceAnalyzer/internal/aggregate"
	"github.com/Tomcat63/FinanceAnalyzer/internal/domain"
)

// DefaultQuestion is asked when the user gives no question of their own.
const DefaultQuestion = "Analysiere diese Daten. Wo gibt es Sparpotential? Gibt es ungewöhnlich hohe Ausgaben? Gib eine kurze, motivierende Zusammenfassung."

// Analyst answers free-form questions about a transaction set with a
// language model. The answer is returned as opaque Markdown text.
type Analyst struct {
	models ContentGenerator
	model  string
}

// NewAnalyst creates an analyst on top of models, usually client.Models.
func NewAnalyst(models ContentGenerator, model string) *Analyst {
	if model == "" {
		model = DefaultModelName
	}
	return &Analyst{models: models, model: model}
}

// Analyze sends the category breakdown and the largest transactions together
// with question to the model.
func (a *Analyst) Analyze(ctx context.Context, categories []aggregate.CategorySummary, largest []domain.Transaction, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		question = DefaultQuestion
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: buildAnalysisContext(categories, largest)}},
		},
	}
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: question}},
		},
	}

	resp, err := a.models.GenerateContent(ctx, a.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("Analyze: generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("Analyze: empty response from model")
	}
	return text, nil
}

func buildAnalysisContext(categories []aggregate.CategorySummary, largest []domain.Transaction) string {
	var b strings.Builder
	b.WriteString("Du bist ein persönlicher Finanzassistent.\n")
	b.WriteString("Analysiere die Finanzdaten des Nutzers und gib eine kurze, knackige Analyse (max. 200 Wörter).\n")
	b.WriteString("Antworte IMMER auf DEUTSCH und verwende diese Struktur:\n\n")
	b.WriteString("1. **Zusammenfassung**: Ein Satz zum Gesamtzustand der Finanzen.\n")
	b.WriteString("2. **Top-Sparpotenzial**: Die 2 größten Ausgaben-Kategorien mit je einem konkreten Spartipp.\n")
	b.WriteString("3. **Auffälligkeiten**: Ungewöhnlich hohe Einzelbeträge aus den größten Transaktionen.\n")
	b.WriteString("4. **Motivation**: Ein kurzer, positiver Abschlusssatz.\n\n")
	b.WriteString("Nutze Markdown (Fett, Listen).\n\n")

	b.WriteString("### Kategorien-Zusammenfassung:\n")
	for _, c := range categories {
		fmt.Fprintf(&b, "- %s: %s € (%d Transaktionen)\n", c.Name, c.Amount.StringFixed(2), c.Count)
	}

	b.WriteString("\n### Größte Einzeltransaktionen:\n")
	for _, tx := range largest {
		fmt.Fprintf(&b, "- %s: %s | %s € | %s\n", tx.BookingDate, tx.Payee, tx.Amount.StringFixed(2), tx.Memo)
	}
	return b.String()
}
