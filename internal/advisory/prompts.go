package advisory

import (
	"fmt"
	"strings"
)

// StateLabel is the qualitative state of a benchmark deviation.
func StateLabel(b Benchmark) string {
	if b.Deviation.IsPositive() {
		return "zu hoch"
	}
	return "sehr effizient"
}

// Prompt describes one flagged category for the text-generation service.
func Prompt(b Benchmark) string {
	return fmt.Sprintf("Kategorie: %s, Aktueller Anteil: %s%%, Ziel-Benchmark: %s%%. Zustand ist %s.",
		b.Category,
		b.ActualShare.Shift(2).StringFixed(1),
		b.TargetShare.Shift(2).StringFixed(1),
		StateLabel(b),
	)
}

// buildTipsPrompt is the full model prompt used by GeminiGenerator.
func buildTipsPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("Du bist ein Finanzberater. Für jede der folgenden Kategorien weicht der Ausgabenanteil ")
	b.WriteString("am Nettoeinkommen deutlich vom Richtwert ab.\n\n")
	fmt.Fprintf(&b, "Gesamteinkommen: %.2f EUR\n", req.TotalIncome)
	for _, p := range req.Prompts {
		b.WriteString("- " + p + "\n")
	}
	b.WriteString("\nAufgabe:\n")
	b.WriteString("- Formuliere pro Kategorie genau einen kurzen, konkreten Ratschlag auf Deutsch.\n")
	b.WriteString("- \"score\" ist positiv für lobenswertes Verhalten, negativ für Handlungsbedarf.\n")
	b.WriteString("- \"confidence\" ist eine Zahl zwischen 0 und 1.\n\n")
	b.WriteString("Antworte NUR mit gültigem JSON in genau dieser Form:\n")
	b.WriteString(`{"tips":[{"category":"...","title":"...","text":"...","confidence":0.8,"score":-1}]}`)
	b.WriteString("\nKeine Code-Fences, kein Markdown, kein zusätzlicher Text.\n")
	return b.String()
}
