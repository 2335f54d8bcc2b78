package advisory

// Polarity classifies a tip as praise, warning or plain information.
type Polarity string

const (
	Positive Polarity = "positive"
	Negative Polarity = "negative"
	Neutral  Polarity = "neutral"
)

// PolarityFromScore maps the sign of a generator score to a polarity.
func PolarityFromScore(score float64) Polarity {
	switch {
	case score > 0:
		return Positive
	case score < 0:
		return Negative
	}
	return Neutral
}

// Tip is one advisory finding. Only Selected is changed after creation.
type Tip struct {
	ID          string   `json:"id"`
	Category    string   `json:"category"`
	Polarity    Polarity `json:"polarity"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Confidence  float64  `json:"confidence"`
	Selected    bool     `json:"selected"`
}

func optimalTip() Tip {
	return Tip{
		ID:          "optimal",
		Category:    "General",
		Polarity:    Positive,
		Title:       "Optimale Budgetverteilung",
		Description: "Ihre Ausgaben liegen in allen Kernbereichen innerhalb der empfohlenen Benchmarks. Kompliment für Ihr exzellentes Finanzmanagement!",
		Confidence:  OptimalConfidence,
		Selected:    true,
	}
}

func fallbackTip() Tip {
	return Tip{
		ID:          "fallback",
		Category:    "System",
		Polarity:    Neutral,
		Title:       "Hinweis zur Analyse",
		Description: "KI-Insights konnten nicht geladen werden. Bitte prüfen Sie die Verbindung zum Analyse-Dienst.",
		Confidence:  FallbackConfidence,
		Selected:    true,
	}
}
