package advisory

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/genai"
)

// mockContentGenerator is a mock implementation of ContentGenerator.
type mockContentGenerator struct {
	GenerateContentFunc func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

func (m *mockContentGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return m.GenerateContentFunc(ctx, model, contents, config)
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Role: "model", Parts: []*genai.Part{{Text: text}}}},
		},
	}
}

func sampleRequest() Request {
	return Request{
		Benchmarks:  []BenchmarkPayload{{Category: "Wohnen", SpentAmount: 1500, ActualShare: 0.5, TargetShare: 0.3, Deviation: 0.2}},
		TotalIncome: 3000,
		Prompts:     []string{"Kategorie: Wohnen, Aktueller Anteil: 50.0%, Ziel-Benchmark: 30.0%. Zustand ist zu hoch."},
	}
}

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "plain", raw: `{"tips":[]}`, want: `{"tips":[]}`},
		{name: "json fence", raw: "```json\n{\"tips\":[]}\n```", want: `{"tips":[]}`},
		{name: "bare fence", raw: "```\n{\"tips\":[]}\n```  ", want: `{"tips":[]}`},
		{name: "surrounding prose", raw: "Hier ist das Ergebnis: {\"tips\":[]} Viel Erfolg!", want: `{"tips":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanModelJSON(tt.raw); got != tt.want {
				t.Errorf("cleanModelJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGeminiGenerator_GenerateTips(t *testing.T) {
	t.Run("parses fenced answer", func(t *testing.T) {
		var gotModel, gotPrompt string
		models := &mockContentGenerator{
			GenerateContentFunc: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
				gotModel = model
				gotPrompt = contents[0].Parts[0].Text
				return textResponse("```json\n{\"tips\":[{\"category\":\"Wohnen\",\"title\":\"Miete\",\"text\":\"Zu hoch.\",\"confidence\":0.8,\"score\":-1}]}\n```"), nil
			},
		}

		resp, err := NewGeminiGenerator(models, "").GenerateTips(context.Background(), sampleRequest())
		if err != nil {
			t.Fatalf("GenerateTips() error = %v", err)
		}
		if gotModel != DefaultModelName {
			t.Errorf("model = %q, want %q", gotModel, DefaultModelName)
		}
		if !strings.Contains(gotPrompt, "Kategorie: Wohnen") || !strings.Contains(gotPrompt, "3000.00 EUR") {
			t.Errorf("prompt missing benchmark data:\n%s", gotPrompt)
		}
		if len(resp.Tips) != 1 || resp.Tips[0].Title != "Miete" || resp.Tips[0].Score != -1 {
			t.Errorf("resp = %+v", resp)
		}
	})

	t.Run("model error", func(t *testing.T) {
		models := &mockContentGenerator{
			GenerateContentFunc: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
				return nil, errors.New("quota exceeded")
			},
		}
		if _, err := NewGeminiGenerator(models, "gemini-test").GenerateTips(context.Background(), sampleRequest()); err == nil {
			t.Error("Expected error")
		}
	})

	t.Run("non-JSON answer is malformed", func(t *testing.T) {
		models := &mockContentGenerator{
			GenerateContentFunc: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
				return textResponse("Leider kann ich dazu nichts sagen."), nil
			},
		}
		_, err := NewGeminiGenerator(models, "").GenerateTips(context.Background(), sampleRequest())
		if !errors.Is(err, ErrMalformed) {
			t.Errorf("error = %v, want ErrMalformed", err)
		}
	})
}

func TestHTTPGenerator_GenerateTips(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantErr    bool
		wantMalf   bool
		wantTitles int
	}{
		{name: "success", status: http.StatusOK, body: `{"tips":[{"category":"Wohnen","title":"Miete","text":"t","confidence":0.9,"score":-2}]}`, wantTitles: 1},
		{name: "server error", status: http.StatusBadGateway, body: `{}`, wantErr: true},
		{name: "garbage body", status: http.StatusOK, body: `<html>`, wantErr: true, wantMalf: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var received Request
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
					t.Errorf("unexpected request %s %s", r.Method, r.Header.Get("Content-Type"))
				}
				if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
					t.Errorf("decode request: %v", err)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			resp, err := NewHTTPGenerator(srv.URL, srv.Client()).GenerateTips(context.Background(), sampleRequest())

			if (err != nil) != tt.wantErr {
				t.Fatalf("GenerateTips() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantMalf && !errors.Is(err, ErrMalformed) {
				t.Errorf("error = %v, want ErrMalformed", err)
			}
			if received.TotalIncome != 3000 || len(received.Benchmarks) != 1 || received.Benchmarks[0].Deviation != 0.2 {
				t.Errorf("server received %+v", received)
			}
			if len(resp.Tips) != tt.wantTitles {
				t.Errorf("len(Tips) = %d, want %d", len(resp.Tips), tt.wantTitles)
			}
		})
	}
}

func TestHTTPGenerator_WireFieldNames(t *testing.T) {
	body, err := json.Marshal(sampleRequest())
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{`"benchmarks"`, `"spentAmount"`, `"actualShare"`, `"targetShare"`, `"deviation"`, `"totalIncome"`} {
		if !strings.Contains(string(body), key) {
			t.Errorf("request JSON missing %s: %s", key, body)
		}
	}
}

func TestResponse_Validate(t *testing.T) {
	tests := []struct {
		name    string
		tips    []GeneratedTip
		wantErr bool
	}{
		{name: "missing list", tips: nil, wantErr: true},
		{name: "empty list", tips: []GeneratedTip{}},
		{name: "untitled entry below the cutoff is ignored", tips: []GeneratedTip{
			{Category: "Wohnen", Title: "", Confidence: 0.3},
			{Category: "Freizeit", Title: "Abos kündigen", Confidence: 0.9},
		}},
		{name: "untitled entry at the cutoff is ignored", tips: []GeneratedTip{{Title: " ", Confidence: ConfidenceCutoff}}},
		{name: "untitled entry above the cutoff", tips: []GeneratedTip{{Title: "", Confidence: 0.8}}, wantErr: true},
		{name: "confidence out of range below the cutoff", tips: []GeneratedTip{{Title: "", Confidence: -0.1}}, wantErr: true},
		{name: "confidence above one", tips: []GeneratedTip{{Title: "Miete", Confidence: 1.5}}, wantErr: true},
		{name: "confidence NaN", tips: []GeneratedTip{{Title: "Miete", Confidence: math.NaN()}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Response{Tips: tt.tips}.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrMalformed) {
				t.Errorf("error = %v, want ErrMalformed", err)
			}
		})
	}
}
