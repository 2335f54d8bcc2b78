package bigquery

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"cloud.google.com/go/bigquery"
	"github.com/google/go-cmp/cmp"
	"google.golang.org/api/googleapi"
)

func TestTransactionsSchema_MatchesRow(t *testing.T) {
	inferred, err := bigquery.InferSchema(TransactionRow{})
	if err != nil {
		t.Fatalf("InferSchema() error = %v", err)
	}

	type column struct {
		Name string
		Type bigquery.FieldType
	}
	columns := func(s bigquery.Schema) []column {
		out := make([]column, len(s))
		for i, f := range s {
			out[i] = column{Name: f.Name, Type: f.Type}
		}
		return out
	}

	if diff := cmp.Diff(columns(inferred), columns(TransactionsSchema())); diff != "" {
		t.Errorf("schema mismatch (-row +table):\n%s", diff)
	}
}

func TestTransactionsTableMetadata(t *testing.T) {
	md := TransactionsTableMetadata()
	if md.TimePartitioning == nil || md.TimePartitioning.Field != "booking_date" {
		t.Errorf("TimePartitioning = %+v, want booking_date", md.TimePartitioning)
	}
	if md.Clustering == nil || len(md.Clustering.Fields) != 1 || md.Clustering.Fields[0] != "category" {
		t.Errorf("Clustering = %+v", md.Clustering)
	}
}

func TestIsAlreadyExists(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"conflict", &googleapi.Error{Code: http.StatusConflict}, true},
		{"wrapped conflict", fmt.Errorf("create: %w", &googleapi.Error{Code: http.StatusConflict}), true},
		{"forbidden", &googleapi.Error{Code: http.StatusForbidden}, false},
		{"plain", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isAlreadyExists(tt.err); got != tt.want {
				t.Errorf("isAlreadyExists() = %v, want %v", got, tt.want)
			}
		})
	}
}
