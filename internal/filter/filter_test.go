package filter

import (
	"testing"

	"github.com/sellotec/backend/internal/models"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		wantTerms    []string
		wantCategory models.Category
	}{
		{
			name:         "Romantic phrase",
			text:         "te amo mucho",
			wantTerms:    []string{"te amo"},
			wantCategory: models.CategorySexual,
		},
		{
			name:         "Case insensitive",
			text:         "TE AMO",
			wantTerms:    []string{"te amo"},
			wantCategory: models.CategorySexual,
		},
		{
			name:         "Embedded in longer sentence",
			text:         "oye, la verdad es que te amo desde marzo",
			wantTerms:    []string{"te amo"},
			wantCategory: models.CategorySexual,
		},
		{
			name:         "Threat",
			text:         "manana te voy a pegar a la salida",
			wantTerms:    []string{"te voy a pegar"},
			wantCategory: models.CategoryBullying,
		},
		{
			name:      "Clean greeting",
			text:      "hola, como estas?",
			wantTerms: nil,
		},
		{
			name:      "Clean school talk",
			text:      "profe, subi la evidencia del proyecto de robotica",
			wantTerms: nil,
		},
		{
			name:         "Multiple matches keeps all",
			text:         "te amo y te deseo",
			wantTerms:    []string{"te amo", "te deseo"},
			wantCategory: models.CategorySexual,
		},
		{
			name: "Substring policy matches inside unrelated words",
			// 'sexo' inside a longer token still trips the filter. Known
			// tradeoff of the substring policy, kept on purpose.
			text:         "sexogenario",
			wantTerms:    []string{"sexo"},
			wantCategory: models.CategorySexual,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches := Detect(tt.text)
			terms := Terms(matches)

			if len(terms) != len(tt.wantTerms) {
				t.Fatalf("Detect(%q) = %v, want terms %v", tt.text, terms, tt.wantTerms)
			}
			for i, want := range tt.wantTerms {
				if terms[i] != want {
					t.Errorf("match %d = %q, want %q", i, terms[i], want)
				}
			}

			if got := Classify(matches); got != tt.wantCategory {
				t.Errorf("Classify() = %q, want %q", got, tt.wantCategory)
			}
		})
	}
}

func TestDetect_EveryBlocklistedTermMatchesItself(t *testing.T) {
	for _, entry := range blocklist {
		matches := Detect("xx " + entry.Term + " yy")
		found := false
		for _, m := range matches {
			if m.Term == entry.Term {
				found = true
			}
		}
		if !found {
			t.Errorf("Detect did not match its own blocklist entry %q", entry.Term)
		}
	}
}
