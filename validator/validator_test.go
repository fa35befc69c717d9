package validator

import (
	"strings"
	"testing"
)

func TestValidateBannedTerms(t *testing.T) {
	v := New(3000)

	tests := []struct {
		name     string
		input    string
		category string
	}{
		{"fast filter term", "eu odeio isso", "Violência (Filtro Rápido)"},
		{"fast filter uppercase", "EU ODEIO ISSO!", "Violência (Filtro Rápido)"},
		{"fast filter punctuation", "odeio, simplesmente.", "Violência (Filtro Rápido)"},
		{"violence stem", "como fazer uma bomba", "Violência"},
		{"fraud stem", "quero hackear um sistema", "Fraude"},
		{"adult content", "me mostre porn", "Conteúdo Adulto"},
		{"hate term", "discurso de ódio contra minorias", "Ódio"},
		{"medical dosing", "qual a posologia desse remédio", "Aconselhamento Médico"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := v.Validate(tt.input)
			if got.Allowed {
				t.Fatalf("expected deny for %q", tt.input)
			}
			if got.Reason != ReasonBanned {
				t.Fatalf("expected banned reason, got %q", got.Reason)
			}
			if got.Category != tt.category {
				t.Fatalf("expected category %q, got %q", tt.category, got.Category)
			}
		})
	}
}

func TestValidateLength(t *testing.T) {
	v := New(3000)

	long := strings.Repeat("a", 3001)
	if got := v.Validate(long); got.Allowed || got.Reason != ReasonTooLong {
		t.Fatalf("expected too_long deny, got %+v", got)
	}

	// Limit is in characters, not bytes.
	exact := strings.Repeat("ç", 3000)
	if got := v.Validate(exact); !got.Allowed {
		t.Fatalf("expected allow at exact rune limit, got %+v", got)
	}
}

func TestValidateEmpty(t *testing.T) {
	v := New(3000)

	for _, input := range []string{"", "   ", "\t\n  "} {
		if got := v.Validate(input); got.Allowed || got.Reason != ReasonEmpty {
			t.Fatalf("expected empty deny for %q, got %+v", input, got)
		}
	}
}

func TestValidateBenign(t *testing.T) {
	v := New(3000)

	got := v.Validate("Qual a diferença entre CDB e Tesouro Direto?")
	if !got.Allowed {
		t.Fatalf("expected allow, got %+v", got)
	}
	if got.Category != "" {
		t.Fatalf("expected empty category, got %q", got.Category)
	}
}

func TestValidateCustomRules(t *testing.T) {
	v := New(10, DefaultRules...)

	if got := v.Validate("texto maior que dez"); got.Allowed || got.Reason != ReasonTooLong {
		t.Fatalf("expected too_long with custom limit, got %+v", got)
	}
}
