package overrides

import "testing"

func TestHandle(t *testing.T) {
	tests := []struct {
		name     string
		entity   string
		fallback string
		want     string
	}{
		{"table entry wins over fallback", "eigenlayer", "eigenlayer_old", "eigencloud"},
		{"entity name case-insensitive", "EigenLayer", "whatever", "eigencloud"},
		{"entity name trimmed", "  eigenlayer ", "whatever", "eigencloud"},
		{"fallback handle correction", "some unknown protocol", "aaveaave", "aave"},
		{"fallback passes through", "some unknown protocol", "goodhandle", "goodhandle"},
		{"empty fallback passes through", "some unknown protocol", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Handle(tt.entity, tt.fallback); got != tt.want {
				t.Errorf("Handle(%q, %q) = %q, want %q", tt.entity, tt.fallback, got, tt.want)
			}
		})
	}
}

func TestLogo(t *testing.T) {
	if got := Logo("Maker", "https://example.com/maker.png"); got != "https://icons.llama.fi/sky.jpg" {
		t.Errorf("Logo override not applied, got %q", got)
	}
	if got := Logo("Nobody", "https://example.com/x.png"); got != "https://example.com/x.png" {
		t.Errorf("Logo fallback not returned, got %q", got)
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName("Aave V3"); got != "Aave" {
		t.Errorf("DisplayName(Aave V3) = %q, want Aave", got)
	}
	if got := DisplayName("Compound"); got != "Compound" {
		t.Errorf("DisplayName(Compound) = %q, want unchanged", got)
	}
}

func TestExcluded(t *testing.T) {
	tests := []struct {
		entity string
		want   bool
	}{
		{"Binance CEX", true},
		{"binance cex", true},
		{"  OKX ", true},
		{"Aave", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := Excluded(tt.entity); got != tt.want {
			t.Errorf("Excluded(%q) = %v, want %v", tt.entity, got, tt.want)
		}
	}
}
