package i18n

import "testing"

func TestTranslate(t *testing.T) {
	tr := NewTranslator("en")

	tests := []struct {
		locale string
		key    string
		want   string
	}{
		{"en", "no_results", "No events found. Try adjusting your filters."},
		{"", "upcoming_title", "Upcoming Events"},
		{"fr", "price_free", "Gratuit"},
		{"fr-CA,fr;q=0.9,en;q=0.5", "close", "Fermer"},
		{"de", "hero_cta", "Explore Events"},
		{"en", "no_such_key", "no_such_key"},
	}
	for _, tt := range tests {
		if got := tr.T(tt.locale, tt.key, nil); got != tt.want {
			t.Errorf("T(%q, %q) = %q, want %q", tt.locale, tt.key, got, tt.want)
		}
	}
}

func TestForWithTemplateData(t *testing.T) {
	tr := NewTranslator("en")
	tf := tr.For("en")
	if got := tf("spots_left", "Count", 500); got != "500 spots left" {
		t.Errorf("spots_left = %q", got)
	}
	if got := tr.For("fr")("footer_copyright", "Year", 2025); got != "© 2025 Notify. Tous droits réservés." {
		t.Errorf("footer_copyright = %q", got)
	}
}

func TestBadDefaultLocaleFallsBackToEnglish(t *testing.T) {
	tr := NewTranslator("not a tag!")
	if tr.DefaultLocale() != "en" {
		t.Errorf("default = %q", tr.DefaultLocale())
	}
}

func TestMatch(t *testing.T) {
	tr := NewTranslator("en")
	tests := []struct {
		header string
		want   string
	}{
		{"", "en"},
		{"fr-FR,fr;q=0.9", "fr"},
		{"de-DE,de;q=0.9", "en"},
		{"en-GB", "en"},
	}
	for _, tt := range tests {
		if got := tr.Match(tt.header); got != tt.want {
			t.Errorf("Match(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}
