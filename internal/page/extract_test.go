// internal/page/extract_test.go
package page

import (
	"testing"
)

func TestExtractLead(t *testing.T) {
	card := Card{
		ProfileURL: "https://example.com/in/ada",
		Fields: map[string]string{
			"name":      " Ada Lovelace ",
			"headline":  "Analyst at Analytical Engines",
			"location":  "London",
			"avatar":    "https://example.com/ada.jpg",
			"followers": "1,234 followers",
		},
	}

	lead, err := ExtractLead(card, "linkedin")
	if err != nil {
		t.Fatalf("ExtractLead failed: %v", err)
	}
	if lead.Name != "Ada Lovelace" {
		t.Errorf("expected trimmed name, got %q", lead.Name)
	}
	if lead.Position != "Analyst" || lead.Company != "Analytical Engines" {
		t.Errorf("expected headline split, got position=%q company=%q", lead.Position, lead.Company)
	}
	if lead.Followers != 1234 {
		t.Errorf("expected 1234 followers, got %d", lead.Followers)
	}
	if lead.Platform != "linkedin" {
		t.Errorf("expected platform set, got %q", lead.Platform)
	}
	if lead.DiscoveredAt.IsZero() {
		t.Errorf("expected discovery timestamp")
	}
	if err := lead.Validate(); err != nil {
		t.Errorf("extracted lead must validate: %v", err)
	}
}

func TestExtractLeadRejectsIncompleteCards(t *testing.T) {
	if _, err := ExtractLead(Card{Fields: map[string]string{"name": "Ada"}}, "linkedin"); err == nil {
		t.Errorf("expected error for card without profile URL")
	}
	if _, err := ExtractLead(Card{ProfileURL: "/in/ada"}, "linkedin"); err == nil {
		t.Errorf("expected error for card without name")
	}
}

func TestSplitHeadline(t *testing.T) {
	tests := []struct {
		headline string
		position string
		company  string
		ok       bool
	}{
		{"Engineer at Acme", "Engineer", "Acme", true},
		{"Founder at Self at Large", "Founder", "Self at Large", true},
		{"Freelance consultant", "", "", false},
		{" at Acme", "", "", false},
		{"Engineer at ", "", "", false},
		{"", "", "", false},
	}

	for _, tt := range tests {
		pos, company, ok := splitHeadline(tt.headline)
		if ok != tt.ok || pos != tt.position || company != tt.company {
			t.Errorf("splitHeadline(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.headline, pos, company, ok, tt.position, tt.company, tt.ok)
		}
	}
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"1,234 followers", 1234},
		{"500+ connections", 500},
		{"2.1", 21},
		{"12", 12},
		{"no digits", 0},
		{"", 0},
	}

	for _, tt := range tests {
		if got := parseCount(tt.raw); got != tt.want {
			t.Errorf("parseCount(%q) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}
