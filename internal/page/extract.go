// internal/page/extract.go
package page

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/leadscape/leadminer/pkg/types"
)

// ExtractLead converts a card snapshot into a lead record. One bad card
// must never abort a scan, so all failures surface as an error the caller
// can skip past.
func ExtractLead(card Card, platform string) (types.Lead, error) {
	if strings.TrimSpace(card.ProfileURL) == "" {
		return types.Lead{}, fmt.Errorf("card has no profile URL")
	}

	lead := types.Lead{
		ProfileURL:   card.ProfileURL,
		Name:         strings.TrimSpace(card.Fields["name"]),
		Headline:     strings.TrimSpace(card.Fields["headline"]),
		Location:     strings.TrimSpace(card.Fields["location"]),
		AvatarURL:    strings.TrimSpace(card.Fields["avatar"]),
		Platform:     platform,
		DiscoveredAt: time.Now().UTC(),
	}

	if lead.Name == "" {
		return types.Lead{}, fmt.Errorf("card %s has no name", card.ProfileURL)
	}

	// "Position at Company" headlines split into the optional fields.
	if pos, company, ok := splitHeadline(lead.Headline); ok {
		lead.Position = pos
		lead.Company = company
	}

	if raw, ok := card.Fields["followers"]; ok {
		lead.Followers = parseCount(raw)
	}
	if raw, ok := card.Fields["connections"]; ok {
		lead.Connections = parseCount(raw)
	}

	return lead, nil
}

// splitHeadline separates "Position at Company" when the pattern holds.
func splitHeadline(headline string) (position, company string, ok bool) {
	idx := strings.Index(headline, " at ")
	if idx <= 0 || idx+4 >= len(headline) {
		return "", "", false
	}
	return strings.TrimSpace(headline[:idx]), strings.TrimSpace(headline[idx+4:]), true
}

// parseCount extracts the leading integer from strings like
// "1,234 followers" or "500+ connections". Returns 0 when no digits exist.
func parseCount(raw string) int {
	n := 0
	seen := false
	for _, r := range raw {
		switch {
		case unicode.IsDigit(r):
			n = n*10 + int(r-'0')
			seen = true
		case r == ',' || r == '.' || r == ' ':
			if seen {
				continue
			}
		default:
			if seen {
				return n
			}
		}
	}
	if !seen {
		return 0
	}
	return n
}
