// Package filter evaluates audience rule sets against discovered leads.
// A Spec is owned by the dashboard backend and fetched by reference; the
// mining engine only calls Matches, which is a pure function of the spec
// and the lead.
package filter

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"github.com/leadscape/leadminer/pkg/types"
)

// Op identifies a rule comparison.
type Op string

const (
	OpEquals       Op = "equals"
	OpContains     Op = "contains"
	OpPrefix       Op = "prefix"
	OpMinFollowers Op = "min_followers"
	OpMaxFollowers Op = "max_followers"
	OpHasCompany   Op = "has_company"
)

// MatchMode controls how a spec combines its rules.
type MatchMode string

const (
	MatchAll MatchMode = "all"
	MatchAny MatchMode = "any"
)

// Rule is one predicate over a single lead field.
type Rule struct {
	Field string `json:"field" yaml:"field"`
	Op    Op     `json:"op" yaml:"op"`
	Value string `json:"value,omitempty" yaml:"value,omitempty"`
}

// Spec is a named audience rule set. A nil or empty spec matches every
// lead (pass-through).
type Spec struct {
	ID    string    `json:"id" yaml:"id"`
	Name  string    `json:"name" yaml:"name"`
	Match MatchMode `json:"match,omitempty" yaml:"match,omitempty"`
	Rules []Rule    `json:"rules,omitempty" yaml:"rules,omitempty"`
}

// folder case-folds strings for comparison; shared, stateless.
var folder = cases.Fold()

// normalize case-folds and collapses whitespace for rule comparison.
func normalize(s string) string {
	return folder.String(strings.Join(strings.Fields(s), " "))
}

// fieldValue resolves a rule field name to the lead's string value.
func fieldValue(lead types.Lead, field string) (string, bool) {
	switch field {
	case "name":
		return lead.Name, true
	case "headline", "bio":
		return lead.Headline, true
	case "location":
		return lead.Location, true
	case "company":
		return lead.Company, true
	case "position":
		return lead.Position, true
	case "platform":
		return lead.Platform, true
	default:
		return "", false
	}
}

// Matches reports whether the lead satisfies the spec. It is pure: the
// lead and spec are never mutated and the result depends on nothing else.
func (s *Spec) Matches(lead types.Lead) bool {
	if s == nil || len(s.Rules) == 0 {
		return true
	}

	mode := s.Match
	if mode == "" {
		mode = MatchAll
	}

	for _, rule := range s.Rules {
		ok := rule.matches(lead)
		if mode == MatchAll && !ok {
			return false
		}
		if mode == MatchAny && ok {
			return true
		}
	}
	return mode == MatchAll
}

func (r Rule) matches(lead types.Lead) bool {
	switch r.Op {
	case OpMinFollowers:
		min, err := strconv.Atoi(r.Value)
		return err == nil && lead.Followers >= min
	case OpMaxFollowers:
		max, err := strconv.Atoi(r.Value)
		return err == nil && lead.Followers <= max
	case OpHasCompany:
		return strings.TrimSpace(lead.Company) != ""
	}

	value, known := fieldValue(lead, r.Field)
	if !known {
		return false
	}
	have := normalize(value)
	want := normalize(r.Value)

	switch r.Op {
	case OpEquals:
		return have == want
	case OpContains:
		return strings.Contains(have, want)
	case OpPrefix:
		return strings.HasPrefix(have, want)
	default:
		return false
	}
}

// Validate checks the spec's rules for unusable configuration.
func (s *Spec) Validate() error {
	if s == nil {
		return nil
	}
	if s.Match != "" && s.Match != MatchAll && s.Match != MatchAny {
		return fmt.Errorf("invalid match mode: %s", s.Match)
	}
	for i, rule := range s.Rules {
		switch rule.Op {
		case OpEquals, OpContains, OpPrefix:
			if rule.Field == "" {
				return fmt.Errorf("rule %d: field is required for op %s", i, rule.Op)
			}
			if rule.Value == "" {
				return fmt.Errorf("rule %d: value is required for op %s", i, rule.Op)
			}
		case OpMinFollowers, OpMaxFollowers:
			if _, err := strconv.Atoi(rule.Value); err != nil {
				return fmt.Errorf("rule %d: op %s requires a numeric value, got %q", i, rule.Op, rule.Value)
			}
		case OpHasCompany:
			// No field or value required.
		default:
			return fmt.Errorf("rule %d: unknown op %q", i, rule.Op)
		}
	}
	return nil
}
