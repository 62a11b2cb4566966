// internal/filter/filter_test.go
package filter

import (
	"testing"

	"github.com/leadscape/leadminer/pkg/types"
)

func TestNilSpecMatchesEverything(t *testing.T) {
	var s *Spec

	leads := []types.Lead{
		{ProfileURL: "https://example.com/in/a", Name: "Ada"},
		{},
		{Name: "No URL", Followers: 10},
	}
	for i, lead := range leads {
		if !s.Matches(lead) {
			t.Errorf("lead %d: nil spec must match every record", i)
		}
	}
}

func TestEmptySpecMatchesEverything(t *testing.T) {
	s := &Spec{ID: "aud-1", Name: "everyone"}
	if !s.Matches(types.Lead{Name: "Anyone"}) {
		t.Errorf("spec without rules must match every record")
	}
}

func TestMatchesIsPure(t *testing.T) {
	s := &Spec{
		ID:    "aud-2",
		Match: MatchAll,
		Rules: []Rule{{Field: "headline", Op: OpContains, Value: "engineer"}},
	}
	lead := types.Lead{Name: "Ada", Headline: "Software Engineer at Analytical Engines"}

	first := s.Matches(lead)
	for i := 0; i < 5; i++ {
		if got := s.Matches(lead); got != first {
			t.Fatalf("call %d: expected stable result %v, got %v", i, first, got)
		}
	}
	if lead.Headline != "Software Engineer at Analytical Engines" {
		t.Errorf("Matches must not mutate the record")
	}
	if s.Rules[0].Value != "engineer" {
		t.Errorf("Matches must not mutate the spec")
	}
}

func TestRuleOps(t *testing.T) {
	lead := types.Lead{
		Name:      "Grace Hopper",
		Headline:  "  Rear  Admiral ",
		Location:  "Arlington",
		Company:   "Navy",
		Position:  "Programmer",
		Followers: 1500,
	}

	tests := []struct {
		name string
		rule Rule
		want bool
	}{
		{"equals case folded", Rule{Field: "name", Op: OpEquals, Value: "grace hopper"}, true},
		{"equals whitespace normalized", Rule{Field: "headline", Op: OpEquals, Value: "rear admiral"}, true},
		{"equals mismatch", Rule{Field: "name", Op: OpEquals, Value: "ada"}, false},
		{"contains", Rule{Field: "headline", Op: OpContains, Value: "admiral"}, true},
		{"prefix", Rule{Field: "location", Op: OpPrefix, Value: "arl"}, true},
		{"prefix mismatch", Rule{Field: "location", Op: OpPrefix, Value: "ton"}, false},
		{"min followers pass", Rule{Op: OpMinFollowers, Value: "1000"}, true},
		{"min followers fail", Rule{Op: OpMinFollowers, Value: "2000"}, false},
		{"max followers pass", Rule{Op: OpMaxFollowers, Value: "2000"}, true},
		{"has company", Rule{Op: OpHasCompany}, true},
		{"unknown field", Rule{Field: "shoe_size", Op: OpEquals, Value: "42"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Spec{Rules: []Rule{tt.rule}}
			if got := s.Matches(lead); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestMatchModes(t *testing.T) {
	lead := types.Lead{Name: "Ada", Company: "Analytical Engines"}

	all := &Spec{
		Match: MatchAll,
		Rules: []Rule{
			{Field: "name", Op: OpEquals, Value: "ada"},
			{Op: OpMinFollowers, Value: "100"},
		},
	}
	if all.Matches(lead) {
		t.Errorf("match=all must fail when one rule fails")
	}

	any := &Spec{
		Match: MatchAny,
		Rules: []Rule{
			{Field: "name", Op: OpEquals, Value: "ada"},
			{Op: OpMinFollowers, Value: "100"},
		},
	}
	if !any.Matches(lead) {
		t.Errorf("match=any must pass when one rule passes")
	}
}

func TestSpecValidate(t *testing.T) {
	tests := []struct {
		name    string
		spec    *Spec
		wantErr bool
	}{
		{"nil spec", nil, false},
		{"valid", &Spec{Rules: []Rule{{Field: "name", Op: OpEquals, Value: "x"}}}, false},
		{"missing field", &Spec{Rules: []Rule{{Op: OpEquals, Value: "x"}}}, true},
		{"missing value", &Spec{Rules: []Rule{{Field: "name", Op: OpContains}}}, true},
		{"non numeric followers", &Spec{Rules: []Rule{{Op: OpMinFollowers, Value: "many"}}}, true},
		{"unknown op", &Spec{Rules: []Rule{{Field: "name", Op: "regex", Value: ".*"}}}, true},
		{"bad match mode", &Spec{Match: "most", Rules: []Rule{{Op: OpHasCompany}}}, true},
		{"has company needs nothing", &Spec{Rules: []Rule{{Op: OpHasCompany}}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}
