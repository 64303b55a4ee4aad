// Package decide classifies candidate pairs with ordered rule tables.
package decide

import (
	"fmt"

	"github.com/ppiankov/quakelink/internal/model"
	"github.com/ppiankov/quakelink/internal/score"
)

// Rule is one row of a decision table
type Rule struct {
	Name    string
	Outcome model.Outcome
	When    func(score.Features) bool
}

// Table is an ordered list of rules. The first rule that fires decides;
// when none fires the pair is a NoMatch.
type Table struct {
	Kind  model.Kind
	Rules []Rule
}

// Classify applies the table to a pair's features
func (t Table) Classify(f score.Features) model.Decision {
	for _, r := range t.Rules {
		if r.When(f) {
			return model.Decision{Outcome: r.Outcome, Rule: r.Name}
		}
	}
	return model.Decision{Outcome: model.NoMatch}
}

// ForKind builds the table for an entity kind
func ForKind(kind model.Kind, th model.Thresholds) (Table, error) {
	switch kind {
	case model.KindPlace:
		return PlaceTable(th.Place), nil
	case model.KindPerson:
		return PersonTable(th.Person), nil
	case model.KindEarthquake:
		return EarthquakeTable(th.Earthquake), nil
	}
	return Table{}, fmt.Errorf("no decision table for kind %q", kind)
}

func sameExternalRef(f score.Features) bool { return f.SameExternalRef }

// PlaceTable has no close-match tier
func PlaceTable(th model.PlaceThresholds) Table {
	return Table{
		Kind: model.KindPlace,
		Rules: []Rule{
			{"same-external-ref", model.Identical, sameExternalRef},
			{"label", model.Identical, func(f score.Features) bool {
				return f.LabelSimilarity >= th.LabelIdentical
			}},
			{"co-located", model.Identical, func(f score.Features) bool {
				return f.CoordinateMatch
			}},
		},
	}
}

func PersonTable(th model.PersonThresholds) Table {
	return Table{
		Kind: model.KindPerson,
		Rules: []Rule{
			{"same-external-ref", model.Identical, sameExternalRef},
			{"label", model.Identical, func(f score.Features) bool {
				return f.LabelSimilarity >= th.LabelIdentical
			}},
			{"birth-year", model.Identical, func(f score.Features) bool { return f.BeginYear }},
			{"death-year", model.Identical, func(f score.Features) bool { return f.EndYear }},
			{"contained-name", model.CloseMatch, func(f score.Features) bool {
				return f.NameContainment && !f.SignificantNames
			}},
			{"label-close", model.CloseMatch, func(f score.Features) bool {
				return f.LabelSimilarity >= th.LabelClose
			}},
		},
	}
}

// EarthquakeTable combines spatial and temporal corroboration since neither
// labels nor dates are reliable alone in historical catalogues.
func EarthquakeTable(th model.EarthquakeThresholds) Table {
	exact := func(f score.Features) bool { return f.BeginExact || f.EndExact }
	month := func(f score.Features) bool { return f.BeginMonth || f.EndMonth }
	year := func(f score.Features) bool { return f.BeginYear || f.EndYear }

	rules := []Rule{
		{"same-external-ref", model.Identical, sameExternalRef},
		{"label-and-exact-date", model.Identical, func(f score.Features) bool {
			return f.LabelSimilarity >= th.LabelWithExactDate && exact(f)
		}},
		{"region-and-exact-begin", model.Identical, func(f score.Features) bool {
			return f.CoordinateMatch && f.BeginExact
		}},
		{"region-and-month", model.Identical, func(f score.Features) bool {
			return f.CoordinateMatch && month(f)
		}},
		{"label", model.Identical, func(f score.Features) bool {
			return f.LabelSimilarity >= th.LabelIdentical
		}},
		{"label-and-year", model.CloseMatch, func(f score.Features) bool {
			return f.LabelSimilarity >= th.LabelWithYear && f.BeginYear
		}},
		{"region-and-year", model.CloseMatch, func(f score.Features) bool {
			return f.CoordinateMatch && (year(f) || month(f))
		}},
	}
	if th.MonthAloneCloseMatch {
		rules = append(rules, Rule{"month", model.CloseMatch, month})
	}
	rules = append(rules, Rule{"label-close", model.CloseMatch, func(f score.Features) bool {
		return f.LabelSimilarity >= th.LabelClose
	}})

	return Table{Kind: model.KindEarthquake, Rules: rules}
}
