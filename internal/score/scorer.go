package score

import (
	"github.com/ppiankov/quakelink/internal/model"
)

// Features are the evaluator outputs for one unordered pair. Every predicate
// is false when either side lacks the attribute it needs.
type Features struct {
	SameExternalRef bool

	LabelSimilarity  int
	NameContainment  bool
	SignificantNames bool // word sets differ beyond the tolerance

	HasDistance     bool
	DistanceKm      float64
	CoordinateMatch bool

	BeginExact bool
	BeginMonth bool
	BeginYear  bool
	EndExact   bool
	EndMonth   bool
	EndYear    bool
}

// Data returns the features as a flat map for structured logs
func (f Features) Data() map[string]any {
	data := map[string]any{
		"same_external_ref": f.SameExternalRef,
		"label_similarity":  f.LabelSimilarity,
		"containment":       f.NameContainment,
		"significant_names": f.SignificantNames,
		"coordinate_match":  f.CoordinateMatch,
		"begin":             [3]bool{f.BeginExact, f.BeginMonth, f.BeginYear},
		"end":               [3]bool{f.EndExact, f.EndMonth, f.EndYear},
	}
	if f.HasDistance {
		data["distance_km"] = f.DistanceKm
	}
	return data
}

// Scorer computes Features for pairs of same-kind entities
type Scorer struct {
	similarity SimilarityFunc
	thresholds model.Thresholds
}

// Option customizes a Scorer
type Option func(*Scorer)

// WithSimilarity replaces the label similarity function
func WithSimilarity(fn SimilarityFunc) Option {
	return func(s *Scorer) {
		if fn != nil {
			s.similarity = fn
		}
	}
}

// NewScorer creates a scorer using the given thresholds for tolerances
func NewScorer(thresholds model.Thresholds, opts ...Option) *Scorer {
	s := &Scorer{
		similarity: Ratio,
		thresholds: thresholds,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Evaluate computes the features of (a, b). The entities must share a kind.
func (s *Scorer) Evaluate(a, b model.Entity) Features {
	var f Features

	f.SameExternalRef = a.ExternalRef != "" && a.ExternalRef == b.ExternalRef
	if f.SameExternalRef {
		return f
	}

	f.LabelSimilarity = s.similarity(a.EffectiveLabel(), b.EffectiveLabel())
	f.NameContainment = Contains(a.Label, b.Label)

	switch a.Kind {
	case model.KindPlace:
		s.spatial(&f, a, b, s.thresholds.Place.CoordinateKm)

	case model.KindPerson:
		th := s.thresholds.Person
		f.SignificantNames = WordDifference(a.Label, b.Label) > th.NameDifference
		f.BeginYear = both(a.Begin, b.Begin) && YearMatch(a.Begin, b.Begin, th.YearTolerance)
		f.EndYear = both(a.End, b.End) && YearMatch(a.End, b.End, th.YearTolerance)

	case model.KindEarthquake:
		th := s.thresholds.Earthquake
		s.spatial(&f, a, b, th.CoordinateKm)
		if both(a.Begin, b.Begin) {
			f.BeginExact = ExactMatch(a.Begin, b.Begin, th.HourTolerance)
			f.BeginMonth = MonthMatch(a.Begin, b.Begin, th.MonthTolerance)
			f.BeginYear = YearMatch(a.Begin, b.Begin, th.YearTolerance)
		}
		if both(a.End, b.End) {
			f.EndExact = ExactMatch(a.End, b.End, th.HourTolerance)
			f.EndMonth = MonthMatch(a.End, b.End, th.MonthTolerance)
			f.EndYear = YearMatch(a.End, b.End, th.YearTolerance)
		}
	}

	return f
}

func (s *Scorer) spatial(f *Features, a, b model.Entity, thresholdKm float64) {
	if a.Coords == nil || b.Coords == nil {
		return
	}
	f.HasDistance = true
	f.DistanceKm = Haversine(*a.Coords, *b.Coords)
	f.CoordinateMatch = f.DistanceKm <= thresholdKm
}

func both(a, b string) bool {
	return a != "" && b != ""
}
