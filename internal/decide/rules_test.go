package decide

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/quakelink/internal/model"
	"github.com/ppiankov/quakelink/internal/score"
)

func fixedSimilarity(n int) score.SimilarityFunc {
	return func(a, b string) int { return n }
}

func TestPlaces_CoLocatedIsIdentical(t *testing.T) {
	th := model.DefaultThresholds()
	s := score.NewScorer(th, score.WithSimilarity(fixedSimilarity(10)))

	// about 0.3 km apart in Mytilene
	lesvos := model.Entity{ID: "p1", Kind: model.KindPlace, Label: "Lesvos", Coords: &model.Coordinates{Lat: 39.1000, Lon: 26.5500}}
	mytilene := model.Entity{ID: "p2", Kind: model.KindPlace, Label: "Mytilene, Lesvos", Coords: &model.Coordinates{Lat: 39.1027, Lon: 26.5500}}

	f := s.Evaluate(lesvos, mytilene)
	require.True(t, f.HasDistance)
	assert.InDelta(t, 0.3, f.DistanceKm, 0.01)

	d := PlaceTable(th.Place).Classify(f)
	assert.Equal(t, model.Identical, d.Outcome)
	assert.Equal(t, "co-located", d.Rule)
}

func TestPlaces_NoIntermediateTier(t *testing.T) {
	th := model.DefaultThresholds()
	d := PlaceTable(th.Place).Classify(score.Features{LabelSimilarity: 94, NameContainment: true})
	assert.Equal(t, model.NoMatch, d.Outcome)
}

func TestEarthquakes_LabelOnlyIsIdentical(t *testing.T) {
	th := model.DefaultThresholds()
	s := score.NewScorer(th, score.WithSimilarity(fixedSimilarity(96)))

	a := model.Entity{ID: "e1", Kind: model.KindEarthquake, Label: "Great Messina earthquake", Begin: "1908-12-28T04:20:00"}
	b := model.Entity{ID: "e2", Kind: model.KindEarthquake, Label: "Great Messina earthquakes", End: "1780"}

	d := EarthquakeTable(th.Earthquake).Classify(s.Evaluate(a, b))
	assert.Equal(t, model.Identical, d.Outcome)
	assert.Equal(t, "label", d.Rule)
}

func TestPersons_SimilarNamesWithoutCorroborationDoNotMatch(t *testing.T) {
	th := model.DefaultThresholds()
	s := score.NewScorer(th, score.WithSimilarity(fixedSimilarity(80)))

	a := model.Entity{ID: "h1", Kind: model.KindPerson, Label: "Ioannis Papadopoulos", Begin: "1820", End: "1880"}
	b := model.Entity{ID: "h2", Kind: model.KindPerson, Label: "Giannis Papadopoulos", Begin: "1850", End: "1910"}

	f := s.Evaluate(a, b)
	require.False(t, f.NameContainment)
	require.True(t, f.SignificantNames)

	d := PersonTable(th.Person).Classify(f)
	assert.Equal(t, model.NoMatch, d.Outcome)
}

func TestPersons_Ladder(t *testing.T) {
	table := PersonTable(model.DefaultThresholds().Person)

	tests := []struct {
		name string
		f    score.Features
		want model.Outcome
		rule string
	}{
		{"external ref", score.Features{SameExternalRef: true}, model.Identical, "same-external-ref"},
		{"birth year", score.Features{LabelSimilarity: 10, BeginYear: true}, model.Identical, "birth-year"},
		{"death year", score.Features{EndYear: true}, model.Identical, "death-year"},
		{"containment", score.Features{NameContainment: true}, model.CloseMatch, "contained-name"},
		{"containment vetoed", score.Features{NameContainment: true, SignificantNames: true, LabelSimilarity: 50}, model.NoMatch, ""},
		{"label close", score.Features{LabelSimilarity: 85, SignificantNames: true}, model.CloseMatch, "label-close"},
		{"label identical", score.Features{LabelSimilarity: 95}, model.Identical, "label"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := table.Classify(tt.f)
			assert.Equal(t, tt.want, d.Outcome)
			assert.Equal(t, tt.rule, d.Rule)
		})
	}
}

func TestEarthquakes_Ladder(t *testing.T) {
	th := model.DefaultThresholds().Earthquake

	tests := []struct {
		name string
		f    score.Features
		want model.Outcome
	}{
		{"label and exact end", score.Features{LabelSimilarity: 85, EndExact: true}, model.Identical},
		{"region and exact begin", score.Features{CoordinateMatch: true, BeginExact: true}, model.Identical},
		{"region and exact end only", score.Features{CoordinateMatch: true, EndExact: true, EndYear: true}, model.CloseMatch},
		{"region and month", score.Features{CoordinateMatch: true, EndMonth: true}, model.Identical},
		{"label and year", score.Features{LabelSimilarity: 90, BeginYear: true}, model.CloseMatch},
		{"label and end year only", score.Features{LabelSimilarity: 79, EndYear: true}, model.NoMatch},
		{"region and year", score.Features{CoordinateMatch: true, EndYear: true}, model.CloseMatch},
		{"month alone", score.Features{BeginMonth: true}, model.CloseMatch},
		{"label close", score.Features{LabelSimilarity: 80}, model.CloseMatch},
		{"region alone", score.Features{CoordinateMatch: true, LabelSimilarity: 40}, model.NoMatch},
	}
	table := EarthquakeTable(th)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, table.Classify(tt.f).Outcome)
		})
	}
}

func TestEarthquakes_MonthComparesMonthComponent(t *testing.T) {
	th := model.DefaultThresholds()
	s := score.NewScorer(th, score.WithSimilarity(fixedSimilarity(10)))
	table := EarthquakeTable(th.Earthquake)
	chios := &model.Coordinates{Lat: 38.37, Lon: 26.13}

	a := model.Entity{ID: "eq1", Kind: model.KindEarthquake, Label: "Chios", Begin: "1780-03-10", Coords: chios}
	b := model.Entity{ID: "eq2", Kind: model.KindEarthquake, Label: "Aegean", Begin: "1908-03-28", Coords: chios}
	d := table.Classify(s.Evaluate(a, b))
	assert.Equal(t, model.Identical, d.Outcome, "co-located, same month, years apart")
	assert.Equal(t, "region-and-month", d.Rule)

	c := model.Entity{ID: "eq3", Kind: model.KindEarthquake, Label: "Messina", Begin: "1908-12-28"}
	e := model.Entity{ID: "eq4", Kind: model.KindEarthquake, Label: "Calabria", Begin: "1909-01-02"}
	assert.Equal(t, model.NoMatch, table.Classify(s.Evaluate(c, e)).Outcome, "December and January are not adjacent")
}

func TestEarthquakes_MonthAloneCanBeDisabled(t *testing.T) {
	th := model.DefaultThresholds().Earthquake
	th.MonthAloneCloseMatch = false

	d := EarthquakeTable(th).Classify(score.Features{BeginMonth: true})
	assert.Equal(t, model.NoMatch, d.Outcome)
}

func TestTables_Total(t *testing.T) {
	th := model.DefaultThresholds()
	for _, kind := range []model.Kind{model.KindPlace, model.KindPerson, model.KindEarthquake} {
		table, err := ForKind(kind, th)
		require.NoError(t, err)

		// every combination of boolean predicates at a few label scores
		for mask := 0; mask < 1<<11; mask++ {
			bit := func(i int) bool { return mask&(1<<i) != 0 }
			for _, sim := range []int{0, 80, 85, 90, 95, 100} {
				f := score.Features{
					SameExternalRef:  bit(0),
					NameContainment:  bit(1),
					SignificantNames: bit(2),
					CoordinateMatch:  bit(3),
					BeginExact:       bit(4),
					BeginMonth:       bit(5),
					BeginYear:        bit(6),
					EndExact:         bit(7),
					EndMonth:         bit(8),
					EndYear:          bit(9),
					HasDistance:      bit(10),
					LabelSimilarity:  sim,
				}
				d := table.Classify(f)
				assert.Contains(t, []model.Outcome{model.NoMatch, model.CloseMatch, model.Identical}, d.Outcome)
			}
		}
	}

	_, err := ForKind("volcano", th)
	assert.Error(t, err)
}
