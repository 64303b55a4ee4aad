package enrich

import (
	"regexp"
	"sort"
	"strings"

	"github.com/ppiankov/quakelink/internal/dates"
)

// Candidate is one person returned by a biographical lookup, with the
// occupations of all its result rows merged
type Candidate struct {
	IRI         string
	Label       string
	BirthDate   string
	DeathDate   string
	Occupations []string
}

// OccupationWeights rates how plausible an occupation is for someone who
// documented an earthquake
var OccupationWeights = map[string]int{
	"historian":     5,
	"archaeologist": 4,
	"geographer":    4,
	"seismologist":  5,
	"geologist":     5,
	"scholar":       3,
	"scientist":     3,
	"chronicler":    4,
	"writer":        2,
	"author":        2,
	"researcher":    3,
	"academic":      3,
	"educator":      2,
	"professor":     2,
	"teacher":       1,
}

// DateBonus is added for each of birth year and death year agreement
const DateBonus = 5

// Score rates c against the life dates known locally
func Score(c Candidate, birth, death string) int {
	score := 0
	for _, occ := range c.Occupations {
		score += OccupationWeights[strings.ToLower(occ)]
	}
	if sameYear(c.BirthDate, birth) {
		score += DateBonus
	}
	if sameYear(c.DeathDate, death) {
		score += DateBonus
	}
	return score
}

func sameYear(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	ya, ok1 := dates.Year(a)
	yb, ok2 := dates.Year(b)
	return ok1 && ok2 && ya == yb
}

// Rank picks the best candidate. A higher score wins; on equal scores the
// candidate with more occupations wins, and earlier candidates win full
// ties. It reports false when no candidate scores above zero.
func Rank(cands []Candidate, birth, death string) (Candidate, int, bool) {
	var best Candidate
	bestScore := 0
	found := false

	for _, c := range cands {
		s := Score(c, birth, death)
		if s > bestScore || (found && s == bestScore && len(c.Occupations) > len(best.Occupations)) {
			best, bestScore, found = c, s, true
		}
	}

	if bestScore == 0 {
		return Candidate{}, 0, false
	}
	return best, bestScore, true
}

// groupCandidates merges rows of the same person, keeping first-seen order
func groupCandidates(rows []Candidate) []Candidate {
	index := make(map[string]int)
	var out []Candidate
	seen := make(map[string]map[string]bool)

	for _, r := range rows {
		i, ok := index[r.IRI]
		if !ok {
			i = len(out)
			index[r.IRI] = i
			out = append(out, Candidate{IRI: r.IRI, Label: r.Label, BirthDate: r.BirthDate, DeathDate: r.DeathDate})
			seen[r.IRI] = make(map[string]bool)
		}
		c := &out[i]
		if c.Label == "" {
			c.Label = r.Label
		}
		if c.BirthDate == "" {
			c.BirthDate = r.BirthDate
		}
		if c.DeathDate == "" {
			c.DeathDate = r.DeathDate
		}
		for _, occ := range r.Occupations {
			if occ != "" && !seen[r.IRI][occ] {
				seen[r.IRI][occ] = true
				c.Occupations = append(c.Occupations, occ)
			}
		}
	}

	for i := range out {
		sort.Strings(out[i].Occupations)
	}
	return out
}

var (
	parenRe     = regexp.MustCompile(`\s*\(.*?\)`)
	parenYearRe = regexp.MustCompile(`\((\d{4})\)`)
)

// PrepareName strips parenthesized text from a person label. A
// parenthesized year such as "Mallet (1810)" is taken as both birth and
// death year when either is unknown.
func PrepareName(raw, birth, death string) (name, b, d string) {
	name = strings.TrimSpace(parenRe.ReplaceAllString(raw, ""))
	b, d = birth, death

	if m := parenYearRe.FindStringSubmatch(raw); m != nil {
		if b == "" || d == "" {
			b, d = m[1], m[1]
		}
	}
	return name, b, d
}

// xsdDate trims a Wikidata timestamp like "+1850-03-02T00:00:00Z" to
// "1850-03-02"
func xsdDate(raw string) string {
	if raw == "" {
		return ""
	}
	s := strings.TrimPrefix(raw, "+")
	if i := strings.Index(s, "T"); i >= 0 {
		s = s[:i]
	}
	return s
}

// lastWord returns the final whitespace-separated word of name
func lastWord(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}
