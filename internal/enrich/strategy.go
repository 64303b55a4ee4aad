package enrich

// Strategy is one way of turning a person name into a Wikidata lookup
type Strategy struct {
	Name string
	Mode QueryMode
	Term func(name string) string
}

// PersonStrategies are tried in order. The next runs only when the previous
// one produced no candidate scoring above zero.
var PersonStrategies = []Strategy{
	{Name: "full_name", Mode: ByLabel, Term: func(name string) string { return name }},
	{Name: "whole_family_name", Mode: ByFamilyName, Term: func(name string) string { return name }},
	{Name: "last_word_family_name", Mode: ByFamilyName, Term: lastWord},
}
