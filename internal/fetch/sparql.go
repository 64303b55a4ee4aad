package fetch

import "strings"

// SPARQLResults is the SPARQL 1.1 JSON results document
type SPARQLResults struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results struct {
		Bindings []map[string]SPARQLTerm `json:"bindings"`
	} `json:"results"`
}

// SPARQLTerm is one bound value
type SPARQLTerm struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Datatype string `json:"datatype,omitempty"`
	Lang     string `json:"xml:lang,omitempty"`
}

// Value returns the value bound to name in row, or ""
func Value(row map[string]SPARQLTerm, name string) string {
	return row[name].Value
}

var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// QuoteLiteral renders s as a double-quoted SPARQL string literal
func QuoteLiteral(s string) string {
	return `"` + literalEscaper.Replace(s) + `"`
}
