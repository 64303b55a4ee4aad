package graph

import (
	"fmt"
	"sort"
	"strings"
)

const prefixes = `PREFIX rdf: <http://www.w3.org/1999/02/22-rdf-syntax-ns#>
PREFIX rdfs: <http://www.w3.org/2000/01/rdf-schema#>
PREFIX owl: <http://www.w3.org/2002/07/owl#>
PREFIX xsd: <http://www.w3.org/2001/XMLSchema#>
PREFIX geo: <http://www.w3.org/2003/01/geo/wgs84_pos#>
PREFIX crm: <http://www.cidoc-crm.org/cidoc-crm/>
PREFIX eq: <https://crm-eq.ics.forth.gr/ontology#>
PREFIX custom: <https://crm-eq.ics.forth.gr/ontology#/custom/>
`

const placesQuery = prefixes + `SELECT ?p ?label ?lat ?long ?g WHERE {
  ?p a crm:E53_Place ;
     rdfs:label ?label .
  OPTIONAL { ?p geo:lat ?lat . }
  OPTIONAL { ?p geo:long ?long . }
  OPTIONAL { ?p owl:sameAs ?g .
             FILTER(STRSTARTS(STR(?g), "http://sws.geonames.org/")) }
  FILTER NOT EXISTS { ?e eq:PEQ7_has_documented_possible_epicenter_place ?p . }
  FILTER NOT EXISTS { ?p eq:PEQ7i_is__documented_possible_epicenter_place_of ?e . }
}
ORDER BY ?p ?label ?g ?lat ?long`

const personsQuery = prefixes + `SELECT ?p ?label ?birth ?death ?w WHERE {
  ?p a crm:E21_Person ;
     rdfs:label ?label .
  OPTIONAL { ?p eq:P98i_was_born ?birth . }
  OPTIONAL { ?p eq:P100i_died_in ?death . }
  OPTIONAL { ?p custom:closeMatch ?w .
             FILTER(STRSTARTS(STR(?w), "http://www.wikidata.org/entity/")) }
}
ORDER BY ?p ?label ?w ?birth ?death`

const earthquakesQuery = prefixes + `SELECT ?eq ?label ?ts ?begin ?end ?spanLabel ?lat ?long ?placeLat ?placeLong WHERE {
  ?eq a eq:EQ1_Earthquake ;
      rdfs:label ?label .
  OPTIONAL { ?eq eq:PEQ5_has_documented_possible_timespan ?ts .
             OPTIONAL { ?ts crm:P82a_begin_of_the_begin ?begin . }
             OPTIONAL { ?ts crm:P82b_end_of_the_end ?end . } }
  OPTIONAL { ?eq crm:P4_has_time-span ?span .
             ?span rdfs:label ?spanLabel . }
  OPTIONAL { ?eq crm:P7_took_place_at ?place .
             ?place owl:sameAs ?geo .
             ?geo geo:lat ?lat ;
                  geo:long ?long . }
  OPTIONAL { ?eq crm:P7_took_place_at ?place2 .
             ?place2 geo:lat ?placeLat ;
                     geo:long ?placeLong . }
}
ORDER BY ?eq ?label ?ts ?begin ?end ?spanLabel ?lat ?placeLat`

const timeSpanDatesQuery = prefixes + `SELECT ?sub ?dateProperty ?dateValue WHERE {
  ?sub a crm:E52_Time-Span ;
       ?dateProperty ?dateValue .
  FILTER (?dateProperty IN (crm:P82_at_some_time_within, crm:P82a_begin_of_the_begin, crm:P82b_end_of_the_end))
  FILTER (isLiteral(?dateValue))
}
ORDER BY ?sub ?dateProperty ?dateValue`

const pingQuery = `ASK { ?s ?p ?o }`

// replaceDateUpdate swaps one literal for another inside graph g
func replaceDateUpdate(g, subject, predicate string, old, replacement Term) string {
	head := node(subject) + " " + iriRef(predicate) + " "
	oldTriple := head + old.String() + " ."
	newTriple := head + replacement.String() + " ."
	return fmt.Sprintf(`DELETE { GRAPH %[1]s { %[2]s } }
INSERT { GRAPH %[1]s { %[3]s } }
WHERE { GRAPH %[1]s { %[2]s } }`, iriRef(g), oldTriple, newTriple)
}

// insertDataUpdate writes triples grouped by named graph
func insertDataUpdate(triples []Triple) string {
	byGraph := make(map[string][]Triple)
	for _, t := range triples {
		byGraph[t.Graph] = append(byGraph[t.Graph], t)
	}
	graphs := make([]string, 0, len(byGraph))
	for g := range byGraph {
		graphs = append(graphs, g)
	}
	sort.Strings(graphs)

	var b strings.Builder
	b.WriteString("INSERT DATA {\n")
	for _, g := range graphs {
		if g != "" {
			fmt.Fprintf(&b, "  GRAPH %s {\n", iriRef(g))
		}
		for _, t := range byGraph[g] {
			fmt.Fprintf(&b, "    %s\n", t)
		}
		if g != "" {
			b.WriteString("  }\n")
		}
	}
	b.WriteString("}")
	return b.String()
}
