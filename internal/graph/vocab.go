package graph

import "github.com/ppiankov/quakelink/internal/model"

const (
	nsRDF    = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	nsRDFS   = "http://www.w3.org/2000/01/rdf-schema#"
	nsOWL    = "http://www.w3.org/2002/07/owl#"
	nsXSD    = "http://www.w3.org/2001/XMLSchema#"
	nsGeo    = "http://www.w3.org/2003/01/geo/wgs84_pos#"
	nsGN     = "http://www.geonames.org/ontology#"
	nsCRM    = "http://www.cidoc-crm.org/cidoc-crm/"
	nsEQ     = "https://crm-eq.ics.forth.gr/ontology#"
	nsCustom = "https://crm-eq.ics.forth.gr/ontology#/custom/"
	nsWDT    = "http://www.wikidata.org/prop/direct/"
)

const (
	RDFType   = nsRDF + "type"
	RDFSLabel = nsRDFS + "label"
	OWLSameAs = nsOWL + "sameAs"

	XSDDateTime = nsXSD + "dateTime"
	XSDDate     = nsXSD + "date"
	XSDFloat    = nsXSD + "float"

	GeoLat  = nsGeo + "lat"
	GeoLong = nsGeo + "long"

	GNName          = nsGN + "geonamesName"
	GNParentFeature = nsGN + "parentFeature"
	GNCountryName   = nsGN + "countryName"

	CRMPlace        = nsCRM + "E53_Place"
	CRMPerson       = nsCRM + "E21_Person"
	CRMTimeSpan     = nsCRM + "E52_Time-Span"
	CRMAtSomeTime   = nsCRM + "P82_at_some_time_within"
	CRMBeginOfBegin = nsCRM + "P82a_begin_of_the_begin"
	CRMEndOfEnd     = nsCRM + "P82b_end_of_the_end"
	CRMHasTimeSpan  = nsCRM + "P4_has_time-span"
	CRMTookPlaceAt  = nsCRM + "P7_took_place_at"

	EQEarthquake       = nsEQ + "EQ1_Earthquake"
	EQPossibleTimespan = nsEQ + "PEQ5_has_documented_possible_timespan"
	EQEpicenter        = nsEQ + "PEQ7_has_documented_possible_epicenter_place"
	EQEpicenterOf      = nsEQ + "PEQ7i_is__documented_possible_epicenter_place_of"
	EQWasBorn          = nsEQ + "P98i_was_born"
	EQDiedIn           = nsEQ + "P100i_died_in"

	CustomCloseMatch = nsCustom + "closeMatch"
	GraphGeoNames    = nsCustom + "geonames"
	GraphWikidata    = nsCustom + "wikidata"

	WDTBirth      = nsWDT + "P569"
	WDTDeath      = nsWDT + "P570"
	WDTOccupation = nsWDT + "P106"

	GeoNamesPrefix = "http://sws.geonames.org/"
	WikidataPrefix = "http://www.wikidata.org/entity/"
)

// timeSpanPredicates are the date properties the normalization pass rewrites
var timeSpanPredicates = []string{CRMAtSomeTime, CRMBeginOfBegin, CRMEndOfEnd}

// AssertionGraph is the named graph holding links between entities of kind
func AssertionGraph(kind model.Kind) string {
	return nsCustom + kind.Graph()
}

// AssertionPredicate maps an outcome to the link predicate. NoMatch has none.
func AssertionPredicate(o model.Outcome) (string, bool) {
	switch o {
	case model.Identical:
		return OWLSameAs, true
	case model.CloseMatch:
		return CustomCloseMatch, true
	}
	return "", false
}
