package model

import (
	"strconv"
)

// Kind identifies an entity class in the graph
type Kind string

const (
	KindPlace      Kind = "place"
	KindPerson     Kind = "person"
	KindEarthquake Kind = "earthquake"
)

// Graph returns the name used for the kind's custom assertion graph
func (k Kind) Graph() string {
	switch k {
	case KindPlace:
		return "places"
	case KindPerson:
		return "persons"
	case KindEarthquake:
		return "earthquakes"
	}
	return string(k)
}

// Coordinates is a WGS84 latitude/longitude pair in degrees
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ParseCoordinates builds coordinates from two literal values.
// Missing or malformed values yield nil.
func ParseCoordinates(lat, lon string) *Coordinates {
	if lat == "" || lon == "" {
		return nil
	}
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return nil
	}
	lo, err := strconv.ParseFloat(lon, 64)
	if err != nil {
		return nil
	}
	return &Coordinates{Lat: la, Lon: lo}
}

// Entity is one place, person or earthquake read from the graph.
//
// Begin and End hold raw date literals: birth/death for persons,
// begin/end of the possible time-span for earthquakes.
type Entity struct {
	ID          string       `json:"id"`
	Kind        Kind         `json:"kind"`
	Label       string       `json:"label"`
	Begin       string       `json:"begin,omitempty"`
	End         string       `json:"end,omitempty"`
	Coords      *Coordinates `json:"coords,omitempty"`
	ExternalRef string       `json:"external_ref,omitempty"`
}

// EffectiveLabel is the label used for similarity: the raw label, plus the
// external reference in parentheses once the entity has been enriched.
func (e Entity) EffectiveLabel() string {
	if e.ExternalRef == "" {
		return e.Label
	}
	return e.Label + " (" + e.ExternalRef + ")"
}

// DateLiteral is a time-span date value as stored in the graph
type DateLiteral struct {
	Subject   string `json:"subject"`
	Predicate string `json:"predicate"`
	Value     string `json:"value"`
	// Datatype is the literal's datatype IRI, empty for plain literals.
	Datatype string `json:"datatype,omitempty"`
}
