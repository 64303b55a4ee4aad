package model

// EnrichmentRecord is a canonical record retrieved from an external source
type EnrichmentRecord struct {
	Source      string       `json:"source"`
	ExternalID  string       `json:"external_id"`
	Label       string       `json:"label"`
	Coords      *Coordinates `json:"coords,omitempty"`
	AdminName   string       `json:"admin_name,omitempty"`
	CountryName string       `json:"country_name,omitempty"`
	BirthDate   string       `json:"birth_date,omitempty"`
	DeathDate   string       `json:"death_date,omitempty"`
	Occupations []string     `json:"occupations,omitempty"`
	Score       int          `json:"score"`
}

const (
	SourceGeoNames = "geonames"
	SourceWikidata = "wikidata"
)
