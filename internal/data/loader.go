package data

import (
	"embed"
	"encoding/json"
	"fmt"
	"sync"
)

//go:embed names/*.json addresses/*.json banking/*.json
var dataFiles embed.FS

// DefaultRegion is used when a country has no name list of its own.
const DefaultRegion = "western"

// ReferenceData holds all loaded reference data for the generator
type ReferenceData struct {
	FirstNames   FirstNamesData
	LastNames    LastNamesData
	Countries    CountriesData
	Streets      StreetsData
	Institutions InstitutionsData
	Merchants    MerchantsData

	// Lookup maps for efficient access
	countryByCode   map[string]*Country
	regionByCountry map[string]string
}

// FirstNamesData represents the structure of first_names.json
type FirstNamesData struct {
	Regions map[string]RegionNames `json:"regions"`
}

// RegionNames holds names for a specific region
type RegionNames struct {
	Countries []string `json:"countries"`
	Male      []string `json:"male"`
	Female    []string `json:"female"`
}

// LastNamesData represents the structure of last_names.json
type LastNamesData struct {
	Regions map[string]RegionLastNames `json:"regions"`
}

// RegionLastNames holds last names for a specific region
type RegionLastNames struct {
	Countries []string `json:"countries"`
	Names     []string `json:"names"`
}

// CountriesData represents the structure of countries.json
type CountriesData struct {
	Countries []Country `json:"countries"`
}

// Country represents a single country's data (ISO 3166-1 alpha-3 code)
type Country struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
	Region   string `json:"region"`
	Weight   int    `json:"weight"`
}

// StreetsData represents the structure of streets.json
type StreetsData struct {
	Countries map[string]CountryStreets `json:"countries"`
}

// CountryStreets holds street names for a country
type CountryStreets struct {
	PostalFormat string   `json:"postal_format"`
	Streets      []string `json:"streets"`
}

// InstitutionsData represents the structure of institutions.json
type InstitutionsData struct {
	CounterpartyBanks  []string `json:"counterparty_banks"`
	InquiryCreditors   []string `json:"inquiry_creditors"`
	TradelineCreditors []string `json:"tradeline_creditors"`
	Bureaus            []string `json:"bureaus"`
}

// MerchantsData represents the structure of merchants.json
type MerchantsData struct {
	Merchants []Merchant `json:"merchants"`
}

// Merchant is a card-acceptor name with its category
type Merchant struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

var (
	instance *ReferenceData
	once     sync.Once
	loadErr  error
)

// Load loads all reference data from embedded files
// This is thread-safe and will only load data once
func Load() (*ReferenceData, error) {
	once.Do(func() {
		instance = &ReferenceData{}
		loadErr = instance.loadAll()
	})

	if loadErr != nil {
		return nil, loadErr
	}
	return instance, nil
}

// loadAll loads all data files
func (r *ReferenceData) loadAll() error {
	files := []struct {
		path   string
		target any
	}{
		{"names/first_names.json", &r.FirstNames},
		{"names/last_names.json", &r.LastNames},
		{"addresses/countries.json", &r.Countries},
		{"addresses/streets.json", &r.Streets},
		{"banking/institutions.json", &r.Institutions},
		{"banking/merchants.json", &r.Merchants},
	}

	for _, f := range files {
		data, err := dataFiles.ReadFile(f.path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", f.path, err)
		}
		if err := json.Unmarshal(data, f.target); err != nil {
			return fmt.Errorf("failed to parse %s: %w", f.path, err)
		}
	}

	r.buildLookups()
	return nil
}

// buildLookups creates efficient lookup structures
func (r *ReferenceData) buildLookups() {
	r.countryByCode = make(map[string]*Country)
	r.regionByCountry = make(map[string]string)
	for i := range r.Countries.Countries {
		c := &r.Countries.Countries[i]
		r.countryByCode[c.Code] = c
		r.regionByCountry[c.Code] = c.Region
	}
}

// GetCountry returns country data by ISO code
func (r *ReferenceData) GetCountry(code string) (*Country, bool) {
	c, ok := r.countryByCode[code]
	return c, ok
}

// GetRegion returns the name region for a country code, or DefaultRegion
func (r *ReferenceData) GetRegion(countryCode string) string {
	if region, ok := r.regionByCountry[countryCode]; ok {
		return region
	}
	return DefaultRegion
}

// GetFirstNames returns first names for a region and gender
func (r *ReferenceData) GetFirstNames(region string, isMale bool) []string {
	if rn, ok := r.FirstNames.Regions[region]; ok {
		if isMale {
			return rn.Male
		}
		return rn.Female
	}
	return nil
}

// GetLastNames returns last names for a region
func (r *ReferenceData) GetLastNames(region string) []string {
	if rn, ok := r.LastNames.Regions[region]; ok {
		return rn.Names
	}
	return nil
}

// GetStreets returns street names for a country, falling back to Singapore
func (r *ReferenceData) GetStreets(countryCode string) []string {
	if cs, ok := r.Streets.Countries[countryCode]; ok && len(cs.Streets) > 0 {
		return cs.Streets
	}
	return r.Streets.Countries["SGP"].Streets
}

// AllCountries returns all country data
func (r *ReferenceData) AllCountries() []Country {
	return r.Countries.Countries
}
