package model

import "strings"

// Coordinate is a WGS84 latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Address is a street address candidate returned by reverse geocoding.
type Address struct {
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zip"`
}

// Empty returns true if the address carries no street component.
func (a Address) Empty() bool {
	return strings.TrimSpace(a.Street) == ""
}

// StandardizedAddress is a vendor-validated address with its geocode.
type StandardizedAddress struct {
	Address
	Location Coordinate `json:"location"`
}

// OwnerRecord is the attribute bag the enrichment vendor returns for a parcel.
// Missing or unparseable vendor fields are left at their zero value.
type OwnerRecord struct {
	OwnerNames      []string `json:"owner_names,omitempty"`
	IsCompany       bool     `json:"is_company"`
	MailingAddress  Address  `json:"mailing_address"`
	PropertyAddress Address  `json:"property_address"`
	ParcelID        string   `json:"parcel_id,omitempty"`
	LandUse         string   `json:"land_use,omitempty"`
	LotSizeAcres    float64  `json:"lot_size_acres,omitempty"`
	MarketValue     float64  `json:"market_value,omitempty"`
	YearBuilt       int      `json:"year_built,omitempty"`
}

// HasOwner returns true if at least one non-blank owner name is present.
func (r *OwnerRecord) HasOwner() bool {
	if r == nil {
		return false
	}
	for _, name := range r.OwnerNames {
		if strings.TrimSpace(name) != "" {
			return true
		}
	}
	return false
}

// HasPropertyStreet returns true if the property address street is populated.
func (r *OwnerRecord) HasPropertyStreet() bool {
	return r != nil && !r.PropertyAddress.Empty()
}

// Resolution is the outcome of resolving a single coordinate. Record may be a
// partial (address known, owner unknown) when the search exhausted without a
// full match; Distance is meters from the queried point to the accepted probe.
type Resolution struct {
	Origin   Coordinate   `json:"origin"`
	Record   *OwnerRecord `json:"record,omitempty"`
	Distance float64      `json:"distance_meters"`
}
