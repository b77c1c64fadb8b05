package provider

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Availability is one raw award-availability record returned by the
// partner API. Provider identifiers may repeat across pages; optional
// fields are nil when the mileage program does not report them.
type Availability struct {
	ID             string
	Origin         string
	Destination    string
	Date           string
	Cabin          string
	Source         string
	RemainingSeats *int
	MileageCost    *int
	Taxes          *decimal.Decimal
	TaxesCurrency  string
	Direct         *bool
	UpdatedAt      string
	Payload        json.RawMessage
}

// Page is one page of search results.
type Page struct {
	Records []Availability
	Count   int
	HasMore bool
	Cursor  string
}

type searchResponse struct {
	Data    []availabilityRecord `json:"data"`
	Count   int                  `json:"count"`
	HasMore bool                 `json:"hasMore"`
	Cursor  string               `json:"cursor"`
}

type availabilityRecord struct {
	ID    string `json:"ID"`
	Route struct {
		OriginAirport      string `json:"OriginAirport"`
		DestinationAirport string `json:"DestinationAirport"`
		Source             string `json:"Source"`
	} `json:"Route"`
	Date           string `json:"Date"`
	Cabin          string `json:"Cabin"`
	MileageCost    *int   `json:"MileageCost"`
	RemainingSeats *int   `json:"RemainingSeats"`
	TotalTaxes     *int64 `json:"TotalTaxes"`
	TaxesCurrency  string `json:"TaxesCurrency"`
	Direct         *bool  `json:"Direct"`
	UpdatedAt      string `json:"UpdatedAt"`
}

var dec100 = decimal.NewFromInt(100)

func (r availabilityRecord) toAvailability(raw json.RawMessage) Availability {
	a := Availability{
		ID:             r.ID,
		Origin:         r.Route.OriginAirport,
		Destination:    r.Route.DestinationAirport,
		Date:           r.Date,
		Cabin:          r.Cabin,
		Source:         r.Route.Source,
		RemainingSeats: r.RemainingSeats,
		MileageCost:    r.MileageCost,
		TaxesCurrency:  r.TaxesCurrency,
		Direct:         r.Direct,
		UpdatedAt:      r.UpdatedAt,
		Payload:        raw,
	}
	if r.TotalTaxes != nil {
		// Provider reports taxes in currency minor units.
		taxes := decimal.NewFromInt(*r.TotalTaxes).Div(dec100)
		a.Taxes = &taxes
	}
	return a
}
