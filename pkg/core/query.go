package core

import (
	"fmt"
	"time"
)

// Domain identifies the travel vertical a query or result belongs to.
// Every provider serves exactly one domain, and queries are only ever
// dispatched to providers of a matching domain.
type Domain string

const (
	DomainFlight Domain = "flight"
	DomainHotel  Domain = "hotel"
	DomainCar    Domain = "car"
)

// ValidDomain reports whether d is one of the known travel domains.
func ValidDomain(d Domain) bool {
	switch d {
	case DomainFlight, DomainHotel, DomainCar:
		return true
	}
	return false
}

// CanonicalLocation is a resolved location produced by the normalizer.
// Code is a short canonical identifier (an IATA-style 3-letter code for
// flights, a provider city code for hotels and cars) and DisplayName is
// the human-readable name the user typed or the alias table knows it by.
type CanonicalLocation struct {
	Code        string `json:"code"`
	DisplayName string `json:"display_name,omitempty"`
}

// IsZero reports whether the location has not been resolved.
func (l CanonicalLocation) IsZero() bool {
	return l.Code == ""
}

func (l CanonicalLocation) String() string {
	if l.DisplayName == "" {
		return l.Code
	}
	return fmt.Sprintf("%s (%s)", l.DisplayName, l.Code)
}

// RawQuery is user search intent exactly as typed: free-text locations,
// date strings and counts. It is the input to the normalizer and never
// travels further down the pipeline.
type RawQuery struct {
	Domain      Domain
	Origin      string // flights: departure location free text
	Destination string // flights: arrival location free text
	Location    string // hotels/cars: single location free text
	StartDate   string // YYYY-MM-DD; departure, check-in or pickup
	EndDate     string // YYYY-MM-DD; return, check-out or dropoff (optional)
	Guests      int    // passengers, guests or drivers depending on domain
	Page        int
	PerPage     int
}

// SearchQuery is a normalized, validated query ready for dispatch.
//
// SearchQuery values are immutable once dispatched: the pipeline never
// mutates a query in place, a changed search is always a new value. This
// is what makes the latest-wins token comparison in the pipeline safe.
type SearchQuery struct {
	Domain      Domain
	Origin      CanonicalLocation // flights only
	Destination CanonicalLocation // flights only
	Location    CanonicalLocation // hotels and cars
	StartDate   time.Time
	EndDate     time.Time // zero when the search has no end date
	Guests      int
	Page        int
	PerPage     int
}

// Key returns a stable identity string for the query, used for history
// deduplication and log correlation. Two queries with the same key
// describe the same search.
func (q SearchQuery) Key() string {
	end := ""
	if !q.EndDate.IsZero() {
		end = q.EndDate.Format("2006-01-02")
	}
	return fmt.Sprintf("%s:%s:%s:%s:%s:%s:%d",
		q.Domain, q.Origin.Code, q.Destination.Code, q.Location.Code,
		q.StartDate.Format("2006-01-02"), end, q.Guests)
}

// Text returns the query as a human-readable line, suitable for the
// search history store and suggestion matching.
func (q SearchQuery) Text() string {
	switch q.Domain {
	case DomainFlight:
		return fmt.Sprintf("%s → %s %s", q.Origin.Code, q.Destination.Code, q.StartDate.Format("2006-01-02"))
	default:
		return fmt.Sprintf("%s %s", q.Location.Code, q.StartDate.Format("2006-01-02"))
	}
}
