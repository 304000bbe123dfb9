// Package normalize turns raw user input into canonical search queries.
//
// Location resolution follows a fixed ladder: an embedded canonical code
// (e.g. "Kuala Lumpur (KUL)") is extracted verbatim; otherwise the alias
// table is consulted; otherwise a bare well-formed code token is accepted
// as-is; otherwise, when a suggester is configured, suggestions for the
// text are fetched and any "Name (CODE)" entries are merged into the
// alias table before one final lookup. Anything still unresolved fails
// with core.ErrUnresolvedLocation.
//
// Normalization is pure apart from the alias table growing through
// suggestion lookups; the same input always resolves to the same output.
package normalize

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/tripsift/tripsift/pkg/core"
)

// Suggester augments the static alias table with entries fetched from a
// provider suggestion endpoint. Implementations live in pkg/fetch.
type Suggester interface {
	Suggest(ctx context.Context, text string) ([]string, error)
}

var (
	// embeddedCode matches a canonical code in parentheses at the end of
	// a location string, e.g. "Singapore (SIN)".
	embeddedCode = regexp.MustCompile(`\(([A-Z0-9]{3})\)\s*$`)

	// codeToken matches a bare canonical code typed directly.
	codeToken = regexp.MustCompile(`^[A-Z]{3}$`)
)

const dateLayout = "2006-01-02"

// Normalizer resolves free-text locations and validates dates for one
// provider's alias table.
type Normalizer struct {
	mu        sync.RWMutex
	aliases   map[string]core.CanonicalLocation
	suggester Suggester

	defaultPerPage int
}

// New creates a normalizer seeded with the given alias table. The table
// keys are matched case-insensitively. suggester may be nil.
func New(aliases map[string]core.CanonicalLocation, suggester Suggester) *Normalizer {
	table := make(map[string]core.CanonicalLocation, len(aliases))
	for name, loc := range aliases {
		table[strings.ToLower(strings.TrimSpace(name))] = loc
	}
	return &Normalizer{
		aliases:        table,
		suggester:      suggester,
		defaultPerPage: 20,
	}
}

// Normalize validates and canonicalizes a raw query. It never performs
// network calls except the optional suggestion lookup on alias misses,
// and its errors never reach the transport layer.
func (n *Normalizer) Normalize(ctx context.Context, raw core.RawQuery) (core.SearchQuery, error) {
	var q core.SearchQuery

	if !core.ValidDomain(raw.Domain) {
		return q, fmt.Errorf("unknown domain %q", raw.Domain)
	}
	q.Domain = raw.Domain

	var err error
	switch raw.Domain {
	case core.DomainFlight:
		if q.Origin, err = n.ResolveLocation(ctx, raw.Origin); err != nil {
			return core.SearchQuery{}, err
		}
		if q.Destination, err = n.ResolveLocation(ctx, raw.Destination); err != nil {
			return core.SearchQuery{}, err
		}
	default:
		if q.Location, err = n.ResolveLocation(ctx, raw.Location); err != nil {
			return core.SearchQuery{}, err
		}
	}

	q.StartDate, q.EndDate, err = ValidateDates(raw.StartDate, raw.EndDate)
	if err != nil {
		return core.SearchQuery{}, err
	}

	q.Guests = raw.Guests
	if q.Guests <= 0 {
		q.Guests = 1
	}
	q.Page = raw.Page
	if q.Page <= 0 {
		q.Page = 1
	}
	q.PerPage = raw.PerPage
	if q.PerPage <= 0 {
		q.PerPage = n.defaultPerPage
	}

	return q, nil
}

// ResolveLocation resolves a single free-text location to a canonical one.
func (n *Normalizer) ResolveLocation(ctx context.Context, text string) (core.CanonicalLocation, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return core.CanonicalLocation{}, core.UnresolvedLocationError(text)
	}

	// Embedded code wins over everything else.
	if m := embeddedCode.FindStringSubmatch(trimmed); m != nil {
		name := strings.TrimSpace(embeddedCode.ReplaceAllString(trimmed, ""))
		return core.CanonicalLocation{Code: m[1], DisplayName: name}, nil
	}

	if loc, ok := n.lookupAlias(trimmed); ok {
		return loc, nil
	}

	if codeToken.MatchString(trimmed) {
		return core.CanonicalLocation{Code: trimmed}, nil
	}

	if n.suggester != nil {
		if err := n.augmentFromSuggestions(ctx, trimmed); err == nil {
			if loc, ok := n.lookupAlias(trimmed); ok {
				return loc, nil
			}
		}
	}

	return core.CanonicalLocation{}, core.UnresolvedLocationError(text)
}

// AddAlias registers an alias at runtime. Later lookups of name resolve
// to loc.
func (n *Normalizer) AddAlias(name string, loc core.CanonicalLocation) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.aliases[strings.ToLower(strings.TrimSpace(name))] = loc
}

func (n *Normalizer) lookupAlias(text string) (core.CanonicalLocation, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	loc, ok := n.aliases[strings.ToLower(text)]
	return loc, ok
}

// augmentFromSuggestions fetches suggestions for text and merges every
// "Name (CODE)" entry into the alias table, keyed both by the suggested
// name and, for the first match, by the original text.
func (n *Normalizer) augmentFromSuggestions(ctx context.Context, text string) error {
	suggestions, err := n.suggester.Suggest(ctx, text)
	if err != nil {
		return err
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	matched := false
	for _, s := range suggestions {
		m := embeddedCode.FindStringSubmatch(strings.TrimSpace(s))
		if m == nil {
			continue
		}
		name := strings.TrimSpace(embeddedCode.ReplaceAllString(strings.TrimSpace(s), ""))
		loc := core.CanonicalLocation{Code: m[1], DisplayName: name}
		n.aliases[strings.ToLower(name)] = loc
		if !matched {
			n.aliases[strings.ToLower(text)] = loc
			matched = true
		}
	}
	return nil
}

// ValidateDates parses a start date and an optional end date, enforcing
// well-formedness and start <= end. The returned end time is zero when
// no end date was given.
func ValidateDates(start, end string) (time.Time, time.Time, error) {
	startDate, err := time.Parse(dateLayout, strings.TrimSpace(start))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start date %q", core.ErrInvalidDateRange, start)
	}

	if strings.TrimSpace(end) == "" {
		return startDate, time.Time{}, nil
	}

	endDate, err := time.Parse(dateLayout, strings.TrimSpace(end))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end date %q", core.ErrInvalidDateRange, end)
	}
	if endDate.Before(startDate) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %s is after %s", core.ErrInvalidDateRange, start, end)
	}

	return startDate, endDate, nil
}
