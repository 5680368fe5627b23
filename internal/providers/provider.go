// Package providers contains the local-business search connectors.
//
// Every connector turns a free-text query and a city into normalized
// listings. Connectors never fail outward: a missing credential, a transport
// error or a bad response all come back as a Result without listings, which
// is what lets the caller fall back to the next provider.
package providers

import (
	"context"
	"encoding/json"
)

const (
	NameSerper  = "serper"
	NameSerpAPI = "serpapi"
)

// Status tells why a Result does or does not carry listings.
type Status string

const (
	StatusOK          Status = "ok"
	StatusEmpty       Status = "empty"
	StatusUnavailable Status = "unavailable" // no credential configured
	StatusFailed      Status = "error"
)

// Listing is one business as returned by a provider, after field mapping.
// Empty strings and nil pointers mean the provider did not send the field.
type Listing struct {
	Name           string
	Address        string
	Phone          string
	Website        string
	MapsURL        string
	Rating         *float64
	Reviews        int
	Description    string
	Categories     []string
	Latitude       *float64
	Longitude      *float64
	OpeningHours   json.RawMessage
	ServiceOptions json.RawMessage
}

// Result is the outcome of one provider search.
type Result struct {
	Provider string
	Listings []Listing
	Status   Status
	Err      error // set when Status is StatusFailed
}

// Provider is a local-business search API.
//
// The built-in connectors always return a nil error and report problems
// through Result.Status. The error return exists for implementations that
// cannot absorb a failure; callers treat it as fatal for the job.
type Provider interface {
	Name() string
	Search(ctx context.Context, query, city string) (Result, error)
}

func unavailableResult(provider string) Result {
	return Result{Provider: provider, Status: StatusUnavailable}
}

func errorResult(provider string, err error) Result {
	return Result{Provider: provider, Status: StatusFailed, Err: err}
}

func listingsResult(provider string, listings []Listing) Result {
	if len(listings) == 0 {
		return Result{Provider: provider, Status: StatusEmpty}
	}
	return Result{Provider: provider, Listings: listings, Status: StatusOK}
}
