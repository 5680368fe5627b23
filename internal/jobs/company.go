package jobs

import (
	"regexp"
	"strings"
	"time"

	"kluster/lead-scraper/internal/models"
	"kluster/lead-scraper/internal/providers"
)

// PlaceholderName is stored for listings that come back without a name.
const PlaceholderName = "Sans nom"

var postalCodeRe = regexp.MustCompile(`\b(\d{5})\b`)

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// postalCode returns the first standalone five digit group of an address.
func postalCode(address string) *string {
	m := postalCodeRe.FindStringSubmatch(address)
	if m == nil {
		return nil
	}
	return &m[1]
}

// NewCompany builds the record stored for one listing of job.
func NewCompany(job models.ScrapeJob, l providers.Listing, api string, now time.Time) models.Company {
	name := strings.TrimSpace(l.Name)
	if name == "" {
		name = PlaceholderName
	}

	return models.Company{
		Name:          name,
		BusinessType:  job.Query,
		City:          job.City,
		Address:       optional(l.Address),
		PostalCode:    postalCode(l.Address),
		Phone:         optional(l.Phone),
		Website:       optional(l.Website),
		GoogleMapsURL: optional(l.MapsURL),
		Rating:        l.Rating,
		ReviewCount:   l.Reviews,
		SourceAPI:     api,
		ScrapedAt:     now,
		CreatedBy:     job.CreatedBy,

		Description:    optional(l.Description),
		Categories:     l.Categories,
		Latitude:       l.Latitude,
		Longitude:      l.Longitude,
		OpeningHours:   l.OpeningHours,
		ServiceOptions: l.ServiceOptions,
	}
}
