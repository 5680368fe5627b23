package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"

	"kluster/lead-scraper/internal/config"
)

// SerpAPI queries the SerpAPI google_maps engine (GET, query string).
type SerpAPI struct {
	apiKey  string
	baseURL string
	country string
	lang    string
	hc      *http.Client
	log     logrus.FieldLogger
}

type serpAPIResponse struct {
	LocalResults []serpAPIPlace `json:"local_results"`
}

type serpAPIPlace struct {
	Title          string          `json:"title"`
	Address        string          `json:"address"`
	Phone          string          `json:"phone"`
	Website        string          `json:"website"`
	Rating         *float64        `json:"rating"`
	Reviews        int             `json:"reviews"`
	PlaceURL       string          `json:"place_url"`
	Link           string          `json:"link"`
	GPS            *serpAPIGPS     `json:"gps_coordinates"`
	Type           string          `json:"type"`
	Types          []string        `json:"types"`
	Description    string          `json:"description"`
	OperatingHours json.RawMessage `json:"operating_hours"`
	ServiceOptions json.RawMessage `json:"service_options"`
}

type serpAPIGPS struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// NewSerpAPI builds the fallback provider from cfg.
func NewSerpAPI(cfg *config.Config, log logrus.FieldLogger) *SerpAPI {
	return &SerpAPI{
		apiKey:  cfg.SerpAPI.APIKey,
		baseURL: cfg.SerpAPI.BaseURL,
		country: cfg.Country,
		lang:    cfg.Lang,
		hc:      newHTTPClient(cfg.RequestTimeout),
		log:     log.WithField("provider", NameSerpAPI),
	}
}

func (s *SerpAPI) Name() string { return NameSerpAPI }

// Search runs one google_maps search. It never returns a non-nil error.
func (s *SerpAPI) Search(ctx context.Context, query, city string) (Result, error) {
	if s.apiKey == "" {
		s.log.Debug("SERPAPI_API_KEY not set, skipping")
		return unavailableResult(NameSerpAPI), nil
	}

	u, err := url.Parse(s.baseURL)
	if err != nil {
		s.log.WithError(err).Error("Invalid SerpAPI base URL")
		return errorResult(NameSerpAPI, err), nil
	}
	q := u.Query()
	q.Set("engine", "google_maps")
	q.Set("q", fmt.Sprintf("%s %s %s", query, city, s.country))
	q.Set("hl", s.lang)
	q.Set("gl", s.lang)
	q.Set("api_key", s.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		s.log.WithError(err).Error("SerpAPI request could not be built")
		return errorResult(NameSerpAPI, err), nil
	}

	var body serpAPIResponse
	if err := doJSON(s.hc, req, &body); err != nil {
		// url.Error would echo the api_key back into the log.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		s.log.WithError(err).WithField("city", city).Error("SerpAPI error")
		return errorResult(NameSerpAPI, err), nil
	}

	listings := make([]Listing, 0, len(body.LocalResults))
	for _, p := range body.LocalResults {
		l := Listing{
			Name:           CleanText(p.Title),
			Address:        CleanText(p.Address),
			Phone:          CleanText(p.Phone),
			Website:        CleanText(p.Website),
			MapsURL:        firstNonEmpty(p.PlaceURL, p.Link),
			Rating:         p.Rating,
			Reviews:        p.Reviews,
			Description:    CleanText(p.Description),
			Categories:     categories(p.Types, p.Type, ""),
			OpeningHours:   openingHours(p.OperatingHours),
			ServiceOptions: objectOnly(p.ServiceOptions),
		}
		if p.GPS != nil {
			l.Latitude = p.GPS.Latitude
			l.Longitude = p.GPS.Longitude
		}
		listings = append(listings, l)
	}

	s.log.WithField("count", len(listings)).Debug("SerpAPI search finished")
	return listingsResult(NameSerpAPI, listings), nil
}
