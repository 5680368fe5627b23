package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"kluster/lead-scraper/internal/config"
)

// Serper queries the Serper.dev Google Maps endpoint (POST, JSON body).
type Serper struct {
	apiKey  string
	baseURL string
	country string
	lang    string
	hc      *http.Client
	log     logrus.FieldLogger
}

type serperRequest struct {
	Q  string `json:"q"`
	GL string `json:"gl"`
	HL string `json:"hl"`
}

type serperResponse struct {
	Places []serperPlace `json:"places"`
}

type serperPlace struct {
	Title        string          `json:"title"`
	Address      string          `json:"address"`
	Street       string          `json:"street"`
	PhoneNumber  string          `json:"phoneNumber"`
	Website      string          `json:"website"`
	Rating       *float64        `json:"rating"`
	RatingCount  int             `json:"ratingCount"`
	Reviews      int             `json:"reviews"`
	Link         string          `json:"link"`
	Latitude     *float64        `json:"latitude"`
	Longitude    *float64        `json:"longitude"`
	Type         string          `json:"type"`
	Types        []string        `json:"types"`
	Category     string          `json:"category"`
	Description  string          `json:"description"`
	OpeningHours json.RawMessage `json:"openingHours"`
	Hours        json.RawMessage `json:"hours"`
}

// NewSerper builds the primary provider from cfg.
func NewSerper(cfg *config.Config, log logrus.FieldLogger) *Serper {
	return &Serper{
		apiKey:  cfg.Serper.APIKey,
		baseURL: cfg.Serper.BaseURL,
		country: cfg.Country,
		lang:    cfg.Lang,
		hc:      newHTTPClient(cfg.RequestTimeout),
		log:     log.WithField("provider", NameSerper),
	}
}

func (s *Serper) Name() string { return NameSerper }

// Search runs one maps search. It never returns a non-nil error.
func (s *Serper) Search(ctx context.Context, query, city string) (Result, error) {
	if s.apiKey == "" {
		s.log.Debug("SERPER_API_KEY not set, skipping")
		return unavailableResult(NameSerper), nil
	}

	payload, err := json.Marshal(serperRequest{
		Q:  fmt.Sprintf("%s %s %s", query, city, s.country),
		GL: s.lang,
		HL: s.lang,
	})
	if err != nil {
		return errorResult(NameSerper, err), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(payload))
	if err != nil {
		s.log.WithError(err).Error("Serper request could not be built")
		return errorResult(NameSerper, err), nil
	}
	req.Header.Set("X-API-KEY", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	var body serperResponse
	if err := doJSON(s.hc, req, &body); err != nil {
		s.log.WithError(err).WithField("city", city).Error("Serper API error")
		return errorResult(NameSerper, err), nil
	}

	listings := make([]Listing, 0, len(body.Places))
	for _, p := range body.Places {
		listings = append(listings, Listing{
			Name:         CleanText(p.Title),
			Address:      firstNonEmpty(p.Address, p.Street),
			Phone:        CleanText(p.PhoneNumber),
			Website:      CleanText(p.Website),
			MapsURL:      CleanText(p.Link),
			Rating:       p.Rating,
			Reviews:      firstPositive(p.RatingCount, p.Reviews),
			Description:  CleanText(p.Description),
			Categories:   categories(p.Types, p.Type, p.Category),
			Latitude:     p.Latitude,
			Longitude:    p.Longitude,
			OpeningHours: serperHours(p),
		})
	}

	s.log.WithField("count", len(listings)).Debug("Serper search finished")
	return listingsResult(NameSerper, listings), nil
}

// serperHours prefers openingHours and falls back to the hours field.
func serperHours(p serperPlace) json.RawMessage {
	if h := openingHours(p.OpeningHours); h != nil {
		return h
	}
	return openingHours(p.Hours)
}
