package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Company is the record upserted into the companies table for every scraped
// listing. The table is unique on (name, city).
//
// Core fields are always written, so a missing value overwrites the stored one
// with NULL. Enrichment fields carry omitempty and are only written when the
// provider returned them, which keeps manually entered data intact.
type Company struct {
	Name          string     `json:"name"`
	BusinessType  string     `json:"business_type"`
	City          string     `json:"city"`
	Address       *string    `json:"address"`
	PostalCode    *string    `json:"postal_code"`
	Phone         *string    `json:"phone"`
	Website       *string    `json:"website"`
	GoogleMapsURL *string    `json:"google_maps_url"`
	Rating        *float64   `json:"rating"` // NULL when unknown, never 0
	ReviewCount   int        `json:"review_count"`
	SourceAPI     string     `json:"source_api"`
	ScrapedAt     time.Time  `json:"scraped_at"`
	CreatedBy     *uuid.UUID `json:"created_by"`

	Description    *string         `json:"description,omitempty"`
	Categories     []string        `json:"categories,omitempty"`
	Latitude       *float64        `json:"latitude,omitempty"`
	Longitude      *float64        `json:"longitude,omitempty"`
	OpeningHours   json.RawMessage `json:"opening_hours,omitempty"`   // JSONB
	ServiceOptions json.RawMessage `json:"service_options,omitempty"` // JSONB
}
