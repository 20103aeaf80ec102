package model

import "time"

// Track is a playable item returned by remote catalogs.
type Track struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// Recommendations is the cached result of a free-text recommendation query.
type Recommendations struct {
	Query       string   `json:"query"`
	Suggestions []string `json:"suggestions"`
	Tracks      []Track  `json:"tracks"`
}

// Weather is the cached observation for a coordinate cell.
type Weather struct {
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	Condition    string    `json:"condition"`
	TemperatureC float64   `json:"temperatureC"`
	ObservedAt   time.Time `json:"observedAt"`
}

// LibrarySection is one playlist section of a user's library.
type LibrarySection struct {
	OwnerID   string  `json:"ownerId"`
	SectionID string  `json:"sectionId"`
	Title     string  `json:"title"`
	Tracks    []Track `json:"tracks"`
}
