// Package session holds the conversation state for one user session and
// the stores that persist it. A session accumulates an append-only log of
// query/response interactions plus an optional cached summary of
// location-derived facts (fauna, flora, tourism activities).
package session

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Interaction is one exchange in a session's conversation log.
// The seeded first interaction carries an empty response until the model
// has answered.
type Interaction struct {
	Query    string `json:"query" bson:"query"`
	Response string `json:"response" bson:"response"`
}

// SpeciesFact is one classified occurrence record: a display name plus an
// optional image URI.
type SpeciesFact struct {
	Species string `json:"species" bson:"species"`
	Image   string `json:"image" bson:"image"`
}

// GeoCode is a coordinate pair as returned by the activity provider.
type GeoCode struct {
	Latitude  float64 `json:"latitude" bson:"latitude"`
	Longitude float64 `json:"longitude" bson:"longitude"`
}

// Activity is one tourism-activity record, stored as the provider returned
// it. Consumers validate the shape lazily.
type Activity struct {
	Name             string   `json:"name" bson:"name"`
	GeoCode          GeoCode  `json:"geoCode" bson:"geoCode"`
	ShortDescription string   `json:"shortDescription,omitempty" bson:"shortDescription,omitempty"`
	Pictures         []string `json:"pictures,omitempty" bson:"pictures,omitempty"`
}

// Summary is the cached location-derived facts for a session.
type Summary struct {
	Fauna             []SpeciesFact `json:"fauna" bson:"fauna"`
	Flora             []SpeciesFact `json:"flora" bson:"flora"`
	TourismActivities []Activity    `json:"tourism_activities" bson:"tourism_activities"`
}

// BuildSummary merges classified fauna/flora with a tourism-activity list.
// Pure merge, no validation of the activity records.
func BuildSummary(fauna, flora []SpeciesFact, activities []Activity) Summary {
	return Summary{
		Fauna:             fauna,
		Flora:             flora,
		TourismActivities: activities,
	}
}

// Session is one user's conversation document.
type Session struct {
	ID                    string        `json:"session_id" bson:"session_id"`
	Owner                 string        `json:"username" bson:"username"`
	Summary               *Summary      `json:"summary,omitempty" bson:"summary,omitempty"`
	Interactions          []Interaction `json:"interactions" bson:"interactions"`
	LocationQueryExecuted bool          `json:"location_query_executed" bson:"location_query_executed"`
	LastUpdated           time.Time     `json:"last_updated" bson:"timestamp"`
}

// NewID returns an unpredictable unique session identifier.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
