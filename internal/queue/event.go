// Package queue defines message payloads exchanged over the message broker
// and the background consumer that reacts to them.
package queue

// Event kinds published on the content.events queue.
const (
	EventExhibitionCreated = "exhibition.created"
	EventExhibitionUpdated = "exhibition.updated"
	EventExhibitionDeleted = "exhibition.deleted"
	EventStationCreated    = "station.created"
	EventStationUpdated    = "station.updated"
	EventStationDeleted    = "station.deleted"
)

// ContentEvent is published after every successful mutation of an
// exhibition or station. Consumers use it to drop cached responses for
// the affected admin; it carries enough context that downstream services
// never need to query the primary database.
type ContentEvent struct {
	Kind         string `json:"kind"`
	AdminUserID  uint64 `json:"admin_user_id"`
	ExhibitionID uint64 `json:"exhibition_id"`
	StationID    uint64 `json:"station_id,omitempty"`
	OccurredAt   string `json:"occurred_at"`
}
