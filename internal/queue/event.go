// Package queue defines message payloads exchanged over the message broker.
package queue

import "strconv"

// EventLoungerStatusChanged is the only event type published today.
const EventLoungerStatusChanged = "lounger-status-changed"

// Exchange is the topic exchange lounger events are published to.
const Exchange = "lounger.events"

// Topic returns the routing key viewers of one lounger subscribe to.
func Topic(loungerID uint64) string {
    return "resource:" + strconv.FormatUint(loungerID, 10)
}

// LoungerStatusChanged tells connected viewers that a lounger became
// busy or free.  Delivery is at most once; viewers re-fetch the full
// state on reconnect.
type LoungerStatusChanged struct {
    ID            string `json:"event_id"`
    Type          string `json:"type"`
    LoungerID     uint64 `json:"lounger_id"`
    BeachID       uint64 `json:"beach_id"`
    ReservationID uint64 `json:"reservation_id"`
    Available     bool   `json:"available"`
    Until         string `json:"until,omitempty"`
    Number        string `json:"number,omitempty"`
    PriceCents    int64  `json:"price_cents,omitempty"`
    OccurredAt    string `json:"occurred_at"`
}
