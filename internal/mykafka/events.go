package mykafka

import "time"

type Event struct {
	Type       string         `json:"type"`
	OccurredAt time.Time      `json:"occurredAt"`
	Payload    map[string]any `json:"payload"`
}

func NewEvent(typ string, payload map[string]any) Event {
	return Event{Type: typ, OccurredAt: time.Now().UTC(), Payload: payload}
}
