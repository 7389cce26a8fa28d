package mq

import (
	"context"
	"time"
)

const (
	InterestCreated = "interest.created"
	InterestStatus  = "interest.status"
)

// Event is addressed to a single recipient email.
type Event struct {
	Name       string    `json:"type"`
	Recipient  string    `json:"-"`
	CropID     string    `json:"crop_id"`
	CropName   string    `json:"crop_name,omitempty"`
	InterestID string    `json:"interest_id"`
	Status     string    `json:"status"`
	From       string    `json:"from,omitempty"`
	At         time.Time `json:"at"`
}

// Emitter delivers events on a best-effort basis; failures never fail the
// operation that produced the event.
type Emitter interface {
	Emit(ctx context.Context, ev Event) error
}

type Nop struct{}

func (Nop) Emit(context.Context, Event) error { return nil }
