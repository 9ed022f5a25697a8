package model

import (
	"strings"
	"time"
)

// Subscriber is a phone number opted in to outbreak alerts
type Subscriber struct {
	Phone        string    `json:"phone"`
	Location     string    `json:"location"`
	Language     string    `json:"language"`
	Name         string    `json:"name"`
	Active       bool      `json:"active"`
	SubscribedAt time.Time `json:"subscribedAt"`
}

// Covers reports whether the subscriber should hear about an outbreak in location.
func (s *Subscriber) Covers(location string) bool {
	if !s.Active {
		return false
	}
	return strings.EqualFold(s.Location, LocationAll) || LocationKey(s.Location) == LocationKey(location)
}
