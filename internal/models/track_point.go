package models

import "time"

// TrackPoint is a single recorded GPS fix. Latitude or Longitude are nil
// when the source file carried a point without a position.
type TrackPoint struct {
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	Time      time.Time `json:"time"`
	Elevation *float64  `json:"elevation,omitempty"`
}

// NewTrackPoint builds a positioned point
func NewTrackPoint(lat, lon float64, t time.Time) TrackPoint {
	return TrackPoint{Latitude: &lat, Longitude: &lon, Time: t}
}
