package models

import (
	"fmt"
	"sort"
	"time"
)

// WorkoutType is the closed set of workout kinds
type WorkoutType string

const (
	WorkoutTypeBiking  WorkoutType = "BIKING"
	WorkoutTypeRunning WorkoutType = "RUNNING"
	WorkoutTypeHiking  WorkoutType = "HIKING"
	WorkoutTypeFitness WorkoutType = "FITNESS"
)

// WorkoutTypeInfo holds the display metadata of a workout type
type WorkoutTypeInfo struct {
	Icon               string `json:"icon"`
	BackgroundColor    string `json:"backgroundColor"`
	BackgroundColorHex string `json:"backgroundColorHex"`
	BorderColor        string `json:"borderColor"`
	TextColor          string `json:"textColor"`
	TileColor          string `json:"tileColor"` // #RRGGBBAA, used by the tile renderer
	RenderSpeedInKph   bool   `json:"renderSpeedInKph"`
	HasTrack           bool   `json:"hasTrack"` // distance workouts may carry a GPX track
	Order              int    `json:"order"`
}

var workoutTypes = map[WorkoutType]WorkoutTypeInfo{
	WorkoutTypeBiking: {
		Icon: "directions_bike", BackgroundColor: "bg-warning", BackgroundColorHex: "#FFC107",
		BorderColor: "border-warning", TextColor: "text-warning", TileColor: "#FFC10796",
		RenderSpeedInKph: true, HasTrack: true, Order: 0,
	},
	WorkoutTypeRunning: {
		Icon: "directions_run", BackgroundColor: "bg-info", BackgroundColorHex: "#0DCAF0",
		BorderColor: "border-info", TextColor: "text-info", TileColor: "#0DCAF080",
		RenderSpeedInKph: false, HasTrack: true, Order: 1,
	},
	WorkoutTypeHiking: {
		Icon: "hiking", BackgroundColor: "bg-green", BackgroundColorHex: "#6BBDA5",
		BorderColor: "border-green", TextColor: "text-green", TileColor: "#39B856AA",
		RenderSpeedInKph: true, HasTrack: true, Order: 2,
	},
	WorkoutTypeFitness: {
		Icon: "fitness_center", BackgroundColor: "bg-purple", BackgroundColorHex: "#AB87FF",
		BorderColor: "border-purple", TextColor: "text-purple", TileColor: "#AB87FFAA",
		RenderSpeedInKph: true, HasTrack: false, Order: 3,
	},
}

// Info returns the metadata of t. ok is false for unknown types.
func (t WorkoutType) Info() (WorkoutTypeInfo, bool) {
	info, ok := workoutTypes[t]
	return info, ok
}

// Valid reports whether t is one of the known workout types
func (t WorkoutType) Valid() bool {
	_, ok := workoutTypes[t]
	return ok
}

// ParseWorkoutType converts s into a WorkoutType
func ParseWorkoutType(s string) (WorkoutType, error) {
	t := WorkoutType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown workout type %q", s)
	}
	return t, nil
}

// DistanceWorkoutTypes returns the types that can carry a track, in display order
func DistanceWorkoutTypes() []WorkoutType {
	var types []WorkoutType
	for t, info := range workoutTypes {
		if info.HasTrack {
			types = append(types, t)
		}
	}
	sort.Slice(types, func(i, j int) bool {
		return workoutTypes[types[i]].Order < workoutTypes[types[j]].Order
	})
	return types
}

// Workout is the metadata of a single recorded workout
type Workout struct {
	ID        int64       `json:"id"`
	UserID    int64       `json:"userId"`
	Type      WorkoutType `json:"type"`
	Name      string      `json:"name"`
	StartTime time.Time   `json:"startTime"`
	HasTrack  bool        `json:"hasTrack"`
}

// CreateWorkoutRequest is the body of POST /api/v1/workouts
type CreateWorkoutRequest struct {
	Type      string    `json:"type" binding:"required"`
	Name      string    `json:"name" binding:"required"`
	StartTime time.Time `json:"startTime" binding:"required"`
}

// PlannedTour is a route the user intends to ride or run
type PlannedTour struct {
	ID     int64       `json:"id"`
	UserID int64       `json:"userId"`
	Type   WorkoutType `json:"type"`
	Name   string      `json:"name"`
}

// CreatePlannedTourRequest is the body of POST /api/v1/planned-tours
type CreatePlannedTourRequest struct {
	Type string `json:"type" binding:"required"`
	Name string `json:"name" binding:"required"`
}
