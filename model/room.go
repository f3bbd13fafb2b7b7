package model

import "time"

// RoomMetadata is the record written by room creation. Its presence in the
// store is the only thing that makes a room exist; membership is tracked
// separately and expires on its own.
type RoomMetadata struct {
	RoomID    string    `json:"roomID"`
	CreatedAt time.Time `json:"createdAt"`
}
