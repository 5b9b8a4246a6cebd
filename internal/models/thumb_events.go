package models

import (
	"time"

	"github.com/google/uuid"
)

// ThumbnailEvent is published every time a thumbnail is written.
type ThumbnailEvent struct {
	RunID     uuid.UUID `json:"runId"`
	Gallery   string    `json:"gallery"`
	SrcPath   string    `json:"srcPath"`
	ThumbPath string    `json:"thumbPath"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	CreatedAt time.Time `json:"createdAt"`
}
