package models

import (
	"time"

	"github.com/google/uuid"
)

type ImageStatus string

const (
	ImageCreated ImageStatus = "created"
	ImageSkipped ImageStatus = "skipped"
	ImageFailed  ImageStatus = "failed"
)

// ImageResult is the outcome of processing one source image.
type ImageResult struct {
	Gallery   string
	SrcPath   string
	ThumbPath string
	Status    ImageStatus

	// Set only when Status is ImageFailed
	Err error

	// Thumbnail dimensions, set only when Status is ImageCreated
	Width  int
	Height int
}

// BatchReport summarizes a whole run over the galleries tree.
type BatchReport struct {
	RunID      uuid.UUID
	StartedAt  time.Time
	FinishedAt time.Time

	// Names of the galleries that were walked, in processing order
	Galleries []string
	Results   []ImageResult

	// True when the run stopped early because its context was done
	Interrupted bool
}

func NewBatchReport() *BatchReport {
	return &BatchReport{
		RunID:     uuid.New(),
		StartedAt: time.Now(),
	}
}

func (r *BatchReport) Add(result ImageResult) {
	r.Results = append(r.Results, result)
}

func (r *BatchReport) Count(status ImageStatus) int {
	count := 0
	for _, res := range r.Results {
		if res.Status == status {
			count++
		}
	}

	return count
}

func (r *BatchReport) Failures() []ImageResult {
	var failed []ImageResult
	for _, res := range r.Results {
		if res.Status == ImageFailed {
			failed = append(failed, res)
		}
	}

	return failed
}
