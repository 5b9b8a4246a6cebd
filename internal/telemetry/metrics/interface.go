package metrics

import (
	"context"
)

// Custom type to represent a metric name,
// providing a type-safe way to handle metric names.
type MetricName string

const (
	GalleryProcessed MetricName = "gallery.processed"
	ThumbCreated     MetricName = "thumbnail.created"
	ThumbSkipped     MetricName = "thumbnail.skipped"
	ThumbFailed      MetricName = "thumbnail.failed"
)

type MetricsSvc interface {
	Increment(metric MetricName, attrs map[string]string)
	Shutdown(ctx context.Context) error
}
