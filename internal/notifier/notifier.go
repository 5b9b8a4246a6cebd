package notifier

import (
	"context"

	"github.com/giobyte8/gallery-thumbnailer/internal/models"
)

// EventPublisher announces generated thumbnails to downstream
// consumers (site rebuilds, CDN purges).
type EventPublisher interface {
	Start(ctx context.Context) error

	Publish(ctx context.Context, evt models.ThumbnailEvent) error

	Stop()
}

type NoopPublisher struct{}

func NewNoopPublisher() *NoopPublisher {
	return &NoopPublisher{}
}

func (p *NoopPublisher) Start(ctx context.Context) error {
	return nil
}

func (p *NoopPublisher) Publish(
	ctx context.Context,
	evt models.ThumbnailEvent,
) error {
	return nil
}

func (p *NoopPublisher) Stop() {}
