package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/giobyte8/gallery-thumbnailer/internal/galleries"
	"github.com/giobyte8/gallery-thumbnailer/internal/models"
	"github.com/giobyte8/gallery-thumbnailer/internal/notifier"
	"github.com/giobyte8/gallery-thumbnailer/internal/telemetry"
	"github.com/giobyte8/gallery-thumbnailer/internal/telemetry/metrics"
	thumbsgen "github.com/giobyte8/gallery-thumbnailer/internal/thumbs_gen"
)

type ThumbnailsConfig struct {
	GalleriesRoot string
	Filter        galleries.Filter
	MaxSize       int
	Naming        galleries.NamingPolicy
	Regen         galleries.RegenPolicy
}

type ThumbnailsService struct {
	config         ThumbnailsConfig
	thumbGenerator thumbsgen.ThumbsGenerator
	telemetry      *telemetry.TelemetrySvc
	publisher      notifier.EventPublisher
}

func NewThumbnailsService(
	config ThumbnailsConfig,
	thumbGenerator thumbsgen.ThumbsGenerator,
	telemetry *telemetry.TelemetrySvc,
	publisher notifier.EventPublisher,
) *ThumbnailsService {
	return &ThumbnailsService{
		config:         config,
		thumbGenerator: thumbGenerator,
		telemetry:      telemetry,
		publisher:      publisher,
	}
}

// Run walks every gallery and generates the thumbnails that are missing
// or stale. Failures on single images are recorded in the report and
// never stop the run. The only returned error is
// galleries.ErrGalleriesRootNotFound (or an unreadable root), in which
// case no gallery is processed.
func (s *ThumbnailsService) Run(ctx context.Context) (*models.BatchReport, error) {
	report := models.NewBatchReport()
	logger := slog.With("runId", report.RunID.String())

	logger.Info(
		"Starting thumbnail generation...",
		"galleriesRoot", s.config.GalleriesRoot,
		"maxSize", s.config.MaxSize,
		"naming", s.config.Naming,
		"regenPolicy", s.config.Regen,
	)

	gals, err := galleries.ListGalleries(s.config.GalleriesRoot, s.config.Filter)
	if err != nil {
		logger.Error("Galleries path not usable", "error", err)
		report.FinishedAt = time.Now()
		return report, err
	}

	for _, gallery := range gals {
		if ctx.Err() != nil {
			report.Interrupted = true
			break
		}

		s.processGallery(ctx, logger, report, gallery)
	}

	report.FinishedAt = time.Now()
	if report.Interrupted {
		logger.Warn(
			"Thumbnail generation interrupted",
			"reason", ctx.Err(),
		)
	}

	logger.Info(
		"Thumbnail generation complete!",
		"galleries", len(report.Galleries),
		"created", report.Count(models.ImageCreated),
		"skipped", report.Count(models.ImageSkipped),
		"failed", report.Count(models.ImageFailed),
		"elapsed", report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond),
	)

	return report, nil
}

func (s *ThumbnailsService) processGallery(
	ctx context.Context,
	logger *slog.Logger,
	report *models.BatchReport,
	gallery galleries.Gallery,
) {
	logger.Info("Processing gallery", "gallery", gallery.Name)
	report.Galleries = append(report.Galleries, gallery.Name)

	images, err := galleries.ListSourceImages(gallery.Path)
	if err != nil {
		logger.Error(
			"Failed to list gallery images",
			"gallery", gallery.Name,
			"error", err,
		)
		return
	}

	if len(images) == 0 {
		logger.Info("No images found in gallery", "gallery", gallery.Name)
	}

	// Thumbnail path -> source that claimed it during this run
	claimed := make(map[string]string, len(images))

	for _, srcPath := range images {
		if ctx.Err() != nil {
			report.Interrupted = true
			return
		}

		thumbPath := galleries.ThumbnailPath(srcPath, s.config.Naming)
		if owner, ok := claimed[thumbPath]; ok {
			report.Add(s.collision(logger, gallery, srcPath, thumbPath, owner))
			continue
		}
		claimed[thumbPath] = srcPath

		result := s.processImage(ctx, logger, report, gallery, srcPath, thumbPath)
		report.Add(result)
	}

	s.telemetry.Metrics().Increment(
		metrics.GalleryProcessed,
		map[string]string{"gallery": gallery.Name},
	)
}

func (s *ThumbnailsService) processImage(
	ctx context.Context,
	logger *slog.Logger,
	report *models.BatchReport,
	gallery galleries.Gallery,
	srcPath string,
	thumbPath string,
) models.ImageResult {
	result := models.ImageResult{
		Gallery:   gallery.Name,
		SrcPath:   srcPath,
		ThumbPath: thumbPath,
	}
	metricAttrs := map[string]string{"gallery": gallery.Name}

	needed, err := galleries.NeedsRegeneration(srcPath, thumbPath, s.config.Regen)
	if err != nil {
		return s.failed(logger, result, metricAttrs, err)
	}

	if !needed {
		logger.Debug("Thumbnail is up to date", "thumbPath", thumbPath)
		s.telemetry.Metrics().Increment(metrics.ThumbSkipped, metricAttrs)

		result.Status = models.ImageSkipped
		return result
	}

	info, err := s.thumbGenerator.Generate(ctx, thumbsgen.ThumbnailMeta{
		SrcPath:   srcPath,
		ThumbPath: thumbPath,
		MaxSize:   s.config.MaxSize,
	})
	if err != nil {
		return s.failed(logger, result, metricAttrs, err)
	}

	result.Status = models.ImageCreated
	result.Width = info.Width
	result.Height = info.Height

	logger.Info(
		"Created thumbnail",
		"thumbPath", thumbPath,
		"width", info.Width,
		"height", info.Height,
	)
	s.telemetry.Metrics().Increment(metrics.ThumbCreated, metricAttrs)

	evt := models.ThumbnailEvent{
		RunID:     report.RunID,
		Gallery:   gallery.Name,
		SrcPath:   srcPath,
		ThumbPath: thumbPath,
		Width:     info.Width,
		Height:    info.Height,
		CreatedAt: time.Now(),
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		logger.Warn(
			"Failed to publish thumbnail event",
			"thumbPath", thumbPath,
			"error", err,
		)
	}

	return result
}

// collision records a source whose thumbnail name is already taken by
// another source of the same gallery ('photo.jpg' and 'photo.jpeg'
// under the '.jpeg' naming policy). The first source keeps the file.
func (s *ThumbnailsService) collision(
	logger *slog.Logger,
	gallery galleries.Gallery,
	srcPath string,
	thumbPath string,
	owner string,
) models.ImageResult {
	logger.Warn(
		"Thumbnail name already used by another source, skipping",
		"file", srcPath,
		"otherSource", owner,
		"thumbPath", thumbPath,
	)
	s.telemetry.Metrics().Increment(
		metrics.ThumbSkipped,
		map[string]string{"gallery": gallery.Name},
	)

	return models.ImageResult{
		Gallery:   gallery.Name,
		SrcPath:   srcPath,
		ThumbPath: thumbPath,
		Status:    models.ImageSkipped,
	}
}

func (s *ThumbnailsService) failed(
	logger *slog.Logger,
	result models.ImageResult,
	metricAttrs map[string]string,
	err error,
) models.ImageResult {
	logger.Error(
		"Error processing image",
		"file", result.SrcPath,
		"error", err,
	)
	s.telemetry.Metrics().Increment(metrics.ThumbFailed, metricAttrs)

	result.Status = models.ImageFailed
	result.Err = err
	return result
}
