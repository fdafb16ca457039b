// Package services implements the business flows behind the HTTP
// controllers: media handling, lease lifecycle, lead intake and the
// cleanups that span database and object store.
package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"time"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"

	"github.com/atrium-pm/atrium/internal/domain/repository"
	"github.com/atrium-pm/atrium/internal/metrics"
	"github.com/atrium-pm/atrium/internal/objstore"
	"github.com/atrium-pm/atrium/internal/observability/logger"
)

// MediaService moves images and documents between HTTP, the object
// store and the database. Images live in the public bucket, documents
// in the private one.
type MediaService struct {
	Images        repository.ImageRepository
	Documents     repository.DocumentRepository
	Store         objstore.Store
	PublicBucket  string
	PrivateBucket string
	SignedURLTTL  time.Duration
	VariantWidths []int
}

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// UploadImage stores the blob, renders resize variants and records the
// image. The declared content type is ignored; the payload is sniffed.
func (s *MediaService) UploadImage(ctx context.Context, siteID, entityType, entityID, filename string, body io.Reader) (*repository.Image, error) {
	if !repository.ValidEntityType(entityType) {
		return nil, repository.ErrInvalidInput
	}

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	contentType := http.DetectContentType(raw)
	if !allowedImageTypes[contentType] {
		return nil, fmt.Errorf("%w: content type %s", repository.ErrInvalidInput, contentType)
	}

	key := objstore.ObjectKey(entityType, entityID, filename)
	if err := s.Store.Put(ctx, s.PublicBucket, key, bytes.NewReader(raw), int64(len(raw)), contentType); err != nil {
		metrics.ObjectStoreOps.WithLabelValues("put", "error").Inc()
		return nil, err
	}
	metrics.ObjectStoreOps.WithLabelValues("put", "ok").Inc()

	// Variants are cosmetic; losing them degrades to serving the
	// original, so failures only log.
	s.renderVariants(ctx, key, raw)

	existing, err := s.Images.ListByEntity(ctx, siteID, entityType, entityID)
	if err != nil {
		return nil, err
	}
	img, err := s.Images.Create(ctx, siteID, repository.CreateImageInput{
		EntityType:  entityType,
		EntityID:    entityID,
		ObjectKey:   key,
		ContentType: contentType,
		SizeBytes:   int64(len(raw)),
		SortOrder:   len(existing),
	})
	if err != nil {
		// Roll the orphaned blob back so the bucket does not leak.
		_ = s.Store.Delete(ctx, s.PublicBucket, key)
		return nil, err
	}
	logger.From(ctx).Info("image uploaded",
		logger.ObjectKey(key), logger.String("entity_type", entityType), logger.ID(img.ID))
	return img, nil
}

func (s *MediaService) renderVariants(ctx context.Context, key string, raw []byte) {
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		logger.From(ctx).Warn("variant decode failed", logger.ObjectKey(key), logger.Err(err))
		return
	}
	bounds := src.Bounds()
	for _, width := range s.VariantWidths {
		if width >= bounds.Dx() {
			continue // never upscale
		}
		height := bounds.Dy() * width / bounds.Dx()
		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 85}); err != nil {
			logger.From(ctx).Warn("variant encode failed", logger.ObjectKey(key), logger.Err(err))
			continue
		}
		vkey := objstore.VariantKey(key, width)
		if err := s.Store.Put(ctx, s.PublicBucket, vkey, &buf, int64(buf.Len()), "image/jpeg"); err != nil {
			logger.From(ctx).Warn("variant upload failed", logger.ObjectKey(vkey), logger.Err(err))
		}
	}
}

// OpenImage returns the stored blob for streaming. width selects a
// variant; zero or an unavailable width falls back to the original. A
// record whose object has gone missing is a NotFound, not a 500.
func (s *MediaService) OpenImage(ctx context.Context, siteID, imageID string, width int) (io.ReadCloser, *objstore.ObjectInfo, error) {
	img, err := s.Images.GetByID(ctx, siteID, imageID)
	if err != nil {
		return nil, nil, err
	}

	if width > 0 {
		r, info, err := s.Store.Get(ctx, s.PublicBucket, objstore.VariantKey(img.ObjectKey, width))
		if err == nil {
			return r, info, nil
		}
	}
	r, info, err := s.Store.Get(ctx, s.PublicBucket, img.ObjectKey)
	if err != nil {
		if err == objstore.ErrNotFound {
			logger.From(ctx).Warn("image record without object", logger.ObjectKey(img.ObjectKey))
			return nil, nil, repository.ErrNotFound
		}
		return nil, nil, err
	}
	return r, info, nil
}

// DeleteImage removes the record, the blob and its variants.
func (s *MediaService) DeleteImage(ctx context.Context, siteID, imageID string) error {
	img, err := s.Images.GetByID(ctx, siteID, imageID)
	if err != nil {
		return err
	}
	if err := s.Images.Delete(ctx, siteID, imageID); err != nil {
		return err
	}

	keys := []string{img.ObjectKey}
	for _, w := range s.VariantWidths {
		keys = append(keys, objstore.VariantKey(img.ObjectKey, w))
	}
	if err := s.Store.DeleteMany(ctx, s.PublicBucket, keys); err != nil {
		// The record is gone; orphaned blobs are a cleanup problem,
		// not a request failure.
		logger.From(ctx).Warn("image blob cleanup failed", logger.ObjectKey(img.ObjectKey), logger.Err(err))
	}
	return nil
}

// Reorder validates that the submitted ids are exactly the entity's
// images and persists the new order atomically.
func (s *MediaService) Reorder(ctx context.Context, siteID, entityType, entityID string, orderedIDs []string) error {
	existing, err := s.Images.ListByEntity(ctx, siteID, entityType, entityID)
	if err != nil {
		return err
	}
	if len(existing) != len(orderedIDs) {
		return fmt.Errorf("%w: expected %d ids, got %d", repository.ErrInvalidInput, len(existing), len(orderedIDs))
	}
	known := make(map[string]bool, len(existing))
	for _, img := range existing {
		known[img.ID] = true
	}
	for _, id := range orderedIDs {
		if !known[id] {
			return fmt.Errorf("%w: unknown image id %s", repository.ErrInvalidInput, id)
		}
		delete(known, id)
	}
	return s.Images.Reorder(ctx, siteID, entityType, entityID, orderedIDs)
}

// UploadDocument stores a confidential file in the private bucket.
func (s *MediaService) UploadDocument(ctx context.Context, siteID, entityType, entityID, filename, contentType string, size int64, body io.Reader) (*repository.Document, error) {
	if !repository.ValidEntityType(entityType) {
		return nil, repository.ErrInvalidInput
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := objstore.ObjectKey(entityType, entityID, filename)
	if err := s.Store.Put(ctx, s.PrivateBucket, key, body, size, contentType); err != nil {
		metrics.ObjectStoreOps.WithLabelValues("put", "error").Inc()
		return nil, err
	}
	metrics.ObjectStoreOps.WithLabelValues("put", "ok").Inc()

	doc, err := s.Documents.Create(ctx, siteID, repository.CreateDocumentInput{
		EntityType:  entityType,
		EntityID:    entityID,
		ObjectKey:   key,
		Filename:    filename,
		ContentType: contentType,
		SizeBytes:   size,
	})
	if err != nil {
		_ = s.Store.Delete(ctx, s.PrivateBucket, key)
		return nil, err
	}
	return doc, nil
}

// DocumentURL returns a time-limited download URL, or ok=false when
// the backend cannot sign and the caller must stream instead.
func (s *MediaService) DocumentURL(ctx context.Context, siteID, documentID string) (string, bool, error) {
	doc, err := s.Documents.GetByID(ctx, siteID, documentID)
	if err != nil {
		return "", false, err
	}
	url, err := s.Store.SignedURL(ctx, s.PrivateBucket, doc.ObjectKey, http.MethodGet, s.SignedURLTTL)
	if err != nil {
		if err == objstore.ErrUnsupported {
			return "", false, nil
		}
		return "", false, err
	}
	return url, true, nil
}

// OpenDocument streams a document for backends without signed URLs.
func (s *MediaService) OpenDocument(ctx context.Context, siteID, documentID string) (io.ReadCloser, *repository.Document, error) {
	doc, err := s.Documents.GetByID(ctx, siteID, documentID)
	if err != nil {
		return nil, nil, err
	}
	r, _, err := s.Store.Get(ctx, s.PrivateBucket, doc.ObjectKey)
	if err != nil {
		if err == objstore.ErrNotFound {
			return nil, nil, repository.ErrNotFound
		}
		return nil, nil, err
	}
	return r, doc, nil
}

// DeleteDocument removes the record and its blob.
func (s *MediaService) DeleteDocument(ctx context.Context, siteID, documentID string) error {
	doc, err := s.Documents.GetByID(ctx, siteID, documentID)
	if err != nil {
		return err
	}
	if err := s.Documents.Delete(ctx, siteID, documentID); err != nil {
		return err
	}
	if err := s.Store.Delete(ctx, s.PrivateBucket, doc.ObjectKey); err != nil && err != objstore.ErrNotFound {
		logger.From(ctx).Warn("document blob cleanup failed", logger.ObjectKey(doc.ObjectKey), logger.Err(err))
	}
	return nil
}

// PurgeEntity deletes every image and document attached to an entity,
// records and blobs both. Runs the per-image deletes concurrently.
func (s *MediaService) PurgeEntity(ctx context.Context, siteID, entityType, entityID string) error {
	images, err := s.Images.ListByEntity(ctx, siteID, entityType, entityID)
	if err != nil {
		return err
	}
	docs, err := s.Documents.ListByEntity(ctx, siteID, entityType, entityID)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, img := range images {
		id := img.ID
		g.Go(func() error { return s.DeleteImage(gctx, siteID, id) })
	}
	for _, doc := range docs {
		id := doc.ID
		g.Go(func() error { return s.DeleteDocument(gctx, siteID, id) })
	}
	return g.Wait()
}
