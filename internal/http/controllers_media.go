package http

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/atrium-pm/atrium/internal/domain/repository"
	"github.com/atrium-pm/atrium/internal/http/helpers"
	"github.com/atrium-pm/atrium/internal/http/services"
	"github.com/atrium-pm/atrium/internal/observability/logger"
)

// multipart memory threshold; larger parts spill to temp files.
const multipartMemory = 8 << 20

// multipartEnvelopeAllowance is headroom for the multipart boundary,
// part headers and form fields around a maximum-size file. The size
// limit itself is enforced on the file part.
const multipartEnvelopeAllowance = 16 << 10

// MediaController exposes image and document attachments. Uploads are
// multipart; the route's entity segment scopes the attachment.
type MediaController struct {
	Images    repository.ImageRepository
	Documents repository.DocumentRepository
	Service   *services.MediaService

	// MaxFileBytes caps the uploaded file part; zero means no cap.
	MaxFileBytes int64
}

func entityParams(r *http.Request) (entityType, entityID string, err error) {
	entityType = chi.URLParam(r, "entityType")
	entityID = chi.URLParam(r, "entityID")
	if !repository.ValidEntityType(entityType) {
		return "", "", helpers.ErrBadRequest.WithDetail("unknown entity type")
	}
	if entityID == "" {
		return "", "", helpers.ErrBadRequest.WithDetail("entity id is required")
	}
	return entityType, entityID, nil
}

// ListImages returns an entity's images in gallery order.
// GET /api/{entityType}/{entityID}/images
func (c *MediaController) ListImages(w http.ResponseWriter, r *http.Request) {
	entityType, entityID, err := entityParams(r)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	images, err := c.Images.ListByEntity(r.Context(), SiteFrom(r.Context()).ID, entityType, entityID)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteData(w, http.StatusOK, images)
}

// UploadImage attaches an image from the multipart "file" part.
// POST /api/{entityType}/{entityID}/images
func (c *MediaController) UploadImage(w http.ResponseWriter, r *http.Request) {
	entityType, entityID, err := entityParams(r)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		helpers.WriteError(w, helpers.ErrBadRequest.WithDetail("multipart form expected"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		helpers.WriteError(w, helpers.ErrBadRequest.WithDetail("file part is required"))
		return
	}
	defer file.Close()
	if c.MaxFileBytes > 0 && header.Size > c.MaxFileBytes {
		helpers.WriteError(w, helpers.ErrPayloadTooLarge)
		return
	}

	img, err := c.Service.UploadImage(r.Context(), SiteFrom(r.Context()).ID,
		entityType, entityID, header.Filename, file)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	logger.From(r.Context()).Info("image uploaded",
		logger.Component("http"), logger.ID(img.ID), logger.ObjectKey(img.ObjectKey))
	helpers.WriteData(w, http.StatusCreated, img)
}

// ServeImage streams an image body, optionally a resized variant
// selected with ?w=. Unknown widths fall back to the original.
// GET /api/images/{id}
func (c *MediaController) ServeImage(w http.ResponseWriter, r *http.Request) {
	width := 0
	if v := r.URL.Query().Get("w"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			helpers.WriteError(w, helpers.ErrBadRequest.WithDetail("w must be a positive integer"))
			return
		}
		width = n
	}

	body, info, err := c.Service.OpenImage(r.Context(), SiteFrom(r.Context()).ID, chi.URLParam(r, "id"), width)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	defer body.Close()

	if info.ContentType != "" {
		w.Header().Set("Content-Type", info.ContentType)
	}
	if info.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	}
	w.Header().Set("Cache-Control", "private, max-age=3600")
	if _, err := io.Copy(w, body); err != nil {
		logger.From(r.Context()).Warn("image stream interrupted",
			logger.Component("http"), logger.Err(err))
	}
}

// DeleteImage removes the record first, then the stored blobs.
// DELETE /api/images/{id}
func (c *MediaController) DeleteImage(w http.ResponseWriter, r *http.Request) {
	if err := c.Service.DeleteImage(r.Context(), SiteFrom(r.Context()).ID, chi.URLParam(r, "id")); err != nil {
		helpers.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type reorderRequest struct {
	IDs []string `json:"ids"`
}

// ReorderImages replaces the gallery order of an entity's images. The
// list must name every image exactly once.
// POST /api/{entityType}/{entityID}/images/reorder
func (c *MediaController) ReorderImages(w http.ResponseWriter, r *http.Request) {
	entityType, entityID, err := entityParams(r)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	var req reorderRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.WriteError(w, err)
		return
	}
	siteID := SiteFrom(r.Context()).ID
	if err := c.Service.Reorder(r.Context(), siteID, entityType, entityID, req.IDs); err != nil {
		helpers.WriteError(w, err)
		return
	}
	images, err := c.Images.ListByEntity(r.Context(), siteID, entityType, entityID)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteData(w, http.StatusOK, images)
}

// ListDocuments returns an entity's documents, newest first.
// GET /api/{entityType}/{entityID}/documents
func (c *MediaController) ListDocuments(w http.ResponseWriter, r *http.Request) {
	entityType, entityID, err := entityParams(r)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	docs, err := c.Documents.ListByEntity(r.Context(), SiteFrom(r.Context()).ID, entityType, entityID)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteData(w, http.StatusOK, docs)
}

// UploadDocument attaches a document from the multipart "file" part.
// Documents always land in the private bucket.
// POST /api/{entityType}/{entityID}/documents
func (c *MediaController) UploadDocument(w http.ResponseWriter, r *http.Request) {
	entityType, entityID, err := entityParams(r)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		helpers.WriteError(w, helpers.ErrBadRequest.WithDetail("multipart form expected"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		helpers.WriteError(w, helpers.ErrBadRequest.WithDetail("file part is required"))
		return
	}
	defer file.Close()
	if c.MaxFileBytes > 0 && header.Size > c.MaxFileBytes {
		helpers.WriteError(w, helpers.ErrPayloadTooLarge)
		return
	}

	contentType := header.Header.Get("Content-Type")
	doc, err := c.Service.UploadDocument(r.Context(), SiteFrom(r.Context()).ID,
		entityType, entityID, header.Filename, contentType, header.Size, file)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	helpers.WriteData(w, http.StatusCreated, doc)
}

type documentURLResponse struct {
	URL string `json:"url"`
}

// DocumentURL returns a time-limited signed URL for the document. When
// the blob backend cannot sign, it falls back to the streaming route.
// GET /api/documents/{id}/url
func (c *MediaController) DocumentURL(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	url, ok, err := c.Service.DocumentURL(r.Context(), SiteFrom(r.Context()).ID, id)
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	if !ok {
		url = "/api/documents/" + id + "/download"
	}
	helpers.WriteData(w, http.StatusOK, documentURLResponse{URL: url})
}

// DownloadDocument streams the document body with its stored metadata.
// GET /api/documents/{id}/download
func (c *MediaController) DownloadDocument(w http.ResponseWriter, r *http.Request) {
	body, doc, err := c.Service.OpenDocument(r.Context(), SiteFrom(r.Context()).ID, chi.URLParam(r, "id"))
	if err != nil {
		helpers.WriteError(w, err)
		return
	}
	defer body.Close()

	if doc.ContentType != "" {
		w.Header().Set("Content-Type", doc.ContentType)
	}
	if doc.SizeBytes > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(doc.SizeBytes, 10))
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	w.Header().Set("Cache-Control", "no-store")
	if _, err := io.Copy(w, body); err != nil {
		logger.From(r.Context()).Warn("document stream interrupted",
			logger.Component("http"), logger.Err(err))
	}
}

// DeleteDocument removes the record first, then the stored blob.
// DELETE /api/documents/{id}
func (c *MediaController) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := c.Service.DeleteDocument(r.Context(), SiteFrom(r.Context()).ID, chi.URLParam(r, "id")); err != nil {
		helpers.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
