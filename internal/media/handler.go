package media

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"media-backend/internal/shared/server/middleware"
	"media-backend/internal/shared/server/respond"
)

const (
	defaultMaxUploadBytes = 50 << 20 // 50MB
	multipartMemory       = 8 << 20
	defaultListLimit      = 50
	maxListLimit          = 200
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc                  *Service
	MaxUploadBytes       int64
	ExposeProviderErrors bool
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, maxUploadBytes int64, exposeProviderErrors bool) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &Handler{Svc: svc, MaxUploadBytes: maxUploadBytes, ExposeProviderErrors: exposeProviderErrors}
}

// RegisterRoutes attaches media routes. requireAuth guards the mutating routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	rg.GET("/media", h.list)
	rg.POST("/media", requireAuth, h.upload)
	rg.POST("/media/signature", requireAuth, h.signature)
	rg.GET("/media/:id", h.get)
	rg.DELETE("/media/:id", requireAuth, h.delete)
}

func (h *Handler) upload(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)

	payload, cleanup, err := readPayload(c.Request)
	defer cleanup()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", ErrMalformedForm.Error(), err.Error())
		return
	}

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	result, err := h.Svc.Ingest(ctx, userID, payload)
	if err != nil {
		h.writeIngestError(c, err)
		return
	}

	c.Set("mediaId", result.Asset.ID)
	respond.Created(c, CreateResponse{Item: result.Asset, Upload: result.Upload})
}

func (h *Handler) writeIngestError(c *gin.Context, err error) {
	var uploadErr *UploadError
	switch {
	case errors.Is(err, ErrNoUploadSource):
		respond.Error(c, http.StatusBadRequest, "no_upload_source", ErrNoUploadSource.Error(), nil)
	case errors.Is(err, ErrMalformedForm):
		respond.Error(c, http.StatusBadRequest, "validation_error", ErrMalformedForm.Error(), err.Error())
	case errors.As(err, &uploadErr):
		msg := ErrUploadFailed.Error()
		if h.ExposeProviderErrors && uploadErr.Message != "" {
			msg = uploadErr.Message
		}
		respond.Error(c, http.StatusInternalServerError, "upload_failed", msg, err.Error())
	case errors.Is(err, ErrPersistenceFailed):
		respond.Error(c, http.StatusInternalServerError, "persistence_failed", ErrPersistenceFailed.Error(), err.Error())
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to upload media", err.Error())
	}
}

func (h *Handler) list(c *gin.Context) {
	limit := defaultListLimit
	offset := 0

	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = 0
	}

	items, err := h.Svc.List(c.Request.Context(), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list media", err.Error())
		return
	}
	respond.OK(c, ListResponse{Items: items})
}

func (h *Handler) get(c *gin.Context) {
	asset, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch media", err.Error())
		return
	}
	respond.OK(c, ItemResponse{Item: asset})
}

func (h *Handler) delete(c *gin.Context) {
	id := c.Param("id")
	c.Set("mediaId", id)
	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	if err := h.Svc.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete media", err.Error())
		return
	}
	respond.OK(c, gin.H{"ok": true})
}

func (h *Handler) signature(c *gin.Context) {
	var req SignatureRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBind(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", ErrMalformedForm.Error(), err.Error())
			return
		}
	}
	sig, err := h.Svc.SignUpload(c.Request.Context(), req.UploadPreset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "signature_unavailable", "failed to sign upload", err.Error())
		return
	}
	respond.OK(c, sig)
}

// readPayload parses multipart, urlencoded and JSON bodies into a Payload.
// The returned cleanup removes any multipart temp files and is always non-nil.
func readPayload(r *http.Request) (Payload, func(), error) {
	noop := func() {}
	p := Payload{Fields: map[string]string{}}

	ct := r.Header.Get("Content-Type")
	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(ct, ";")[0]))

	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			return Payload{}, noop, describeParseError(err)
		}
		form := r.MultipartForm
		cleanup := func() { _ = form.RemoveAll() }
		for k, vs := range form.Value {
			if len(vs) > 0 {
				p.Fields[k] = vs[0]
			}
		}
		p.Files = form.File
		return p, cleanup, nil
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return Payload{}, noop, describeParseError(err)
		}
		for k, vs := range r.PostForm {
			if len(vs) > 0 {
				p.Fields[k] = vs[0]
			}
		}
		return p, noop, nil
	case "application/json":
		var raw map[string]any
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return p, noop, nil
			}
			return Payload{}, noop, describeParseError(err)
		}
		for k, v := range raw {
			if s, ok := v.(string); ok {
				p.Fields[k] = s
			}
		}
		return p, noop, nil
	case "":
		if r.ContentLength > 0 {
			return Payload{}, noop, errors.New("missing content type")
		}
		return p, noop, nil
	default:
		return Payload{}, noop, fmt.Errorf("unsupported content type %q", mediaType)
	}
}

func describeParseError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Errorf("upload exceeds %d bytes", tooLarge.Limit)
	}
	return err
}
