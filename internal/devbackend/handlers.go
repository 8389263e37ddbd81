// Package devbackend is an in-memory stand-in for the image-transformation backend.
// It speaks the same multipart/envelope contract and echoes uploaded bytes as "processed" results.
package devbackend

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/UnendingLoop/ImageOrchestrator/internal/client"
	"github.com/UnendingLoop/ImageOrchestrator/internal/envelope"
	"github.com/UnendingLoop/ImageOrchestrator/internal/model"
	"github.com/UnendingLoop/ImageOrchestrator/internal/mwlogger"
	"github.com/UnendingLoop/ImageOrchestrator/internal/normalizer"
	"github.com/UnendingLoop/ImageOrchestrator/internal/operation"
	"github.com/wb-go/wbf/ginext"
)

const FilesPath = "/files"

type FileStore interface {
	Put(data []byte, contentType string, f model.Format) string
	Get(id string) ([]byte, string, error)
}

type ImageHandler struct {
	store  FileStore
	limits operation.Limits
	now    func() time.Time

	mu       sync.RWMutex
	services map[string]string
}

func NewImageHandler(store FileStore, lim operation.Limits) *ImageHandler {
	return &ImageHandler{
		store:    store,
		limits:   lim,
		now:      func() time.Time { return time.Now().UTC() },
		services: map[string]string{"storage": model.HealthyStatus, "processor": model.HealthyStatus},
	}
}

// SetService overrides the status a dependency reports in /health.
func (h *ImageHandler) SetService(name, status string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.services[name] = status
}

// NewRouter registers all backend routes on a fresh engine and wraps it with the request logger.
func NewRouter(h *ImageHandler, mode string, advancedPath string) http.Handler {
	if advancedPath == "" {
		advancedPath = client.DefaultAdvancedPath
	}
	engine := ginext.New(mode)

	engine.POST(client.ResizePath, h.Resize)
	engine.POST(advancedPath, h.Process)
	engine.POST(client.BatchPath, h.BatchResize)
	engine.GET(client.HealthPath, h.Health)
	engine.GET(FilesPath+"/:id", h.LoadFile)

	return mwlogger.NewMWLogger(engine)
}

func (h *ImageHandler) Resize(ctx *ginext.Context) {
	asset, err := h.formAsset(ctx, envelope.FieldImage)
	if err != nil {
		h.fail(ctx, err)
		return
	}

	spec, err := operation.ParseResize(operation.ResizeFields{
		Width:   ctx.PostForm(envelope.FieldWidth),
		Height:  ctx.PostForm(envelope.FieldHeight),
		Quality: ctx.PostForm(envelope.FieldQuality),
		Format:  ctx.PostForm(envelope.FieldFormat),
	})
	if err != nil {
		h.fail(ctx, err)
		return
	}

	res := h.save(ctx, asset, spec.Format)
	ctx.JSON(200, model.Envelope[normalizer.ImageResponse]{Success: true, Data: &res})
}

func (h *ImageHandler) Process(ctx *ginext.Context) {
	asset, err := h.formAsset(ctx, envelope.FieldImage)
	if err != nil {
		h.fail(ctx, err)
		return
	}

	var ops model.OperationSet
	raw := strings.TrimSpace(ctx.PostForm(envelope.FieldPayload))
	if raw == "" {
		raw = "{}"
	}
	if err := json.Unmarshal([]byte(raw), &ops); err != nil {
		h.fail(ctx, ErrInvalidPayload)
		return
	}
	if err := operation.ValidateSet(ops); err != nil {
		h.fail(ctx, err)
		return
	}

	// без resize формат остается исходным
	format := formatOf(asset.ContentType)
	if ops.Resize != nil {
		format = ops.Resize.Format
	}

	res := h.save(ctx, asset, format)
	ctx.JSON(200, model.Envelope[normalizer.ImageResponse]{Success: true, Data: &res})
}

// BatchResize reports unusable images per item instead of failing the whole batch.
func (h *ImageHandler) BatchResize(ctx *ginext.Context) {
	if err := ctx.Request.ParseMultipartForm(32 << 20); err != nil {
		h.fail(ctx, ErrImagesMissing)
		return
	}
	files := ctx.Request.MultipartForm.File[envelope.FieldImages]
	if len(files) == 0 {
		h.fail(ctx, ErrImagesMissing)
		return
	}

	spec, err := operation.ParseResize(operation.ResizeFields{
		Width:   ctx.PostForm(envelope.FieldWidth),
		Height:  ctx.PostForm(envelope.FieldHeight),
		Quality: ctx.PostForm(envelope.FieldQuality),
		Format:  ctx.PostForm(envelope.FieldFormat),
	})
	if err != nil {
		h.fail(ctx, err)
		return
	}

	resp := normalizer.BatchResponse{Images: make([]normalizer.ImageResponse, 0, len(files))}
	for _, fh := range files {
		asset, err := readAsset(fh)
		if err == nil {
			err = h.limits.CheckAsset(asset)
		}
		if err != nil {
			resp.Images = append(resp.Images, normalizer.ImageResponse{Error: err.Error()})
			continue
		}
		resp.Images = append(resp.Images, h.save(ctx, asset, spec.Format))
	}
	resp.ProcessedAt = normalizer.Timestamp{Time: h.now()}

	ctx.JSON(200, model.Envelope[normalizer.BatchResponse]{Success: true, Data: &resp})
}

func (h *ImageHandler) Health(ctx *ginext.Context) {
	h.mu.RLock()
	services := make(map[string]string, len(h.services))
	status := model.HealthyStatus
	for name, st := range h.services {
		services[name] = st
		if st != model.HealthyStatus {
			status = "degraded"
		}
	}
	h.mu.RUnlock()

	hc := normalizer.HealthCheck{Status: status, Timestamp: normalizer.Timestamp{Time: h.now()}, Services: services}
	ctx.JSON(200, model.Envelope[normalizer.HealthCheck]{Success: true, Data: &hc})
}

func (h *ImageHandler) LoadFile(ctx *ginext.Context) {
	id := ctx.Param("id")

	data, cType, err := h.store.Get(id)
	if err != nil {
		h.fail(ctx, err)
		return
	}

	ctx.Writer.Header().Set("Content-Type", cType)
	ctx.Writer.WriteHeader(200)
	if n, err := ctx.Writer.Write(data); err != nil {
		logger := mwlogger.LoggerFromContext(ctx.Request.Context())
		logger.Error().Err(err).Int("written", n).Str("id", id).Msg("Failed to write file response")
	}
}

func (h *ImageHandler) formAsset(ctx *ginext.Context, field string) (model.ImageAsset, error) {
	file, fh, err := ctx.Request.FormFile(field)
	if err != nil {
		return model.ImageAsset{}, ErrImageMissing
	}
	closeFileFlow(file)

	asset, err := readAsset(fh)
	if err != nil {
		return model.ImageAsset{}, err
	}
	if err := h.limits.CheckAsset(asset); err != nil {
		return model.ImageAsset{}, err
	}
	return asset, nil
}

func (h *ImageHandler) save(ctx *ginext.Context, asset model.ImageAsset, f model.Format) normalizer.ImageResponse {
	cType := contentTypes[f]
	if cType == "" {
		cType = asset.ContentType
	}
	id := h.store.Put(asset.Data, cType, f)

	return normalizer.ImageResponse{
		ProcessedAt: normalizer.Timestamp{Time: h.now()},
		URL:         fileURL(ctx.Request, id),
		FileSize:    asset.Size,
	}
}

func (h *ImageHandler) fail(ctx *ginext.Context, err error) {
	code := errorCodeDefiner(err)
	if code >= 500 {
		logger := mwlogger.LoggerFromContext(ctx.Request.Context())
		logger.Error().Err(err).Msg("Request failed")
	}
	ctx.JSON(code, model.Envelope[struct{}]{Success: false, Error: err.Error()})
}

func fileURL(r *http.Request, id string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + FilesPath + "/" + id
}

func formatOf(contentType string) model.Format {
	for f, ct := range contentTypes {
		if ct == contentType {
			return f
		}
	}
	return ""
}
