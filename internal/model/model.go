// Package model provides data-structs shared by every layer of the orchestrator
package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

type (
	Format     string
	Position   string
	Capability string
	OpKind     string
)

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
	FormatWebP Format = "webp"
	FormatGIF  Format = "gif"
)

var FormatsMap = map[Format]bool{
	FormatJPEG: true,
	FormatPNG:  true,
	FormatWebP: true,
	FormatGIF:  true,
}

// FormatAliases - значения, которые присылает форма, но бэкенд ждет каноническое имя
var FormatAliases = map[string]Format{
	"jpg": FormatJPEG,
}

const (
	PosTopLeft     Position = "top-left"
	PosTopRight    Position = "top-right"
	PosBottomLeft  Position = "bottom-left"
	PosBottomRight Position = "bottom-right"
	PosCenter      Position = "center"
)

var PositionsMap = map[Position]bool{
	PosTopLeft:     true,
	PosTopRight:    true,
	PosBottomLeft:  true,
	PosBottomRight: true,
	PosCenter:      true,
}

const (
	CapResize   Capability = "resize"
	CapAdvanced Capability = "advanced"
	CapBatch    Capability = "batch"
	CapHealth   Capability = "health"
)

// DefaultMessages are reported when the backend refuses a request without saying why
var DefaultMessages = map[Capability]string{
	CapResize:   "Image processing failed",
	CapAdvanced: "Image processing failed",
	CapBatch:    "Batch processing failed",
	CapHealth:   "Health check failed",
}

const (
	OpResize    OpKind = "resize"
	OpCrop      OpKind = "crop"
	OpWatermark OpKind = "watermark"
)

const HealthyStatus = "healthy"

//---------------------

// ImageAsset is an opaque image payload. The orchestrator never looks inside Data.
type ImageAsset struct {
	Name        string
	ContentType string
	Data        []byte
	Size        int64
}

func NewImageAsset(name, contentType string, data []byte) ImageAsset {
	return ImageAsset{
		Name:        name,
		ContentType: contentType,
		Data:        data,
		Size:        int64(len(data)),
	}
}

func (a ImageAsset) Empty() bool {
	return len(a.Data) == 0
}

//---------------------

type ResizeSpec struct {
	Width   int    `json:"width" validate:"gt=0"`
	Height  int    `json:"height" validate:"gt=0"`
	Format  Format `json:"format" validate:"oneof=jpeg png webp gif"`
	Quality *int   `json:"quality,omitempty" validate:"omitempty,min=1,max=100"`
}

type CropSpec struct {
	X      int `json:"x" validate:"gte=0"`
	Y      int `json:"y" validate:"gte=0"`
	Width  int `json:"width" validate:"gt=0"`
	Height int `json:"height" validate:"gt=0"`
}

type WatermarkSpec struct {
	Text     string   `json:"text" validate:"required"`
	Position Position `json:"position" validate:"oneof=top-left top-right bottom-left bottom-right center"`
	Opacity  float64  `json:"opacity" validate:"gte=0,lte=1"`
}

// OperationSet holds the enabled operations; a nil spec means the operation is off.
type OperationSet struct {
	Resize    *ResizeSpec    `json:"resize,omitempty"`
	Crop      *CropSpec      `json:"crop,omitempty"`
	Watermark *WatermarkSpec `json:"watermark,omitempty"`
}

// Kinds lists enabled operations in the order resize, crop, watermark.
func (o OperationSet) Kinds() []OpKind {
	kinds := make([]OpKind, 0, 3)
	if o.Resize != nil {
		kinds = append(kinds, OpResize)
	}
	if o.Crop != nil {
		kinds = append(kinds, OpCrop)
	}
	if o.Watermark != nil {
		kinds = append(kinds, OpWatermark)
	}
	return kinds
}

func (o OperationSet) Empty() bool {
	return len(o.Kinds()) == 0
}

type ProcessingRequest struct {
	Asset      ImageAsset
	Operations OperationSet
}

type BatchRequest struct {
	Assets []ImageAsset
	Resize ResizeSpec
}

//---------------------

type ProcessingResult struct {
	ProcessedAt time.Time `json:"processed_at"`
	URL         string    `json:"url"`
	FileSize    int64     `json:"file_size"`
}

// BatchItem is either a result or a per-item failure reported by the backend.
type BatchItem struct {
	Result *ProcessingResult `json:"result,omitempty"`
	Err    string            `json:"error,omitempty"`
}

func (i BatchItem) OK() bool {
	return i.Result != nil && i.Err == ""
}

type BatchResult struct {
	Items       []BatchItem `json:"items"`
	ProcessedAt time.Time   `json:"processed_at"`
	Error       string      `json:"error,omitempty"`
}

// Images returns the successful results in submission order.
func (b BatchResult) Images() []ProcessingResult {
	res := make([]ProcessingResult, 0, len(b.Items))
	for _, it := range b.Items {
		if it.OK() {
			res = append(res, *it.Result)
		}
	}
	return res
}

func (b BatchResult) SuccessCount() int {
	return len(b.Images())
}

type HealthReport struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

func (h HealthReport) Healthy() bool {
	return h.Status == HealthyStatus
}

// Degraded returns sorted names of services that do not report healthy.
func (h HealthReport) Degraded() []string {
	var names []string
	for name, st := range h.Services {
		if st != HealthyStatus {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

//---------------------

// Envelope is the uniform wrapper every backend endpoint answers with.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Data    *T     `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

//---------------------

// HistoryRecord is one stored processing result.
type HistoryRecord struct {
	ID          uuid.UUID   `json:"id"`
	RequestID   string      `json:"request_id"`
	Capability  Capability  `json:"capability"`
	URL         string      `json:"url"`
	FileSize    int64       `json:"file_size"`
	Operations  StringSlice `json:"operations"`
	ProcessedAt time.Time   `json:"processed_at"`
	CreatedAt   *time.Time  `json:"created_at,omitempty"`
}

type ListRequest struct {
	Page  int    `form:"page"`
	Limit int    `form:"limit"`
	Sort  string `form:"sort"`
	Order string `form:"order"`
}

const (
	ByProcessed = "processed"
	ByCreated   = "created"
	BySize      = "size"
	OrderASC    = "ascend"
	OrderDESC   = "descend"
)

// ResultEvent is published after every successful submission.
type ResultEvent struct {
	RequestID   string     `json:"request_id"`
	Capability  Capability `json:"capability"`
	URL         string     `json:"url"`
	FileSize    int64      `json:"file_size"`
	ProcessedAt time.Time  `json:"processed_at"`
}

//---------------------

// FormatSize renders a byte count the way the result card shows it.
func FormatSize(b int64) string {
	return fmt.Sprintf("%.2f KB", float64(b)/1024)
}

//--------------------

type StringSlice []string

func (s *StringSlice) Scan(value any) error {
	if value == nil {
		*s = []string{}
		return nil
	}

	b, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("invalid type for StringSlice")
	}

	if err := json.Unmarshal(b, s); err != nil {
		return fmt.Errorf("failed to unmarshal JSONB to []StringSlice: %w", err)
	}
	return nil
}

func (s StringSlice) Value() (driver.Value, error) {
	if len(s) == 0 {
		return []byte(`[]`), nil
	}
	res, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal []StringSlice to JSONB: %w", err)
	}

	return res, nil
}

// KindsToSlice converts operation kinds for storage.
func KindsToSlice(kinds []OpKind) StringSlice {
	res := make(StringSlice, 0, len(kinds))
	for _, k := range kinds {
		res = append(res, string(k))
	}
	return res
}
