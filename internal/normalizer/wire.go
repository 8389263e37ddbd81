package normalizer

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/UnendingLoop/ImageOrchestrator/internal/model"
	"github.com/wb-go/wbf/zlog"
)

// Timestamp accepts ISO-8601 strings and treats null or "" as the zero time.
// Values without an offset are read as UTC.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// UnmarshalJSON does not fail on an unreadable time; it is logged and left zero.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	t.Time = time.Time{}
	if bytes.Equal(b, []byte("null")) || bytes.Equal(b, []byte(`""`)) {
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		zlog.Logger.Warn().Str("value", string(b)).Msg("Timestamp from backend is not a string, keeping zero time")
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	zlog.Logger.Warn().Str("value", s).Msg("Unrecognized timestamp from backend, keeping zero time")
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// ImageResponse is one processed image as the backend reports it.
// Error is filled only by backends that report per-item batch failures.
type ImageResponse struct {
	ProcessedAt Timestamp `json:"processed_at"`
	URL         string    `json:"url"`
	FileSize    int64     `json:"file_size"`
	Error       string    `json:"error,omitempty"`
}

type BatchResponse struct {
	Images      []ImageResponse `json:"images,omitempty"`
	ProcessedAt Timestamp       `json:"processed_at,omitempty"`
	Error       string          `json:"error,omitempty"`
}

type HealthCheck struct {
	Status    string            `json:"status"`
	Timestamp Timestamp         `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

func (w ImageResponse) Result() model.ProcessingResult {
	return model.ProcessingResult{
		ProcessedAt: w.ProcessedAt.Time,
		URL:         w.URL,
		FileSize:    w.FileSize,
	}
}

func (w BatchResponse) Result() model.BatchResult {
	items := make([]model.BatchItem, 0, len(w.Images))
	for _, img := range w.Images {
		if img.Error != "" {
			items = append(items, model.BatchItem{Err: img.Error})
			continue
		}
		res := img.Result()
		items = append(items, model.BatchItem{Result: &res})
	}
	return model.BatchResult{
		Items:       items,
		ProcessedAt: w.ProcessedAt.Time,
		Error:       w.Error,
	}
}

func (w HealthCheck) Report() model.HealthReport {
	services := make(map[string]string, len(w.Services))
	for k, v := range w.Services {
		services[k] = v
	}
	return model.HealthReport{
		Status:    w.Status,
		Timestamp: w.Timestamp.Time,
		Services:  services,
	}
}
