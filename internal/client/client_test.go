package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/UnendingLoop/ImageOrchestrator/internal/model"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Options{BaseURL: srv.URL + "/"})
}

func testAsset() model.ImageAsset {
	return model.NewImageAsset("cat.png", "image/png", []byte("png-bytes"))
}

func TestNew_Defaults(t *testing.T) {
	c := New(Options{})
	require.Equal(t, DefaultBaseURL, c.BaseURL())
	require.Equal(t, DefaultAdvancedPath, c.advancedPath)
	require.Equal(t, DefaultTimeout, c.httpClient.Timeout)

	c = New(Options{BaseURL: " http://api:9000// ", AdvancedPath: "images/pipeline"})
	require.Equal(t, "http://api:9000", c.BaseURL())
	require.Equal(t, "/images/pipeline", c.advancedPath)
}

func TestSubmitResize(t *testing.T) {
	var gotFields map[string][]string
	var gotReqID string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, ResizePath, r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotFields = r.MultipartForm.Value
		gotReqID = r.Header.Get("X-Request-Id")

		f, _, err := r.FormFile("image")
		require.NoError(t, err)
		b, _ := io.ReadAll(f)
		require.Equal(t, "png-bytes", string(b))

		_, _ = io.WriteString(w, `{"success":true,"data":{"processed_at":"2024-01-01T10:00:00Z","url":"http://cdn/out.webp","file_size":40960}}`)
	})

	res, err := c.SubmitResize(context.Background(), testAsset(), model.ResizeSpec{Width: 800, Height: 600, Format: model.FormatWebP})
	require.NoError(t, err)
	require.Equal(t, "http://cdn/out.webp", res.URL)
	require.Equal(t, int64(40960), res.FileSize)
	require.Equal(t, "40.00 KB", model.FormatSize(res.FileSize))

	require.Equal(t, map[string][]string{"width": {"800"}, "height": {"600"}, "format": {"webp"}}, gotFields)
	require.NotEmpty(t, gotReqID)
}

func TestSubmitResize_PinnedRequestID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "req-42", r.Header.Get("X-Request-Id"))
		_, _ = io.WriteString(w, `{"success":true,"data":{"url":"u","file_size":1}}`)
	})

	ctx := ContextWithRequestID(context.Background(), "req-42")
	_, err := c.SubmitResize(ctx, testAsset(), model.ResizeSpec{Width: 1, Height: 1, Format: model.FormatPNG})
	require.NoError(t, err)
}

func TestSubmitResize_NaiveTimestamp(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":true,"data":{"processed_at":"2024-01-01T10:00:00.123456","url":"http://cdn/x.webp","file_size":10}}`)
	})

	res, err := c.SubmitResize(context.Background(), testAsset(), model.ResizeSpec{Width: 1, Height: 1, Format: model.FormatWebP})
	require.NoError(t, err)
	require.Equal(t, "http://cdn/x.webp", res.URL)
	require.Equal(t, 2024, res.ProcessedAt.Year())
	require.Equal(t, time.UTC, res.ProcessedAt.Location())
}

func TestSubmitAdvanced(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, DefaultAdvancedPath, r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.JSONEq(t, `{"crop":{"x":10,"y":10,"width":400,"height":400}}`, r.FormValue("payload"))
		_, _ = io.WriteString(w, `{"success":true,"data":{"processed_at":"2024-01-01T10:00:00Z","url":"u","file_size":7}}`)
	})

	req := &model.ProcessingRequest{
		Asset:      testAsset(),
		Operations: model.OperationSet{Crop: &model.CropSpec{X: 10, Y: 10, Width: 400, Height: 400}},
	}
	res, err := c.SubmitAdvanced(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, int64(7), res.FileSize)
}

func TestSubmitBatch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, BatchPath, r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Len(t, r.MultipartForm.File["images"], 2)
		_, _ = io.WriteString(w, `{"success":true,"data":{"images":[{"url":"a","file_size":1},{"url":"b","file_size":2}],"processed_at":"2024-01-01T10:00:00Z"}}`)
	})

	req := &model.BatchRequest{
		Assets: []model.ImageAsset{testAsset(), testAsset()},
		Resize: model.ResizeSpec{Width: 800, Height: 600, Format: model.FormatWebP},
	}
	res, err := c.SubmitBatch(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, 2, res.SuccessCount())
	require.False(t, res.ProcessedAt.IsZero())
}

func TestFetchHealth(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, HealthPath, r.URL.Path)
		_, _ = io.WriteString(w, `{"success":true,"data":{"status":"healthy","timestamp":"2024-01-01T00:00:00Z","services":{"storage":"healthy","queue":"degraded"}}}`)
	})

	rep, err := c.FetchHealth(context.Background())
	require.NoError(t, err)
	require.True(t, rep.Healthy())
	require.Equal(t, []string{"queue"}, rep.Degraded())
}

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		kind    model.Kind
		wantErr string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"success":false,"error":"boom"}`, kind: model.KindTransport, wantErr: "API error: Internal Server Error"},
		{name: "payload too large", status: http.StatusRequestEntityTooLarge, body: ``, kind: model.KindTransport, wantErr: "API error: Request Entity Too Large"},
		{name: "refused", status: http.StatusOK, body: `{"success":false,"error":"unsupported format"}`, kind: model.KindApplication, wantErr: "unsupported format"},
		{name: "no data", status: http.StatusOK, body: `{"success":true}`, kind: model.KindApplication, wantErr: "Health check failed"},
		{name: "not json", status: http.StatusOK, body: `ok`, kind: model.KindApplication, wantErr: "Health check failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := c.FetchHealth(context.Background())
			require.EqualError(t, err, tt.wantErr)
			require.True(t, model.IsKind(err, tt.kind))
		})
	}
}

func TestTransportStatusCode(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.SubmitBatch(context.Background(), &model.BatchRequest{
		Assets: []model.ImageAsset{testAsset()},
		Resize: model.ResizeSpec{Width: 1, Height: 1, Format: model.FormatPNG},
	})
	var tErr *model.TransportError
	require.ErrorAs(t, err, &tErr)
	require.Equal(t, http.StatusBadGateway, tErr.StatusCode)
	require.Equal(t, model.CapBatch, tErr.Capability)
}

func TestUnreachable(t *testing.T) {
	dialErr := errors.New("connection refused")
	c := New(Options{HTTPClient: &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		return nil, dialErr
	})}})

	_, err := c.SubmitResize(context.Background(), testAsset(), model.ResizeSpec{Width: 1, Height: 1, Format: model.FormatPNG})
	require.ErrorIs(t, err, dialErr)
	require.True(t, model.IsKind(err, model.KindTransport))
}

func TestCanceledContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":true,"data":{"url":"u"}}`)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.FetchHealth(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.True(t, model.IsKind(err, model.KindTransport))
}

func TestDownload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "missing.png") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "image/webp")
		_, _ = io.WriteString(w, "webp-bytes")
	})

	data, ct, err := c.Download(context.Background(), c.BaseURL()+"/files/out.webp")
	require.NoError(t, err)
	require.Equal(t, "webp-bytes", string(data))
	require.Equal(t, "image/webp", ct)

	_, _, err = c.Download(context.Background(), c.BaseURL()+"/files/missing.png")
	require.EqualError(t, err, "API error: Not Found")
}
