package retrieval

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/UnendingLoop/ImageOrchestrator/internal/model"
	"github.com/stretchr/testify/require"
)

func TestFileName(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{url: "http://cdn.example.com/results/abc.webp", want: "abc.webp"},
		{url: "http://cdn.example.com/results/abc.png?sig=1", want: "abc.png"},
		{url: "http://cdn.example.com/", want: DefaultFileName},
		{url: "http://cdn.example.com", want: DefaultFileName},
		{url: "", want: DefaultFileName},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			require.Equal(t, tt.want, FileName(tt.url))
		})
	}
}

func TestRetriever_Save(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "downloads")
	r := New(&mockDownloader{
		downloadFn: func(ctx context.Context, url string) ([]byte, string, error) {
			return []byte("webp-bytes"), "image/webp", nil
		},
	}, dir)

	path, f, err := r.Save(context.Background(), "http://cdn/results/out.webp")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "out.webp"), path)
	require.Equal(t, "image/webp", f.ContentType)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "webp-bytes", string(data))
}

func TestRetriever_Fetch_Failure(t *testing.T) {
	cause := &model.TransportError{StatusCode: 404, Status: "Not Found"}
	r := New(&mockDownloader{
		downloadFn: func(ctx context.Context, url string) ([]byte, string, error) {
			return nil, "", cause
		},
	}, t.TempDir())

	_, err := r.Fetch(context.Background(), "http://cdn/missing.png")
	require.ErrorIs(t, err, model.ErrDownloadFailed)
	var tErr *model.TransportError
	require.True(t, errors.As(err, &tErr))

	_, err = r.Fetch(context.Background(), "  ")
	require.ErrorIs(t, err, model.ErrDownloadFailed)
}
