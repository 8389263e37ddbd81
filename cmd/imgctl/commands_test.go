package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/UnendingLoop/ImageOrchestrator/internal/appconfig"
	"github.com/UnendingLoop/ImageOrchestrator/internal/batch"
	"github.com/UnendingLoop/ImageOrchestrator/internal/devbackend"
	"github.com/UnendingLoop/ImageOrchestrator/internal/model"
	"github.com/UnendingLoop/ImageOrchestrator/internal/operation"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type mapSource map[string]string

func (m mapSource) GetString(key string) string { return m[key] }

func setup(t *testing.T) (*appconfig.Config, string) {
	t.Helper()
	h := devbackend.NewImageHandler(devbackend.NewMemStore(), operation.DefaultLimits())
	srv := httptest.NewServer(devbackend.NewRouter(h, gin.TestMode, ""))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	cfg, err := appconfig.Load(mapSource{"API_URL": srv.URL, "DOWNLOAD_DIR": filepath.Join(dir, "out")})
	require.NoError(t, err)

	for _, name := range []string{"a.png", "b.png"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("img-"+name), 0o644))
	}
	return cfg, dir
}

func TestRunResizeAndDownload(t *testing.T) {
	cfg, dir := setup(t)
	ctx := context.Background()

	var out bytes.Buffer
	err := runResize(ctx, cfg, []string{"-in", filepath.Join(dir, "a.png"), "-width", "100", "-height", "50"}, &out)
	require.NoError(t, err)

	var res resultView
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	require.Equal(t, "0.01 KB", res.Size)

	out.Reset()
	require.NoError(t, runDownload(ctx, cfg, []string{res.URL}, &out))

	var saved map[string]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &saved))
	data, err := os.ReadFile(saved["path"])
	require.NoError(t, err)
	require.Equal(t, "img-a.png", string(data))
}

func TestRunBatch(t *testing.T) {
	cfg, dir := setup(t)

	var out bytes.Buffer
	err := runBatch(context.Background(), cfg, []string{filepath.Join(dir, "a.png"), filepath.Join(dir, "b.png")}, &out)
	require.NoError(t, err)

	var res struct {
		Processed int `json:"processed"`
		Submitted int `json:"submitted"`
		Items     []struct {
			Source string `json:"source"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	require.Equal(t, 2, res.Processed)
	require.Equal(t, 2, res.Submitted)
	require.Equal(t, filepath.Join(dir, "b.png"), res.Items[1].Source)
}

func TestBatchViews(t *testing.T) {
	items := []batch.Item{{Preview: "a.png"}, {Preview: "b.png"}, {Preview: "c.png"}}
	ok := func(url string) model.BatchItem {
		return model.BatchItem{Result: &model.ProcessingResult{URL: url, FileSize: 1024}}
	}

	tests := []struct {
		name        string
		res         *model.BatchResult
		wantSources []string
	}{
		{
			name:        "full answer is paired",
			res:         &model.BatchResult{Items: []model.BatchItem{ok("u1"), {Err: "corrupt image"}, ok("u3")}},
			wantSources: []string{"a.png", "b.png", "c.png"},
		},
		{
			name:        "dropped item leaves results unpaired",
			res:         &model.BatchResult{Items: []model.BatchItem{ok("u1"), ok("u3")}},
			wantSources: []string{"", ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			views := batchViews(tt.res, items)
			require.Len(t, views, len(tt.res.Items))
			for i, v := range views {
				require.Equal(t, tt.wantSources[i], v.Source)
				require.Equal(t, tt.res.Items[i].Err, v.Error)
				require.Equal(t, tt.res.Items[i].OK(), v.Result != nil)
			}
		})
	}
}

func TestRunValidation(t *testing.T) {
	cfg, dir := setup(t)
	ctx := context.Background()

	err := runBatch(ctx, cfg, nil, &bytes.Buffer{})
	require.ErrorIs(t, err, model.ErrEmptyBatch)
	require.Equal(t, 2, exitCode(err))

	err = runResize(ctx, cfg, []string{"-in", filepath.Join(dir, "a.png"), "-quality", "0"}, &bytes.Buffer{})
	require.True(t, model.IsKind(err, model.KindValidation))

	err = runResize(ctx, cfg, []string{"-bogus"}, &bytes.Buffer{})
	require.ErrorIs(t, err, errUsage)

	err = runHistory(ctx, cfg, nil, &bytes.Buffer{})
	require.ErrorIs(t, err, model.ErrHistoryDisabled)
	require.Equal(t, 1, exitCode(err))
}

func TestRunHealth(t *testing.T) {
	cfg, _ := setup(t)

	var out bytes.Buffer
	require.NoError(t, runHealth(context.Background(), cfg, nil, &out))

	var rep map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &rep))
	require.Equal(t, true, rep["healthy"])
}
