package retrieval

import "context"

type mockDownloader struct {
	downloadFn func(ctx context.Context, url string) ([]byte, string, error)
}

func (m *mockDownloader) Download(ctx context.Context, url string) ([]byte, string, error) {
	return m.downloadFn(ctx, url)
}
