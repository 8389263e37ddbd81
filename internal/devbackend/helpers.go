package devbackend

import (
	"errors"
	"io"
	"mime/multipart"

	"github.com/UnendingLoop/ImageOrchestrator/internal/model"
	"github.com/wb-go/wbf/zlog"
)

var (
	ErrFileNotFound   = errors.New("file not found")
	ErrImageMissing   = errors.New("image is required")
	ErrImagesMissing  = errors.New("at least one image is required")
	ErrInvalidPayload = errors.New("payload must be a JSON object of operations")
)

func errorCodeDefiner(err error) int {
	switch {
	case errors.Is(err, model.ErrAssetTooLarge):
		return 413
	case errors.Is(err, ErrFileNotFound):
		return 404
	case model.IsKind(err, model.KindValidation),
		errors.Is(err, ErrImageMissing),
		errors.Is(err, ErrImagesMissing),
		errors.Is(err, ErrInvalidPayload):
		return 400
	default:
		return 500
	}
}

// readAsset reads an uploaded part into an asset
func readAsset(fh *multipart.FileHeader) (model.ImageAsset, error) {
	f, err := fh.Open()
	if err != nil {
		return model.ImageAsset{}, err
	}
	defer closeFileFlow(f)

	data, err := io.ReadAll(f)
	if err != nil {
		return model.ImageAsset{}, err
	}
	return model.NewImageAsset(fh.Filename, fh.Header.Get("Content-Type"), data), nil
}

func closeFileFlow(res io.Closer) {
	if res == nil {
		return
	}
	if err := res.Close(); err != nil {
		zlog.Logger.Warn().Err(err).Msg("Handler failed to close fileflow")
	}
}
