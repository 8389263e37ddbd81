package operation

import (
	"fmt"

	"github.com/UnendingLoop/ImageOrchestrator/internal/model"
)

// DefaultMaxAssetBytes matches the backend upload limit of 10MB per image.
const DefaultMaxAssetBytes int64 = 10 << 20

// Limits bounds what may be submitted. MaxAssetBytes <= 0 disables the size check.
type Limits struct {
	MaxAssetBytes int64
}

func DefaultLimits() Limits {
	return Limits{MaxAssetBytes: DefaultMaxAssetBytes}
}

// CheckAsset rejects empty images and images over the size limit.
func (l Limits) CheckAsset(a model.ImageAsset) error {
	if a.Empty() {
		return &model.ValidationError{Field: "image", Value: a.Name, Reason: model.ErrEmptyAsset.Error(), Cause: model.ErrEmptyAsset}
	}
	if l.MaxAssetBytes > 0 && a.Size > l.MaxAssetBytes {
		return &model.ValidationError{
			Field:  "image",
			Value:  a.Name,
			Reason: fmt.Sprintf("%s (%d > %d bytes)", model.ErrAssetTooLarge, a.Size, l.MaxAssetBytes),
			Cause:  model.ErrAssetTooLarge,
		}
	}
	return nil
}

// NewProcessingRequest validates the asset and the enabled operations of the form.
// A form with nothing enabled yields a passthrough request.
func NewProcessingRequest(asset model.ImageAsset, form Form, lim Limits) (*model.ProcessingRequest, error) {
	if err := lim.CheckAsset(asset); err != nil {
		return nil, err
	}

	ops, err := form.Operations()
	if err != nil {
		return nil, err
	}

	return &model.ProcessingRequest{Asset: asset, Operations: ops}, nil
}

// NewResizeRequest validates input of the single resize screen.
func NewResizeRequest(asset model.ImageAsset, fields ResizeFields, lim Limits) (*model.ProcessingRequest, error) {
	if err := lim.CheckAsset(asset); err != nil {
		return nil, err
	}

	spec, err := ParseResize(fields)
	if err != nil {
		return nil, err
	}

	return &model.ProcessingRequest{Asset: asset, Operations: model.OperationSet{Resize: &spec}}, nil
}

// NewBatchRequest validates every asset and the shared resize fields.
func NewBatchRequest(assets []model.ImageAsset, fields ResizeFields, lim Limits) (*model.BatchRequest, error) {
	if len(assets) == 0 {
		return nil, &model.ValidationError{Field: "images", Reason: model.ErrEmptyBatch.Error(), Cause: model.ErrEmptyBatch}
	}

	for _, a := range assets {
		if err := lim.CheckAsset(a); err != nil {
			return nil, err
		}
	}

	spec, err := ParseResize(fields)
	if err != nil {
		return nil, err
	}

	cp := make([]model.ImageAsset, len(assets))
	copy(cp, assets)

	return &model.BatchRequest{Assets: cp, Resize: spec}, nil
}
