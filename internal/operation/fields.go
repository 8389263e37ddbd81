// Package operation turns loosely-typed form state into validated operation specs
package operation

// ResizeFields is raw resize input as typed by the user. Empty Quality means "not set".
type ResizeFields struct {
	Width   string
	Height  string
	Quality string
	Format  string
}

type CropFields struct {
	X      string
	Y      string
	Width  string
	Height string
}

type WatermarkFields struct {
	Text     string
	Position string
	Opacity  string
}

// Toggle keeps the on/off flag and the stored values together.
// Disable does not touch Fields, so re-enabling brings back the same values.
type Toggle[F any] struct {
	Enabled bool
	Fields  F
}

func (t *Toggle[F]) Enable()  { t.Enabled = true }
func (t *Toggle[F]) Disable() { t.Enabled = false }
func (t *Toggle[F]) Set(f F)  { t.Fields = f }

// Form is the state of the advanced-processing screen.
type Form struct {
	Resize    Toggle[ResizeFields]
	Crop      Toggle[CropFields]
	Watermark Toggle[WatermarkFields]
}

// DefaultForm returns the initial advanced form: every operation off, values prefilled.
func DefaultForm() Form {
	return Form{
		Resize: Toggle[ResizeFields]{Fields: ResizeFields{
			Width:  "800",
			Height: "600",
			Format: "webp",
		}},
		Crop: Toggle[CropFields]{Fields: CropFields{
			X:      "10",
			Y:      "10",
			Width:  "400",
			Height: "400",
		}},
		Watermark: Toggle[WatermarkFields]{Fields: WatermarkFields{
			Text:     "PhucDev",
			Position: "bottom-right",
			Opacity:  "0.5",
		}},
	}
}

// DefaultResizeFields are the prefilled values of the single resize screen.
func DefaultResizeFields() ResizeFields {
	return ResizeFields{Width: "800", Height: "600", Quality: "80", Format: "webp"}
}

// DefaultBatchFields are the prefilled values of the batch screen; batch sends no quality.
func DefaultBatchFields() ResizeFields {
	return ResizeFields{Width: "800", Height: "600", Format: "webp"}
}
