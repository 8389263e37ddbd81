package operation

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/UnendingLoop/ImageOrchestrator/internal/model"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// в ошибках отдаем json-имена полей, а не имена Go-структур
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ParseResize converts raw resize input into a validated spec.
func ParseResize(f ResizeFields) (model.ResizeSpec, error) {
	var spec model.ResizeSpec
	var err error

	if spec.Width, err = parseInt(model.OpResize, "width", f.Width); err != nil {
		return model.ResizeSpec{}, err
	}
	if spec.Height, err = parseInt(model.OpResize, "height", f.Height); err != nil {
		return model.ResizeSpec{}, err
	}
	if q := strings.TrimSpace(f.Quality); q != "" {
		val, err := parseInt(model.OpResize, "quality", q)
		if err != nil {
			return model.ResizeSpec{}, err
		}
		spec.Quality = &val
	}
	spec.Format = normalizeFormat(f.Format)

	raw := map[string]string{"width": f.Width, "height": f.Height, "quality": f.Quality, "format": f.Format}
	if err := check(model.OpResize, spec, raw); err != nil {
		return model.ResizeSpec{}, err
	}
	return spec, nil
}

// ParseCrop converts raw crop input. The rectangle is not checked against the
// source image: the backend owns that decision.
func ParseCrop(f CropFields) (model.CropSpec, error) {
	var spec model.CropSpec
	var err error

	if spec.X, err = parseInt(model.OpCrop, "x", f.X); err != nil {
		return model.CropSpec{}, err
	}
	if spec.Y, err = parseInt(model.OpCrop, "y", f.Y); err != nil {
		return model.CropSpec{}, err
	}
	if spec.Width, err = parseInt(model.OpCrop, "width", f.Width); err != nil {
		return model.CropSpec{}, err
	}
	if spec.Height, err = parseInt(model.OpCrop, "height", f.Height); err != nil {
		return model.CropSpec{}, err
	}

	raw := map[string]string{"x": f.X, "y": f.Y, "width": f.Width, "height": f.Height}
	if err := check(model.OpCrop, spec, raw); err != nil {
		return model.CropSpec{}, err
	}
	return spec, nil
}

func ParseWatermark(f WatermarkFields) (model.WatermarkSpec, error) {
	spec := model.WatermarkSpec{
		Text:     f.Text,
		Position: model.Position(strings.ToLower(strings.TrimSpace(f.Position))),
	}

	opacity, err := strconv.ParseFloat(strings.TrimSpace(f.Opacity), 64)
	if err != nil {
		return model.WatermarkSpec{}, &model.ValidationError{
			Field:  fieldName(model.OpWatermark, "opacity"),
			Value:  f.Opacity,
			Reason: "must be a number",
			Cause:  err,
		}
	}
	spec.Opacity = opacity

	// текст из одних пробелов считаем пустым
	if strings.TrimSpace(spec.Text) == "" {
		spec.Text = ""
	}

	raw := map[string]string{"text": f.Text, "position": f.Position, "opacity": f.Opacity}
	if err := check(model.OpWatermark, spec, raw); err != nil {
		return model.WatermarkSpec{}, err
	}
	return spec, nil
}

// Operations parses the enabled toggles only. Values of disabled toggles are
// kept as they are and never validated.
func (f Form) Operations() (model.OperationSet, error) {
	var set model.OperationSet

	if f.Resize.Enabled {
		spec, err := ParseResize(f.Resize.Fields)
		if err != nil {
			return model.OperationSet{}, err
		}
		set.Resize = &spec
	}
	if f.Crop.Enabled {
		spec, err := ParseCrop(f.Crop.Fields)
		if err != nil {
			return model.OperationSet{}, err
		}
		set.Crop = &spec
	}
	if f.Watermark.Enabled {
		spec, err := ParseWatermark(f.Watermark.Fields)
		if err != nil {
			return model.OperationSet{}, err
		}
		set.Watermark = &spec
	}

	return set, nil
}

// ValidateSet checks an already decoded operation set, e.g. one received as JSON.
// A format alias in the resize spec is normalized in place.
func ValidateSet(set model.OperationSet) error {
	if set.Resize != nil {
		set.Resize.Format = normalizeFormat(string(set.Resize.Format))
		if err := check(model.OpResize, *set.Resize, nil); err != nil {
			return err
		}
	}
	if set.Crop != nil {
		if err := check(model.OpCrop, *set.Crop, nil); err != nil {
			return err
		}
	}
	if set.Watermark != nil {
		if err := check(model.OpWatermark, *set.Watermark, nil); err != nil {
			return err
		}
	}
	return nil
}

func parseInt(op model.OpKind, field, raw string) (int, error) {
	val, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &model.ValidationError{
			Field:  fieldName(op, field),
			Value:  raw,
			Reason: "must be a whole number",
			Cause:  err,
		}
	}
	return val, nil
}

func normalizeFormat(raw string) model.Format {
	f := strings.ToLower(strings.TrimSpace(raw))
	if alias, ok := model.FormatAliases[f]; ok {
		return alias
	}
	return model.Format(f)
}

func check(op model.OpKind, spec any, raw map[string]string) error {
	err := validate.Struct(spec)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &model.ValidationError{Field: string(op), Reason: err.Error(), Cause: err}
	}

	fe := verrs[0]
	return &model.ValidationError{
		Field:  fieldName(op, fe.Field()),
		Value:  raw[fe.Field()],
		Reason: reasonFor(fe),
		Cause:  err,
	}
}

func reasonFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte", "min":
		return "must be at least " + fe.Param()
	case "lte", "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "required":
		return "is required"
	default:
		return "failed " + fe.Tag() + " check"
	}
}

func fieldName(op model.OpKind, field string) string {
	return string(op) + "." + field
}
