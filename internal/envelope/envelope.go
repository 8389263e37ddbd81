// Package envelope packs validated requests into the multipart bodies the backend expects
package envelope

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/UnendingLoop/ImageOrchestrator/internal/model"
)

const (
	FieldImage   = "image"
	FieldImages  = "images"
	FieldPayload = "payload"
	FieldWidth   = "width"
	FieldHeight  = "height"
	FieldQuality = "quality"
	FieldFormat  = "format"
)

const defaultFileName = "image"

// Payload is a finished request body together with its multipart Content-Type.
type Payload struct {
	ContentType string
	Body        []byte
}

func (p *Payload) Reader() io.Reader {
	return bytes.NewReader(p.Body)
}

type field struct {
	name  string
	value string
}

// Resize flattens one resize spec next to the image. Quality is sent only when set.
func Resize(asset model.ImageAsset, spec model.ResizeSpec) (*Payload, error) {
	return build(func(w *multipart.Writer) error {
		if err := writeFile(w, FieldImage, asset); err != nil {
			return err
		}
		return writeFields(w, resizeFields(spec))
	})
}

// Advanced sends the enabled operations as one JSON object. Disabled operations
// have no key at all; an empty set is sent as {}.
func Advanced(req *model.ProcessingRequest) (*Payload, error) {
	ops, err := json.Marshal(req.Operations)
	if err != nil {
		return nil, fmt.Errorf("encode operations: %w", err)
	}

	return build(func(w *multipart.Writer) error {
		if err := writeFile(w, FieldImage, req.Asset); err != nil {
			return err
		}
		return w.WriteField(FieldPayload, string(ops))
	})
}

// Batch attaches every asset under the repeated "images" field plus one shared resize spec.
func Batch(req *model.BatchRequest) (*Payload, error) {
	return build(func(w *multipart.Writer) error {
		for _, a := range req.Assets {
			if err := writeFile(w, FieldImages, a); err != nil {
				return err
			}
		}
		return writeFields(w, resizeFields(req.Resize))
	})
}

func build(fill func(w *multipart.Writer) error) (*Payload, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := fill(w); err != nil {
		return nil, fmt.Errorf("build multipart body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}

	return &Payload{ContentType: w.FormDataContentType(), Body: buf.Bytes()}, nil
}

// resizeFields keeps the order of the resize form: width, height, quality, format.
func resizeFields(spec model.ResizeSpec) []field {
	fields := []field{
		{FieldWidth, strconv.Itoa(spec.Width)},
		{FieldHeight, strconv.Itoa(spec.Height)},
	}
	if spec.Quality != nil {
		fields = append(fields, field{FieldQuality, strconv.Itoa(*spec.Quality)})
	}
	return append(fields, field{FieldFormat, string(spec.Format)})
}

func writeFields(w *multipart.Writer, fields []field) error {
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return err
		}
	}
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeFile(w *multipart.Writer, name string, asset model.ImageAsset) error {
	fileName := asset.Name
	if fileName == "" {
		fileName = defaultFileName
	}
	contentType := asset.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(name), quoteEscaper.Replace(fileName)))
	h.Set("Content-Type", contentType)

	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = part.Write(asset.Data)
	return err
}
