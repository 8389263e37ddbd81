// Package normalizer unwraps the backend's {success,data,error,message} envelope
package normalizer

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/UnendingLoop/ImageOrchestrator/internal/model"
)

// Unwrap returns Data when the backend claims success and actually sent data.
// Anything else becomes an ApplicationError carrying the backend's error text,
// or the capability's default message when it sent none.
func Unwrap[T any](env model.Envelope[T], c model.Capability) (T, error) {
	var zero T
	if env.Success && env.Data != nil {
		return *env.Data, nil
	}

	msg := env.Error
	if msg == "" {
		msg = defaultMessage(c)
	}
	return zero, &model.ApplicationError{
		Capability: c,
		Message:    msg,
		Detail:     env.Message,
	}
}

// Decode reads one envelope from r and unwraps it.
// A body that is not a JSON envelope is reported with the default message.
func Decode[T any](r io.Reader, c model.Capability) (T, error) {
	var zero T
	var env model.Envelope[T]

	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return zero, &model.ApplicationError{
			Capability: c,
			Message:    defaultMessage(c),
			Detail:     fmt.Sprintf("malformed response envelope: %v", err),
			Cause:      err,
		}
	}

	return Unwrap(env, c)
}

func defaultMessage(c model.Capability) string {
	if msg, ok := model.DefaultMessages[c]; ok {
		return msg
	}
	return "Request failed"
}
