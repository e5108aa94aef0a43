// Package httpapi holds the pieces shared by every HTTP transport: the JSON
// envelope, error mapping and the cross-cutting middlewares.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/transport"
	httptransport "github.com/go-kit/kit/transport/http"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/ichigozero/taskmgr/apperror"
)

// MaxBodyBytes bounds request bodies.
const MaxBodyBytes = 10 << 20

// Envelope wraps every JSON response.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

type ErrorBody struct {
	Message string `json:"message"`
}

// Messager is implemented by responses that carry a note for the client.
type Messager interface {
	Message() string
}

var (
	ErrBodyTooLarge  = apperror.New(apperror.PayloadTooLarge, "request body is too large")
	ErrRouteNotFound = apperror.New(apperror.NotFound, "route not found")

	// ErrBadRouting means a route was registered without the path variable
	// its decoder reads.
	ErrBadRouting = errors.New("route is missing a path variable")
)

// ServerOptions are the options shared by every go-kit HTTP server.
func ServerOptions(logger log.Logger) []httptransport.ServerOption {
	return []httptransport.ServerOption{
		httptransport.ServerErrorEncoder(NewErrorEncoder(logger)),
		httptransport.ServerErrorHandler(transport.NewLogErrorHandler(logger)),
	}
}

// NewErrorEncoder writes err as an error envelope with the status of its
// kind. Internal errors are logged and replaced by a generic message.
func NewErrorEncoder(logger log.Logger) httptransport.ErrorEncoder {
	return func(_ context.Context, err error, w http.ResponseWriter) {
		if apperror.KindOf(err) == apperror.Internal {
			level.Error(logger).Log("err", err)
		}
		WriteError(w, err)
	}
}

// NewResponseEncoder writes a success envelope around response. Responses
// failing through endpoint.Failer go to the error encoder, and
// httptransport.StatusCoder overrides the default 200.
func NewResponseEncoder(logger log.Logger) httptransport.EncodeResponseFunc {
	errorEncoder := NewErrorEncoder(logger)

	return func(ctx context.Context, w http.ResponseWriter, response interface{}) error {
		if f, ok := response.(endpoint.Failer); ok && f.Failed() != nil {
			errorEncoder(ctx, f.Failed(), w)
			return nil
		}

		status := http.StatusOK
		if sc, ok := response.(httptransport.StatusCoder); ok {
			status = sc.StatusCode()
		}

		env := Envelope{Success: true, Data: response}
		if m, ok := response.(Messager); ok {
			env.Message = m.Message()
		}
		return WriteJSON(w, status, env)
	}
}

func WriteJSON(w http.ResponseWriter, status int, env Envelope) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(env)
}

func WriteError(w http.ResponseWriter, err error) {
	WriteJSON(w, apperror.StatusCode(err), Envelope{
		Error: &ErrorBody{Message: apperror.Message(err)},
	})
}

// ReadBody reads the whole request body. Bodies over the limit set by
// LimitBody fail with ErrBodyTooLarge.
func ReadBody(r *http.Request) ([]byte, error) {
	b, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, ErrBodyTooLarge
		}
		return nil, apperror.NewValidation("request body could not be read")
	}
	return b, nil
}
