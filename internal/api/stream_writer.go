package api

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v5"
)

// SSEStreamWriter writes server-sent events, one JSON payload per event.
type SSEStreamWriter struct {
	w       io.Writer
	flusher func()
	seq     int
}

func NewSSEStreamWriter(c *echo.Context) (*SSEStreamWriter, error) {
	res := c.Response()
	flusher, ok := res.(interface{ Flush() })
	if !ok {
		return nil, fmt.Errorf("streaming unsupported")
	}

	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")

	return &SSEStreamWriter{
		w:       res,
		flusher: flusher.Flush,
	}, nil
}

// Send writes payload as a named event.
func (s *SSEStreamWriter) Send(event string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	s.seq++
	if _, err := fmt.Fprintf(s.w, "id: %d\nevent: %s\ndata: %s\n\n", s.seq, event, b); err != nil {
		return err
	}
	s.flush()
	return nil
}

// Fail sends an error event with the same body as a JSON error response.
func (s *SSEStreamWriter) Fail(err error, param string) error {
	status, code := errorCode(err)
	errType := "invalid_request_error"
	if status >= 500 {
		errType = "server_error"
	}
	return s.Send("error", ErrorResponse{Error: ResponseError{
		Message: err.Error(),
		Type:    errType,
		Code:    code,
		Param:   param,
	}})
}

// Done terminates the stream.
func (s *SSEStreamWriter) Done() error {
	if _, err := fmt.Fprint(s.w, "data: [DONE]\n\n"); err != nil {
		return err
	}
	s.flush()
	return nil
}

func (s *SSEStreamWriter) flush() {
	if s.flusher != nil {
		s.flusher()
	}
}
