package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"paygateway/internal/models"
	"paygateway/internal/payment"
	"paygateway/internal/pkg/chd"
)

// TapSource lists the active tap rules.
type TapSource interface {
	FindActive(ctx context.Context) ([]models.Tap, error)
}

// MessageStore persists captured messages.
type MessageStore interface {
	Create(ctx context.Context, m *models.Message) error
	Update(ctx context.Context, m *models.Message) error
}

type wiretap struct {
	taps     TapSource
	messages MessageStore
	logger   *zap.Logger
	now      func() time.Time

	mu       sync.Mutex
	patterns map[string]*regexp.Regexp
}

// Wiretap records inbound exchanges whose path matches an active tap.
// The request is stored before the handler runs and its id is put on the
// request context for audit correlation; the response is added afterwards.
// Cardholder data is masked when the tap asks for it.
func Wiretap(taps TapSource, messages MessageStore, logger *zap.Logger) echo.MiddlewareFunc {
	w := &wiretap{
		taps:     taps,
		messages: messages,
		logger:   logger,
		now:      time.Now,
		patterns: make(map[string]*regexp.Regexp),
	}
	return w.handle
}

func (w *wiretap) handle(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		tap, ok := w.match(req.Context(), req.URL.Path)
		if !ok {
			return next(c)
		}

		rawBody, err := io.ReadAll(req.Body)
		if err != nil {
			return next(c)
		}
		req.Body = io.NopCloser(bytes.NewBuffer(rawBody))

		var mask []string
		doc := decodeObject(rawBody)
		if tap.MaskCHD {
			mask = chd.ValuesFromAny(doc)
		}

		msg := &models.Message{
			Reference:     uuid.NewString(),
			StartedAt:     w.now(),
			RemoteAddr:    c.RealIP(),
			ReqMethod:     req.Method,
			ReqPath:       req.URL.Path,
			ReqHeaders:    headersJSON(req.Header, req.ContentLength),
			ReqBody:       chd.Mask(prettyJSON(rawBody), mask),
			InteractionID: interactionID(doc),
		}
		if err := w.messages.Create(req.Context(), msg); err != nil {
			w.logger.Warn("wiretap: store request failed", zap.String("path", req.URL.Path), zap.Error(err))
			return next(c)
		}
		c.SetRequest(req.WithContext(payment.WithMessageID(req.Context(), msg.ID)))

		resBody := new(bytes.Buffer)
		res := c.Response()
		res.Writer = &captureWriter{Writer: io.MultiWriter(res.Writer, resBody), ResponseWriter: res.Writer}

		if err := next(c); err != nil {
			c.Error(err)
		}

		ended := w.now()
		msg.EndedAt = &ended
		msg.ResStatusCode = res.Status
		msg.ResReasonPhrase = http.StatusText(res.Status)
		msg.ResHeaders = headersJSON(res.Header(), res.Size)
		msg.ResBody = chd.Mask(prettyJSON(resBody.Bytes()), mask)
		if err := w.messages.Update(context.WithoutCancel(req.Context()), msg); err != nil {
			w.logger.Warn("wiretap: store response failed", zap.String("reference", msg.Reference), zap.Error(err))
		}
		return nil
	}
}

// match returns the first active tap whose regex occurs in path.
func (w *wiretap) match(ctx context.Context, path string) (models.Tap, bool) {
	taps, err := w.taps.FindActive(ctx)
	if err != nil {
		w.logger.Warn("wiretap: load taps failed", zap.Error(err))
		return models.Tap{}, false
	}
	for _, t := range taps {
		re := w.compile(t.PathRegex)
		if re != nil && re.MatchString(path) {
			return t, true
		}
	}
	return models.Tap{}, false
}

func (w *wiretap) compile(pattern string) *regexp.Regexp {
	w.mu.Lock()
	defer w.mu.Unlock()
	if re, ok := w.patterns[pattern]; ok {
		return re
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		w.logger.Warn("wiretap: invalid tap regex", zap.String("pattern", pattern), zap.Error(err))
	}
	w.patterns[pattern] = re
	return re
}

type captureWriter struct {
	io.Writer
	http.ResponseWriter
}

func (w *captureWriter) WriteHeader(code int) {
	w.ResponseWriter.WriteHeader(code)
}

func (w *captureWriter) Write(b []byte) (int, error) {
	return w.Writer.Write(b)
}

func (w *captureWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// headersJSON renders the first value of each header as a JSON object.
func headersJSON(h http.Header, contentLength int64) string {
	flat := make(map[string]string, len(h)+1)
	for k, v := range h {
		if len(v) > 0 {
			flat[k] = v[0]
		}
	}
	if _, ok := flat["Content-Length"]; !ok && contentLength > 0 {
		flat["Content-Length"] = strconv.FormatInt(contentLength, 10)
	}
	out, err := json.Marshal(flat)
	if err != nil {
		return "{}"
	}
	return string(out)
}

// prettyJSON indents body when it is JSON and returns it unchanged otherwise.
func prettyJSON(body []byte) string {
	var out bytes.Buffer
	if err := json.Indent(&out, body, "", "    "); err != nil {
		return string(body)
	}
	return out.String()
}

func decodeObject(body []byte) map[string]any {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil
	}
	return doc
}

func interactionID(doc map[string]any) string {
	switch v := doc["interaction_id"].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	}
	return ""
}
