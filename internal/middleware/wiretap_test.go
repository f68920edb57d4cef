package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"paygateway/internal/models"
	"paygateway/internal/payment"
)

type fakeTaps struct {
	taps []models.Tap
	err  error
}

func (f *fakeTaps) FindActive(context.Context) ([]models.Tap, error) {
	return f.taps, f.err
}

type fakeMessages struct {
	mu      sync.Mutex
	created []*models.Message
	updated int
	err     error
}

func (f *fakeMessages) Create(_ context.Context, m *models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	m.ID = uint(len(f.created) + 5)
	f.created = append(f.created, m)
	return nil
}

func (f *fakeMessages) Update(context.Context, *models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated++
	return nil
}

func wiretapServer(taps TapSource, msgs MessageStore, handler echo.HandlerFunc) *echo.Echo {
	e := echo.New()
	e.POST("/api/payments/transactions/:project_id", handler, Wiretap(taps, msgs, zap.NewNop()))
	e.POST("/api/lookups/transactions/:project_id", handler, Wiretap(taps, msgs, zap.NewNop()))
	e.POST("/other", handler, Wiretap(taps, msgs, zap.NewNop()))
	return e
}

var transactionTap = models.Tap{ID: 1, PathRegex: models.DefaultTapPattern, MaskCHD: true, IsActive: true}

func TestWiretapRecordsMaskedExchange(t *testing.T) {
	msgs := &fakeMessages{}
	var seenMessageID *uint
	var seenBody string
	e := wiretapServer(&fakeTaps{taps: []models.Tap{transactionTap}}, msgs, func(c echo.Context) error {
		seenMessageID = payment.MessageIDFromContext(c.Request().Context())
		b, _ := io.ReadAll(c.Request().Body)
		seenBody = string(b)
		return c.JSON(http.StatusBadRequest, map[string]string{"echo": "4111111111111111"})
	})

	body := `{"card_account_number":"4111111111111111","card_verification_value":"123","interaction_id":"call-9"}`
	req := httptest.NewRequest(http.MethodPost, "/api/payments/transactions/7", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "4111111111111111", "client gets the unmasked response")
	assert.Equal(t, body, seenBody)
	require.NotNil(t, seenMessageID)
	assert.Equal(t, uint(5), *seenMessageID)

	require.Len(t, msgs.created, 1)
	assert.Equal(t, 1, msgs.updated)
	m := msgs.created[0]
	assert.Len(t, m.Reference, 36)
	assert.Equal(t, http.MethodPost, m.ReqMethod)
	assert.Equal(t, "/api/payments/transactions/7", m.ReqPath)
	assert.Equal(t, "call-9", m.InteractionID)
	assert.Equal(t, "{\n"+
		"    \"card_account_number\": \"************1111\",\n"+
		"    \"card_verification_value\": \"***\",\n"+
		"    \"interaction_id\": \"call-9\"\n"+
		"}", m.ReqBody)
	assert.Contains(t, m.ReqHeaders, `"Content-Type":"application/json"`)

	assert.Equal(t, http.StatusBadRequest, m.ResStatusCode)
	assert.Equal(t, "Bad Request", m.ResReasonPhrase)
	assert.Contains(t, m.ResBody, `"echo": "************1111"`)
	assert.NotContains(t, m.ResBody, "4111111111111111")
	require.NotNil(t, m.EndedAt)
	assert.False(t, m.EndedAt.Before(m.StartedAt))
}

func TestWiretapDefaultTapCoversLookups(t *testing.T) {
	msgs := &fakeMessages{}
	e := wiretapServer(&fakeTaps{taps: []models.Tap{transactionTap}}, msgs, func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/lookups/transactions/7",
		strings.NewReader(`{"customer_id":"C-100","interaction_id":"call-9"}`)))
	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/other", strings.NewReader(`{}`)))

	require.Len(t, msgs.created, 1)
	assert.Equal(t, "/api/lookups/transactions/7", msgs.created[0].ReqPath)
	assert.Equal(t, "call-9", msgs.created[0].InteractionID)
}

func TestWiretapUnmaskedTap(t *testing.T) {
	msgs := &fakeMessages{}
	tap := transactionTap
	tap.MaskCHD = false
	e := wiretapServer(&fakeTaps{taps: []models.Tap{tap}}, msgs, func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/payments/transactions/7",
		strings.NewReader(`{"card_account_number":"4111111111111111"}`))
	e.ServeHTTP(httptest.NewRecorder(), req)

	require.Len(t, msgs.created, 1)
	assert.Contains(t, msgs.created[0].ReqBody, "4111111111111111")
}

func TestWiretapHandlerErrorIsRecorded(t *testing.T) {
	msgs := &fakeMessages{}
	e := wiretapServer(&fakeTaps{taps: []models.Tap{transactionTap}}, msgs, func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "Not found.")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/payments/transactions/x", strings.NewReader("plain text")))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.Len(t, msgs.created, 1)
	m := msgs.created[0]
	assert.Equal(t, "plain text", m.ReqBody)
	assert.Equal(t, http.StatusNotFound, m.ResStatusCode)
	assert.Contains(t, m.ResBody, "Not found.")
}

func TestWiretapSkips(t *testing.T) {
	tests := []struct {
		name string
		taps TapSource
		msgs *fakeMessages
		path string
	}{
		{"no matching tap", &fakeTaps{taps: []models.Tap{transactionTap}}, &fakeMessages{}, "/other"},
		{"tap lookup fails", &fakeTaps{err: errors.New("db down")}, &fakeMessages{}, "/api/payments/transactions/7"},
		{"invalid regex", &fakeTaps{taps: []models.Tap{{PathRegex: "(", IsActive: true}}}, &fakeMessages{}, "/other"},
		{"store fails", &fakeTaps{taps: []models.Tap{transactionTap}}, &fakeMessages{err: errors.New("db down")}, "/api/payments/transactions/7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			e := wiretapServer(tt.taps, tt.msgs, func(c echo.Context) error {
				called = true
				assert.Nil(t, payment.MessageIDFromContext(c.Request().Context()))
				return c.NoContent(http.StatusOK)
			})

			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(`{}`)))
			assert.True(t, called)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Empty(t, tt.msgs.created)
			assert.Zero(t, tt.msgs.updated)
		})
	}
}

func TestPrettyJSON(t *testing.T) {
	assert.Equal(t, "{\n    \"a\": 1\n}", prettyJSON([]byte(`{"a":1}`)))
	assert.Equal(t, "<xml/>", prettyJSON([]byte("<xml/>")))
	assert.Equal(t, "", prettyJSON(nil))
}

func TestHeadersJSON(t *testing.T) {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	assert.JSONEq(t, `{"Content-Type":"application/json","Content-Length":"12"}`, headersJSON(h, 12))
	assert.JSONEq(t, `{}`, headersJSON(http.Header{}, 0))
}
