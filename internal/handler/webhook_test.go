package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"polar-billing-bridge/internal/model"
	"polar-billing-bridge/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubWebhookService struct {
	disposition service.Disposition
	err         error
	gotType     string
}

func (s *stubWebhookService) HandleEvent(ctx context.Context, envelope *model.WebhookEnvelope) (service.Disposition, error) {
	s.gotType = envelope.Type
	return s.disposition, s.err
}

func postWebhook(t *testing.T, svc service.WebhookService, body string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/billing/webhook", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := NewWebhookHandler(svc)
	require.NoError(t, h.PolarWebhook(c))
	return rec
}

func TestPolarWebhookAcknowledgesDisposition(t *testing.T) {
	stub := &stubWebhookService{disposition: service.DispositionIgnored}

	rec := postWebhook(t, stub, `{"type":"benefit.granted","data":{"id":"x"}}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, string(service.DispositionIgnored), rec.Body.String())
	assert.Equal(t, "benefit.granted", stub.gotType)
}

func TestPolarWebhookRejectsMissingType(t *testing.T) {
	stub := &stubWebhookService{}

	rec := postWebhook(t, stub, `{"data":{"id":"x"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPolarWebhookRejectsMissingData(t *testing.T) {
	stub := &stubWebhookService{}

	rec := postWebhook(t, stub, `{"type":"order.paid"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPolarWebhookMalformedPayloadIs400(t *testing.T) {
	stub := &stubWebhookService{err: fmt.Errorf("decode: %w", service.ErrMalformedEvent)}

	rec := postWebhook(t, stub, `{"type":"order.paid","data":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPolarWebhookInternalFailureIs500(t *testing.T) {
	stub := &stubWebhookService{err: fmt.Errorf("db down")}

	rec := postWebhook(t, stub, `{"type":"order.paid","data":{"id":"x"}}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
