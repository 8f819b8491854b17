package handler

import (
	"errors"
	"net/http"

	"polar-billing-bridge/internal/model"
	"polar-billing-bridge/internal/service"

	"github.com/labstack/echo/v4"
)

type WebhookHandler struct {
	webhookService service.WebhookService
}

func NewWebhookHandler(webhookService service.WebhookService) *WebhookHandler {
	return &WebhookHandler{
		webhookService: webhookService,
	}
}

// PolarWebhook accepts the provider event envelope. Only a structurally
// malformed envelope gets a 400; business-logic no-ops are acknowledged
// with 200 so the provider does not retry events that can never resolve.
func (h *WebhookHandler) PolarWebhook(c echo.Context) error {
	ctx := c.Request().Context()

	var envelope model.WebhookEnvelope
	if err := c.Bind(&envelope); err != nil {
		return c.String(http.StatusBadRequest, "Invalid payload")
	}
	if envelope.Type == "" || len(envelope.Data) == 0 {
		return c.String(http.StatusBadRequest, "Invalid payload")
	}

	disposition, err := h.webhookService.HandleEvent(ctx, &envelope)
	if err != nil {
		if errors.Is(err, service.ErrMalformedEvent) {
			return c.String(http.StatusBadRequest, "Invalid payload")
		}
		return c.String(http.StatusInternalServerError, "Webhook failed")
	}

	return c.String(http.StatusOK, string(disposition))
}
