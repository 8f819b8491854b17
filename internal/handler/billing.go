package handler

import (
	"errors"
	"net/http"
	"strings"

	"polar-billing-bridge/internal/dto"
	"polar-billing-bridge/internal/middleware"
	"polar-billing-bridge/internal/service"

	"github.com/labstack/echo/v4"
)

type BillingHandler struct {
	billingService service.BillingService
}

func NewBillingHandler(billingService service.BillingService) *BillingHandler {
	return &BillingHandler{
		billingService: billingService,
	}
}

func (h *BillingHandler) CreateCheckout(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreateCheckoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing parameters")
	}

	principal := middleware.PrincipalFrom(c)

	resp, err := h.billingService.CreateCheckout(ctx, principal.UID, principal.Email, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTransactionNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "Transaction not found")
		case errors.Is(err, service.ErrNotPending):
			return echo.NewHTTPError(http.StatusBadRequest, "Transaction not pending")
		case errors.Is(err, service.ErrInvalidPlan):
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid planId")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create checkout")
		}
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *BillingHandler) CancelSubscription(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CancelSubscriptionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing businessId")
	}

	if err := h.billingService.CancelSubscription(ctx, req.BusinessID); err != nil {
		switch {
		case errors.Is(err, service.ErrBusinessNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "Business not found")
		case errors.Is(err, service.ErrNoSubscription):
			return echo.NewHTTPError(http.StatusBadRequest, "No active subscription found to cancel")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to cancel subscription")
		}
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "Subscription canceled and plan reset to free.",
	})
}

func (h *BillingHandler) TransactionStatus(c echo.Context) error {
	ctx := c.Request().Context()

	transactionID := c.QueryParam("tx")
	if transactionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing transaction id")
	}

	status, err := h.billingService.TransactionStatus(ctx, transactionID)
	if err != nil {
		if errors.Is(err, service.ErrTransactionNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Transaction not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load transaction")
	}

	return c.JSON(http.StatusOK, &dto.TransactionStatusResponse{Status: status})
}

func (h *BillingHandler) PaymentSuccess(c echo.Context) error {
	ctx := c.Request().Context()

	checkoutID := c.QueryParam("checkout_id")
	transactionID := h.billingService.RecordSuccessRedirect(ctx, checkoutID)

	txVar := "null"
	if transactionID != "" {
		txVar = `"` + transactionID + `"`
	}

	return c.HTML(http.StatusOK, strings.ReplaceAll(successPage, "__TRANSACTION_ID__", txVar))
}

const successPage = `
<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="UTF-8" />
	<meta name="viewport" content="width=device-width, initial-scale=1.0" />
	<title>Payment Processing</title>
	<style>
		body {
			margin: 0;
			font-family: system-ui, -apple-system, BlinkMacSystemFont;
			background: #f6f7f9;
			display: flex;
			align-items: center;
			justify-content: center;
			height: 100vh;
		}
		.card {
			background: #fff;
			padding: 32px;
			border-radius: 16px;
			max-width: 420px;
			width: 90%;
			box-shadow: 0 20px 40px rgba(0,0,0,0.08);
			text-align: center;
		}
		.success {
			color: #16a34a;
			font-weight: 600;
		}
	</style>
</head>
<body>
	<div class="card">
		<h1 class="success">Payment Successful</h1>
		<p>Thank you! Your subscription has been processed.</p>
		<a href="#" onclick="window.close()" style="display:inline-block; margin-top:20px; text-decoration:none; color: #4f46e5; font-weight:bold;">Close Window</a>
	</div>

<script>
	const transactionId = __TRANSACTION_ID__;

	// One poll to verify the record converged; the UI shows success either way.
	async function checkStatus() {
		if (!transactionId) return;
		try {
			await fetch("/api/billing/transaction-status?tx=" + transactionId);
		} catch (e) {
			console.error("Status check failed", e);
		}
	}

	checkStatus();
</script>
</body>
</html>
`
