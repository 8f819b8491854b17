package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"polar-billing-bridge/internal/config"
)

// CancelOutcome tags the result of a subscription revocation so callers can
// treat "already happened" provider responses as benign.
type CancelOutcome int

const (
	CancelOK CancelOutcome = iota
	CancelAlreadyDone
	CancelNotFound
)

type PolarClient interface {
	CreateCheckout(ctx context.Context, params *CreateCheckoutParams) (*Checkout, error)
	RevokeSubscription(ctx context.Context, subscriptionID string) (CancelOutcome, error)
}

type CreateCheckoutParams struct {
	ProductID     string
	SuccessURL    string
	CustomerEmail string
	Metadata      map[string]string
}

type Checkout struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Status string `json:"status"`
}

type polarClientImpl struct {
	httpClient  *http.Client
	baseApiURL  string
	accessToken string
}

func NewPolarClient(polarCfg *config.Polar) PolarClient {
	return &polarClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseApiURL:  polarCfg.BaseApiURL,
		accessToken: polarCfg.AccessToken,
	}
}

func (c *polarClientImpl) CreateCheckout(ctx context.Context, params *CreateCheckoutParams) (*Checkout, error) {
	payload := map[string]interface{}{
		"product_id":  params.ProductID,
		"success_url": params.SuccessURL,
		"metadata":    params.Metadata,
	}
	if params.CustomerEmail != "" {
		payload["customer_email"] = params.CustomerEmail
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal req payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseApiURL+"/v1/checkouts",
		bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("polar error %d: %s", resp.StatusCode, string(b))
	}

	var checkout Checkout
	if err := json.NewDecoder(resp.Body).Decode(&checkout); err != nil {
		return nil, fmt.Errorf("decode polar response: %w", err)
	}

	return &checkout, nil
}

// RevokeSubscription deletes the subscription at Polar. 403/409 means the
// subscription is already canceled and 404 means it is gone; both are
// reported as outcomes rather than errors so local state can still converge.
func (c *polarClientImpl) RevokeSubscription(ctx context.Context, subscriptionID string) (CancelOutcome, error) {
	url := fmt.Sprintf("%s/v1/subscriptions/%s", c.baseApiURL, subscriptionID)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return CancelOK, fmt.Errorf("create revoke request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return CancelOK, fmt.Errorf("polar revoke request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return CancelOK, nil
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusConflict:
		return CancelAlreadyDone, nil
	case resp.StatusCode == http.StatusNotFound:
		return CancelNotFound, nil
	default:
		b, _ := io.ReadAll(resp.Body)
		return CancelOK, fmt.Errorf("polar revoke failed: status=%d body=%s", resp.StatusCode, string(b))
	}
}
