package viswiz

import (
	"context"
	"net/http"
)

// GetAccount retrieves the account owning the API key.
func (c *Client) GetAccount(ctx context.Context) (*Account, error) {
	var payload Account
	if err := c.do(ctx, request{method: http.MethodGet, path: "/account"}, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// GetWebhooks lists the webhooks configured for the account.
func (c *Client) GetWebhooks(ctx context.Context) ([]Webhook, error) {
	var payload webhookList
	if err := c.do(ctx, request{method: http.MethodGet, path: "/webhooks"}, &payload); err != nil {
		return nil, err
	}
	return payload.Webhooks, nil
}

// CreateWebhook registers a webhook that receives a POST whenever a build
// comparison finishes.
func (c *Client) CreateWebhook(ctx context.Context, params *WebhookParams) (*Webhook, error) {
	if params == nil {
		return nil, missingParam("params")
	}
	var payload Webhook
	req := request{method: http.MethodPost, path: "/webhooks", body: params}
	if err := c.do(ctx, req, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}
