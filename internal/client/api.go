package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"botpanel/internal/models"
)

func (c *Client) Stats(ctx context.Context) (models.Stats, error) {
	var out models.Stats
	err := c.do(ctx, http.MethodGet, "/stats", "/stats", nil, &out)
	return out, err
}

func (c *Client) Health(ctx context.Context) (models.Health, error) {
	var out models.Health
	err := c.do(ctx, http.MethodGet, "/health", "/health", nil, &out)
	return out, err
}

func (c *Client) ListBots(ctx context.Context) ([]models.Bot, error) {
	var out []models.Bot
	err := c.do(ctx, http.MethodGet, "/bots", "/bots", nil, &out)
	return out, err
}

func (c *Client) CreateBot(ctx context.Context, in models.BotInput) (models.Bot, error) {
	var out models.Bot
	err := c.do(ctx, http.MethodPost, "/bots", "/bots", in, &out)
	return out, err
}

func (c *Client) UpdateBot(ctx context.Context, id int, in models.BotInput) (models.Bot, error) {
	var out models.Bot
	err := c.do(ctx, http.MethodPut, "/bots/{id}", botPath(id, ""), in, &out)
	return out, err
}

func (c *Client) DeleteBot(ctx context.Context, id int) (models.ActionResult, error) {
	var out models.ActionResult
	err := c.do(ctx, http.MethodDelete, "/bots/{id}", botPath(id, ""), nil, &out)
	return out, err
}

func (c *Client) ToggleBot(ctx context.Context, id int) (models.ActionResult, error) {
	var out models.ActionResult
	err := c.do(ctx, http.MethodPost, "/bots/{id}/toggle", botPath(id, "/toggle"), nil, &out)
	return out, err
}

func (c *Client) RestartBot(ctx context.Context, id int) (models.ActionResult, error) {
	var out models.ActionResult
	err := c.do(ctx, http.MethodPost, "/bots/{id}/restart", botPath(id, "/restart"), nil, &out)
	return out, err
}

func (c *Client) ListGateways(ctx context.Context) ([]models.Gateway, error) {
	var out []models.Gateway
	err := c.do(ctx, http.MethodGet, "/gateways", "/gateways", nil, &out)
	return out, err
}

func (c *Client) CreateGateway(ctx context.Context, in models.GatewayInput) (models.Gateway, error) {
	var out models.Gateway
	err := c.do(ctx, http.MethodPost, "/gateways", "/gateways", in, &out)
	return out, err
}

func (c *Client) UpdateGateway(ctx context.Context, id int, in models.GatewayInput) (models.Gateway, error) {
	var out models.Gateway
	err := c.do(ctx, http.MethodPut, "/gateways/{id}", gatewayPath(id, ""), in, &out)
	return out, err
}

func (c *Client) DeleteGateway(ctx context.Context, id int) (models.ActionResult, error) {
	var out models.ActionResult
	err := c.do(ctx, http.MethodDelete, "/gateways/{id}", gatewayPath(id, ""), nil, &out)
	return out, err
}

func (c *Client) TestGateway(ctx context.Context, id int) (models.ActionResult, error) {
	var out models.ActionResult
	err := c.do(ctx, http.MethodPost, "/gateways/{id}/test", gatewayPath(id, "/test"), nil, &out)
	return out, err
}

// ListLogs returns the newest entries first. limit <= 0 leaves the
// backend default in place.
func (c *Client) ListLogs(ctx context.Context, limit int) ([]models.LogEntry, error) {
	path := "/logs"
	if limit > 0 {
		q := url.Values{}
		q.Set("limit", strconv.Itoa(limit))
		path += "?" + q.Encode()
	}
	var out []models.LogEntry
	err := c.do(ctx, http.MethodGet, "/logs", path, nil, &out)
	return out, err
}

func (c *Client) CreateLog(ctx context.Context, in models.LogInput) (models.LogEntry, error) {
	var out models.LogEntry
	err := c.do(ctx, http.MethodPost, "/logs", "/logs", in, &out)
	return out, err
}

func (c *Client) ClearLogs(ctx context.Context) (models.ActionResult, error) {
	var out models.ActionResult
	err := c.do(ctx, http.MethodDelete, "/logs", "/logs", nil, &out)
	return out, err
}

func botPath(id int, suffix string) string {
	return fmt.Sprintf("/bots/%d%s", id, suffix)
}

func gatewayPath(id int, suffix string) string {
	return fmt.Sprintf("/gateways/%d%s", id, suffix)
}
