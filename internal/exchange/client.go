// Package exchange implements the thin marketplace API client used by
// account workers.
//
// The client (Client) talks to the gift marketplace's REST API:
//   - FetchLatestListings: GET  listings search, newest first
//   - FetchRecentSales:    GET  recent sales for a trait key
//   - FetchMyOffers/Orders/Listings/Inventory/Activity: GET my-account reads
//   - PlaceOffer/CancelOffer, PlaceOrder/CancelOrder:   buy-side mutations
//   - CreateListing/UpdateListing/CancelListing:        sell-side mutations
//   - CheckAuth:           cheap reachability probe
//
// Every mutating request carries a bearer authorization header and a
// per-request idempotency correlation id; reads and writes alike are rate
// limited via per-route-family TokenBuckets and retried on 5xx/network
// errors.
package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ReNothingg/giftsniper/pkg/types"
)

var defaultRoutes = map[string]string{
	"search":      "/nfts/search",
	"sales":       "/sales/recent",
	"my_offers":   "/offers/my",
	"my_orders":   "/orders/my",
	"my_listings": "/listings/my",
	"inventory":   "/users/me/nfts",
	"activity":    "/activity/me",
	"offers":      "/offers/",
	"offer_by_id": "/offers/%s",
	"orders":      "/orders/",
	"order_by_id": "/orders/%s",
	"listings":    "/listings/",
	"listing_by_id": "/listings/%s",
	"auth_check":  "/users/me",
}

// Client is the marketplace REST API client.
type Client struct {
	http   *resty.Client
	rl     *RateLimiter
	routes map[string]string
	dryRun bool
	logger *slog.Logger
}

// NewClient builds a Client for a single account's bearer token.
func NewClient(apiBase, bearerAuth string, routes map[string]string, requestTimeout time.Duration, dryRun bool, logger *slog.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(apiBase).
		SetTimeout(requestTimeout).
		SetRetryCount(3).
		SetRetryWaitTime(300 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() >= 500
		}).
		SetHeader("accept", "application/json").
		SetHeader("authorization", "Bearer "+bearerAuth).
		SetHeader("origin", "https://portals.tg").
		SetHeader("referer", "https://portals.tg/").
		SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36")

	merged := make(map[string]string, len(defaultRoutes))
	for k, v := range defaultRoutes {
		merged[k] = v
	}
	for k, v := range routes {
		merged[k] = v
	}

	return &Client{
		http:   httpClient,
		rl:     NewRateLimiter(),
		routes: merged,
		dryRun: dryRun,
		logger: logger,
	}
}

func (c *Client) route(name string) string {
	return c.routes[name]
}

func (c *Client) requestID() string {
	return uuid.NewString()
}

// ————————————————————————————————————————————————————————————————————————
// Reads
// ————————————————————————————————————————————————————————————————————————

func (c *Client) FetchLatestListings(ctx context.Context, limit int) ([]map[string]any, error) {
	return c.fetchArray(ctx, c.rl.Search, c.route("search"), map[string]string{
		"limit":           fmt.Sprintf("%d", limit),
		"sort":            "listed_at_desc",
		"status":          "listed",
		"exclude_bundled": "true",
	})
}

func (c *Client) FetchRecentSales(ctx context.Context, collectionID, model, background string, limit int) ([]map[string]any, error) {
	return c.fetchArray(ctx, c.rl.Search, c.route("sales"), map[string]string{
		"collection_id": collectionID,
		"model":         model,
		"background":    background,
		"limit":         fmt.Sprintf("%d", limit),
	})
}

func (c *Client) FetchMyOffers(ctx context.Context, limit int) ([]map[string]any, error) {
	return c.fetchArray(ctx, c.rl.Search, c.route("my_offers"), map[string]string{"limit": fmt.Sprintf("%d", limit)})
}

func (c *Client) FetchMyOrders(ctx context.Context, limit int) ([]map[string]any, error) {
	return c.fetchArray(ctx, c.rl.Search, c.route("my_orders"), map[string]string{"limit": fmt.Sprintf("%d", limit)})
}

func (c *Client) FetchMyListings(ctx context.Context, limit int) ([]map[string]any, error) {
	return c.fetchArray(ctx, c.rl.Search, c.route("my_listings"), map[string]string{"limit": fmt.Sprintf("%d", limit)})
}

func (c *Client) FetchInventory(ctx context.Context, limit int) ([]map[string]any, error) {
	return c.fetchArray(ctx, c.rl.Search, c.route("inventory"), map[string]string{"limit": fmt.Sprintf("%d", limit)})
}

func (c *Client) FetchActivity(ctx context.Context, limit int) ([]map[string]any, error) {
	return c.fetchArray(ctx, c.rl.Search, c.route("activity"), map[string]string{"limit": fmt.Sprintf("%d", limit)})
}

func (c *Client) fetchArray(ctx context.Context, bucket *TokenBucket, path string, query map[string]string) ([]map[string]any, error) {
	if err := bucket.Wait(ctx); err != nil {
		return nil, err
	}

	var result []map[string]any
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("x-request-id", c.requestID()).
		SetQueryParams(query).
		SetResult(&result).
		Get(path)
	if err != nil {
		return nil, &types.TransportError{Code: 0, Message: err.Error()}
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, transportErrorFromResponse(resp)
	}
	return result, nil
}

// CheckAuth performs a cheap reachability probe used by the worker before
// entering its running state.
func (c *Client) CheckAuth(ctx context.Context) error {
	if err := c.rl.Search.Wait(ctx); err != nil {
		return err
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("x-request-id", c.requestID()).
		Get(c.route("auth_check"))
	if err != nil {
		return &types.AuthError{Msg: err.Error()}
	}
	if resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden {
		return &types.AuthError{Msg: fmt.Sprintf("status %d", resp.StatusCode())}
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return &types.AuthError{Msg: fmt.Sprintf("unexpected status %d", resp.StatusCode())}
	}
	return nil
}

// ————————————————————————————————————————————————————————————————————————
// Buy-side mutations
// ————————————————————————————————————————————————————————————————————————

type mutationResponse struct {
	ID string `json:"id"`
}

func (c *Client) PlaceOffer(ctx context.Context, nftID string, price decimal.Decimal, expirationDays int) (string, error) {
	if c.dryRun {
		return "dry-offer-" + nftID, nil
	}
	body := map[string]any{
		"nft_id":          nftID,
		"price":           price.StringFixed(2),
		"expiration_days": clampExpirationDays(expirationDays),
	}
	return c.mutate(ctx, c.rl.Mutate, http.MethodPost, c.route("offers"), body)
}

func (c *Client) CancelOffer(ctx context.Context, id string) error {
	if c.dryRun {
		return nil
	}
	_, err := c.mutate(ctx, c.rl.Cancel, http.MethodDelete, fmt.Sprintf(c.route("offer_by_id"), id), nil)
	return err
}

func (c *Client) PlaceOrder(ctx context.Context, selectorPayload map[string]any, price decimal.Decimal, expirationDays int) (string, error) {
	if c.dryRun {
		return "dry-order-" + fmt.Sprintf("%v", selectorPayload["collection_id"]), nil
	}
	body := map[string]any{
		"selector":        selectorPayload,
		"price":           price.StringFixed(2),
		"expiration_days": clampExpirationDays(expirationDays),
	}
	return c.mutate(ctx, c.rl.Mutate, http.MethodPost, c.route("orders"), body)
}

func (c *Client) CancelOrder(ctx context.Context, id string) error {
	if c.dryRun {
		return nil
	}
	_, err := c.mutate(ctx, c.rl.Cancel, http.MethodDelete, fmt.Sprintf(c.route("order_by_id"), id), nil)
	return err
}

// ————————————————————————————————————————————————————————————————————————
// Sell-side mutations
// ————————————————————————————————————————————————————————————————————————

func (c *Client) CreateListing(ctx context.Context, nftID string, price decimal.Decimal, expirationDays int) (string, error) {
	if c.dryRun {
		return "dry-listing-" + nftID, nil
	}
	body := map[string]any{
		"nft_id":          nftID,
		"price":           price.StringFixed(2),
		"expiration_days": clampExpirationDays(expirationDays),
	}
	return c.mutate(ctx, c.rl.Mutate, http.MethodPost, c.route("listings"), body)
}

func (c *Client) UpdateListing(ctx context.Context, id string, price decimal.Decimal) error {
	if c.dryRun {
		return nil
	}
	body := map[string]any{"price": price.StringFixed(2)}
	_, err := c.mutate(ctx, c.rl.Mutate, http.MethodPatch, fmt.Sprintf(c.route("listing_by_id"), id), body)
	return err
}

func (c *Client) CancelListing(ctx context.Context, id string) error {
	if c.dryRun {
		return nil
	}
	_, err := c.mutate(ctx, c.rl.Cancel, http.MethodDelete, fmt.Sprintf(c.route("listing_by_id"), id), nil)
	return err
}

func clampExpirationDays(days int) int {
	if days < 1 {
		return 1
	}
	if days > 30 {
		return 30
	}
	return days
}

func (c *Client) mutate(ctx context.Context, bucket *TokenBucket, method, path string, body any) (string, error) {
	if err := bucket.Wait(ctx); err != nil {
		return "", err
	}

	req := c.http.R().
		SetContext(ctx).
		SetHeader("x-request-id", c.requestID())
	var result mutationResponse
	if body != nil {
		req = req.SetBody(body).SetResult(&result)
	}

	var resp *resty.Response
	var err error
	switch method {
	case http.MethodPost:
		resp, err = req.Post(path)
	case http.MethodPatch:
		resp, err = req.Patch(path)
	case http.MethodDelete:
		resp, err = req.Delete(path)
	default:
		return "", fmt.Errorf("exchange: unsupported method %q", method)
	}
	if err != nil {
		return "", &types.TransportError{Code: 0, Message: err.Error()}
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return "", transportErrorFromResponse(resp)
	}
	return result.ID, nil
}

func transportErrorFromResponse(resp *resty.Response) *types.TransportError {
	msg := resp.String()
	var parsed map[string]any
	if err := json.Unmarshal(resp.Body(), &parsed); err == nil {
		if m, ok := parsed["message"].(string); ok && m != "" {
			msg = m
		}
	}
	return &types.TransportError{Code: resp.StatusCode(), Message: msg}
}
