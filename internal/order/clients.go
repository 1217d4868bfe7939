package order

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/MikeMC777/cafe-orders/internal/menu"
)

// MenuClient reads authoritative items from the menu service.
type MenuClient struct {
	HTTP    *http.Client
	BaseURL string
}

func NewMenuClient(baseURL string) *MenuClient {
	return &MenuClient{
		HTTP:    &http.Client{Timeout: 5 * time.Second},
		BaseURL: baseURL,
	}
}

func (c *MenuClient) GetByID(ctx context.Context, id string) (*menu.Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/menu-items/%s", c.BaseURL, url.PathEscape(id)), nil)
	if err != nil {
		return nil, err
	}
	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, menu.ErrNotFound
	default:
		return nil, fmt.Errorf("menu service: %s", res.Status)
	}
	var it menu.Item
	if err := json.NewDecoder(res.Body).Decode(&it); err != nil {
		return nil, fmt.Errorf("decode menu item %s: %w", id, err)
	}
	return &it, nil
}
