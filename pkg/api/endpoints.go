package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/example/tableorder/pkg/models"
)

func (c *Client) CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.Order, error) {
	var order models.Order
	if err := c.do(ctx, http.MethodPost, "/orders", req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(id), nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrders returns the signed-in customer's orders, newest first.
func (c *Client) ListOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := c.do(ctx, http.MethodGet, "/customers/orders", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

type usernameRequest struct {
	Username string `json:"username"`
}

func (c *Client) Login(ctx context.Context, username string) (*models.AuthSession, error) {
	var session models.AuthSession
	if err := c.do(ctx, http.MethodPost, "/customers/auth/login", usernameRequest{Username: username}, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *Client) Register(ctx context.Context, username string) (*models.AuthSession, error) {
	var session models.AuthSession
	if err := c.do(ctx, http.MethodPost, "/customers/auth/register", usernameRequest{Username: username}, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

type fcmTokenRequest struct {
	Token string `json:"token"`
}

func (c *Client) RegisterFCMToken(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/customers/fcm-token", fcmTokenRequest{Token: token}, nil)
}

func (c *Client) RemoveFCMToken(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodDelete, "/customers/fcm-token", fcmTokenRequest{Token: token}, nil)
}

func (c *Client) Menu(ctx context.Context) ([]models.MenuItem, error) {
	var items []models.MenuItem
	if err := c.do(ctx, http.MethodGet, "/menu", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}
