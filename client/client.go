// Package client is a Go client for the Mach Lagbe API. It keeps the signed-in
// session and the cart as explicit state on the Client value.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"mach-lagbe/apperrors"
	"mach-lagbe/cart"
	"mach-lagbe/models"
)

// Session is the signed-in user and the token that proves it.
type Session struct {
	Token string
	User  models.UserView
}

// Options configures a Client. DeliveryFee must match the server; nil means
// the default fee and a pointer to 0 means free delivery. CartStorage
// restores the cart from storage; nil keeps it in memory.
type Options struct {
	HTTPClient  *http.Client
	DeliveryFee *float64
	CartStorage cart.Storage
}

type Client struct {
	baseURL     string
	http        *http.Client
	deliveryFee float64
	Cart        *cart.Cart

	mu      sync.RWMutex
	session *Session
}

func New(baseURL string, opts Options) (*Client, error) {
	c, err := cart.New(opts.CartStorage)
	if err != nil {
		return nil, err
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	fee := models.DefaultDeliveryFee
	if opts.DeliveryFee != nil {
		fee = *opts.DeliveryFee
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		http:        httpClient,
		deliveryFee: fee,
		Cart:        c,
	}, nil
}

// Session returns the current session, or nil when signed out.
func (c *Client) Session() *Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return nil
	}
	s := *c.session
	return &s
}

func (c *Client) setSession(s *Session) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
}

func (c *Client) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return ""
	}
	return c.session.Token
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// do sends body as JSON and decodes a 2xx response into out. Error responses
// come back as *apperrors.Error carrying the server's message.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var eb errorBody
		_ = json.NewDecoder(resp.Body).Decode(&eb)
		msg := eb.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return apperrors.FromStatus(resp.StatusCode, msg)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

type authResponse struct {
	User  models.UserView `json:"user"`
	Token string          `json:"token"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	var res authResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", nil, req, &res); err != nil {
		return nil, err
	}
	c.setSession(&Session{Token: res.Token, User: res.User})
	return c.Session(), nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]string{"email": email, "password": password}
	var res authResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, body, &res); err != nil {
		return nil, err
	}
	c.setSession(&Session{Token: res.Token, User: res.User})
	return c.Session(), nil
}

// Me refreshes the session user from the server.
func (c *Client) Me(ctx context.Context) (*models.UserView, error) {
	var res struct {
		User models.UserView `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, nil, &res); err != nil {
		return nil, err
	}
	c.mu.Lock()
	if c.session != nil {
		c.session.User = res.User
	}
	c.mu.Unlock()
	return &res.User, nil
}

// Logout revokes the token, then drops the session and empties the cart even
// if the server call failed.
func (c *Client) Logout(ctx context.Context) error {
	var err error
	if c.token() != "" {
		err = c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil, nil)
	}
	c.setSession(nil)
	if cerr := c.Cart.Clear(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

type FishQuery struct {
	Category     models.FishCategory
	Availability models.Availability
	Search       string
}

func (q FishQuery) values() url.Values {
	v := url.Values{}
	if q.Category != "" {
		v.Set("category", string(q.Category))
	}
	if q.Availability != "" {
		v.Set("availability", string(q.Availability))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	return v
}

type fishList struct {
	Count int            `json:"count"`
	Data  []*models.Fish `json:"data"`
}

func (c *Client) ListFish(ctx context.Context, q FishQuery) ([]*models.Fish, error) {
	var res fishList
	if err := c.do(ctx, http.MethodGet, "/api/fish", q.values(), nil, &res); err != nil {
		return nil, err
	}
	return res.Data, nil
}

// ListAllFish includes inactive fish. Admin only.
func (c *Client) ListAllFish(ctx context.Context, q FishQuery) ([]*models.Fish, error) {
	var res fishList
	if err := c.do(ctx, http.MethodGet, "/api/fish/admin", q.values(), nil, &res); err != nil {
		return nil, err
	}
	return res.Data, nil
}

func (c *Client) GetFish(ctx context.Context, id primitive.ObjectID) (*models.Fish, error) {
	var res struct {
		Data *models.Fish `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/fish/"+id.Hex(), nil, nil, &res); err != nil {
		return nil, err
	}
	return res.Data, nil
}

func (c *Client) CreateFish(ctx context.Context, in models.FishInput) (*models.Fish, error) {
	var res struct {
		Data *models.Fish `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/fish", nil, in, &res); err != nil {
		return nil, err
	}
	return res.Data, nil
}

func (c *Client) UpdateFish(ctx context.Context, id primitive.ObjectID, in models.FishInput) (*models.Fish, error) {
	var res struct {
		Data *models.Fish `json:"data"`
	}
	if err := c.do(ctx, http.MethodPut, "/api/fish/"+id.Hex(), nil, in, &res); err != nil {
		return nil, err
	}
	return res.Data, nil
}

func (c *Client) DeleteFish(ctx context.Context, id primitive.ObjectID) error {
	return c.do(ctx, http.MethodDelete, "/api/fish/"+id.Hex(), nil, nil, nil)
}

type checkoutRequest struct {
	Items []models.OrderItem `json:"items"`
	Total float64            `json:"total"`
}

type orderResponse struct {
	Order *models.Order `json:"order"`
}

// Checkout submits the cart as an order and empties it on success.
func (c *Client) Checkout(ctx context.Context) (*models.Order, error) {
	if c.Cart.IsEmpty() {
		return nil, apperrors.Validation("Cart is empty")
	}
	req := checkoutRequest{
		Items: c.Cart.OrderItems(),
		Total: c.Cart.Total(c.deliveryFee),
	}
	var res orderResponse
	if err := c.do(ctx, http.MethodPost, "/api/orders", nil, req, &res); err != nil {
		return nil, err
	}
	if err := c.Cart.Clear(); err != nil {
		return res.Order, err
	}
	return res.Order, nil
}

// OrderQuery filters ListOrders and DeleteOrders. UserID and All only take
// effect for admins.
type OrderQuery struct {
	UserID primitive.ObjectID
	All    bool
}

func (q OrderQuery) values() url.Values {
	v := url.Values{}
	if !q.UserID.IsZero() {
		v.Set("userId", q.UserID.Hex())
	}
	if q.All {
		v.Set("all", "true")
	}
	return v
}

func (c *Client) ListOrders(ctx context.Context, q OrderQuery) ([]*models.Order, error) {
	var res struct {
		Orders []*models.Order `json:"orders"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/orders", q.values(), nil, &res); err != nil {
		return nil, err
	}
	return res.Orders, nil
}

func (c *Client) GetOrder(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var res orderResponse
	if err := c.do(ctx, http.MethodGet, "/api/orders/"+id.Hex(), nil, nil, &res); err != nil {
		return nil, err
	}
	return res.Order, nil
}

func (c *Client) DeleteOrders(ctx context.Context, q OrderQuery) (int64, error) {
	var res struct {
		DeletedCount int64 `json:"deletedCount"`
	}
	if err := c.do(ctx, http.MethodDelete, "/api/orders", q.values(), nil, &res); err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (c *Client) UpdateOrderStatus(ctx context.Context, id primitive.ObjectID, status models.OrderStatus) (*models.Order, error) {
	body := map[string]models.OrderStatus{"status": status}
	var res orderResponse
	if err := c.do(ctx, http.MethodPut, "/api/orders/"+id.Hex(), nil, body, &res); err != nil {
		return nil, err
	}
	return res.Order, nil
}

func (c *Client) DeleteOrder(ctx context.Context, id primitive.ObjectID) error {
	return c.do(ctx, http.MethodDelete, "/api/orders/"+id.Hex(), nil, nil, nil)
}
