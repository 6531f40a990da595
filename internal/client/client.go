// Package client is a Go client for the course marketplace API. It keeps the
// login credential in a CredentialStore and drops it as soon as the server
// rejects the token.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"coursemarket/internal/models"
)

// ErrUnauthorized means the server rejected the token or there was none to
// send. The stored credential is cleared when it is returned.
var ErrUnauthorized = errors.New("not logged in")

// APIError is a non-2xx response.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"error"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d %s", e.Status, e.Code)
}

func (e *APIError) Unwrap() error {
	if e.credentialRejected() {
		return ErrUnauthorized
	}
	return nil
}

func (e *APIError) credentialRejected() bool {
	switch e.Code {
	case "missing_token", "invalid_token":
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	}
	return false
}

type Client struct {
	http  *resty.Client
	store CredentialStore
}

func New(baseURL string, store CredentialStore) *Client {
	if store == nil {
		store = NewMemoryStore()
	}
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15*time.Second).
		SetHeader("Accept", "application/json")
	return &Client{http: httpClient, store: store}
}

// LoggedIn reports the stored credential, if any.
func (c *Client) LoggedIn() (Credential, bool, error) {
	return c.store.Load()
}

type authResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func (c *Client) Register(ctx context.Context, name, email, password string) (models.User, error) {
	return c.authenticate(ctx, "/api/auth/register", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	})
}

func (c *Client) Login(ctx context.Context, email, password string) (models.User, error) {
	return c.authenticate(ctx, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
}

func (c *Client) authenticate(ctx context.Context, path string, body map[string]string) (models.User, error) {
	var out authResponse
	if err := c.do(ctx, http.MethodPost, path, false, body, &out); err != nil {
		return models.User{}, err
	}
	if err := c.store.Save(Credential{Token: out.Token, User: out.User}); err != nil {
		return models.User{}, fmt.Errorf("save credential: %w", err)
	}
	return out.User, nil
}

// Logout asks the server to revoke the token and then forgets it locally,
// even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/api/auth/logout", true, nil, nil)
	if clearErr := c.store.Clear(); clearErr != nil {
		return clearErr
	}
	if errors.Is(err, ErrUnauthorized) {
		return nil
	}
	return err
}

func (c *Client) Profile(ctx context.Context) (models.User, error) {
	var user models.User
	err := c.do(ctx, http.MethodGet, "/api/auth/profile", true, nil, &user)
	return user, err
}

func (c *Client) CurrentUser(ctx context.Context) (models.User, error) {
	var user models.User
	err := c.do(ctx, http.MethodGet, "/api/user", true, nil, &user)
	return user, err
}

func (c *Client) UpdateProfile(ctx context.Context, name, email string) (models.User, error) {
	var user models.User
	err := c.do(ctx, http.MethodPut, "/api/auth/profile", true, map[string]string{
		"name":  name,
		"email": email,
	}, &user)
	return user, err
}

func (c *Client) Courses(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	err := c.do(ctx, http.MethodGet, "/api/courses", false, nil, &courses)
	return courses, err
}

func (c *Client) Course(ctx context.Context, id string) (models.Course, error) {
	var course models.Course
	err := c.do(ctx, http.MethodGet, "/api/courses/{id}", false, nil, &course, func(r *resty.Request) {
		r.SetPathParam("id", id)
	})
	return course, err
}

func (c *Client) RequestPurchase(ctx context.Context, courseID string) (models.Purchase, error) {
	var purchase models.Purchase
	err := c.do(ctx, http.MethodPost, "/api/purchases", true, map[string]string{"courseId": courseID}, &purchase)
	return purchase, err
}

func (c *Client) Purchases(ctx context.Context) ([]models.Purchase, error) {
	var purchases []models.Purchase
	err := c.do(ctx, http.MethodGet, "/api/purchases", true, nil, &purchases)
	return purchases, err
}

func (c *Client) SetPurchaseStatus(ctx context.Context, id int, status models.Status) (models.Purchase, error) {
	var purchase models.Purchase
	err := c.do(ctx, http.MethodPatch, "/api/purchases/"+strconv.Itoa(id), true, map[string]string{"status": string(status)}, &purchase)
	return purchase, err
}

func (c *Client) DeletePurchase(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, "/api/purchases/"+strconv.Itoa(id), true, nil, nil)
}

func (c *Client) SubmitReview(ctx context.Context, courseID, text string, rating int) (models.Review, error) {
	var review models.Review
	err := c.do(ctx, http.MethodPost, "/api/reviews", true, map[string]any{
		"courseId": courseID,
		"text":     text,
		"rating":   rating,
	}, &review)
	return review, err
}

// Reviews lists approved reviews of courseID, or every review when courseID
// is empty.
func (c *Client) Reviews(ctx context.Context, courseID string) ([]models.Review, error) {
	var reviews []models.Review
	err := c.do(ctx, http.MethodGet, "/api/reviews", false, nil, &reviews, func(r *resty.Request) {
		if courseID != "" {
			r.SetQueryParam("courseId", courseID)
		}
	})
	return reviews, err
}

func (c *Client) SetReviewStatus(ctx context.Context, id int, status models.Status) (models.Review, error) {
	var review models.Review
	err := c.do(ctx, http.MethodPatch, "/api/reviews/"+strconv.Itoa(id), true, map[string]string{"status": string(status)}, &review)
	return review, err
}

func (c *Client) DeleteReview(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, "/api/reviews/"+strconv.Itoa(id), true, nil, nil)
}

func (c *Client) Users(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := c.do(ctx, http.MethodGet, "/api/users", true, nil, &users)
	return users, err
}

func (c *Client) User(ctx context.Context, id int) (models.User, error) {
	var user models.User
	err := c.do(ctx, http.MethodGet, "/api/users/"+strconv.Itoa(id), true, nil, &user)
	return user, err
}

type Health struct {
	Status      string `json:"status"`
	Records     string `json:"records"`
	Cache       string `json:"cache"`
	Environment string `json:"environment"`
}

func (c *Client) Health(ctx context.Context) (Health, error) {
	var health Health
	err := c.do(ctx, http.MethodGet, "/api/healthz", false, nil, &health)
	return health, err
}

// do sends one request. opts run last and may set path or query params.
func (c *Client) do(ctx context.Context, method, path string, authenticated bool, body, out any, opts ...func(*resty.Request)) error {
	req := c.http.R().SetContext(ctx).SetError(&APIError{})
	if authenticated {
		cred, ok, err := c.store.Load()
		if err != nil {
			return err
		}
		if !ok {
			return ErrUnauthorized
		}
		req.SetAuthToken(cred.Token)
	}
	if body != nil {
		req.SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}
	for _, opt := range opts {
		opt(req)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if !resp.IsError() {
		return nil
	}

	apiErr, ok := resp.Error().(*APIError)
	if !ok || apiErr == nil {
		apiErr = &APIError{}
	}
	apiErr.Status = resp.StatusCode()
	if apiErr.Code == "" {
		apiErr.Code = http.StatusText(resp.StatusCode())
	}

	if authenticated && apiErr.credentialRejected() {
		if err := c.store.Clear(); err != nil {
			return err
		}
	}
	return apiErr
}
