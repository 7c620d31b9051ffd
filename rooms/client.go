package rooms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	ErrEmptyName    = errors.New("please enter a room name")
	ErrNameTooShort = errors.New("room name must be at least 3 characters")
)

// MinNameLength is the shortest room name accepted before any request is made.
const MinNameLength = 3

var validate = validator.New()

// CreateRequest is the form submitted to the create_room endpoint.
type CreateRequest struct {
	Name string `validate:"required,min=3"`
}

// CreateResponse is the JSON reply of the create_room endpoint.
type CreateResponse struct {
	Success bool   `json:"success"`
	RoomID  int64  `json:"room_id,omitempty"`
	Name    string `json:"room_name,omitempty"`
	Message string `json:"message,omitempty"`
}

// Validate trims name and checks it locally. It returns the trimmed name, or
// ErrEmptyName / ErrNameTooShort.
func Validate(name string) (string, error) {
	name = strings.TrimSpace(name)
	err := validate.Struct(CreateRequest{Name: name})
	if err == nil {
		return name, nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		switch verrs[0].Tag() {
		case "required":
			return name, ErrEmptyName
		case "min":
			return name, ErrNameTooShort
		}
	}
	return name, err
}

// Client talks to the chat server's room endpoints.
type Client struct {
	base *url.URL
	http *http.Client
}

// NewClient builds a client for the server at baseURL. A nil httpClient uses
// a client with a 10s timeout.
func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported server url scheme %q", u.Scheme)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{base: u, http: httpClient}, nil
}

// CreateRoom posts name to /create_room. A decoded reply is returned even when
// Success is false; transport failures and undecodable replies are errors.
func (c *Client) CreateRoom(ctx context.Context, name string) (*CreateResponse, error) {
	endpoint := c.base.JoinPath("create_room")
	form := url.Values{"room_name": {name}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read create room reply: %w", err)
	}
	var out CreateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode create room reply (status %d): %w", resp.StatusCode, err)
	}
	return &out, nil
}
