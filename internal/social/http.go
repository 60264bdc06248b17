package social

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// HTTPClient talks to a social platform's REST API with a bearer token.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPClient creates a client for the given API base URL.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type apiPost struct {
	ID        int64   `json:"id"`
	UserID    int64   `json:"user_id"`
	Handle    string  `json:"user_handle"`
	Text      string  `json:"text"`
	CreatedAt string  `json:"created_at"`
	Repost    bool    `json:"repost"`
	Mentions  []int64 `json:"mention_user_ids"`
	ReplyTo   *int64  `json:"in_reply_to_user_id"`
}

func (p apiPost) toPost() Post {
	postedAt, _ := time.Parse(time.RFC3339, p.CreatedAt)
	return Post{
		ID:              p.ID,
		UserID:          p.UserID,
		UserHandle:      p.Handle,
		Text:            p.Text,
		PostedAt:        postedAt,
		IsRepost:        p.Repost,
		MentionUserIDs:  p.Mentions,
		InReplyToUserID: p.ReplyTo,
	}
}

func (c *HTTPClient) Search(ctx context.Context, query string, sinceID int64) ([]Post, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("since_id", strconv.FormatInt(sinceID, 10))
	params.Set("count", "100")
	return c.fetchPosts(ctx, "/search?"+params.Encode())
}

func (c *HTTPClient) Mentions(ctx context.Context, sinceID int64) ([]Post, error) {
	params := url.Values{}
	params.Set("since_id", strconv.FormatInt(sinceID, 10))
	return c.fetchPosts(ctx, "/mentions?"+params.Encode())
}

func (c *HTTPClient) Update(ctx context.Context, text string) error {
	return c.post(ctx, "/update", map[string]any{"text": text})
}

func (c *HTTPClient) Reply(ctx context.Context, text string, inReplyTo int64) error {
	return c.post(ctx, "/update", map[string]any{
		"text":                  text,
		"in_reply_to_status_id": inReplyTo,
	})
}

func (c *HTTPClient) GetUser(ctx context.Context, id int64) (User, error) {
	body, err := c.get(ctx, fmt.Sprintf("/users/%d", id))
	if err != nil {
		return User{}, err
	}
	var user struct {
		ID     int64  `json:"id"`
		Handle string `json:"handle"`
	}
	if err := json.Unmarshal(body, &user); err != nil {
		return User{}, fmt.Errorf("failed to unmarshal user response: %w", err)
	}
	return User{ID: user.ID, Handle: user.Handle}, nil
}

func (c *HTTPClient) fetchPosts(ctx context.Context, path string) ([]Post, error) {
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	var raw []apiPost
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal posts response: %w", err)
	}
	posts := make([]Post, len(raw))
	for i, p := range raw {
		posts[i] = p.toPost()
	}
	return posts, nil
}

func (c *HTTPClient) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (c *HTTPClient) post(ctx context.Context, path string, payload map[string]any) error {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(string(jsonBody)))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}
	return nil
}
