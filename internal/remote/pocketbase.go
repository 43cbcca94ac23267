package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/studentorg/dashsync/internal/common"
	"github.com/studentorg/dashsync/internal/models"
)

// perPage is the PocketBase page size used when walking a result set.
const perPage = 200

// PocketBaseClient implements Client against the PocketBase records API.
type PocketBaseClient struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

// NewPocketBaseClient builds a client for the instance at baseURL. The
// timeout bounds every request; the engine itself never waits longer than
// that on a hung call.
func NewPocketBaseClient(baseURL string, timeout time.Duration) *PocketBaseClient {
	return &PocketBaseClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// SetToken installs the session token obtained by the caller's auth flow.
// An empty token logs the client out.
func (c *PocketBaseClient) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// IsAuthenticated reports whether a token is present and, when it parses as
// a JWT, not yet expired. The signature is the server's business; we only
// honor the exp claim locally to avoid doomed requests.
func (c *PocketBaseClient) IsAuthenticated() bool {
	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()

	if token == "" {
		return false
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		// opaque tokens are accepted as-is; the server decides
		return true
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return exp.After(time.Now())
}

type listResponse struct {
	Page       int             `json:"page"`
	PerPage    int             `json:"perPage"`
	TotalPages int             `json:"totalPages"`
	TotalItems int             `json:"totalItems"`
	Items      []models.Record `json:"items"`
}

func (c *PocketBaseClient) ListAll(ctx context.Context, collection string, opts ListOptions) ([]models.Record, error) {
	var result []models.Record

	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("page", strconv.Itoa(page))
		q.Set("perPage", strconv.Itoa(perPage))
		if opts.Filter != "" {
			q.Set("filter", opts.Filter)
		}
		if opts.Sort != "" {
			q.Set("sort", opts.Sort)
		}
		if opts.Expand != "" {
			q.Set("expand", opts.Expand)
		}

		var lr listResponse
		path := fmt.Sprintf("/api/collections/%s/records?%s", url.PathEscape(collection), q.Encode())
		if err := c.do(ctx, http.MethodGet, path, nil, &lr); err != nil {
			return nil, fmt.Errorf("failed to list %s page %d: %w", collection, page, err)
		}

		result = append(result, lr.Items...)

		if lr.TotalPages == 0 || page >= lr.TotalPages || len(lr.Items) == 0 {
			break
		}
	}

	return result, nil
}

func (c *PocketBaseClient) GetOne(ctx context.Context, collection, id string) (models.Record, error) {
	var rec models.Record
	path := fmt.Sprintf("/api/collections/%s/records/%s", url.PathEscape(collection), url.PathEscape(id))
	if err := c.do(ctx, http.MethodGet, path, nil, &rec); err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}
	return rec, nil
}

func (c *PocketBaseClient) Create(ctx context.Context, collection string, fields models.Record) (models.Record, error) {
	var rec models.Record
	path := fmt.Sprintf("/api/collections/%s/records", url.PathEscape(collection))
	if err := c.do(ctx, http.MethodPost, path, fields, &rec); err != nil {
		return nil, fmt.Errorf("failed to create in %s: %w", collection, err)
	}
	return rec, nil
}

func (c *PocketBaseClient) UpdateFields(ctx context.Context, collection, id string, fields models.Record) (models.Record, error) {
	var rec models.Record
	path := fmt.Sprintf("/api/collections/%s/records/%s", url.PathEscape(collection), url.PathEscape(id))
	if err := c.do(ctx, http.MethodPatch, path, fields, &rec); err != nil {
		return nil, fmt.Errorf("failed to update %s/%s: %w", collection, id, err)
	}
	return rec, nil
}

func (c *PocketBaseClient) Delete(ctx context.Context, collection, id string) error {
	path := fmt.Sprintf("/api/collections/%s/records/%s", url.PathEscape(collection), url.PathEscape(id))
	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (c *PocketBaseClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/health", nil, nil)
}

func (c *PocketBaseClient) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set(common.AuthHeaderName, token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if err := mapStatus(resp); err != nil {
		return err
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func mapStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return common.ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return common.ErrUnauthorized
	default:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("server returned %s: %s", resp.Status, string(b))
	}
}
