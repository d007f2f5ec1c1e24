// Package remote implements store.Store against a document API exposing
// POST /{collection}/read and GET /collections, both answering {"result": ...}.
package remote

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/underdogdevs/mentormatch/internal/profile"
	"github.com/underdogdevs/mentormatch/internal/store"
)

const (
	contentType     = "application/json"
	contentEncoding = "gzip"
	userAgent       = "mentormatch"
	defaultTimeout  = 10 * time.Second
)

var errBadStatus = errors.New("bad status")

type envelope struct {
	Result json.RawMessage `json:"result"`
}

type Client struct {
	token      string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	BaseURL    string
}

// New returns a client for the API at baseURL. token may be empty.
func New(baseURL, token string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		token:   token,
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger:    logger,
		UserAgent: userAgent,
	}
}

func (c *Client) Get(ctx context.Context, collection, id string) (profile.Record, error) {
	filters := []store.Filter{{"profile_id": id}}
	// Numeric ids are stored as numbers upstream; zero padded ids like "007"
	// are only found as strings.
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		filters = append([]store.Filter{{"profile_id": n}}, filters...)
	}

	var records []profile.Record
	for _, filter := range filters {
		var err error
		records, err = c.QueryAll(ctx, collection, filter)
		if err != nil {
			return nil, err
		}
		if len(records) > 0 {
			break
		}
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s/%s: %w", collection, id, store.ErrNotFound)
	}

	return records[0], nil
}

func (c *Client) QueryAll(ctx context.Context, collection string, filter store.Filter) ([]profile.Record, error) {
	body := map[string]any(filter)
	if body == nil {
		body = map[string]any{}
	}

	var records []profile.Record
	if err := c.postJSON(ctx, fmt.Sprintf("%s/%s/read", c.BaseURL, url.PathEscape(collection)), body, &records); err != nil {
		return nil, err
	}

	c.logger.Debug("read records from remote store",
		zap.String("collection", collection),
		zap.Int("count", len(records)),
	)

	return records, nil
}

func (c *Client) Count(ctx context.Context, collection string, filter store.Filter) (int, error) {
	records, err := c.QueryAll(ctx, collection, filter)
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// Collections accepts either {"Name": count} or [{"name":..., "count":...}].
func (c *Client) Collections(ctx context.Context) ([]store.CollectionInfo, error) {
	var result any
	if err := c.getJSON(ctx, c.BaseURL+"/collections", &result); err != nil {
		return nil, err
	}

	var infos []store.CollectionInfo
	switch v := result.(type) {
	case map[string]any:
		names := make([]string, 0, len(v))
		for name := range v {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			var n int
			if err := mapstructure.WeakDecode(v[name], &n); err != nil {
				return nil, fmt.Errorf("decode count of %s: %w", name, err)
			}
			infos = append(infos, store.CollectionInfo{Name: name, Count: n})
		}
	case []any:
		if err := mapstructure.WeakDecode(v, &infos); err != nil {
			return nil, fmt.Errorf("decode collections: %w", err)
		}
		store.SortInfos(infos)
	case nil:
	default:
		return nil, fmt.Errorf("unexpected collections payload %T", result)
	}

	return infos, nil
}

func (c *Client) postJSON(ctx context.Context, target string, payload any, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(data))
	if err != nil {
		return err
	}

	req = c.setHeaders(req)
	req.Header.Set("Content-Type", contentType)

	return c.do(req, out)
}

func (c *Client) getJSON(ctx context.Context, target string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}

	return c.do(c.setHeaders(req), out)
}

func (c *Client) do(req *http.Request, out any) error {
	c.logger.Debug("make request", zap.String("method", req.Method), zap.String("url", req.URL.String()))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return store.Unavailable("request", err)
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return store.Unavailable("response", err)
		}
		defer gz.Close()
		reader = gz
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return store.Unavailable("response", err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return store.Unavailable("request", fmt.Errorf("%w: %s", errBadStatus, resp.Status))
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s", errBadStatus, resp.Status)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if len(env.Result) == 0 || out == nil {
		return nil
	}

	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}

	return nil
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept-Encoding", contentEncoding)

	return req
}
