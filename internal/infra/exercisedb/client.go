// Package exercisedb talks to an ExerciseDB compatible HTTP API.
package exercisedb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/coocood/freecache"
)

const (
	defaultLimit      = 5
	defaultCacheSize  = 10 * 1024 * 1024
	defaultExpiration = 60 * 60 * 24
	defaultMaxBody    = 1 << 20
)

type Exercise struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	BodyPart  string `json:"bodyPart"`
	Target    string `json:"target"`
	Equipment string `json:"equipment"`
	GifURL    string `json:"gifUrl"`
}

type Options struct {
	BaseURL string
	APIKey  string
	// APIHost is sent as X-RapidAPI-Host when set.
	APIHost string
	Limit   int
	// CacheSize is in bytes.
	CacheSize int
	// CacheExpireSeconds applies to every cached search.
	CacheExpireSeconds int
	// MaxBodyBytes caps the response size read from the API.
	MaxBodyBytes int64
	HTTPClient   *http.Client
	Logger       *log.Logger
}

type Client struct {
	baseURL    string
	apiKey     string
	apiHost    string
	limit      int
	expire     int
	maxBody    int64
	cache      *freecache.Cache
	httpClient *http.Client
	log        *log.Logger
}

func NewClient(opts Options) *Client {
	if opts.Limit <= 0 {
		opts.Limit = defaultLimit
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = defaultCacheSize
	}
	if opts.CacheExpireSeconds <= 0 {
		opts.CacheExpireSeconds = defaultExpiration
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBody
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		apiHost:    opts.APIHost,
		limit:      opts.Limit,
		expire:     opts.CacheExpireSeconds,
		maxBody:    opts.MaxBodyBytes,
		cache:      freecache.NewCache(opts.CacheSize),
		httpClient: opts.HTTPClient,
		log:        opts.Logger.WithPrefix("exercisedb"),
	}
}

// SearchByName returns exercises whose name contains name.
func (c *Client) SearchByName(ctx context.Context, name string) ([]Exercise, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, fmt.Errorf("empty exercise name")
	}

	cacheKey := []byte(fmt.Sprintf("name::%s::%d", name, c.limit))
	if cached, err := c.cache.Get(cacheKey); err == nil {
		var exercises []Exercise
		if err := json.Unmarshal(cached, &exercises); err == nil {
			c.log.Debug("exercise search served from cache", "name", name)
			return exercises, nil
		}
		c.log.Warn("failed to decode cached exercises", "name", name)
	}

	endpoint := fmt.Sprintf("%s/exercises/name/%s?limit=%d", c.baseURL, url.PathEscape(name), c.limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("X-RapidAPI-Key", c.apiKey)
	}
	if c.apiHost != "" {
		req.Header.Set("X-RapidAPI-Host", c.apiHost)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("read exercise response: %w", err)
	}
	if int64(len(body)) > c.maxBody {
		return nil, fmt.Errorf("exercise response exceeds %d bytes", c.maxBody)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("exercise api returned status %d", resp.StatusCode)
	}

	var exercises []Exercise
	if err := json.Unmarshal(body, &exercises); err != nil {
		return nil, fmt.Errorf("decode exercise response: %w", err)
	}

	if err := c.cache.Set(cacheKey, body, c.expire); err != nil {
		c.log.Warn("failed to cache exercises", "name", name, "err", err)
	}
	return exercises, nil
}
