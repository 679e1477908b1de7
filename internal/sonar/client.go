// Package sonar is a minimal client for the Sonar v1 REST API: endpoint
// building, HTTP Basic auth and paged GETs.
package sonar

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Wilson-Creek-Communications/sonar-utilities/internal/pager"
)

// DefaultBaseURL is the API root of the Wilson Creek Sonar instance.
const DefaultBaseURL = "https://wilsoncreek.sonar.software/api/v1"

// Credentials authenticate every request made by a Client.
type Credentials struct {
	Username string
	Password string
}

// Client talks to one Sonar instance with one set of credentials.
type Client struct {
	baseURL    string
	creds      Credentials
	httpClient *http.Client
	timeout    time.Duration
	log        logrus.FieldLogger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client. The client is copied,
// never modified.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets a per-request timeout. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// NewClient builds a Client. The credentials are held for the lifetime of
// the client only.
func NewClient(baseURL string, creds Credentials, opts ...Option) *Client {
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	c := &Client{
		baseURL:    sanitizeBaseURL(baseURL),
		creds:      creds,
		httpClient: &http.Client{},
		log:        discard,
	}
	for _, opt := range opts {
		opt(c)
	}
	hc := *c.httpClient
	if c.timeout > 0 {
		hc.Timeout = c.timeout
	}
	c.httpClient = &hc
	return c
}

// Endpoint appends endpoint to the base URL. The endpoint must begin with a
// slash.
func (c *Client) Endpoint(endpoint string) (string, error) {
	if !strings.HasPrefix(endpoint, "/") {
		return "", &URLError{Endpoint: endpoint}
	}
	return c.baseURL + endpoint, nil
}

// Get performs an authenticated GET and decodes the JSON body into out.
func (c *Client) Get(ctx context.Context, endpoint string, params url.Values, out any) error {
	requestURL, err := c.Endpoint(endpoint)
	if err != nil {
		return err
	}
	if len(params) > 0 {
		requestURL += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Encoding", "application/gzip")
	req.SetBasicAuth(c.creds.Username, c.creds.Password)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", requestURL, err)
	}
	defer resp.Body.Close()
	c.log.WithFields(logrus.Fields{
		"url":     requestURL,
		"status":  resp.StatusCode,
		"elapsed": time.Since(start).Truncate(time.Millisecond),
	}).Debug("sonar request")

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{Action: http.MethodGet, URL: requestURL, Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	// Accept-Encoding is set by hand, so the transport leaves gzip bodies
	// compressed.
	var body io.Reader = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return fmt.Errorf("GET %s: %w", requestURL, err)
		}
		defer zr.Close()
		body = zr
	}
	if err := json.NewDecoder(body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", requestURL, err)
	}
	return nil
}

// envelope covers both response shapes the tool reads: paged collections
// ({"data": [...], "paginator": {...}}) and GeoJSON feature collections.
type envelope struct {
	Data      []json.RawMessage `json:"data"`
	Features  []json.RawMessage `json:"features"`
	Paginator *struct {
		TotalPages int `json:"total_pages"`
	} `json:"paginator"`
}

// unpagedPrefix marks resources that return one FeatureCollection and take
// no page parameter.
const unpagedPrefix = "/mapping/geojson/"

// FetchPage implements pager.Fetcher. A response without a paginator is
// treated as the only page.
func (c *Client) FetchPage(ctx context.Context, resource string, page int) (*pager.Page, error) {
	params := url.Values{}
	if !strings.HasPrefix(resource, unpagedPrefix) {
		params.Set("page", strconv.Itoa(page))
	}

	var env envelope
	if err := c.Get(ctx, resource, params, &env); err != nil {
		return nil, err
	}
	out := &pager.Page{Records: env.Data, TotalPages: 1}
	if env.Features != nil {
		out.Records = env.Features
	}
	if env.Paginator != nil {
		out.TotalPages = env.Paginator.TotalPages
	}
	return out, nil
}

func sanitizeBaseURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	return strings.TrimRight(trimmed, "/")
}
