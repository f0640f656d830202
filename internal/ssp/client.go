package ssp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ssp-admin/internal/infra/logx"
)

const (
	templatesPath = "reference/messageTemplate"

	// DefaultPreviewEndpoint is the item URL of the message template preview.
	DefaultPreviewEndpoint = "reference/messageTemplatePreview"
	DefaultPageSize        = 100
)

// Options configures a Client.
type Options struct {
	BaseURL         string
	Token           string
	PreviewEndpoint string
	PageSize        int
	Timeout         time.Duration
	// Transport overrides the retrying transport, mainly for tests.
	Transport http.RoundTripper
}

type Client struct {
	http        *http.Client
	base        *url.URL
	token       string
	previewPath string
	pageSize    int
	metrics     *Metrics
}

// New builds a client for the SSP REST API rooted at opts.BaseURL
// (for example http://localhost:8080/ssp/api/1).
func New(opts Options) (*Client, error) {
	raw := strings.TrimSpace(opts.BaseURL)
	if raw == "" {
		return nil, errors.New("base url is empty")
	}
	base, err := url.Parse(strings.TrimSuffix(raw, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must be http or https", raw)
	}
	if opts.PreviewEndpoint == "" {
		opts.PreviewEndpoint = DefaultPreviewEndpoint
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}

	var metrics *Metrics
	rt := opts.Transport
	if rt == nil {
		to := DefaultTransportOptions()
		metrics = to.Metrics
		rt = NewRetryingTransport(to)
	} else if tr, ok := rt.(*RetryingTransport); ok {
		metrics = tr.Opts.Metrics
	}

	return &Client{
		http:        &http.Client{Timeout: opts.Timeout, Transport: rt},
		base:        base,
		token:       strings.TrimSpace(opts.Token),
		previewPath: strings.TrimPrefix(opts.PreviewEndpoint, "/"),
		pageSize:    opts.PageSize,
		metrics:     metrics,
	}, nil
}

// Metrics returns the transport counters, or nil for a custom transport.
func (c *Client) Metrics() *Metrics { return c.metrics }

func (c *Client) endpoint(path string, q url.Values) string {
	u := c.base.ResolveReference(&url.URL{Path: strings.TrimPrefix(path, "/")})
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// PreviewURL is the detail endpoint for one template: <base>/<preview>?id=<id>.
func (c *Client) PreviewURL(id int) string {
	return c.endpoint(c.previewPath, url.Values{"id": []string{strconv.Itoa(id)}})
}

func (c *Client) newRequest(ctx context.Context, method, u string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set(RequestIDHeader, RequestIDFromContext(ctx))
	return req, nil
}

func (c *Client) do(req *http.Request, op string) ([]byte, error) {
	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer res.Body.Close()
	logx.Debugw("http", map[string]any{
		"op":         op,
		"method":     req.Method,
		"url":        req.URL.String(),
		"status":     res.StatusCode,
		"request_id": req.Header.Get(RequestIDHeader),
	})
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &StatusError{Op: op, Code: res.StatusCode, Status: res.Status}
	}
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", op, err)
	}
	return body, nil
}

// ListMessageTemplates pages through the template list and returns all rows
// in server order.
func (c *Client) ListMessageTemplates(ctx context.Context) ([]MessageTemplate, error) {
	var all []MessageTemplate
	start := 0
	for {
		q := url.Values{}
		q.Set("start", strconv.Itoa(start))
		q.Set("limit", strconv.Itoa(c.pageSize))
		q.Set("sort", "name")
		req, err := c.newRequest(ctx, http.MethodGet, c.endpoint(templatesPath, q), nil)
		if err != nil {
			return nil, err
		}
		body, err := c.do(req, "messageTemplate.list")
		if err != nil {
			return nil, err
		}
		var page pagedResp
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("messageTemplate.list: decode: %w", err)
		}
		all = append(all, page.Rows...)

		if len(page.Rows) < c.pageSize || (page.Results > 0 && len(all) >= page.Results) {
			break
		}
		start += len(page.Rows)
	}
	return all, nil
}

// GetMessageTemplate fetches one template by ID.
func (c *Client) GetMessageTemplate(ctx context.Context, id int) (MessageTemplate, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.endpoint(templatesPath+"/"+strconv.Itoa(id), nil), nil)
	if err != nil {
		return MessageTemplate{}, err
	}
	body, err := c.do(req, "messageTemplate.get")
	if err != nil {
		return MessageTemplate{}, err
	}
	var t MessageTemplate
	if err := json.Unmarshal(body, &t); err != nil {
		return MessageTemplate{}, fmt.Errorf("messageTemplate.get: decode: %w", err)
	}
	return t, nil
}

// UpdateMessageTemplate saves an existing template and returns the server's copy.
func (c *Client) UpdateMessageTemplate(ctx context.Context, t MessageTemplate) (MessageTemplate, error) {
	if t.ID == 0 {
		return MessageTemplate{}, errors.New("messageTemplate.update: missing id")
	}
	payload, err := json.Marshal(t)
	if err != nil {
		return MessageTemplate{}, err
	}
	req, err := c.newRequest(ctx, http.MethodPut, c.endpoint(templatesPath+"/"+strconv.Itoa(t.ID), nil), bytes.NewReader(payload))
	if err != nil {
		return MessageTemplate{}, err
	}
	body, err := c.do(req, "messageTemplate.update")
	if err != nil {
		return MessageTemplate{}, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return t, nil
	}
	var saved MessageTemplate
	if err := json.Unmarshal(body, &saved); err != nil {
		return MessageTemplate{}, fmt.Errorf("messageTemplate.update: decode: %w", err)
	}
	return saved, nil
}

// PreviewMessageTemplate issues the detail fetch for the preview popup and
// returns the undecoded body. An empty body is a valid success.
func (c *Client) PreviewMessageTemplate(ctx context.Context, id int) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.PreviewURL(id), nil)
	if err != nil {
		return nil, err
	}
	return c.do(req, "messageTemplate.preview")
}
