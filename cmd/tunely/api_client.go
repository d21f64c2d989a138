package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tunely/internal/api"
	"tunely/internal/config"
)

var errAPIUnavailable = errors.New("daemon API unavailable")

// apiClient talks to a running daemon over its HTTP API.
type apiClient struct {
	base  *url.URL
	token string
	http  *http.Client
}

type logQuery struct {
	Since     uint64
	Limit     int
	Follow    bool
	Tail      bool
	RequestID string
	Component string
}

func newAPIClient(cfg *config.Config) (*apiClient, error) {
	if cfg == nil {
		return nil, errAPIUnavailable
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, errAPIUnavailable
	}
	if !strings.Contains(bind, "://") {
		bind = "http://" + bind
	}
	base, err := url.Parse(bind)
	if err != nil {
		return nil, err
	}
	if host, port, err := net.SplitHostPort(base.Host); err == nil && (host == "" || host == "0.0.0.0" || host == "::") {
		base.Host = net.JoinHostPort("127.0.0.1", port)
	}
	base.Path = ""
	base.RawQuery = ""
	base.Fragment = ""
	return &apiClient{
		base:  base,
		token: cfg.Paths.APIToken,
		http:  &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func (c *apiClient) Health(ctx context.Context) (api.HealthResponse, error) {
	var payload api.HealthResponse
	err := c.get(ctx, "/api/health", nil, &payload)
	return payload, err
}

func (c *apiClient) Logs(ctx context.Context, q logQuery) (api.LogStreamResponse, error) {
	values := url.Values{}
	if q.Since > 0 {
		values.Set("since", strconv.FormatUint(q.Since, 10))
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Follow {
		values.Set("follow", "1")
	}
	if q.Tail {
		values.Set("tail", "1")
	}
	if q.RequestID != "" {
		values.Set("request", q.RequestID)
	}
	if q.Component != "" {
		values.Set("component", q.Component)
	}
	var payload api.LogStreamResponse
	err := c.get(ctx, "/api/logs", values, &payload)
	return payload, err
}

func (c *apiClient) get(ctx context.Context, path string, values url.Values, dst any) error {
	endpoint := c.base.ResolveReference(&url.URL{Path: path, RawQuery: values.Encode()})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		if isConnectionError(err) {
			return errAPIUnavailable
		}
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var apiErr api.ErrorResponse
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("GET %s: %s (status %d)", path, apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("GET %s returned status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

func isConnectionError(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
