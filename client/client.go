// Package client is the consumer side of the sync protocol: a REST client
// for request/response operations and a streaming Stream that maintains a
// long-lived SSE subscription with automatic reconnect.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"gearledger/domain"
	"gearledger/handlers"
	"gearledger/service"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

const requestTimeout = 5 * time.Second

// Client talks to one sync server over HTTP.
type Client struct {
	baseURL string
	client  *http.Client
	logger  log.Logger
}

// New creates a client for the server at baseURL (e.g. http://10.0.0.5:8080),
// no trailing slash.
func New(baseURL string, logger log.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  log.WithPrefix(logger, "component", "client"),
	}
}

// CheckConnection probes the status endpoint, then best-effort probes the
// version endpoint so the server registers this peer as connected even on a
// lightweight probe. Failure of the secondary probe is non-fatal.
func (c *Client) CheckConnection(ctx context.Context) error {
	if _, err := c.Status(ctx); err != nil {
		return err
	}
	if v := c.SyncVersion(ctx); v < 0 {
		level.Debug(c.logger).Log("msg", "version probe failed after status probe")
	}
	return nil
}

// Status returns the server's identity info.
func (c *Client) Status(ctx context.Context) (domain.ServerStatus, error) {
	var status domain.ServerStatus
	err := c.getJSON(ctx, "/api/status", &status)
	return status, err
}

// SyncVersion returns the server's current version, or -1 on any failure.
func (c *Client) SyncVersion(ctx context.Context) int64 {
	var resp handlers.VersionResponse
	if err := c.getJSON(ctx, "/api/sync/version", &resp); err != nil {
		return -1
	}
	return resp.Version
}

// ListResults returns the ledger, optionally filtered by client.
func (c *Client) ListResults(ctx context.Context, client string) ([]domain.Result, error) {
	path := "/api/results"
	if client != "" {
		path += "?client=" + url.QueryEscape(client)
	}
	var resp handlers.ResultsResponse
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// SubmitResult sends one write to the ledger and returns the merged row and
// the server's new version.
func (c *Client) SubmitResult(ctx context.Context, in domain.ResultInput) (domain.Result, int64, error) {
	var resp handlers.ResultResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/results", in, &resp); err != nil {
		return domain.Result{}, 0, err
	}
	return resp.Result, resp.Version, nil
}

// GetResult fetches one row by id.
func (c *Client) GetResult(ctx context.Context, id int64) (domain.Result, error) {
	var resp handlers.ResultResponse
	if err := c.getJSON(ctx, "/api/results/"+strconv.FormatInt(id, 10), &resp); err != nil {
		return domain.Result{}, err
	}
	return resp.Result, nil
}

// UpdateResult applies a sparse patch to one row.
func (c *Client) UpdateResult(ctx context.Context, id int64, patch domain.ResultPatch) (domain.Result, error) {
	var resp handlers.ResultResponse
	if err := c.doJSON(ctx, http.MethodPut, "/api/results/"+strconv.FormatInt(id, 10), patch, &resp); err != nil {
		return domain.Result{}, err
	}
	return resp.Result, nil
}

// DeleteResult removes one row by id.
func (c *Client) DeleteResult(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/results/"+strconv.FormatInt(id, 10), nil, nil)
}

// ClearResults deletes all rows, optionally scoped to one client. Returns
// the number of deleted rows.
func (c *Client) ClearResults(ctx context.Context, client string) (int64, error) {
	var resp handlers.ClearResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/results/clear", handlers.ClearRequest{Client: client}, &resp); err != nil {
		return 0, err
	}
	return resp.Deleted, nil
}

// ListClients returns the distinct client names in the ledger.
func (c *Client) ListClients(ctx context.Context) ([]string, error) {
	var resp handlers.ClientsResponse
	if err := c.getJSON(ctx, "/api/clients", &resp); err != nil {
		return nil, err
	}
	return resp.Clients, nil
}

// ClientsCount returns the server's live connected-peer count.
func (c *Client) ClientsCount(ctx context.Context) (int, error) {
	var resp handlers.CountResponse
	if err := c.getJSON(ctx, "/api/clients/count", &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// CatalogInfo returns the catalog blob metadata.
func (c *Client) CatalogInfo(ctx context.Context) (domain.CatalogInfo, error) {
	var info domain.CatalogInfo
	err := c.getJSON(ctx, "/api/catalog/info", &info)
	return info, err
}

// DownloadCatalog fetches the catalog blob and its filename.
func (c *Client) DownloadCatalog(ctx context.Context) (string, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/catalog", nil)
	if err != nil {
		return "", nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", nil, decodeError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, err
	}

	filename := ""
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		filename = params["filename"]
	}
	return filename, data, nil
}

// UploadCatalog replaces the server's catalog blob and returns the new
// version.
func (c *Client) UploadCatalog(ctx context.Context, filename string, data []byte) (int64, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return 0, err
	}
	if _, err := part.Write(data); err != nil {
		return 0, err
	}
	if err := writer.Close(); err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/catalog", &body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, decodeError(resp)
	}

	var uploaded handlers.UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		return 0, err
	}
	return uploaded.Version, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, out)
}

// doJSON performs one JSON round-trip. A non-200 response is decoded into a
// service error carrying the server's machine-readable code.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// decodeError maps the server's error envelope back onto a SyncError so
// callers can match on the code (e.g. entity_not_found).
func decodeError(resp *http.Response) error {
	var envelope service.ErrResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil && envelope.Error != nil {
		return service.NewSyncError(envelope.Error.Code, envelope.Error.Message, nil)
	}
	return fmt.Errorf("server returned %d", resp.StatusCode)
}
