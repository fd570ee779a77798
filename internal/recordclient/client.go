// Package recordclient talks to the back-office API on behalf of other
// processes. The bearer token is fixed when the client is built; there is no
// shared authentication state.
package recordclient

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

	"backoffice/internal/core"
	"backoffice/internal/documents"
	"backoffice/internal/storage"
)

const defaultTimeout = 30 * time.Second

var (
	ErrNotFound     = errors.New("record not found")
	ErrUnauthorized = errors.New("record store rejected the token")
	ErrConflict     = errors.New("record was modified concurrently")
)

// APIError is a non-2xx answer from the record store.
type APIError struct {
	Status int    `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("record store: %d %s: %s", e.Status, e.Title, e.Detail)
	}
	return fmt.Sprintf("record store: %d %s", e.Status, e.Title)
}

// Is maps status codes onto the package sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	case ErrConflict:
		return e.Status == http.StatusConflict
	}
	return false
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default client, which times out after 30s.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do sends body, when non-nil, as JSON and decodes a 2xx answer into out,
// when non-nil.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(data, apiErr); err != nil || apiErr.Title == "" {
		apiErr.Title = http.StatusText(resp.StatusCode)
		if apiErr.Detail == "" {
			apiErr.Detail = strings.TrimSpace(string(data))
		}
	}
	apiErr.Status = resp.StatusCode
	return apiErr
}

func documentPath(kind documents.Kind, id int64) string {
	return "/api/documents/" + url.PathEscape(string(kind)) + "/" + strconv.FormatInt(id, 10)
}

func (c *Client) GetDocument(ctx context.Context, kind documents.Kind, id int64) (documents.Document, error) {
	var doc documents.Document
	err := c.Do(ctx, http.MethodGet, documentPath(kind, id), nil, &doc)
	return doc, err
}

func (c *Client) ListDocuments(ctx context.Context, kind documents.Kind) ([]documents.Document, error) {
	var docs []documents.Document
	err := c.Do(ctx, http.MethodGet, "/api/documents/"+url.PathEscape(string(kind)), nil, &docs)
	return docs, err
}

// SaveDocument creates doc when it has no ID and updates it otherwise. The
// stored document, with its new version, is returned.
func (c *Client) SaveDocument(ctx context.Context, doc documents.Document) (documents.Document, error) {
	var saved documents.Document
	if doc.ID == 0 {
		err := c.Do(ctx, http.MethodPost, "/api/documents/"+url.PathEscape(string(doc.Kind)), doc, &saved)
		return saved, err
	}
	err := c.Do(ctx, http.MethodPut, documentPath(doc.Kind, doc.ID), doc, &saved)
	return saved, err
}

// Summary fetches the recomputed sheet of a stored document. An empty
// currency means the document's reporting currency.
func (c *Client) Summary(ctx context.Context, kind documents.Kind, id int64, currency core.Currency) (documents.Sheet, error) {
	path := documentPath(kind, id) + "/summary"
	if currency != "" {
		path += "?currency=" + url.QueryEscape(string(currency))
	}
	var sheet documents.Sheet
	err := c.Do(ctx, http.MethodGet, path, nil, &sheet)
	return sheet, err
}

func (c *Client) PendingSync(ctx context.Context, limit int) ([]storage.PendingDocument, error) {
	var pending []storage.PendingDocument
	err := c.Do(ctx, http.MethodGet, "/api/sync/pending?limit="+strconv.Itoa(limit), nil, &pending)
	return pending, err
}

// AckRequest is the body of a sync acknowledgement.
type AckRequest struct {
	Version int64 `json:"version"`
}

// AckSync records that version of document id has been exported.
func (c *Client) AckSync(ctx context.Context, id, version int64) error {
	return c.Do(ctx, http.MethodPost, "/api/sync/"+strconv.FormatInt(id, 10)+"/ack", AckRequest{Version: version}, nil)
}

// FailSync parks version of document id after repeated export failures.
func (c *Client) FailSync(ctx context.Context, id, version int64) error {
	return c.Do(ctx, http.MethodPost, "/api/sync/"+strconv.FormatInt(id, 10)+"/error", AckRequest{Version: version}, nil)
}
