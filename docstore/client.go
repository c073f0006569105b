package docstore

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fiscalflow/logger"
)

// Client is what the reconciliation orchestrator sees of the external
// document repository.
type Client interface {
	ListDocuments(ctx context.Context, clientTaxID string, filters ListFilters) ([]DocumentMeta, error)
	FetchContent(ctx context.Context, externalID, clientTaxID string) ([]byte, error)
}

// HTTPClient talks to the repository's REST API. Repository access requires
// a per-client procurator token, obtained with the firm's API key and held
// in the injected TokenCache.
type HTTPClient struct {
	baseURL  string
	apiKey   string
	httpc    *http.Client
	tokens   TokenCache
	tokenTTL time.Duration
	log      *logger.Logger
}

func NewHTTPClient(baseURL, apiKey string, tokens TokenCache, tokenTTL time.Duration, log *logger.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		httpc:    &http.Client{},
		tokens:   tokens,
		tokenTTL: tokenTTL,
		log:      log,
	}
}

type listedDocument struct {
	ExternalID string            `json:"external_id"`
	Title      string            `json:"title"`
	Attributes map[string]string `json:"attributes"`
}

// ListDocuments returns metadata for the client's documents, in the
// repository's stable listing order.
func (c *HTTPClient) ListDocuments(ctx context.Context, clientTaxID string, filters ListFilters) ([]DocumentMeta, error) {
	q := url.Values{"client_tax_id": {clientTaxID}}
	if filters.Title != "" {
		q.Set("title", filters.Title)
	}

	body, err := c.get(ctx, clientTaxID, "/documents?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var listed []listedDocument
	if err := json.Unmarshal(body, &listed); err != nil {
		return nil, fmt.Errorf("docstore: decode listing: %w", err)
	}

	docs := make([]DocumentMeta, len(listed))
	for i, d := range listed {
		docs[i] = DocumentMeta{ExternalID: d.ExternalID, Title: d.Title, Attributes: d.Attributes}
	}
	return docs, nil
}

// FetchContent downloads and decodes one document's base64 content.
func (c *HTTPClient) FetchContent(ctx context.Context, externalID, clientTaxID string) ([]byte, error) {
	q := url.Values{"client_tax_id": {clientTaxID}}
	body, err := c.get(ctx, clientTaxID, "/documents/"+url.PathEscape(externalID)+"/content?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var payload struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("docstore: decode content envelope: %w", err)
	}

	raw, err := base64.StdEncoding.DecodeString(payload.Content)
	if err != nil {
		return nil, fmt.Errorf("docstore: decode content: %w", err)
	}
	return raw, nil
}

// get performs an authenticated GET. A 401 expires the cached token and
// retries once with a fresh one; a 5xx is retried once. The repository is
// eventually consistent and transient failures are expected.
func (c *HTTPClient) get(ctx context.Context, clientTaxID, path string) ([]byte, error) {
	token, err := c.procuratorToken(ctx, clientTaxID, false)
	if err != nil {
		return nil, err
	}

	body, status, err := c.doGet(ctx, path, token)
	if err != nil {
		return nil, err
	}

	switch {
	case status == http.StatusUnauthorized:
		token, err = c.procuratorToken(ctx, clientTaxID, true)
		if err != nil {
			return nil, err
		}
		body, status, err = c.doGet(ctx, path, token)
		if err != nil {
			return nil, err
		}
	case status >= 500:
		c.log.Warn("docstore.retrying", "path", path, "status", status)
		body, status, err = c.doGet(ctx, path, token)
		if err != nil {
			return nil, err
		}
	}

	switch {
	case status == http.StatusNotFound:
		return nil, ErrNotFound
	case status != http.StatusOK:
		return nil, fmt.Errorf("docstore: repository returned status %d", status)
	}
	return body, nil
}

func (c *HTTPClient) doGet(ctx context.Context, path, token string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("docstore: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("docstore: request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("docstore: read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

// procuratorToken returns the cached token for the client, requesting a new
// one on miss or when refresh is forced.
func (c *HTTPClient) procuratorToken(ctx context.Context, clientTaxID string, force bool) (string, error) {
	if force {
		if err := c.tokens.Expire(ctx, clientTaxID); err != nil {
			c.log.Warn("docstore.token_expire_failed", "client_tax_id", clientTaxID, "err", err)
		}
	} else {
		token, ok, err := c.tokens.Get(ctx, clientTaxID)
		if err != nil {
			c.log.Warn("docstore.token_cache_get_failed", "client_tax_id", clientTaxID, "err", err)
		}
		if ok {
			return token, nil
		}
	}

	if c.apiKey == "" {
		return "", fmt.Errorf("%w: %s", ErrNoCredential, clientTaxID)
	}

	reqBody, _ := json.Marshal(map[string]string{"client_tax_id": clientTaxID})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/procurator", strings.NewReader(string(reqBody)))
	if err != nil {
		return "", fmt.Errorf("docstore: build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("docstore: token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", fmt.Errorf("%w: %s", ErrNoCredential, clientTaxID)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("docstore: token endpoint returned status %d", resp.StatusCode)
	}

	var payload struct {
		Token     string `json:"token"`
		ExpiresIn int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("docstore: decode token: %w", err)
	}
	if payload.Token == "" {
		return "", fmt.Errorf("docstore: token endpoint returned empty token")
	}

	ttl := c.tokenTTL
	if payload.ExpiresIn > 0 {
		ttl = time.Duration(payload.ExpiresIn) * time.Second
	}
	if err := c.tokens.Set(ctx, clientTaxID, payload.Token, ttl); err != nil {
		c.log.Warn("docstore.token_cache_set_failed", "client_tax_id", clientTaxID, "err", err)
	}
	return payload.Token, nil
}
