// Package observesdk is a typed HTTP client for the observe service: it
// submits gate-result artifacts and reads them back by chain hash.
package observesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{},
	}
}

type Artifact struct {
	WitnessHash string          `json:"witnessHash"`
	Profile     string          `json:"profile"`
	Result      string          `json:"result"`
	Payload     json.RawMessage `json:"payload"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type putRequest struct {
	WitnessHash string          `json:"witnessHash,omitempty"`
	Payload     json.RawMessage `json:"payload"`
}

type putResponse struct {
	RequestID   string `json:"requestId"`
	WitnessHash string `json:"witnessHash"`
}

type getResponse struct {
	RequestID string   `json:"requestId"`
	Artifact  Artifact `json:"artifact"`
}

type listResponse struct {
	RequestID string     `json:"requestId"`
	Artifacts []Artifact `json:"artifacts"`
}

// PutResult submits a serialized gate result and returns the chain hash the
// service stored it under. An empty witnessHash lets the service derive the
// hash; a non-empty one asserts it and fails on mismatch.
func (c *Client) PutResult(ctx context.Context, witnessHash string, payload []byte) (string, error) {
	body, err := json.Marshal(putRequest{WitnessHash: witnessHash, Payload: payload})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/observe/results", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	out, err := doJSON[putResponse](c, req)
	if err != nil {
		return "", err
	}
	return out.WitnessHash, nil
}

func (c *Client) GetResult(ctx context.Context, witnessHash string) (*Artifact, error) {
	u := c.BaseURL + "/observe/results/" + url.PathEscape(witnessHash)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	out, err := doJSON[getResponse](c, req)
	if err != nil {
		return nil, err
	}
	return &out.Artifact, nil
}

func (c *Client) ListRecent(ctx context.Context, limit int) ([]Artifact, error) {
	u := c.BaseURL + "/observe/results"
	if limit > 0 {
		u += "?limit=" + strconv.Itoa(limit)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	out, err := doJSON[listResponse](c, req)
	if err != nil {
		return nil, err
	}
	return out.Artifacts, nil
}

func doJSON[T any](c *Client, req *http.Request) (*T, error) {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		var errBody map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		return nil, fmt.Errorf("http %d: %v", resp.StatusCode, errBody)
	}
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}
