package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/grovetools/extdev/core"
	"github.com/grovetools/extdev/errors"
)

// HTTPOrigin rewrites a websocket endpoint url to its HTTP origin:
// ws becomes http, wss becomes https, host and path are kept.
func HTTPOrigin(socketURL string) string {
	switch {
	case strings.HasPrefix(socketURL, "wss://"):
		return "https://" + strings.TrimPrefix(socketURL, "wss://")
	case strings.HasPrefix(socketURL, "ws://"):
		return "http://" + strings.TrimPrefix(socketURL, "ws://")
	default:
		return socketURL
	}
}

// APIClient is the socketless fallback: the same payloads the
// websocket delivers, fetched over plain HTTP.
type APIClient struct {
	baseURL    string
	surface    core.Surface
	httpClient *http.Client
}

// NewAPIClient builds a REST client rooted at the /extensions base url.
// When surface is set, listings are narrowed to extensions matching it.
func NewAPIClient(baseURL string, surface core.Surface) *APIClient {
	return &APIClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		surface:    surface,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// ExtensionsResponse mirrors the list endpoint body.
type ExtensionsResponse struct {
	App        AppInfo          `json:"app"`
	Version    string           `json:"version"`
	Root       core.URL         `json:"root"`
	Socket     core.URL         `json:"socket"`
	DevConsole core.URL         `json:"devConsole"`
	Store      string           `json:"store"`
	Extensions []core.Extension `json:"extensions"`
}

// ExtensionResponse mirrors the single-extension endpoint body.
type ExtensionResponse struct {
	App       AppInfo        `json:"app"`
	Version   string         `json:"version"`
	Root      core.URL       `json:"root"`
	Socket    core.URL       `json:"socket"`
	Store     string         `json:"store"`
	Extension core.Extension `json:"extension"`
}

// AppInfo is the app identity slice the REST endpoints expose.
type AppInfo struct {
	APIKey string `json:"apiKey"`
}

// Extensions fetches the full payload listing, filtered to the
// client's surface when one was configured.
func (c *APIClient) Extensions(ctx context.Context) (ExtensionsResponse, error) {
	var body ExtensionsResponse
	if err := c.getJSON(ctx, c.baseURL, &body); err != nil {
		return ExtensionsResponse{}, err
	}

	if c.surface != "" {
		filtered := body.Extensions[:0]
		for _, ext := range body.Extensions {
			if extensionMatchesSurface(ext, c.surface) {
				filtered = append(filtered, ext)
			}
		}
		body.Extensions = filtered
	}
	return body, nil
}

// ExtensionByID fetches one extension's computed payload.
func (c *APIClient) ExtensionByID(ctx context.Context, id string) (ExtensionResponse, error) {
	var body ExtensionResponse
	if err := c.getJSON(ctx, c.baseURL+"/"+id, &body); err != nil {
		return ExtensionResponse{}, err
	}
	return body, nil
}

func (c *APIClient) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInvalidInput, "failed to build request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDeliveryFailure, "dev server request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		var remote struct {
			StatusMessage string `json:"statusMessage"`
		}
		_ = json.Unmarshal(raw, &remote)
		if remote.StatusMessage != "" {
			return errors.New(errors.ErrCodeDeliveryFailure, remote.StatusMessage).
				WithDetail("status", fmt.Sprintf("%d", resp.StatusCode))
		}
		return errors.New(errors.ErrCodeDeliveryFailure,
			fmt.Sprintf("dev server returned status %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.MalformedMessage(err)
	}
	return nil
}
