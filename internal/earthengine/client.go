package earthengine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/verdant-research/canopy-cli/internal/properties"
	"golang.org/x/oauth2/clientcredentials"
)

// Client is the handle for the hosted Earth Engine analytics service. All
// remote calls go through an explicit client; there is no package-level
// session state.
type Client struct {
	httpClient *http.Client
	baseURL    string
	project    string
	retries    int
	retryWait  time.Duration
}

// NewClient builds a client authenticated with OAuth2 client credentials
// taken from the environment.
func NewClient(ctx context.Context) (*Client, error) {
	clientID := properties.EarthEngineClientID()
	clientSecret := properties.EarthEngineClientSecret()
	tokenURL := properties.EarthEngineTokenURL()
	project := properties.EarthEngineProject()

	if clientID == "" || clientSecret == "" || tokenURL == "" || project == "" {
		return nil, fmt.Errorf("missing required environment variables: EARTHENGINE_CLIENT_ID, EARTHENGINE_CLIENT_SECRET, EARTHENGINE_TOKEN_URL, or EARTHENGINE_PROJECT")
	}

	config := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
	}

	return &Client{
		httpClient: config.Client(ctx),
		baseURL:    properties.EarthEngineBaseURL(),
		project:    project,
		retries:    5,
		retryWait:  5 * time.Second,
	}, nil
}

// NewClientWithHTTP builds a client around an existing HTTP client, for
// callers that manage authentication themselves.
func NewClientWithHTTP(httpClient *http.Client, baseURL, project string) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		project:    project,
		retries:    5,
		retryWait:  5 * time.Second,
	}
}

func (c *Client) projectPath(suffix string) string {
	return fmt.Sprintf("/projects/%s/%s", c.project, suffix)
}

func (c *Client) postJSON(ctx context.Context, path string, payload interface{}, accept string) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %v", err)
	}

	var lastErr error
	for attempt := 1; attempt <= c.retries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %v", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if accept != "" {
			req.Header.Set("Accept", accept)
		}

		data, retry, err := c.do(req)
		if err == nil {
			return data, nil
		}
		if !retry {
			return nil, err
		}
		lastErr = err
		fmt.Printf("Attempt %d failed: %v\n", attempt, err)
		time.Sleep(c.retryWait)
	}

	return nil, fmt.Errorf("request to %s failed after %d attempts: %v", path, c.retries, lastErr)
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	var lastErr error
	for attempt := 1; attempt <= c.retries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return fmt.Errorf("failed to build request: %v", err)
		}
		req.Header.Set("Accept", "application/json")

		data, retry, err := c.do(req)
		if err == nil {
			if err := json.Unmarshal(data, out); err != nil {
				return fmt.Errorf("failed to parse response from %s: %v", path, err)
			}
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
		fmt.Printf("Attempt %d failed: %v\n", attempt, err)
		time.Sleep(c.retryWait)
	}

	return fmt.Errorf("request to %s failed after %d attempts: %v", path, c.retries, lastErr)
}

// do runs one request. The second return reports whether the failure is
// worth retrying; auth failures are not.
func (c *Client) do(req *http.Request) ([]byte, bool, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("failed to read response body: %v", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return data, false, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, false, fmt.Errorf("unauthorized access (%d), check your client ID and secret", resp.StatusCode)
	default:
		return nil, true, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncateBody(data))
	}
}

// Download fetches the bytes behind a one-shot URL handed out by the
// service, e.g. a rendered thumbnail or video.
func (c *Client) Download(ctx context.Context, downloadURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build download request: %v", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %v", downloadURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("download failed with status %d: %s", resp.StatusCode, truncateBody(body))
	}

	return io.ReadAll(resp.Body)
}

func truncateBody(data []byte) string {
	const limit = 300
	body := strings.TrimSpace(string(data))
	if len(body) > limit {
		return body[:limit] + "..."
	}
	return body
}
