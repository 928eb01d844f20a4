package readai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/acsdev/ragloader/internal/pkg/httpclient"
	"github.com/acsdev/ragloader/loader"
)

const defaultBaseURL = "https://api.read.ai"

// Read.AI has no public API; these are the endpoints the web app uses,
// which is why the requests carry browser-like headers.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

// client talks to the Read.AI backend with the access token obtained
// from the email/password login
type client struct {
	http        *httpclient.Client
	baseURL     string
	accessToken string
}

func newClient(http *httpclient.Client, baseURL string) *client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &client{http: http, baseURL: baseURL}
}

// authenticate logs in with email and password. The access token comes
// back as a cookie, not in the response body.
func (c *client) authenticate(ctx context.Context, email, password string) error {
	payload, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
		"action":   "email",
	})
	if err != nil {
		return fmt.Errorf("marshal login payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/login/read", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", loader.ErrSourceUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: login returned status %d", loader.ErrUnauthorized, resp.StatusCode)
	}

	for _, cookie := range resp.Cookies() {
		if cookie.Name == "access_token" && cookie.Value != "" {
			c.accessToken = cookie.Value
			return nil
		}
	}

	return fmt.Errorf("%w: login response carried no access_token cookie", loader.ErrUnauthorized)
}

func (c *client) headers() map[string]string {
	return map[string]string{
		"accept":          "*/*",
		"accept-language": "en-US,en;q=0.9,de-DE;q=0.8,de;q=0.7",
		"authorization":   "Bearer " + c.accessToken,
		"origin":          "https://app.read.ai",
		"referer":         "https://app.read.ai/",
		"user-agent":      browserUserAgent,
	}
}

// listSessionIDs returns all meeting session ids, oldest window first
func (c *client) listSessionIDs(ctx context.Context) ([]string, error) {
	params := map[string]string{
		"start_date": time.Unix(0, 0).UTC().Format("2006-01-02T15:04:05"),
		"end_date":   time.Now().UTC().Add(24 * time.Hour).Format("2006-01-02T15:04:05"),
	}

	body, err := c.http.GetJSON(ctx, c.baseURL+"/sessions", c.headers(), params)
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, session := range gjson.ParseBytes(body).Array() {
		ids = append(ids, session.Get("id").String())
	}
	return ids, nil
}

// session fetches the meeting metadata document
func (c *client) session(ctx context.Context, sessionID string) (gjson.Result, error) {
	return c.get(ctx, fmt.Sprintf("%s/sessions/%s", c.baseURL, sessionID))
}

// transcript fetches the transcript document (turns, summary, action
// items, key questions)
func (c *client) transcript(ctx context.Context, sessionID string) (gjson.Result, error) {
	return c.get(ctx, fmt.Sprintf("%s/sessions/%s/transcript", c.baseURL, sessionID))
}

// postCall fetches the post-call metrics document (participants)
func (c *client) postCall(ctx context.Context, sessionID string) (gjson.Result, error) {
	return c.get(ctx, fmt.Sprintf("%s/sessions/%s/metrics/post-call", c.baseURL, sessionID))
}

func (c *client) get(ctx context.Context, url string) (gjson.Result, error) {
	body, err := c.http.GetJSON(ctx, url, c.headers(), nil)
	if err != nil {
		return gjson.Result{}, err
	}
	return gjson.ParseBytes(body), nil
}
