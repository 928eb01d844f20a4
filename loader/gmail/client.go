package gmail

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/acsdev/ragloader/internal/pkg/httpclient"
)

const defaultBaseURL = "https://gmail.googleapis.com/gmail/v1"

// tokenSource yields a valid access token for each API call
type tokenSource interface {
	GetAccessToken(ctx context.Context) (string, error)
}

// apiClient is a minimal Gmail REST API client covering the endpoints
// the loader needs: message listing and message retrieval.
type apiClient struct {
	http    *httpclient.Client
	tokens  tokenSource
	baseURL string
}

func newAPIClient(http *httpclient.Client, tokens tokenSource, baseURL string) *apiClient {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &apiClient{http: http, tokens: tokens, baseURL: baseURL}
}

func (c *apiClient) authHeaders(ctx context.Context) (map[string]string, error) {
	token, err := c.tokens.GetAccessToken(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]string{"Authorization": "Bearer " + token}, nil
}

// listMessages returns all message ids matching the Gmail search query,
// following nextPageToken until the listing is exhausted
func (c *apiClient) listMessages(ctx context.Context, query string) ([]string, error) {
	headers, err := c.authHeaders(ctx)
	if err != nil {
		return nil, err
	}

	var ids []string
	pageToken := ""
	for {
		params := map[string]string{}
		if query != "" {
			params["q"] = query
		}
		if pageToken != "" {
			params["pageToken"] = pageToken
		}

		body, err := c.http.GetJSON(ctx, c.baseURL+"/users/me/messages", headers, params)
		if err != nil {
			return nil, err
		}

		for _, msg := range gjson.GetBytes(body, "messages").Array() {
			ids = append(ids, msg.Get("id").String())
		}

		pageToken = gjson.GetBytes(body, "nextPageToken").String()
		if pageToken == "" {
			break
		}
	}

	return ids, nil
}

// rawMessage is one message fetched with format=raw
type rawMessage struct {
	ID           string
	Raw          string // base64url-encoded RFC 822 message
	InternalDate int64  // epoch milliseconds
}

// getRaw fetches the full RFC 822 message
func (c *apiClient) getRaw(ctx context.Context, id string) (*rawMessage, error) {
	headers, err := c.authHeaders(ctx)
	if err != nil {
		return nil, err
	}

	body, err := c.http.GetJSON(ctx,
		fmt.Sprintf("%s/users/me/messages/%s", c.baseURL, id),
		headers, map[string]string{"format": "raw"})
	if err != nil {
		return nil, err
	}

	return &rawMessage{
		ID:           id,
		Raw:          gjson.GetBytes(body, "raw").String(),
		InternalDate: gjson.GetBytes(body, "internalDate").Int(),
	}, nil
}

// getHeaders fetches only the payload headers (format=metadata) and
// returns them as a name->value map
func (c *apiClient) getHeaders(ctx context.Context, id string) (map[string]string, error) {
	authHeaders, err := c.authHeaders(ctx)
	if err != nil {
		return nil, err
	}

	body, err := c.http.GetJSON(ctx,
		fmt.Sprintf("%s/users/me/messages/%s", c.baseURL, id),
		authHeaders, map[string]string{"format": "metadata"})
	if err != nil {
		return nil, err
	}

	headers := make(map[string]string)
	for _, h := range gjson.GetBytes(body, "payload.headers").Array() {
		headers[h.Get("name").String()] = h.Get("value").String()
	}
	return headers, nil
}
