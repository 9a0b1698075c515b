package hltb

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/agentstation/gamemeta/internal/transport"
	"github.com/agentstation/gamemeta/pkg/errors"
)

func (c *Client) encode(body searchRequest) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, errors.WrapParse("json", "hltb request", err)
	}
	return payload, nil
}

// newRequest builds the search POST with the headers the site checks.
func (c *Client) newRequest(ctx context.Context, payload []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, transport.URL(c.baseURL, "/api/search", nil), bytes.NewReader(payload))
	if err != nil {
		return nil, errors.WrapResource("create", "request", "hltb search", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", c.baseURL)
	req.Header.Set("Referer", c.baseURL+"/")
	return req, nil
}
