package transport

import (
	"encoding/json"
	"encoding/xml"
	"io"
	"net/http"

	"github.com/agentstation/gamemeta/pkg/errors"
	"github.com/agentstation/gamemeta/pkg/logging"
)

// maxErrorBody bounds how much of a failed response body ends up in an error.
const maxErrorBody = 512

// ReadBody reads and closes the response body. Non-2xx statuses are returned
// as *errors.APIError carrying the status code.
func ReadBody(provider string, resp *http.Response) ([]byte, error) {
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Warn().Err(err).Str("source", provider).Msg("Failed to close response body")
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.WrapTransport(provider, endpoint(resp.Request), err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg := string(body)
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &errors.APIError{
			Provider:   provider,
			StatusCode: resp.StatusCode,
			Message:    msg,
			Endpoint:   endpoint(resp.Request),
		}
	}
	return body, nil
}

// DecodeJSON decodes a JSON response into target.
func DecodeJSON(provider string, resp *http.Response, target any) error {
	body, err := ReadBody(provider, resp)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, target); err != nil {
		return errors.WrapParse("json", provider+" response", err)
	}
	return nil
}

// DecodeXML decodes an XML response into target.
func DecodeXML(provider string, resp *http.Response, target any) error {
	body, err := ReadBody(provider, resp)
	if err != nil {
		return err
	}
	if err := xml.Unmarshal(body, target); err != nil {
		return errors.WrapParse("xml", provider+" response", err)
	}
	return nil
}
