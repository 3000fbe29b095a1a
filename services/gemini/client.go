package geminisvc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/mwalimu/core"
	"github.com/trezcool/mwalimu/core/chat"
)

const serviceName = "gemini"

// maxBodySize caps how much of a response body is read.
const maxBodySize = 10 << 20

type Client struct {
	baseURL string
	http    *http.Client
}

var _ chat.Generator = (*Client)(nil)

func NewClient(conf core.GeminiConfig) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(conf.BaseURL, "/"),
		http:    &http.Client{Timeout: conf.Timeout},
	}
}

// GenerateContent calls POST {baseURL}/models/{model}:generateContent and returns the raw response body.
func (c *Client) GenerateContent(ctx context.Context, apiKey, model string, req chat.GenerateContentRequest) ([]byte, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "encoding request")
	}

	endpoint := c.baseURL + "/models/" + url.PathEscape(model) + ":generateContent?key=" + url.QueryEscape(apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "building request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(httpReq)
	if err != nil {
		// the URL carries the key
		if uErr, ok := err.(*url.Error); ok {
			return nil, errors.Wrap(uErr.Err, "calling "+serviceName)
		}
		return nil, errors.Wrap(err, "calling "+serviceName)
	}
	defer res.Body.Close()

	body, err := ioutil.ReadAll(io.LimitReader(res.Body, maxBodySize))
	if err != nil {
		return nil, errors.Wrap(err, "reading response")
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, core.NewUpstreamError(serviceName, res.StatusCode, body)
	}
	return body, nil
}
