// Package supabase implements the repositories on a hosted Supabase backend through its PostgREST API.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/mwalimu/core"
)

const (
	serviceName = "supabase"
	restPath    = "/rest/v1/"
	maxBodySize = 10 << 20
)

// Client talks to the PostgREST endpoint of one Supabase project with one API key.
type Client struct {
	baseURL string
	key     string
	http    *http.Client
}

func NewClient(baseURL, key string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		key:     key,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) URL() string {
	return c.baseURL
}

// do sends a request to table and decodes the JSON response into out when it is not nil.
func (c *Client) do(ctx context.Context, method, table string, query url.Values, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encoding request")
		}
		reqBody = bytes.NewReader(payload)
	}

	endpoint := c.baseURL + restPath + table
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		req.Header.Set("Prefer", "return=representation")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "calling "+serviceName)
	}
	defer res.Body.Close()

	data, err := ioutil.ReadAll(io.LimitReader(res.Body, maxBodySize))
	if err != nil {
		return errors.Wrap(err, "reading response")
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return core.NewUpstreamError(serviceName, res.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err = json.Unmarshal(data, out); err != nil {
		return errors.Wrap(err, "decoding response")
	}
	return nil
}

// call resolves the client of clients and sends the request with it.
func call(ctx context.Context, clients ClientSource, method, table string, query url.Values, body, out interface{}) error {
	c, err := clients.Client(ctx)
	if err != nil {
		return err
	}
	return c.do(ctx, method, table, query, body, out)
}

// Ping checks that the project answers with the configured key.
func (c *Client) Ping(ctx context.Context) error {
	query := url.Values{"select": {"id"}, "limit": {"1"}}
	var rows []json.RawMessage
	return c.do(ctx, http.MethodGet, kidsTable, query, nil, &rows)
}

// Ping checks the client clients currently resolve to.
func Ping(ctx context.Context, clients ClientSource) error {
	c, err := clients.Client(ctx)
	if err != nil {
		return err
	}
	return c.Ping(ctx)
}

// eq builds a PostgREST "equals" filter.
func eq(v string) string {
	return "eq." + v
}

// in builds a PostgREST "in list" filter.
func in(values []string) string {
	quoted := make([]string, 0, len(values))
	for _, v := range values {
		quoted = append(quoted, quote(v))
	}
	return "in.(" + strings.Join(quoted, ",") + ")"
}

// quote makes v safe to use inside PostgREST lists and logic trees.
func quote(v string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(v) + `"`
}
