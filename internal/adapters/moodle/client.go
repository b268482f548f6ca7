// Package moodle is a small client for the Moodle web-service REST protocol
package moodle

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	perr "rollcall/internal/platform/errors"
	"rollcall/internal/platform/logger"
)

const (
	restPath       = "/webservice/rest/server.php"
	defaultTimeout = 30 * time.Second
	defaultUA      = "rollcall-monitor"
	maxBody        = 8 << 20
)

// ErrInvalidToken is wrapped into errors caused by a rejected web-service token
var ErrInvalidToken = perr.Unauthorizedf("moodle rejected the web-service token")

// Options configures the Client
type Options struct {
	BaseURL   string
	Token     string
	UserAgent string
	Timeout   time.Duration

	// HTTPClient overrides the transport, mostly for tests
	HTTPClient *http.Client
}

// Client calls Moodle web-service functions over REST with JSON responses
type Client struct {
	http     *http.Client
	opts     Options
	endpoint string
	log      logger.Logger
	now      func() time.Time
}

// NewClient validates o and returns a Client
func NewClient(o Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(o.BaseURL), "/")
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, perr.WithField(perr.InvalidArgf("moodle base url %q is not absolute", o.BaseURL), "SERVICE_MOODLE_URL")
	}
	if strings.TrimSpace(o.Token) == "" {
		return nil, perr.WithField(perr.InvalidArgf("moodle token is empty"), "SERVICE_MOODLE_TOKEN")
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	hc := o.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: o.Timeout}
	}
	o.BaseURL = base
	return &Client{
		http:     hc,
		opts:     o,
		endpoint: base + restPath,
		log:      *logger.Named("moodle"),
		now:      time.Now,
	}, nil
}

// Endpoint returns the REST endpoint the client calls
func (c *Client) Endpoint() string { return c.endpoint }

// exception is the envelope Moodle returns instead of a result on failure
type exception struct {
	Exception string `json:"exception"`
	ErrorCode string `json:"errorcode"`
	Message   string `json:"message"`
}

// call invokes wsfunction with params and decodes the JSON result into out.
// Every failure is reported as source unavailable
func (c *Client) call(ctx context.Context, function string, params url.Values, out any) error {
	q := url.Values{}
	for k, vs := range params {
		q[k] = vs
	}
	q.Set("wstoken", c.opts.Token)
	q.Set("wsfunction", function)
	q.Set("moodlewsrestformat", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeSourceUnavailable, "moodle new request failed")
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "application/json")

	start := c.now()
	resp, err := c.http.Do(req)
	lat := c.now().Sub(start)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return perr.Wrapf(ctxErr, perr.ErrorCodeSourceUnavailable, "moodle %s cancelled", function)
		}
		return perr.Wrapf(scrub(err), perr.ErrorCodeSourceUnavailable, "moodle %s transport failed", function)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Error().Err(cerr).Str("function", function).Msg("moodle close body failed")
		}
	}()

	c.log.Debug().
		Str("function", function).
		Int("status", resp.StatusCode).
		Dur("latency", lat).
		Msg("moodle http response")

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeSourceUnavailable, "moodle %s read failed", function)
	}
	if resp.StatusCode != http.StatusOK {
		return perr.Newf(perr.ErrorCodeSourceUnavailable, "moodle %s unexpected status %d body %s",
			function, resp.StatusCode, tail(body))
	}

	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "{") {
		var ex exception
		if json.Unmarshal(body, &ex) == nil && ex.Exception != "" {
			return exceptionErr(function, ex)
		}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return perr.Wrapf(perr.Wrap(err, perr.ErrorCodeJSON, "moodle json decode failed"),
			perr.ErrorCodeSourceUnavailable, "moodle %s returned undecodable body", function)
	}
	return nil
}

func exceptionErr(function string, ex exception) error {
	switch ex.ErrorCode {
	case "invalidtoken", "accessexception", "servicerequireslogin":
		return perr.Wrapf(ErrInvalidToken, perr.ErrorCodeSourceUnavailable,
			"moodle %s: %s (%s)", function, ex.Message, ex.ErrorCode)
	}
	return perr.Newf(perr.ErrorCodeSourceUnavailable, "moodle %s exception %s: %s (%s)",
		function, ex.Exception, ex.Message, ex.ErrorCode)
}

// scrub strips the query string (which carries the token) from url errors
func scrub(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		if u, pe := url.Parse(ue.URL); pe == nil {
			u.RawQuery = ""
			return &url.Error{Op: ue.Op, URL: u.String(), Err: ue.Err}
		}
	}
	return err
}

func tail(b []byte) string {
	const n = 512
	if len(b) > n {
		b = b[:n]
	}
	return strconv.Quote(string(b))
}
