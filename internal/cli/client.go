package cli

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/AtlasOS/backend/internal/domain/session"
	"github.com/GriffinCanCode/AtlasOS/backend/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/AtlasOS/backend/internal/shared/types"
)

// StatusError is returned for a non-2xx HTTP response
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Code, strings.TrimSpace(e.Body))
}

// ClientOptions tunes the kernel client
type ClientOptions struct {
	Timeout time.Duration
	// RPS caps outgoing requests; zero means unlimited
	RPS float64
}

// DefaultClientOptions returns the standard client settings
func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		Timeout: 5 * time.Second,
		RPS:     5,
	}
}

// Client talks to a running kernel over HTTP and the stream socket
type Client struct {
	resty   *resty.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	dialer  *websocket.Dialer
	stream  string
}

// NewClient creates a client for the server at baseURL
func NewClient(baseURL string, opts ClientOptions) (*Client, error) {
	stream, err := streamURL(baseURL)
	if err != nil {
		return nil, err
	}

	restyClient := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(opts.Timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200*time.Millisecond).
		SetRetryMaxWaitTime(time.Second).
		SetHeader("User-Agent", "atlasctl/1.0").
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RPS), max(1, int(opts.RPS)))
	}

	breaker := resilience.New("atlas-server", resilience.Settings{
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		// Client errors mean the server is up
		IsSuccessful: func(err error) bool {
			var se *StatusError
			return errors.As(err, &se) && se.Code < 500
		},
	})

	return &Client{
		resty:   restyClient,
		limiter: limiter,
		breaker: breaker,
		dialer:  &websocket.Dialer{HandshakeTimeout: opts.Timeout},
		stream:  stream,
	}, nil
}

// Breaker exposes the client's circuit breaker
func (c *Client) Breaker() *resilience.Breaker {
	return c.breaker
}

// Status fetches the one-line system summary
func (c *Client) Status(ctx context.Context) (*types.StatusSummary, error) {
	var out types.StatusSummary
	if err := c.get(ctx, "/api/status", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// State fetches a full snapshot
func (c *Client) State(ctx context.Context) (*types.Snapshot, error) {
	var out types.Snapshot
	if err := c.get(ctx, "/api/state", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Send delivers one command frame over the stream socket
func (c *Client) Send(ctx context.Context, cmd session.Command) error {
	frame, err := session.EncodeCommand(cmd)
	if err != nil {
		return fmt.Errorf("encode command: %w", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	return c.breaker.Do(func() error {
		ws, _, err := c.dialer.DialContext(ctx, c.stream, nil)
		if err != nil {
			return fmt.Errorf("dial %s: %w", c.stream, err)
		}
		defer ws.Close()

		if err := ws.WriteMessage(websocket.TextMessage, frame); err != nil {
			return fmt.Errorf("write command: %w", err)
		}

		closing := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		deadline := time.Now().Add(time.Second)
		if err := ws.WriteControl(websocket.CloseMessage, closing, deadline); err != nil {
			return fmt.Errorf("close stream: %w", err)
		}

		// Drain pushed snapshots until the server echoes the close
		_ = ws.SetReadDeadline(deadline)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return nil
			}
		}
	})
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	return c.breaker.Do(func() error {
		resp, err := c.resty.R().
			SetContext(ctx).
			SetResult(out).
			Get(path)
		if err != nil {
			return fmt.Errorf("GET %s: %w", path, err)
		}
		if resp.IsError() {
			return &StatusError{Code: resp.StatusCode(), Body: resp.String()}
		}
		return nil
	})
}

// streamURL maps an http(s) base URL onto its ws(s) stream endpoint
func streamURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid server url %q: %w", base, err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("invalid server url %q: scheme must be http or https", base)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid server url %q: missing host", base)
	}

	u.Path = strings.TrimRight(u.Path, "/") + "/stream"
	u.RawQuery = ""
	return u.String(), nil
}
