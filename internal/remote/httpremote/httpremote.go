// Package httpremote is the cloud adapter: REST calls against the document
// store for reads and writes, websockets for live snapshots.
package httpremote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/Makepad-fr/tada/internal/docstore/api"
	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/remote"
)

type Option func(*Client)

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithTimeout bounds every REST call. There is no timeout by default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.rc.SetTimeout(d) }
}

// WithHTTPClient replaces the transport, e.g. for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.rc = resty.NewWithClient(hc).SetBaseURL(c.base).SetAuthToken(c.token).
			SetHeader("Accept", "application/json")
	}
}

// WithReconnect sets the backoff used between watch reconnects.
func WithReconnect(next func() backoff.BackOff) Option {
	return func(c *Client) { c.newBackOff = next }
}

// Client talks to one document store as one user. The token's subject picks
// the user; there is no user id in any path.
type Client struct {
	base       string
	token      string
	rc         *resty.Client
	dialer     *websocket.Dialer
	log        zerolog.Logger
	newBackOff func() backoff.BackOff
}

var _ remote.Collection = (*Client)(nil)
var _ remote.BatchWriter = (*Client)(nil)

func New(baseURL, token string, opts ...Option) *Client {
	base := strings.TrimRight(baseURL, "/")
	c := &Client{
		base:  base,
		token: token,
		rc: resty.New().
			SetBaseURL(base).
			SetAuthToken(token).
			SetHeader("Accept", "application/json"),
		dialer: &websocket.Dialer{HandshakeTimeout: 15 * time.Second},
		log:    zerolog.Nop(),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxInterval = 30 * time.Second
			b.MaxElapsedTime = 0
			return b
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) ReadAll(ctx context.Context) ([]model.Item, error) {
	var items []model.Item
	resp, err := c.rc.R().SetContext(ctx).SetResult(&items).Get(api.PathTodos)
	if err := check(resp, err); err != nil {
		return nil, &remote.ReadError{Op: remote.OpRead, Err: err}
	}
	if items == nil {
		items = []model.Item{}
	}
	return items, nil
}

func (c *Client) WriteOne(ctx context.Context, it model.Item) error {
	resp, err := c.rc.R().SetContext(ctx).
		SetPathParam("id", it.ID).
		SetHeader("Content-Type", "application/json").
		SetBody(it).
		Put(api.PathTodo)
	if err := check(resp, err); err != nil {
		return &remote.WriteError{Op: remote.OpWrite, ID: it.ID, Err: err}
	}
	return nil
}

func (c *Client) UpdateFields(ctx context.Context, id string, p remote.Patch) error {
	resp, err := c.rc.R().SetContext(ctx).
		SetPathParam("id", id).
		SetHeader("Content-Type", "application/json").
		SetBody(p).
		Patch(api.PathTodo)
	if err := check(resp, err); err != nil {
		return &remote.WriteError{Op: remote.OpUpdate, ID: id, Err: err}
	}
	return nil
}

func (c *Client) DeleteOne(ctx context.Context, id string) error {
	resp, err := c.rc.R().SetContext(ctx).SetPathParam("id", id).Delete(api.PathTodo)
	if err := check(resp, err); err != nil {
		return &remote.WriteError{Op: remote.OpDelete, ID: id, Err: err}
	}
	return nil
}

func (c *Client) ReadCategories(ctx context.Context) ([]string, error) {
	var doc api.CategoriesDoc
	resp, err := c.rc.R().SetContext(ctx).SetResult(&doc).Get(api.PathCategories)
	if err := check(resp, err); err != nil {
		return nil, &remote.ReadError{Op: remote.OpReadCategories, Err: err}
	}
	return doc.List, nil
}

func (c *Client) WriteCategories(ctx context.Context, labels []string) error {
	if labels == nil {
		labels = []string{}
	}
	resp, err := c.rc.R().SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(api.CategoriesDoc{List: labels}).
		Put(api.PathCategories)
	if err := check(resp, err); err != nil {
		return &remote.WriteError{Op: remote.OpWriteCategories, Err: err}
	}
	return nil
}

func (c *Client) WriteBatch(ctx context.Context, items []model.Item, labels []string) error {
	resp, err := c.rc.R().SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(api.BatchRequest{Items: items, Categories: labels}).
		Post(api.PathBatch)
	if err := check(resp, err); err != nil {
		return &remote.WriteError{Op: remote.OpBatch, Err: err}
	}
	return nil
}

// Subscribe opens the todos watch socket. The first dial happens before it
// returns; later drops reconnect with backoff until the subscription is
// released or the server rejects the token.
func (c *Client) Subscribe(ctx context.Context, h remote.ItemsHandler) (remote.Unsubscribe, error) {
	return c.watch(ctx, api.PathTodosWatch, func(msg []byte) {
		var f api.ItemsFrame
		if err := json.Unmarshal(msg, &f); err != nil {
			h(nil, &remote.ReadError{Op: remote.OpSubscribe, Err: fmt.Errorf("decode frame: %w", err)})
			return
		}
		if f.Error != "" {
			h(nil, &remote.ReadError{Op: remote.OpSubscribe, Err: errors.New(f.Error)})
			return
		}
		h(f.Items, nil)
	}, func(err error) { h(nil, err) })
}

func (c *Client) SubscribeCategories(ctx context.Context, h remote.CategoriesHandler) (remote.Unsubscribe, error) {
	return c.watch(ctx, api.PathCategoriesWatch, func(msg []byte) {
		var f api.CategoriesFrame
		if err := json.Unmarshal(msg, &f); err != nil {
			h(nil, &remote.ReadError{Op: remote.OpSubscribe, Err: fmt.Errorf("decode frame: %w", err)})
			return
		}
		if f.Error != "" {
			h(nil, &remote.ReadError{Op: remote.OpSubscribe, Err: errors.New(f.Error)})
			return
		}
		h(f.List, nil)
	}, func(err error) { h(nil, err) })
}

// check folds transport errors and non-2xx replies into one error.
func check(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if !resp.IsError() {
		return nil
	}
	return statusError(resp.StatusCode(), resp.Body())
}

func statusError(code int, body []byte) error {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return remote.ErrUnauthorized
	case http.StatusNotFound:
		return remote.ErrNotFound
	}
	var er api.ErrorResponse
	if json.Unmarshal(body, &er) == nil && er.Message != "" {
		return fmt.Errorf("status %d: %s", code, er.Message)
	}
	return fmt.Errorf("status %d", code)
}

func (c *Client) wsURL(path string) (string, error) {
	u, err := url.Parse(c.base + path)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	return u.String(), nil
}

func (c *Client) dial(ctx context.Context, path string) (*websocket.Conn, error) {
	u, err := c.wsURL(path)
	if err != nil {
		return nil, err
	}
	hdr := http.Header{}
	hdr.Set("Authorization", "Bearer "+c.token)
	conn, resp, err := c.dialer.DialContext(ctx, u, hdr)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
				return nil, remote.ErrUnauthorized
			}
			return nil, fmt.Errorf("dial %s: status %d", path, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", path, err)
	}
	return conn, nil
}

func (c *Client) watch(parent context.Context, path string, onFrame func([]byte), onFail func(error)) (remote.Unsubscribe, error) {
	ctx, cancel := context.WithCancel(parent)
	conn, err := c.dial(ctx, path)
	if err != nil {
		cancel()
		return nil, &remote.ReadError{Op: remote.OpSubscribe, Err: err}
	}
	log := c.log.With().Str("watch", path).Logger()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			pump(ctx, conn, onFrame)
			if ctx.Err() != nil {
				return
			}
			log.Warn().Msg("watch dropped; reconnecting")

			var next *websocket.Conn
			op := func() error {
				cn, err := c.dial(ctx, path)
				if errors.Is(err, remote.ErrUnauthorized) {
					return backoff.Permanent(err)
				}
				if err != nil {
					return err
				}
				next = cn
				return nil
			}
			notify := func(err error, wait time.Duration) {
				log.Debug().Err(err).Dur("retry_in", wait).Msg("reconnect failed")
			}
			if err := backoff.RetryNotify(op, backoff.WithContext(c.newBackOff(), ctx), notify); err != nil {
				if ctx.Err() == nil {
					log.Error().Err(err).Msg("watch stopped")
					onFail(&remote.ReadError{Op: remote.OpSubscribe, Err: err})
				}
				return
			}
			conn = next
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}, nil
}

// pump delivers frames from conn until it fails or ctx ends, then closes it.
func pump(ctx context.Context, conn *websocket.Conn, onFrame func([]byte)) {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stop:
		}
	}()
	defer conn.Close()
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if ctx.Err() != nil {
			return
		}
		onFrame(msg)
	}
}
