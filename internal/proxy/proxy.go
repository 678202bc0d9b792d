// Package proxy translates store operations into requests against the
// product REST endpoint and decodes its {success, data} envelopes.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"productdesk/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrRequestFailed is wrapped by every error caused by a rejected or failed request.
var ErrRequestFailed = errors.New("request failed")

// Config configures a REST proxy.
type Config struct {
	URL     string        // collection endpoint, e.g. http://localhost:8080/api/products
	Timeout time.Duration // 0 means no timeout
}

// REST is a store.Proxy talking JSON to a single collection endpoint.
type REST struct {
	httpClient *http.Client
	url        string
	logger     *zap.Logger
}

var _ store.Proxy = (*REST)(nil)

// New creates a REST proxy.
func New(cfg Config, logger *zap.Logger) (*REST, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("proxy URL is required")
	}
	if _, err := url.ParseRequestURI(cfg.URL); err != nil {
		return nil, fmt.Errorf("invalid proxy URL: %w", err)
	}
	return &REST{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		url:        strings.TrimRight(cfg.URL, "/"),
		logger:     logger.Named("proxy"),
	}, nil
}

// BuildURL returns the request URL for action. Update and destroy address the record by id.
func (p *REST) BuildURL(action store.Action, record *store.Record) string {
	if record != nil && record.ID != nil && (action == store.ActionUpdate || action == store.ActionDestroy) {
		return p.url + "/" + strconv.FormatInt(*record.ID, 10)
	}
	return p.url
}

// Read lists every product.
func (p *REST) Read(ctx context.Context) ([]store.Record, error) {
	var records []store.Record
	if err := p.do(ctx, store.ActionRead, p.BuildURL(store.ActionRead, nil), nil, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []store.Record{}
	}
	return records, nil
}

// Get fetches one product by id.
func (p *REST) Get(ctx context.Context, id int64) (store.Record, error) {
	var record store.Record
	err := p.do(ctx, store.ActionRead, p.url+"/"+strconv.FormatInt(id, 10), nil, &record)
	return record, err
}

// Create posts record without its id and returns the server's copy, or nil when the
// response carried no data.
func (p *REST) Create(ctx context.Context, record store.Record) (*store.Record, error) {
	var saved *store.Record
	if err := p.do(ctx, store.ActionCreate, p.BuildURL(store.ActionCreate, &record), newCreatePayload(record), &saved); err != nil {
		return nil, err
	}
	return saved, nil
}

// Update puts the full record, id included, to the record's URL. Like Create it returns nil
// when the response carried no data.
func (p *REST) Update(ctx context.Context, record store.Record) (*store.Record, error) {
	if record.ID == nil {
		return nil, fmt.Errorf("update needs a persisted record: %w", ErrRequestFailed)
	}
	var saved *store.Record
	if err := p.do(ctx, store.ActionUpdate, p.BuildURL(store.ActionUpdate, &record), newUpdatePayload(record), &saved); err != nil {
		return nil, err
	}
	return saved, nil
}

// Destroy deletes the record at its URL.
func (p *REST) Destroy(ctx context.Context, record store.Record) error {
	if record.ID == nil {
		return fmt.Errorf("destroy needs a persisted record: %w", ErrRequestFailed)
	}
	return p.do(ctx, store.ActionDestroy, p.BuildURL(store.ActionDestroy, &record), nil, nil)
}

// createPayload has no id field: the server assigns it.
type createPayload struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Price       json.Number `json:"price"`
	Quantity    int         `json:"quantity"`
}

type updatePayload struct {
	ID int64 `json:"id"`
	createPayload
}

func newCreatePayload(r store.Record) createPayload {
	return createPayload{
		Name:        r.Name,
		Description: r.Description,
		Price:       priceNumber(r.Price),
		Quantity:    r.Quantity,
	}
}

func newUpdatePayload(r store.Record) updatePayload {
	return updatePayload{ID: *r.ID, createPayload: newCreatePayload(r)}
}

func priceNumber(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

// envelope is the response shape of every endpoint.
type envelope struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

func (p *REST) do(ctx context.Context, action store.Action, target string, body interface{}, out interface{}) error {
	method := action.Method()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling %s body: %w", action, err)
		}
		p.logger.Debug("request body", zap.String("action", string(action)), zap.ByteString("body", raw))
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("creating %s request: %w", action, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w: %v", method, target, ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: reading response: %w: %v", method, target, ErrRequestFailed, err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := http.StatusText(resp.StatusCode)
		if decodeErr == nil && env.Message != "" {
			msg = env.Message
		}
		return fmt.Errorf("%s %s: %w: status %d: %s", method, target, ErrRequestFailed, resp.StatusCode, msg)
	}
	if decodeErr != nil {
		return fmt.Errorf("%s %s: %w: invalid response: %v", method, target, ErrRequestFailed, decodeErr)
	}
	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = "server reported failure"
		}
		return fmt.Errorf("%s %s: %w: %s", method, target, ErrRequestFailed, msg)
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%s %s: %w: decoding data: %v", method, target, ErrRequestFailed, err)
		}
	}
	return nil
}
