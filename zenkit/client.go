// Package zenkit is the runtime used by zkgen-generated code and by the
// generator itself: a small Zenkit REST client plus the wire types it
// exchanges.
//
// Generated packages never hold a global client. Every list accessor and
// builder is created from an explicit *Client.
package zenkit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// DefaultEndpoint is the Zenkit API base URL.
const DefaultEndpoint = "https://zenkit.com/api/v1"

// ItemURLBase prefixes "<list short id>/<item short id>/" to form the web
// URL of an item.
const ItemURLBase = "https://base.zenkit.com/i/"

// TokenEnv is the environment variable holding the API token.
const TokenEnv = "ZENKIT_API_TOKEN"

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNoToken      = errors.New("missing API token")
)

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Message    string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("zenkit %s %s: status %d", e.Method, e.Path, e.StatusCode)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Config configures a Client.
type Config struct {
	Token    string
	Endpoint string
	Timeout  time.Duration
	RetryMax int
	Logger   *zap.Logger

	// HTTPClient replaces the retrying transport entirely.
	HTTPClient *http.Client
}

// Client talks to one Zenkit API endpoint.
type Client struct {
	endpoint string
	token    string
	http     *http.Client
	log      *zap.SugaredLogger
}

// leveledZap adapts zap to retryablehttp. Errors are demoted to warnings
// because a failed attempt is usually retried.
type leveledZap struct {
	inner *zap.SugaredLogger
}

func (l leveledZap) Error(msg string, keysAndValues ...any) { l.inner.Warnw(msg, keysAndValues...) }
func (l leveledZap) Warn(msg string, keysAndValues ...any)  { l.inner.Warnw(msg, keysAndValues...) }
func (l leveledZap) Info(msg string, keysAndValues ...any)  { l.inner.Debugw(msg, keysAndValues...) }
func (l leveledZap) Debug(msg string, keysAndValues ...any) { l.inner.Debugw(msg, keysAndValues...) }

// NewClient returns a client for cfg. The token is required.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, errors.WithHint(ErrNoToken, "set "+TokenEnv+" or pass a token")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sugar := logger.Sugar().Named("zenkit")

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	endpoint = strings.TrimRight(endpoint, "/")

	hc := cfg.HTTPClient
	if hc == nil {
		rc := retryablehttp.NewClient()
		rc.RetryMax = 3
		if cfg.RetryMax > 0 {
			rc.RetryMax = cfg.RetryMax
		}
		rc.RetryWaitMin = 1 * time.Second
		rc.RetryWaitMax = 10 * time.Second
		rc.Logger = retryablehttp.LeveledLogger(leveledZap{sugar})
		hc = rc.StandardClient()
		hc.Timeout = 30 * time.Second
		if cfg.Timeout > 0 {
			hc.Timeout = cfg.Timeout
		}
	}

	return &Client{
		endpoint: endpoint,
		token:    cfg.Token,
		http:     hc,
		log:      sugar,
	}, nil
}

// Logger returns the client's logger. Generated code reports non-fatal
// decode problems through it.
func (c *Client) Logger() *zap.SugaredLogger {
	return c.log
}

// Workspaces lists the workspaces visible to the token, with their lists.
func (c *Client) Workspaces(ctx context.Context) ([]Workspace, error) {
	var out []Workspace
	if err := c.do(ctx, http.MethodGet, "/users/me/workspacesWithLists", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Workspace finds a workspace by name, numeric id or uuid.
func (c *Client) Workspace(ctx context.Context, ident string) (*Workspace, error) {
	all, err := c.Workspaces(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if MatchesWorkspace(&all[i], ident) {
			return &all[i], nil
		}
	}
	return nil, errors.Wrapf(ErrNotFound, "workspace %q", ident)
}

// MatchesWorkspace reports whether ident names ws by name, id or uuid.
func MatchesWorkspace(ws *Workspace, ident string) bool {
	if ws.Name == ident || ws.UUID == ident {
		return true
	}
	id, err := strconv.ParseUint(ident, 10, 64)
	return err == nil && ID(id) == ws.ID
}

// ListInfo fetches a list's metadata and elements. workspaceID is checked
// against the list when the API reports it.
func (c *Client) ListInfo(ctx context.Context, workspaceID ID, listUUID string) (*ListInfo, error) {
	var info ListInfo
	path := "/lists/" + url.PathEscape(listUUID)
	if err := c.do(ctx, http.MethodGet, path, nil, &info.List); err != nil {
		return nil, err
	}
	if info.List.WorkspaceID != 0 && info.List.WorkspaceID != workspaceID {
		return nil, errors.Wrapf(ErrNotFound, "list %s in workspace %d", listUUID, workspaceID)
	}
	if err := c.do(ctx, http.MethodGet, path+"/elements", nil, &info.Elements); err != nil {
		return nil, err
	}
	return &info, nil
}

// Entries fetches one page of entries of a list.
func (c *Client) Entries(ctx context.Context, listID ID, req EntriesRequest) ([]*Entry, error) {
	var out []*Entry
	path := fmt.Sprintf("/lists/%d/entries/filter", listID)
	if err := c.do(ctx, http.MethodPost, path, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Entry fetches one entry by id.
func (c *Client) Entry(ctx context.Context, listID, entryID ID) (*Entry, error) {
	return c.entry(ctx, listID, strconv.FormatUint(uint64(entryID), 10))
}

// EntryByUUID fetches one entry by uuid.
func (c *Client) EntryByUUID(ctx context.Context, listID ID, entryUUID string) (*Entry, error) {
	return c.entry(ctx, listID, url.PathEscape(entryUUID))
}

func (c *Client) entry(ctx context.Context, listID ID, ident string) (*Entry, error) {
	var out Entry
	path := fmt.Sprintf("/lists/%d/entries/%s", listID, ident)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateEntry creates an entry from field values keyed by
// "<element uuid>_<suffix>".
func (c *Client) CreateEntry(ctx context.Context, listID ID, fields map[string]any) (*Entry, error) {
	var out Entry
	path := fmt.Sprintf("/lists/%d/entries", listID)
	if err := c.do(ctx, http.MethodPost, path, fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateEntry updates an entry. Collection values are merged according to
// the UpdateActionKey value in fields.
func (c *Client) UpdateEntry(ctx context.Context, listID, entryID ID, fields map[string]any) (*Entry, error) {
	var out Entry
	path := fmt.Sprintf("/lists/%d/entries/%d", listID, entryID)
	if err := c.do(ctx, http.MethodPut, path, fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrapf(err, "encoding %s %s", method, path)
		}
		rdr = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, rdr)
	if err != nil {
		return errors.Wrapf(err, "building %s %s", method, path)
	}
	req.Header.Set("Zenkit-API-Key", c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log.Debugw("request", "method", method, "path", path)
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return apiError(resp, method, path)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "decoding %s %s", method, path)
	}
	return nil
}

func apiError(resp *http.Response, method, path string) error {
	var payload struct {
		Error   any    `json:"error"`
		Message string `json:"message"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(data, &payload)
	msg := payload.Message
	if s, ok := payload.Error.(string); ok && msg == "" {
		msg = s
	}
	apiErr := &APIError{StatusCode: resp.StatusCode, Method: method, Path: path, Message: msg}
	switch resp.StatusCode {
	case http.StatusNotFound:
		return errors.Mark(apiErr, ErrNotFound)
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.Mark(apiErr, ErrUnauthorized)
	default:
		return apiErr
	}
}
