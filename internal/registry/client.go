package registry

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/sync/singleflight"

	clierr "github.com/hhs-labs/hcli/internal/errors"
)

// DefaultTimeout bounds every registry request. Exceeding it is a registry
// error, never a silent retry.
const DefaultTimeout = 5 * time.Second

//go:embed schema/document.schema.json
var documentSchema []byte

var (
	compiledSchema *jsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
)

func getSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(documentSchema))
		if err != nil {
			compileErr = fmt.Errorf("unmarshaling schema JSON: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("document.schema.json", doc); err != nil {
			compileErr = fmt.Errorf("adding schema resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile("document.schema.json")
	})
	return compiledSchema, compileErr
}

// Client talks to one registry base URL. Documents are memoized for the
// client's lifetime and concurrent lookups of the same package share a
// single request.
type Client struct {
	base       string
	httpClient *http.Client

	mu   sync.RWMutex
	docs map[string]*Document
	sf   singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithTimeout overrides DefaultTimeout on the client's HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		if d <= 0 {
			return
		}
		hc := *cl.httpClient
		hc.Timeout = d
		cl.httpClient = &hc
	}
}

// New creates a Client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	tr := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	c := &Client{
		base:       strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Transport: tr, Timeout: DefaultTimeout},
		docs:       make(map[string]*Document),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the registry base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.base
}

// Document returns the registry document for name.
func (c *Client) Document(ctx context.Context, name string) (*Document, error) {
	if name == "" {
		return nil, clierr.New(clierr.EInvalidPackage, "package name is empty")
	}

	c.mu.RLock()
	if d, ok := c.docs[name]; ok {
		c.mu.RUnlock()
		return d, nil
	}
	c.mu.RUnlock()

	v, err, _ := c.sf.Do(name, func() (any, error) {
		d, err := c.fetch(ctx, name)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.docs[name] = d
		c.mu.Unlock()
		return d, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Document), nil
}

func (c *Client) fetch(ctx context.Context, name string) (*Document, error) {
	u := c.base + "/" + url.PathEscape(name)
	details := map[string]string{"package": name, "url": u}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, clierr.WrapWithDetails(clierr.ERegistry, "creating request", err, details)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, clierr.WrapWithDetails(clierr.ERegistry, fmt.Sprintf("fetching %s", name), err, details)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, clierr.NewWithDetails(clierr.ERegistry,
			fmt.Sprintf("fetching %s: registry returned status %d", name, resp.StatusCode), details)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, clierr.WrapWithDetails(clierr.ERegistry, "reading response body", err, details)
	}

	if err := validateDocument(body); err != nil {
		return nil, clierr.WrapWithDetails(clierr.ERegistry, fmt.Sprintf("malformed document for %s", name), err, details)
	}

	var d Document
	if err := json.Unmarshal(body, &d); err != nil {
		return nil, clierr.WrapWithDetails(clierr.ERegistry, fmt.Sprintf("parsing document for %s", name), err, details)
	}
	return &d, nil
}

func validateDocument(body []byte) error {
	schema, err := getSchema()
	if err != nil {
		return fmt.Errorf("loading schema: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return err
	}
	return schema.Validate(inst)
}

// ListVersions returns every published version of name, unsorted. A
// document without a versions record yields an empty slice.
func (c *Client) ListVersions(ctx context.Context, name string) ([]string, error) {
	d, err := c.Document(ctx, name)
	if err != nil {
		return nil, err
	}
	return d.VersionList(), nil
}

// Latest returns the highest-precedence published version of name, or ""
// when the package has no versions.
func (c *Client) Latest(ctx context.Context, name string) (string, error) {
	versions, err := c.ListVersions(ctx, name)
	if err != nil {
		return "", err
	}
	return Newest(versions), nil
}

// LatestSatisfying returns the highest published version of name that is
// caret-compatible with base, or "" when none is.
func (c *Client) LatestSatisfying(ctx context.Context, base, name string) (string, error) {
	versions, err := c.ListVersions(ctx, name)
	if err != nil {
		return "", err
	}
	return NewestSatisfying(base, versions)
}

// Resolve turns a version request into a published version of name. It
// accepts the latest sentinel, an exact version, a dist-tag, or a range.
func (c *Client) Resolve(ctx context.Context, name, request string) (*VersionMeta, error) {
	d, err := c.Document(ctx, name)
	if err != nil {
		return nil, err
	}

	var version string
	switch {
	case request == "" || request == Latest:
		version = Newest(d.VersionList())
	case IsExact(request):
		version = request
	default:
		if tagged, ok := d.DistTags[request]; ok {
			version = tagged
			break
		}
		version, err = NewestInRange(request, d.VersionList())
		if err != nil {
			return nil, clierr.Wrap(clierr.EInvalidPackage, fmt.Sprintf("%s@%s", name, request), err)
		}
	}

	meta, ok := d.Versions[version]
	if version == "" || !ok {
		return nil, clierr.Newf(clierr.ERegistry, "no published version of %s matches %q", name, request)
	}
	if meta.Version == "" {
		meta.Version = version
	}
	if meta.Name == "" {
		meta.Name = name
	}
	return &meta, nil
}
