package installer

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	clierr "github.com/hhs-labs/hcli/internal/errors"
	"github.com/hhs-labs/hcli/internal/log"
	"github.com/hhs-labs/hcli/internal/pkgcache"
	"github.com/hhs-labs/hcli/internal/platform"
	"github.com/hhs-labs/hcli/internal/registry"
)

// Package names one package to install. Version may be exact, a range, a
// dist-tag or registry.Latest.
type Package struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Request is the install capability's call contract.
type Request struct {
	// Root is the project directory whose node_modules receives links to
	// the installed packages. Empty skips linking.
	Root string
	// StoreDir receives one cache directory per (name, version).
	StoreDir string
	// Registry is the registry base URL.
	Registry string
	Packages []Package
}

// Installer performs installs described by a Request.
type Installer interface {
	Install(ctx context.Context, req Request) error
}

// TarballInstaller installs packages from registry tarballs.
type TarballInstaller struct {
	httpClient   *http.Client
	customClient bool
	concurrency  int

	mu      sync.Mutex
	clients map[string]*registry.Client
}

// Option configures a TarballInstaller.
type Option func(*TarballInstaller)

// WithHTTPClient sets the client used for tarball downloads.
func WithHTTPClient(c *http.Client) Option {
	return func(in *TarballInstaller) {
		in.httpClient = c
		in.customClient = true
	}
}

// DefaultResponseTimeout bounds the wait for a tarball response's headers.
// The body itself may take longer.
const DefaultResponseTimeout = 30 * time.Second

// WithResponseTimeout sets how long the default client waits for response
// headers. It has no effect on a client given by WithHTTPClient.
func WithResponseTimeout(d time.Duration) Option {
	return func(in *TarballInstaller) {
		if d <= 0 || in.customClient {
			return
		}
		in.httpClient = newHTTPClient(d)
	}
}

func newHTTPClient(headerTimeout time.Duration) *http.Client {
	return &http.Client{Transport: &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: headerTimeout,
		ExpectContinueTimeout: 1 * time.Second,
	}}
}

// WithRegistryClient reuses c for requests naming c's base URL, so its
// memoized documents serve the install without another lookup.
func WithRegistryClient(c *registry.Client) Option {
	return func(in *TarballInstaller) {
		in.clients[c.BaseURL()] = c
	}
}

// WithConcurrency caps how many packages of one request install at once.
func WithConcurrency(n int) Option {
	return func(in *TarballInstaller) {
		if n > 0 {
			in.concurrency = n
		}
	}
}

// New creates a TarballInstaller.
func New(opts ...Option) *TarballInstaller {
	in := &TarballInstaller{
		httpClient:  newHTTPClient(DefaultResponseTimeout),
		concurrency: 4,
		clients:     make(map[string]*registry.Client),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

func (in *TarballInstaller) registryFor(base string) *registry.Client {
	key := strings.TrimRight(base, "/")

	in.mu.Lock()
	defer in.mu.Unlock()
	if c, ok := in.clients[key]; ok {
		return c
	}
	c := registry.New(key)
	in.clients[key] = c
	return c
}

// Install installs every package in req. Packages whose cache directory
// already exists are only relinked. The first failure cancels the rest and
// is returned as an install error; nothing is retried.
func (in *TarballInstaller) Install(ctx context.Context, req Request) error {
	if req.StoreDir == "" {
		return clierr.New(clierr.EInstall, "store directory is required")
	}
	if req.Registry == "" {
		return clierr.New(clierr.EInstall, "registry URL is required")
	}
	if len(req.Packages) == 0 {
		return nil
	}
	if err := os.MkdirAll(req.StoreDir, 0755); err != nil {
		return clierr.Wrap(clierr.EInstall, "creating store directory", err)
	}

	rc := in.registryFor(req.Registry)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(in.concurrency)
	for _, pkg := range req.Packages {
		pkg := pkg
		g.Go(func() error {
			return in.installOne(gctx, rc, req, pkg)
		})
	}
	return g.Wait()
}

func (in *TarballInstaller) installOne(ctx context.Context, rc *registry.Client, req Request, pkg Package) error {
	spec := pkg.Name + "@" + pkg.Version
	fail := func(msg string, err error) error {
		return clierr.WrapWithDetails(clierr.EInstall, fmt.Sprintf("installing %s: %s", spec, msg), err,
			map[string]string{"package": pkg.Name, "version": pkg.Version, "registry": req.Registry})
	}

	if pkg.Name == "" {
		return clierr.New(clierr.EInstall, "package name is empty")
	}

	meta, err := rc.Resolve(ctx, pkg.Name, pkg.Version)
	if err != nil {
		if clierr.GetCode(err) != "" {
			return err
		}
		return fail("resolving version", err)
	}
	dest := pkgcache.CachePath(req.StoreDir, pkg.Name, meta.Version)

	exists, err := pkgcache.PathExists(dest)
	if err != nil {
		return fail("checking cache", err)
	}
	if exists {
		log.Verbose("install", "%s@%s already cached at %s", pkg.Name, meta.Version, dest)
	} else {
		if meta.Dist.Tarball == "" {
			return fail("registry lists no tarball", nil)
		}
		if err := in.fetchInto(ctx, meta, req.StoreDir, dest); err != nil {
			return fail("fetching tarball", err)
		}
		log.Verbose("install", "installed %s@%s into %s", pkg.Name, meta.Version, dest)
	}

	if req.Root != "" {
		link := filepath.Join(req.Root, "node_modules", filepath.FromSlash(pkg.Name))
		if filepath.Clean(link) != filepath.Clean(dest) {
			if err := platform.LinkDir(dest, link); err != nil {
				return fail("linking into node_modules", err)
			}
		}
	}
	return nil
}

// fetchInto downloads, verifies and unpacks meta's tarball, then renames the
// result to dest. Losing a rename race to another process installing the
// same version counts as success.
func (in *TarballInstaller) fetchInto(ctx context.Context, meta *registry.VersionMeta, storeDir, dest string) error {
	archive, err := in.download(ctx, meta.Dist.Tarball, storeDir)
	if err != nil {
		return err
	}
	defer os.Remove(archive)

	if err := Verify(meta.Dist, archive); err != nil {
		return err
	}

	tmpDir, err := os.MkdirTemp(storeDir, ".tmp-install-*")
	if err != nil {
		return fmt.Errorf("creating staging directory: %w", err)
	}
	success := false
	defer func() {
		if !success {
			os.RemoveAll(tmpDir)
		}
	}()

	if err := ExtractTarGz(archive, tmpDir); err != nil {
		return err
	}
	if err := platform.Chmod(tmpDir, 0755); err != nil {
		return fmt.Errorf("setting staging permissions: %w", err)
	}

	if err := os.Rename(tmpDir, dest); err != nil {
		if ok, _ := pkgcache.PathExists(dest); ok {
			return nil
		}
		return fmt.Errorf("moving package into cache: %w", err)
	}
	success = true
	return nil
}
