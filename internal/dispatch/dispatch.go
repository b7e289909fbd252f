package dispatch

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	clierr "github.com/hhs-labs/hcli/internal/errors"
	"github.com/hhs-labs/hcli/internal/installer"
	"github.com/hhs-labs/hcli/internal/log"
	"github.com/hhs-labs/hcli/internal/pkgmgr"
	"github.com/hhs-labs/hcli/internal/registry"
	"github.com/hhs-labs/hcli/internal/runtime"
)

const (
	// CacheDir is the install root under the CLI home.
	CacheDir = "dependencies"
	// StoreDir holds the versioned cache entries under CacheDir.
	StoreDir = "node_modules"
)

// Config carries everything a dispatch needs. It is filled in by the CLI
// layer; this package never reads the process environment.
type Config struct {
	// HomePath is the absolute CLI home, e.g. ~/.hcli.
	HomePath string
	// TargetPath, when set, names a local package directory to run as is.
	// The cache is bypassed.
	TargetPath string
	Registry   string
	// Timeout bounds each registry request and the wait for tarball response
	// headers. Zero means the registry and installer defaults.
	Timeout time.Duration
	// Commands maps command names to package names.
	Commands map[string]string
	// Env is added to the child's environment.
	Env map[string]string
	// Streams overrides the child's standard I/O.
	Streams runtime.Streams
}

// RuntimeFunc picks the Runtime for an entry file.
type RuntimeFunc func(entry string, s runtime.Streams) runtime.Runtime

// Dispatcher runs commands described by a Config.
type Dispatcher struct {
	cfg        Config
	httpClient *http.Client
	registry   *registry.Client
	installer  installer.Installer
	runtimeFor RuntimeFunc
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithHTTPClient sets the client used for registry and tarball requests.
func WithHTTPClient(c *http.Client) Option {
	return func(d *Dispatcher) {
		d.httpClient = c
	}
}

// WithInstaller replaces the tarball installer.
func WithInstaller(in installer.Installer) Option {
	return func(d *Dispatcher) {
		d.installer = in
	}
}

// WithRuntime replaces runtime.ForEntry.
func WithRuntime(fn RuntimeFunc) Option {
	return func(d *Dispatcher) {
		d.runtimeFor = fn
	}
}

// New returns a Dispatcher for cfg.
func New(cfg Config, opts ...Option) (*Dispatcher, error) {
	if cfg.TargetPath == "" && cfg.HomePath == "" {
		return nil, clierr.New(clierr.EConfig, "CLI home path is not set")
	}
	if cfg.TargetPath == "" && cfg.Registry == "" {
		return nil, clierr.New(clierr.EConfig, "registry URL is not set")
	}
	d := &Dispatcher{cfg: cfg, runtimeFor: runtime.ForEntry}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Dispatch runs inv.Command and returns the child's exit code. Errors are
// returned for everything that happens before the child exits: an unknown
// command, registry and install failures, a package without an entry file,
// and a child that could not start or was killed.
func (d *Dispatcher) Dispatch(ctx context.Context, inv Invocation) (int, error) {
	pkgName, ok := d.cfg.Commands[inv.Command]
	if !ok || pkgName == "" {
		return 1, clierr.NewWithDetails(clierr.EUnknownCommand, fmt.Sprintf("no package provides command %q", inv.Command),
			map[string]string{"command": inv.Command})
	}

	mgr, err := d.manager(pkgName)
	if err != nil {
		return 1, err
	}
	if err := mgr.EnsureReady(ctx); err != nil {
		return 1, err
	}

	entry, ok, err := mgr.RootFilePath()
	if err != nil {
		return 1, err
	}
	if !ok {
		return 1, clierr.NewWithDetails(clierr.EEntryNotFound, fmt.Sprintf("%s declares no entry file", pkgName),
			map[string]string{"package": pkgName, "dir": mgr.CachePath()})
	}
	log.Verbose("exec", "%s@%s entry %s", pkgName, mgr.Version(), entry)

	payload, err := inv.Serialize()
	if err != nil {
		return 1, clierr.Wrap(clierr.EDispatch, "preparing child arguments", err)
	}

	rt := d.runtimeFor(entry, d.cfg.Streams)
	code, err := rt.Run(ctx, runtime.Launch{
		Entry: entry,
		Args:  []string{"run", payload},
		Env:   d.cfg.Env,
	})
	if err != nil {
		return 1, err
	}
	return code, nil
}

func (d *Dispatcher) manager(pkgName string) (*pkgmgr.Manager, error) {
	if d.cfg.TargetPath != "" {
		log.Verbose("exec", "using %s from %s, cache bypassed", pkgName, d.cfg.TargetPath)
		return pkgmgr.New(pkgmgr.Spec{Name: pkgName, Version: registry.Latest, TargetPath: d.cfg.TargetPath}, nil, nil)
	}

	target := filepath.Join(d.cfg.HomePath, CacheDir)
	spec := pkgmgr.Spec{
		Name:       pkgName,
		Version:    registry.Latest,
		TargetPath: target,
		StoreRoot:  filepath.Join(target, StoreDir),
	}
	log.Verbose("exec", "targetPath %s, storeDir %s", spec.TargetPath, spec.StoreRoot)

	rc := d.registryClient()
	inst := d.installer
	if inst == nil {
		opts := []installer.Option{
			installer.WithRegistryClient(rc),
			installer.WithResponseTimeout(d.cfg.Timeout),
		}
		if d.httpClient != nil {
			opts = append(opts, installer.WithHTTPClient(d.httpClient))
		}
		inst = installer.New(opts...)
	}
	return pkgmgr.New(spec, rc, inst)
}

func (d *Dispatcher) registryClient() *registry.Client {
	if d.registry != nil {
		return d.registry
	}
	var opts []registry.Option
	if d.httpClient != nil {
		opts = append(opts, registry.WithHTTPClient(d.httpClient))
	}
	opts = append(opts, registry.WithTimeout(d.cfg.Timeout))
	d.registry = registry.New(d.cfg.Registry, opts...)
	return d.registry
}
