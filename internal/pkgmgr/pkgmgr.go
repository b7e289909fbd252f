package pkgmgr

import (
	"context"
	"fmt"

	clierr "github.com/hhs-labs/hcli/internal/errors"
	"github.com/hhs-labs/hcli/internal/installer"
	"github.com/hhs-labs/hcli/internal/log"
	"github.com/hhs-labs/hcli/internal/manifest"
	"github.com/hhs-labs/hcli/internal/pkgcache"
	"github.com/hhs-labs/hcli/internal/registry"
)

// Spec identifies a package to resolve and cache. With StoreRoot empty the
// cache is bypassed and the package must already live at TargetPath.
type Spec struct {
	Name    string
	Version string
	// StoreRoot holds one directory per cached (name, version).
	StoreRoot string
	// TargetPath is the install root, or the package itself in bypass mode.
	TargetPath string
}

// Resolver answers version questions against a registry.
type Resolver interface {
	Latest(ctx context.Context, name string) (string, error)
	Resolve(ctx context.Context, name, request string) (*registry.VersionMeta, error)
	BaseURL() string
}

// Manager owns one Spec for the duration of a command. It is not safe for
// concurrent use.
type Manager struct {
	spec      Spec
	state     State
	checked   bool
	resolver  Resolver
	installer installer.Installer
}

// New validates spec and returns a Manager for it. No I/O happens until
// the first call to Exists or EnsureReady.
func New(spec Spec, resolver Resolver, inst installer.Installer) (*Manager, error) {
	if spec.Name == "" {
		return nil, clierr.New(clierr.EInvalidPackage, "package name is required")
	}
	if spec.Version == "" {
		spec.Version = registry.Latest
	}
	if spec.StoreRoot != "" && (resolver == nil || inst == nil) {
		return nil, clierr.Newf(clierr.EInvalidPackage, "%s: caching requires a registry and an installer", spec.Name)
	}
	return &Manager{spec: spec, resolver: resolver, installer: inst}, nil
}

// Name returns the package name.
func (m *Manager) Name() string { return m.spec.Name }

// Version returns the current version: the requested one until resolution,
// the concrete one after.
func (m *Manager) Version() string { return m.spec.Version }

// State returns the lifecycle state.
func (m *Manager) State() State { return m.state }

// Caching reports whether the manager works through the package cache.
func (m *Manager) Caching() bool { return m.spec.StoreRoot != "" }

// CachePath returns the cache directory of the current version, or the
// target path in bypass mode.
func (m *Manager) CachePath() string {
	if !m.Caching() {
		return m.spec.TargetPath
	}
	return pkgcache.CachePath(m.spec.StoreRoot, m.spec.Name, m.spec.Version)
}

// prepare turns a tag or range into a concrete version.
func (m *Manager) prepare(ctx context.Context) error {
	if registry.IsExact(m.spec.Version) {
		return nil
	}
	meta, err := m.resolver.Resolve(ctx, m.spec.Name, m.spec.Version)
	if err != nil {
		return err
	}
	log.Verbose("pkg", "resolved %s@%s to %s", m.spec.Name, m.spec.Version, meta.Version)
	m.spec.Version = meta.Version
	return nil
}

// Exists reports whether the package is present on disk. When caching, the
// version is resolved first so the check targets a concrete cache entry.
// The first call also fixes the initial state.
func (m *Manager) Exists(ctx context.Context) (bool, error) {
	var (
		ok  bool
		err error
	)
	if m.Caching() {
		if err = m.prepare(ctx); err != nil {
			return false, err
		}
		ok, err = pkgcache.Exists(m.spec.StoreRoot, m.spec.Name, m.spec.Version)
	} else {
		ok, err = pkgcache.PathExists(m.spec.TargetPath)
	}
	if err != nil {
		return false, fmt.Errorf("checking %s: %w", m.spec.Name, err)
	}

	if !m.checked {
		m.checked = true
		if ok {
			m.state = Cached
		} else {
			m.state = Uncached
		}
	}
	return ok, nil
}

// EnsureReady makes the package usable: it installs an uncached package, or
// moves a cached one to the registry's newest version. In bypass mode it
// only confirms the package exists at the target path.
func (m *Manager) EnsureReady(ctx context.Context) error {
	ok, err := m.Exists(ctx)
	if err != nil {
		m.state = Failed
		return err
	}

	if !m.Caching() {
		if !ok {
			m.state = Failed
			return clierr.NewWithDetails(clierr.EEntryNotFound,
				fmt.Sprintf("%s is not present at the target path", m.spec.Name),
				map[string]string{"targetPath": m.spec.TargetPath})
		}
		m.state = Cached
		return nil
	}

	if ok {
		return m.Update(ctx)
	}
	return m.Install(ctx)
}

// Install installs the current version unless its cache entry already
// exists. The entry is re-checked immediately before the installer runs.
func (m *Manager) Install(ctx context.Context) error {
	if !m.Caching() {
		return clierr.Newf(clierr.EInstall, "%s: cannot install without a store directory", m.spec.Name)
	}

	m.state = Installing
	if err := m.prepare(ctx); err != nil {
		m.state = Failed
		return err
	}
	if err := m.installVersion(ctx, m.spec.Version); err != nil {
		m.state = Failed
		return err
	}
	m.state = Cached
	return nil
}

// Update resolves the registry's newest version and installs it next to
// the existing cache entries when it is missing. The in-memory version
// moves forward only once that version is on disk, so a failed lookup or
// install leaves the manager pointing at the version it already had.
func (m *Manager) Update(ctx context.Context) error {
	if !m.Caching() {
		return nil
	}

	m.state = Updating
	latest, err := m.resolver.Latest(ctx, m.spec.Name)
	if err != nil {
		m.state = Failed
		return err
	}
	if latest == "" {
		m.state = Failed
		return clierr.NewWithDetails(clierr.ERegistry, fmt.Sprintf("no published versions of %s", m.spec.Name),
			map[string]string{"package": m.spec.Name, "registry": m.resolver.BaseURL()})
	}

	if latest != m.spec.Version {
		log.Verbose("pkg", "updating %s from %s to %s", m.spec.Name, m.spec.Version, latest)
	}
	if err := m.installVersion(ctx, latest); err != nil {
		m.state = Failed
		return err
	}

	m.spec.Version = latest
	m.state = Cached
	return nil
}

// installVersion invokes the installer for version unless its cache entry
// is already present.
func (m *Manager) installVersion(ctx context.Context, version string) error {
	ok, err := pkgcache.Exists(m.spec.StoreRoot, m.spec.Name, version)
	if err != nil {
		return clierr.Wrap(clierr.EInstall, fmt.Sprintf("checking cache for %s@%s", m.spec.Name, version), err)
	}
	if ok {
		return nil
	}

	log.Info("pkg", "installing %s@%s", m.spec.Name, version)
	err = m.installer.Install(ctx, installer.Request{
		Root:     m.spec.TargetPath,
		StoreDir: m.spec.StoreRoot,
		Registry: m.resolver.BaseURL(),
		Packages: []installer.Package{{Name: m.spec.Name, Version: version}},
	})
	if err != nil {
		if clierr.GetCode(err) == "" {
			err = clierr.Wrap(clierr.EInstall, fmt.Sprintf("installing %s@%s", m.spec.Name, version), err)
		}
		return err
	}
	return nil
}

// RootFilePath returns the entry file of the package at CachePath. ok is
// false when the package declares no entry.
func (m *Manager) RootFilePath() (string, bool, error) {
	return manifest.ResolveEntry(m.CachePath())
}
