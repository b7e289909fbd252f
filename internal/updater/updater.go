package updater

import (
	"context"
	"fmt"
)

// Checker finds the newest published version of a package that is
// caret-compatible with base.
type Checker interface {
	LatestSatisfying(ctx context.Context, base, name string) (string, error)
}

// Updater checks one package, the CLI's own, against a registry.
type Updater struct {
	currentVersion string
	pkgName        string
	checker        Checker
}

// New creates an Updater for pkgName at currentVersion.
func New(currentVersion, pkgName string, checker Checker) *Updater {
	return &Updater{
		currentVersion: currentVersion,
		pkgName:        pkgName,
		checker:        checker,
	}
}

// CurrentVersion returns the version this updater was created with.
func (u *Updater) CurrentVersion() string {
	return u.currentVersion
}

// Check asks the registry for the newest compatible version and reports
// whether it is newer than the running one. latest is empty when nothing
// compatible is published.
func (u *Updater) Check(ctx context.Context) (latest string, available bool, err error) {
	latest, err = u.checker.LatestSatisfying(ctx, u.currentVersion, u.pkgName)
	if err != nil {
		return "", false, fmt.Errorf("checking %s for updates: %w", u.pkgName, err)
	}
	if latest == "" {
		return "", false, nil
	}
	available, err = IsUpdateAvailable(u.currentVersion, latest)
	if err != nil {
		return latest, false, err
	}
	return latest, available, nil
}
