package updater

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/hhs-labs/hcli/internal/log"
)

// CheckAndPrintBanner prints an update banner when a newer compatible
// version is known. A missing, stale or foreign cache is refreshed first.
// Failures are only logged at verbose level; the check never blocks a
// command from running.
func (u *Updater) CheckAndPrintBanner(ctx context.Context, w io.Writer, homeDir string) {
	if IsDevBuild(u.currentVersion) {
		return
	}

	cache, err := LoadCache(homeDir)
	if err != nil {
		log.Verbose("update", "ignoring version cache: %v", err)
		cache = nil
	}

	if cache == nil || cache.CurrentVersion != u.currentVersion || IsCacheStale(cache, DefaultCacheMaxAge) {
		cache, err = u.Refresh(ctx, homeDir)
		if err != nil {
			log.Verbose("update", "%v", err)
			return
		}
	}

	if cache.UpdateAvailable {
		PrintUpdateBanner(w, u.pkgName, cache.CurrentVersion, cache.LatestVersion)
	}
}

// PrintUpdateBanner prints the update notification to w.
func PrintUpdateBanner(w io.Writer, pkgName, current, latest string) {
	fmt.Fprintf(w, "\nUpdate available: %s -> %s\n", current, latest)
	fmt.Fprintf(w, "    Run `npm install -g %s` to upgrade\n\n", pkgName)
}

// Refresh checks the registry now and records the answer in homeDir.
func (u *Updater) Refresh(ctx context.Context, homeDir string) (*VersionCache, error) {
	latest, available, err := u.Check(ctx)
	if err != nil {
		return nil, err
	}

	cache := &VersionCache{
		Package:         u.pkgName,
		LatestVersion:   latest,
		CurrentVersion:  u.currentVersion,
		CheckedAt:       time.Now(),
		UpdateAvailable: available,
	}
	if err := SaveCache(homeDir, cache); err != nil {
		log.Verbose("update", "%v", err)
	}
	return cache, nil
}
