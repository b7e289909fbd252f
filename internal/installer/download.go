package installer

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/hhs-labs/hcli/internal/platform"
	"github.com/hhs-labs/hcli/internal/registry"
)

// download streams url into a temp file inside dir and returns its path.
func (in *TarballInstaller) download(ctx context.Context, url, dir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("creating download request: %w", err)
	}
	req.Header.Set("User-Agent", "hcli-installer")

	resp, err := in.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("downloading %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download of %s returned status %d", url, resp.StatusCode)
	}

	f, err := os.CreateTemp(dir, ".tmp-tarball-*.tgz")
	if err != nil {
		return "", fmt.Errorf("creating download file: %w", err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("writing download: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("closing download: %w", err)
	}
	return f.Name(), nil
}

// Verify checks archivePath against dist. A Subresource Integrity string is
// preferred (strongest supported algorithm wins); otherwise the legacy sha1
// shasum is used. With neither present the archive is accepted as is.
func Verify(dist registry.Dist, archivePath string) error {
	algo, expected, ok := pickIntegrity(dist.Integrity)
	if ok {
		actual, err := digestFile(archivePath, algo)
		if err != nil {
			return err
		}
		if base64.StdEncoding.EncodeToString(actual) != expected {
			return fmt.Errorf("integrity mismatch for %s: expected %s-%s", filepath.Base(archivePath), algo, expected)
		}
		return nil
	}

	if dist.Shasum != "" {
		actual, err := digestFile(archivePath, "sha1")
		if err != nil {
			return err
		}
		if hex.EncodeToString(actual) != strings.ToLower(dist.Shasum) {
			return fmt.Errorf("checksum mismatch: expected %s, got %s", dist.Shasum, hex.EncodeToString(actual))
		}
	}
	return nil
}

var algoRank = map[string]int{"sha1": 1, "sha256": 2, "sha512": 3}

// pickIntegrity returns the strongest supported "<algo>-<base64>" entry of
// an SRI string.
func pickIntegrity(sri string) (algo, digest string, ok bool) {
	best := 0
	for _, field := range strings.Fields(sri) {
		a, d, found := strings.Cut(field, "-")
		if !found {
			continue
		}
		// Options after '?' are ignored per the SRI grammar.
		d, _, _ = strings.Cut(d, "?")
		if rank := algoRank[a]; rank > best {
			best, algo, digest = rank, a, d
		}
	}
	return algo, digest, best > 0
}

func newHash(algo string) hash.Hash {
	switch algo {
	case "sha512":
		return sha512.New()
	case "sha256":
		return sha256.New()
	default:
		return sha1.New()
	}
}

func digestFile(path, algo string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening archive for checksum: %w", err)
	}
	defer f.Close()

	h := newHash(algo)
	if _, err := io.Copy(h, f); err != nil {
		return nil, fmt.Errorf("computing checksum: %w", err)
	}
	return h.Sum(nil), nil
}

// ExtractTarGz unpacks a package tarball into destDir, dropping the leading
// path component ("package/" in registry tarballs). Entries that would land
// outside destDir are rejected; links and special files are skipped.
func ExtractTarGz(archivePath, destDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("creating gzip reader: %w", err)
	}
	defer gz.Close()

	root, err := filepath.Abs(destDir)
	if err != nil {
		return fmt.Errorf("resolving destination: %w", err)
	}

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading tar entry: %w", err)
		}

		rel := stripFirstComponent(hdr.Name)
		if rel == "" {
			continue
		}
		target := filepath.Join(root, filepath.FromSlash(rel))
		if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
			return fmt.Errorf("tar entry %q escapes the package directory", hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("creating directory %s: %w", rel, err)
			}
		case tar.TypeReg:
			if err := writeEntry(tr, target, platform.ExtractedFileMode(hdr.Mode)); err != nil {
				return fmt.Errorf("extracting %s: %w", rel, err)
			}
		}
	}
	return nil
}

func stripFirstComponent(name string) string {
	name = strings.TrimPrefix(strings.ReplaceAll(name, `\`, "/"), "./")
	_, rest, found := strings.Cut(name, "/")
	if !found {
		return ""
	}
	return strings.Trim(rest, "/")
}

func writeEntry(r io.Reader, target string, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
