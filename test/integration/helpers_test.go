//go:build integration && unix

package integration_test

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"crypto/sha512"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

// testEnv holds paths to isolated test directories.
type testEnv struct {
	HomeDir    string // CLI home (what ~/.hcli would be)
	ProjectDir string // working directory for dispatched commands
	OutDir     string // where test packages write what they observed
}

// setupTestEnv creates isolated temp directories and points the user home at
// one of them so nothing touches the real ~/.hcli.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	user := t.TempDir()
	env := &testEnv{
		HomeDir:    filepath.Join(user, ".hcli"),
		ProjectDir: t.TempDir(),
		OutDir:     t.TempDir(),
	}
	t.Setenv("HOME", user)
	t.Setenv("USERPROFILE", user)
	t.Setenv("CLI_HOME", "")
	t.Setenv("CLI_TARGET_PATH", "")
	return env
}

// fakeRegistry is an npm-style registry serving package documents and
// tarballs built from in-memory file sets.
type fakeRegistry struct {
	srv *httptest.Server

	mu       sync.Mutex
	packages map[string]map[string]map[string]string // name -> version -> files
	docHits  atomic.Int32
	tarHits  atomic.Int32
}

func newFakeRegistry(t *testing.T) *fakeRegistry {
	t.Helper()
	r := &fakeRegistry{packages: map[string]map[string]map[string]string{}}
	r.srv = httptest.NewServer(r)
	t.Cleanup(r.srv.Close)
	return r
}

// publish adds version of name with the given files (paths relative to the
// package root).
func (r *fakeRegistry) publish(name, version string, files map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.packages[name] == nil {
		r.packages[name] = map[string]map[string]string{}
	}
	r.packages[name][version] = files
}

func (r *fakeRegistry) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rest, ok := strings.CutPrefix(req.URL.Path, "/-/"); ok {
		r.tarHits.Add(1)
		name, file, _ := strings.Cut(rest, "/-/")
		version := strings.TrimSuffix(file, ".tgz")
		files, found := r.packages[name][version]
		if !found {
			http.NotFound(w, req)
			return
		}
		w.Write(buildTarball(files))
		return
	}

	r.docHits.Add(1)
	name := strings.TrimPrefix(req.URL.Path, "/")
	versions, ok := r.packages[name]
	if !ok {
		http.NotFound(w, req)
		return
	}
	vs := map[string]any{}
	for v, files := range versions {
		sum := sha512.Sum512(buildTarball(files))
		vs[v] = map[string]any{
			"name":    name,
			"version": v,
			"dist": map[string]any{
				"tarball":   r.srv.URL + "/-/" + name + "/-/" + v + ".tgz",
				"integrity": "sha512-" + base64.StdEncoding.EncodeToString(sum[:]),
			},
		}
	}
	json.NewEncoder(w).Encode(map[string]any{"name": name, "versions": vs})
}

// buildTarball packs files under "package/" the way registries do. Files
// under bin/ are executable. Output is deterministic.
func buildTarball(files map[string]string) []byte {
	names := make([]string, 0, len(files))
	for n := range files {
		names = append(names, n)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for _, n := range names {
		mode := int64(0644)
		if strings.HasPrefix(n, "bin/") {
			mode = 0755
		}
		tw.WriteHeader(&tar.Header{Name: "package/" + n, Mode: mode, Size: int64(len(files[n])), Typeflag: tar.TypeReg})
		tw.Write([]byte(files[n]))
	}
	tw.Close()
	gz.Close()
	return buf.Bytes()
}

// shellPackage returns the files of a package whose entry is a shell script
// that records its arguments and CLI env into outFile and exits with code.
func shellPackage(name, version, outFile string, code int) map[string]string {
	manifest := `{"name":"` + name + `","version":"` + version + `","main":"bin/run"}`
	script := "#!/bin/sh\n" +
		"printf '%s|%s|%s|%s' \"" + version + "\" \"$1\" \"$2\" \"$CLI_HOME_PATH\" > '" + outFile + "'\n" +
		"exit " + strconv.Itoa(code) + "\n"
	return map[string]string{"package.json": manifest, "bin/run": script}
}

// jsPackage returns the files of a package whose main module exports a
// function that writes the argv it was called with into outFile.
func jsPackage(name, version, outFile string) map[string]string {
	manifest := `{"name":"` + name + `","version":"` + version + `","main":"lib/index.js"}`
	entry := `const fs = require("fs");
function init(argv) {
	fs.writeFileSync(` + strconv.Quote(outFile) + `, "` + version + `|" + JSON.stringify(argv) + "|" + process.env.CLI_HOME_PATH);
}
module.exports = init;
`
	return map[string]string{"package.json": manifest, "lib/index.js": entry}
}

// assertFileExists fails the test if the file does not exist.
func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file to exist: %s (error: %v)", path, err)
	}
}

// assertFileNotExists fails the test if the file exists.
func assertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("expected file NOT to exist: %s", path)
	}
}

// assertDirExists fails the test if the directory does not exist.
func assertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Errorf("expected directory to exist: %s (error: %v)", path, err)
		return
	}
	if !info.IsDir() {
		t.Errorf("expected %s to be a directory, but it is a file", path)
	}
}

// assertFileContains fails if the file doesn't exist or doesn't contain substr.
func assertFileContains(t *testing.T, path, substr string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Errorf("reading %s: %v", path, err)
		return
	}
	if !strings.Contains(string(data), substr) {
		t.Errorf("file %s does not contain %q.\nContents:\n%s", path, substr, string(data))
	}
}
