package pkgcache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCachePath_Deterministic(t *testing.T) {
	root := t.TempDir()
	tests := []struct{ name, version string }{
		{"lodash", "4.17.21"},
		{"@hhs-cli/init", "1.0.0"},
		{"@scope/pkg", "2.0.0-beta.1"},
	}
	for _, tt := range tests {
		a := CachePath(root, tt.name, tt.version)
		b := CachePath(root, tt.name, tt.version)
		if a != b {
			t.Errorf("CachePath(%q, %q) not stable: %q vs %q", tt.name, tt.version, a, b)
		}
		if !filepath.IsAbs(a) {
			t.Errorf("CachePath returned relative path %q", a)
		}
	}
}

func TestDirName_ScopedNameStaysFlat(t *testing.T) {
	for _, name := range []string{"@hhs-cli/init", "@a/b", `odd\name`, "plain"} {
		dir := DirName(name, "1.0.0")
		if strings.ContainsAny(dir, `/\`) {
			t.Errorf("DirName(%q) = %q contains a path separator", name, dir)
		}
		if filepath.Dir(CachePath("/store", name, "1.0.0")) != filepath.Clean("/store") {
			t.Errorf("CachePath for %q escapes the store root", name)
		}
	}
}

func TestDirName_Layout(t *testing.T) {
	got := DirName("@hhs-cli/init", "1.0.0")
	want := "_@hhs-cli_init@1.0.0@%40hhs-cli%2Finit"
	if got != want {
		t.Errorf("DirName = %q, want %q", got, want)
	}
}

func TestDirName_DistinctPerVersion(t *testing.T) {
	if DirName("pkg", "1.0.0") == DirName("pkg", "1.0.1") {
		t.Error("different versions share a directory")
	}
	// "a/b" and "a_b" sanitize identically; the raw-name field keeps them apart.
	if DirName("a/b", "1.0.0") == DirName("a_b", "1.0.0") {
		t.Error("distinct names collide")
	}
}

func TestParseDirName_RoundTrip(t *testing.T) {
	tests := []struct{ name, version string }{
		{"lodash", "4.17.21"},
		{"@hhs-cli/init", "1.0.0"},
		{"@scope/pkg", "2.0.0-beta.1+build.5"},
		{"a_b", "0.0.1"},
	}
	for _, tt := range tests {
		name, version, ok := ParseDirName(DirName(tt.name, tt.version))
		if !ok || name != tt.name || version != tt.version {
			t.Errorf("ParseDirName(DirName(%q, %q)) = (%q, %q, %v)", tt.name, tt.version, name, version, ok)
		}
	}
}

func TestParseDirName_Foreign(t *testing.T) {
	for _, dir := range []string{"node_modules", ".bin", "_", "_pkg@", "_pkg@1.0.0@other", "_@x_y@@%40x%2Fy"} {
		if _, _, ok := ParseDirName(dir); ok {
			t.Errorf("ParseDirName(%q) accepted a foreign directory", dir)
		}
	}
}

func TestExists(t *testing.T) {
	root := t.TempDir()

	ok, err := Exists(root, "@hhs-cli/init", "1.0.0")
	if err != nil || ok {
		t.Fatalf("Exists before install = (%v, %v), want (false, nil)", ok, err)
	}

	if err := os.MkdirAll(CachePath(root, "@hhs-cli/init", "1.0.0"), 0755); err != nil {
		t.Fatal(err)
	}

	ok, err = Exists(root, "@hhs-cli/init", "1.0.0")
	if err != nil || !ok {
		t.Fatalf("Exists after install = (%v, %v), want (true, nil)", ok, err)
	}
	if ok, _ := Exists(root, "@hhs-cli/init", "1.0.1"); ok {
		t.Error("other version reported as cached")
	}
}

func TestList(t *testing.T) {
	root := t.TempDir()
	for _, p := range [][2]string{{"@hhs-cli/init", "1.0.0"}, {"@hhs-cli/init", "1.1.0"}, {"lodash", "4.17.21"}} {
		if err := os.MkdirAll(CachePath(root, p[0], p[1]), 0755); err != nil {
			t.Fatal(err)
		}
	}
	os.MkdirAll(filepath.Join(root, ".tmp-install-123"), 0755)
	os.WriteFile(filepath.Join(root, "_stray@1.0.0@stray"), nil, 0644)

	entries, err := List(root)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("List returned %d entries, want 3: %+v", len(entries), entries)
	}
	if entries[0].Name != "@hhs-cli/init" || entries[2].Name != "lodash" {
		t.Errorf("unexpected order: %+v", entries)
	}

	missing, err := List(filepath.Join(root, "nope"))
	if err != nil || len(missing) != 0 {
		t.Errorf("List(missing) = (%v, %v)", missing, err)
	}
}
