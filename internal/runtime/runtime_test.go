package runtime

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	clierr "github.com/hhs-labs/hcli/internal/errors"
)

// TestHelperProcess is not a real test. It is the child started by the
// tests below through the test binary.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	if len(args) < 2 {
		os.Exit(2)
	}
	args = args[1:]

	switch args[0] {
	case "exit":
		code, _ := strconv.Atoi(args[1])
		os.Exit(code)
	case "echo":
		fmt.Println(strings.Join(args[1:], " "))
		fmt.Println("CLI_HOME_PATH=" + os.Getenv("CLI_HOME_PATH"))
		os.Exit(0)
	case "cat":
		io.Copy(os.Stdout, os.Stdin)
		os.Exit(0)
	}
	os.Exit(2)
}

func helperLaunch(args ...string) Launch {
	return Launch{
		Entry: os.Args[0],
		Args:  append([]string{"-test.run=TestHelperProcess", "--"}, args...),
		Env:   map[string]string{"GO_WANT_HELPER_PROCESS": "1"},
	}
}

func TestKind(t *testing.T) {
	tests := map[string]string{
		"/pkg/lib/index.js":  RuntimeNode,
		"/pkg/lib/index.CJS": RuntimeNode,
		"/pkg/lib/index.mjs": RuntimeNode,
		"/pkg/bin/init":      RuntimeNative,
		"/pkg/bin/init.exe":  RuntimeNative,
		"/pkg/bin/init.sh":   RuntimeNative,
	}
	for entry, want := range tests {
		if got := Kind(entry); got != want {
			t.Errorf("Kind(%q) = %q, want %q", entry, got, want)
		}
	}

	if _, ok := ForEntry("/a/index.js", Streams{}).(*NodeRuntime); !ok {
		t.Error("ForEntry(.js) is not a NodeRuntime")
	}
	if _, ok := ForEntry("/a/init", Streams{}).(*NativeRuntime); !ok {
		t.Error("ForEntry(no extension) is not a NativeRuntime")
	}
}

func TestNativeRuntime_ExitCodePropagates(t *testing.T) {
	rt := &NativeRuntime{}
	code, err := rt.Run(context.Background(), helperLaunch("exit", "42"))
	if err != nil {
		t.Fatalf("unexpected error (non-zero exit should not be an error): %v", err)
	}
	if code != 42 {
		t.Errorf("exit code = %d, want 42", code)
	}
}

func TestNativeRuntime_PassesArgsAndEnv(t *testing.T) {
	var stdout bytes.Buffer
	rt := &NativeRuntime{Streams: Streams{Stdout: &stdout}}

	l := helperLaunch("echo", "run", `{"command":"init"}`)
	l.Env["CLI_HOME_PATH"] = "/home/u/.hcli"

	code, err := rt.Run(context.Background(), l)
	if err != nil || code != 0 {
		t.Fatalf("Run() = %d, %v", code, err)
	}
	out := stdout.String()
	if !strings.Contains(out, `run {"command":"init"}`) {
		t.Errorf("stdout %q is missing the descriptor", out)
	}
	if !strings.Contains(out, "CLI_HOME_PATH=/home/u/.hcli") {
		t.Errorf("stdout %q is missing the injected env", out)
	}
}

func TestNativeRuntime_Stdin(t *testing.T) {
	var stdout bytes.Buffer
	rt := &NativeRuntime{Streams: Streams{Stdin: strings.NewReader("piped"), Stdout: &stdout}}

	if code, err := rt.Run(context.Background(), helperLaunch("cat")); err != nil || code != 0 {
		t.Fatalf("Run() = %d, %v", code, err)
	}
	if stdout.String() != "piped" {
		t.Errorf("stdout = %q, want %q", stdout.String(), "piped")
	}
}

func TestNativeRuntime_SpawnFailure(t *testing.T) {
	rt := &NativeRuntime{}
	_, err := rt.Run(context.Background(), Launch{Entry: filepath.Join(t.TempDir(), "missing")})
	if !clierr.Is(err, clierr.EDispatch) {
		t.Errorf("error = %v, want %s", err, clierr.EDispatch)
	}
}

func TestNodeRuntime_MissingNode(t *testing.T) {
	rt := &NodeRuntime{NodePath: filepath.Join(t.TempDir(), "node")}
	_, err := rt.Run(context.Background(), Launch{Entry: "/pkg/index.js"})
	if !clierr.Is(err, clierr.EDispatch) {
		t.Errorf("error = %v, want %s", err, clierr.EDispatch)
	}
}

func TestNodeArgs(t *testing.T) {
	payload := `{"command":"init","args":["demo"],"options":{}}`
	args := nodeArgs(Launch{Entry: "/pkg/lib/index.js", Args: []string{"run", payload}})

	if len(args) != 6 || args[0] != "-e" || args[1] != loaderSource {
		t.Fatalf("node args = %q, want -e <loader> first", args)
	}
	if got := strings.Join(args[2:], " "); got != "-- /pkg/lib/index.js run "+payload {
		t.Errorf("loader argv = %q", got)
	}
	if strings.Contains(loaderSource, "/pkg/lib/index.js") || strings.Contains(loaderSource, payload) {
		t.Error("entry or descriptor was interpolated into the loader source")
	}
}

// writeEntry writes a JavaScript entry into a fresh directory.
func writeEntry(t *testing.T, name, source string) string {
	t.Helper()
	entry := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(entry, []byte(source), 0644); err != nil {
		t.Fatal(err)
	}
	return entry
}

func requireNode(t *testing.T) {
	t.Helper()
	// Skip if Node.js is not available.
	if _, err := exec.LookPath("node"); err != nil {
		t.Skip("Node.js not available, skipping")
	}
}

func TestNodeRuntime_CallsExportedFunction(t *testing.T) {
	requireNode(t)

	marker := filepath.Join(t.TempDir(), "called")
	entry := writeEntry(t, "index.js", `
const fs = require("fs");
module.exports = function init(argv) {
	fs.writeFileSync(process.env.HCLI_MARKER, JSON.stringify({argv, target: process.env.CLI_TARGET_PATH}));
};
`)

	code, err := (&NodeRuntime{}).Run(context.Background(), Launch{
		Entry: entry,
		Args:  []string{"run", `{"command":"init","args":["demo"],"options":{"force":true}}`},
		Env:   map[string]string{"CLI_TARGET_PATH": "/tmp/t", "HCLI_MARKER": marker},
	})
	if err != nil || code != 0 {
		t.Fatalf("Run() = %d, %v", code, err)
	}

	data, err := os.ReadFile(marker)
	if err != nil {
		t.Fatalf("exported function was not called: %v", err)
	}
	if want := `{"argv":["demo",{"force":true}],"target":"/tmp/t"}`; string(data) != want {
		t.Errorf("function saw %s, want %s", data, want)
	}
}

func TestNodeRuntime_AwaitsAsyncDefaultExport(t *testing.T) {
	requireNode(t)

	marker := filepath.Join(t.TempDir(), "called")
	entry := writeEntry(t, "index.mjs", `
import { writeFileSync } from "node:fs";
export default async function (argv) {
	await new Promise((r) => setTimeout(r, 10));
	writeFileSync(process.env.HCLI_MARKER, argv.length + ":" + argv[0]);
}
`)

	code, err := (&NodeRuntime{}).Run(context.Background(), Launch{
		Entry: entry,
		Args:  []string{"run", `{"command":"init","args":["a","b"],"options":{}}`},
		Env:   map[string]string{"HCLI_MARKER": marker},
	})
	if err != nil || code != 0 {
		t.Fatalf("Run() = %d, %v", code, err)
	}
	if data, _ := os.ReadFile(marker); string(data) != "3:a" {
		t.Errorf("function saw %q, want %q", data, "3:a")
	}
}

func TestNodeRuntime_EntryFailures(t *testing.T) {
	requireNode(t)

	tests := []struct {
		name   string
		source string
		want   int
	}{
		{"throws", `module.exports = () => { throw new Error("boom"); };`, 1},
		{"rejects", `module.exports = async () => { throw new Error("boom"); };`, 1},
		{"no exported function", `module.exports = { name: "init" };`, 1},
		{"sets exit code", `module.exports = () => { process.exitCode = 6; };`, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := writeEntry(t, "index.js", tt.source)
			code, err := (&NodeRuntime{Streams: Streams{Stderr: io.Discard}}).Run(context.Background(), Launch{
				Entry: entry,
				Args:  []string{"run", `{"command":"init","args":[],"options":{}}`},
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if code != tt.want {
				t.Errorf("exit code = %d, want %d", code, tt.want)
			}
		})
	}
}

func TestSetEnv(t *testing.T) {
	tests := []struct {
		name     string
		env      []string
		key      string
		value    string
		expected []string
	}{
		{
			name:     "add new variable",
			env:      []string{"FOO=bar"},
			key:      "BAZ",
			value:    "qux",
			expected: []string{"FOO=bar", "BAZ=qux"},
		},
		{
			name:     "replace existing variable",
			env:      []string{"FOO=bar", "BAZ=old"},
			key:      "BAZ",
			value:    "new",
			expected: []string{"FOO=bar", "BAZ=new"},
		},
		{
			name:     "add to empty env",
			env:      nil,
			key:      "KEY",
			value:    "val",
			expected: []string{"KEY=val"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := setEnv(tt.env, tt.key, tt.value)
			if len(result) != len(tt.expected) {
				t.Fatalf("expected %d entries, got %d: %v", len(tt.expected), len(result), result)
			}
			for i, e := range tt.expected {
				if result[i] != e {
					t.Errorf("env[%d] = %q, want %q", i, result[i], e)
				}
			}
		})
	}
}

func TestBuildEnvDoesNotMutateBase(t *testing.T) {
	base := []string{"A=1", "B=2"}
	env := buildEnv(base, map[string]string{"B": "3", "C": "4"})
	if base[1] != "B=2" {
		t.Errorf("base mutated: %v", base)
	}
	want := []string{"A=1", "B=3", "C=4"}
	if strings.Join(env, ",") != strings.Join(want, ",") {
		t.Errorf("buildEnv() = %v, want %v", env, want)
	}
}
