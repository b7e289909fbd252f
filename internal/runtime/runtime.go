package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	clierr "github.com/hhs-labs/hcli/internal/errors"
)

// Launch describes one child process.
type Launch struct {
	// Entry is the absolute path of the file to run.
	Entry string
	// Args follow the entry on the command line.
	Args []string
	// Env is added to the inherited environment, replacing same-named keys.
	Env map[string]string
	// Dir is the working directory; empty means the caller's.
	Dir string
}

// Runtime runs a Launch to completion and returns the child's exit code.
// A child that starts and exits non-zero is not an error; failing to start
// it, or losing it to a signal, is.
type Runtime interface {
	Run(ctx context.Context, l Launch) (int, error)
}

// Streams wires a child's standard I/O. Nil fields inherit the parent's.
type Streams struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Supported launcher identifiers.
const (
	RuntimeNode   = "node"
	RuntimeNative = "native"
)

// Kind returns the launcher identifier for an entry file.
func Kind(entry string) string {
	switch strings.ToLower(filepath.Ext(entry)) {
	case ".js", ".cjs", ".mjs":
		return RuntimeNode
	default:
		return RuntimeNative
	}
}

// ForEntry returns the Runtime able to start entry.
func ForEntry(entry string, s Streams) Runtime {
	if Kind(entry) == RuntimeNode {
		return &NodeRuntime{Streams: s}
	}
	return &NativeRuntime{Streams: s}
}

// start runs bin with args under l's environment and maps the outcome to an
// exit code or a dispatch error.
func start(ctx context.Context, bin string, args []string, l Launch, s Streams) (int, error) {
	details := map[string]string{"entry": l.Entry}

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = l.Dir
	cmd.Env = buildEnv(os.Environ(), l.Env)
	cmd.Stdin = orReader(s.Stdin, os.Stdin)
	cmd.Stdout = orWriter(s.Stdout, os.Stdout)
	cmd.Stderr = orWriter(s.Stderr, os.Stderr)

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code >= 0 {
			return code, nil
		}
		return -1, clierr.WrapWithDetails(clierr.EDispatch, "child process was terminated", err, details)
	}
	return -1, clierr.WrapWithDetails(clierr.EDispatch, fmt.Sprintf("starting %s", filepath.Base(l.Entry)), err, details)
}

// buildEnv layers extra over base in sorted key order.
func buildEnv(base []string, extra map[string]string) []string {
	env := append([]string(nil), base...)
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = setEnv(env, k, extra[k])
	}
	return env
}

// setEnv sets or replaces an environment variable in the env slice.
func setEnv(env []string, key, value string) []string {
	prefix := key + "="
	for i, e := range env {
		if strings.HasPrefix(e, prefix) {
			env[i] = prefix + value
			return env
		}
	}
	return append(env, prefix+value)
}

func orReader(r, def io.Reader) io.Reader {
	if r == nil {
		return def
	}
	return r
}

func orWriter(w, def io.Writer) io.Writer {
	if w == nil {
		return def
	}
	return w
}
