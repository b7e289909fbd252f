package runtime

import (
	"context"
	_ "embed"
	"os/exec"

	clierr "github.com/hhs-labs/hcli/internal/errors"
)

// loaderSource is a fixed node program. It requires the entry named on its
// command line and calls the exported function with the decoded descriptor.
// Nothing is interpolated into it.
//
//go:embed loader.js
var loaderSource string

// NodeRuntime runs JavaScript entries through the embedded loader as
// `node -e <loader> -- <entry> <args...>`.
type NodeRuntime struct {
	Streams
	// NodePath overrides the node binary found on PATH.
	NodePath string
}

// Run implements Runtime.
func (n *NodeRuntime) Run(ctx context.Context, l Launch) (int, error) {
	nodeBin := n.NodePath
	if nodeBin == "" {
		var err error
		nodeBin, err = exec.LookPath("node")
		if err != nil {
			return -1, clierr.Wrap(clierr.EDispatch, "running a JavaScript entry requires Node.js", err)
		}
	}
	return start(ctx, nodeBin, nodeArgs(l), l, n.Streams)
}

func nodeArgs(l Launch) []string {
	return append([]string{"-e", loaderSource, "--", l.Entry}, l.Args...)
}
