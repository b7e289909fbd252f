package runtime

import (
	"context"
)

// NativeRuntime executes the entry file itself. The entry must be
// executable on the host: a binary, or a script with a shebang line.
type NativeRuntime struct {
	Streams
}

// Run implements Runtime.
func (n *NativeRuntime) Run(ctx context.Context, l Launch) (int, error) {
	return start(ctx, l.Entry, l.Args, l, n.Streams)
}
