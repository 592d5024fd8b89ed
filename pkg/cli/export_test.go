package cli

import (
	"context"
	"io"

	"github.com/m-mizutani/fireconf"
)

// DefineFirestoreIndexes exposes defineFirestoreIndexes for testing
func DefineFirestoreIndexes() *fireconf.Config {
	return defineFirestoreIndexes()
}

// RunWithWriter runs the app writing command output to w
func RunWithWriter(ctx context.Context, args []string, w io.Writer) error {
	return run(ctx, args, w)
}
