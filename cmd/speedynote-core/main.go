// Command speedynote-core exercises the canvas engine headlessly: it can
// create bundles, migrate legacy ones, render a page to PNG, and export
// annotated pages, all without a GUI event loop.
package main

import (
	"fmt"
	"os"

	"github.com/speedynote/speedynote-core/internal/canvaslog"
)

var version = "dev" // set via -ldflags at build time

func main() {
	if err := Execute(); err != nil {
		canvaslog.Get().Errorw("command failed", "error", err)
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
