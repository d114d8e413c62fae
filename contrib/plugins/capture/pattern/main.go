// pattern - synthetic test page source (contrastlens capture plugin)
//
// Renders a page of coloured panels, each carrying a few "text" bars, and
// returns it as a PNG. Panel and text colours are drawn from a seeded RNG, so
// a fixed seed always yields the same page and some panels are guaranteed to
// have low contrast. Useful for exercising scan end to end without a browser.
//
// Build:
//   go build -o pattern ./contrib/plugins/capture/pattern
//
// Usage:
//   contrastlens scan --source-plugin ./pattern --plugin-args '{"seed":42}'
//
// Plugin Args:
//   seed:  RNG seed (default: random)
//   panel: panel size in pixels (default: 64)
package main

import (
	"github.com/jmylchreest/contrastlens/pkg/capture"
)

func main() {
	capture.Serve(&PatternSource{})
}
