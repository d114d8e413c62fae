// Package capture provides the public API for contrastlens capture-source plugins.
//
// A capture source is an external binary that produces a screenshot (for
// example of a browser tab) as an encoded PNG or JPEG. contrastlens launches
// it with go-plugin and analyses the returned image.
package capture

import (
	"context"

	"github.com/hashicorp/go-plugin"
)

// PluginName is the name under which the source is dispensed.
const PluginName = "source"

// ProtocolVersion is the capture plugin API version. It must match exactly.
const ProtocolVersion = 1

// Handshake is the go-plugin handshake shared by host and plugins.
var Handshake = plugin.HandshakeConfig{
	ProtocolVersion:  ProtocolVersion,
	MagicCookieKey:   "CONTRASTLENS_PLUGIN",
	MagicCookieValue: "contrastlens_capture_source",
}

// CaptureOptions is sent to the plugin for each capture.
type CaptureOptions struct {
	// Target identifies what to capture, e.g. a URL or window title.
	// Its meaning is plugin specific.
	Target string `json:"target,omitempty"`

	// Width and Height request a viewport size. Zero lets the plugin choose.
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`

	// PluginArgs carries free-form plugin settings.
	PluginArgs map[string]any `json:"plugin_args,omitempty"`
}

// SourceInfo describes a capture plugin.
type SourceInfo struct {
	Name            string `json:"name"`
	Version         string `json:"version"`
	Description     string `json:"description,omitempty"`
	ProtocolVersion int    `json:"protocol_version"`
}

// Source is implemented by capture plugins.
type Source interface {
	// Capture returns an encoded PNG or JPEG image.
	Capture(ctx context.Context, opts CaptureOptions) ([]byte, error)

	// Info returns plugin metadata.
	Info() SourceInfo
}

// Serve runs impl as a plugin process. It blocks until the host disconnects.
func Serve(impl Source) {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: Handshake,
		Plugins: map[string]plugin.Plugin{
			PluginName: &SourcePlugin{Impl: impl},
		},
	})
}
