// Package capture runs capture-source plugins and decodes their screenshots.
package capture

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"

	"github.com/jmylchreest/contrastlens/internal/image"
	"github.com/jmylchreest/contrastlens/internal/security"
	"github.com/jmylchreest/contrastlens/pkg/capture"
)

// sourceClient is the subset of capture.SourceRPCClient the executor needs.
type sourceClient interface {
	Capture(ctx context.Context, opts capture.CaptureOptions) ([]byte, error)
	Info() (capture.SourceInfo, error)
}

// Executor launches a capture plugin and turns its output into a Bitmap.
type Executor struct {
	path     string
	logger   hclog.Logger
	maxBytes int64
	client   *plugin.Client
	source   sourceClient
}

// New creates an Executor for the plugin binary at pluginPath.
// The plugin process is started lazily on first use.
func New(pluginPath string, logger hclog.Logger) (*Executor, error) {
	if err := security.ValidatePluginBinary(pluginPath); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	return &Executor{
		path:     pluginPath,
		logger:   logger.Named("plugin"),
		maxBytes: image.DefaultMaxBytes,
	}, nil
}

// WithMaxBytes caps the encoded image size accepted from the plugin.
func (e *Executor) WithMaxBytes(n int64) *Executor {
	if n > 0 {
		e.maxBytes = n
	}
	return e
}

// Info returns the plugin metadata.
func (e *Executor) Info(ctx context.Context) (capture.SourceInfo, error) {
	src, err := e.getSource(ctx)
	if err != nil {
		return capture.SourceInfo{}, err
	}
	info, err := src.Info()
	if err != nil {
		return capture.SourceInfo{}, fmt.Errorf("failed to query plugin info: %w", err)
	}
	return info, nil
}

// Capture asks the plugin for a screenshot and decodes it.
func (e *Executor) Capture(ctx context.Context, opts capture.CaptureOptions) (*image.Bitmap, error) {
	src, err := e.getSource(ctx)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("capturing", "target", opts.Target)
	data, err := src.Capture(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("plugin capture failed: %w", err)
	}
	if int64(len(data)) > e.maxBytes {
		return nil, fmt.Errorf("plugin returned %d bytes: %w", len(data), security.ErrSizeLimitExceeded)
	}

	bm, err := image.DecodeBytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode plugin capture: %w", err)
	}
	e.logger.Debug("captured", "width", bm.Width, "height", bm.Height)
	return bm, nil
}

// Close kills the plugin process, if running.
func (e *Executor) Close() {
	if e.client != nil {
		e.client.Kill()
		e.client = nil
	}
	e.source = nil
}

func (e *Executor) getSource(ctx context.Context) (sourceClient, error) {
	if e.source != nil {
		return e.source, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.client = plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig: capture.Handshake,
		Plugins: map[string]plugin.Plugin{
			capture.PluginName: &capture.SourcePlugin{},
		},
		Cmd:              exec.Command(e.path), // #nosec G204 - plugin path validated in New
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolNetRPC},
		Logger:           e.logger,
	})

	rpcClient, err := e.client.Client()
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("failed to get RPC client: %w", err)
	}

	raw, err := rpcClient.Dispense(capture.PluginName)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("failed to dispense plugin: %w", err)
	}

	src, ok := raw.(*capture.SourceRPCClient)
	if !ok {
		e.Close()
		return nil, fmt.Errorf("unexpected plugin type %T", raw)
	}
	e.source = src
	return src, nil
}
