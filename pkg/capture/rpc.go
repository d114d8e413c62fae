package capture

import (
	"context"
	"net/rpc"

	"github.com/hashicorp/go-plugin"
)

// SourcePlugin implements the go-plugin Plugin interface for capture sources.
type SourcePlugin struct {
	plugin.Plugin
	Impl Source
}

// Server returns an RPC server for this plugin.
func (p *SourcePlugin) Server(*plugin.MuxBroker) (any, error) {
	return &SourceRPCServer{Impl: p.Impl}, nil
}

// Client returns an RPC client for this plugin.
func (p *SourcePlugin) Client(_ *plugin.MuxBroker, c *rpc.Client) (any, error) {
	return &SourceRPCClient{client: c}, nil
}

// SourceRPCServer is the RPC server side of a capture source.
type SourceRPCServer struct {
	Impl Source
}

// Capture implements the RPC method for capturing an image.
func (s *SourceRPCServer) Capture(opts CaptureOptions, resp *[]byte) error {
	data, err := s.Impl.Capture(context.Background(), opts)
	if err != nil {
		return err
	}
	*resp = data
	return nil
}

// Info implements the RPC method for fetching plugin metadata.
func (s *SourceRPCServer) Info(_ any, resp *SourceInfo) error {
	*resp = s.Impl.Info()
	return nil
}

// SourceRPCClient is the host side of a capture source.
type SourceRPCClient struct {
	client *rpc.Client
}

// Capture calls the remote Capture method. Cancelling ctx abandons the call;
// the plugin keeps running until the host kills it.
func (c *SourceRPCClient) Capture(ctx context.Context, opts CaptureOptions) ([]byte, error) {
	var data []byte
	call := c.client.Go("Plugin.Capture", opts, &data, make(chan *rpc.Call, 1))
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-call.Done:
		if call.Error != nil {
			return nil, call.Error
		}
		return data, nil
	}
}

// Info calls the remote Info method.
func (c *SourceRPCClient) Info() (SourceInfo, error) {
	var info SourceInfo
	err := c.client.Call("Plugin.Info", new(any), &info)
	return info, err
}
