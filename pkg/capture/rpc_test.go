package capture

import (
	"context"
	"errors"
	"net"
	"net/rpc"
	"testing"
	"time"
)

type mockSource struct {
	data       []byte
	info       SourceInfo
	captureErr error
	lastOpts   CaptureOptions
	block      chan struct{}
}

func (m *mockSource) Capture(_ context.Context, opts CaptureOptions) ([]byte, error) {
	m.lastOpts = opts
	if m.block != nil {
		<-m.block
	}
	if m.captureErr != nil {
		return nil, m.captureErr
	}
	return m.data, nil
}

func (m *mockSource) Info() SourceInfo {
	return m.info
}

// newPipeClient serves impl over an in-memory connection.
func newPipeClient(t *testing.T, impl Source) *SourceRPCClient {
	t.Helper()

	server := rpc.NewServer()
	if err := server.RegisterName("Plugin", &SourceRPCServer{Impl: impl}); err != nil {
		t.Fatalf("RegisterName() error = %v", err)
	}

	srvConn, cliConn := net.Pipe()
	go server.ServeConn(srvConn)

	client := rpc.NewClient(cliConn)
	t.Cleanup(func() { client.Close() })

	return &SourceRPCClient{client: client}
}

func TestSourceRPCServer(t *testing.T) {
	mock := &mockSource{data: []byte{0x89, 'P', 'N', 'G'}}
	server := &SourceRPCServer{Impl: mock}

	var resp []byte
	opts := CaptureOptions{Target: "https://example.com", Width: 800}
	if err := server.Capture(opts, &resp); err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	if string(resp) != string(mock.data) {
		t.Errorf("Capture() = %v, want %v", resp, mock.data)
	}
	if mock.lastOpts.Target != opts.Target || mock.lastOpts.Width != 800 {
		t.Errorf("plugin received %+v, want %+v", mock.lastOpts, opts)
	}

	mock.captureErr = errors.New("no display")
	if err := server.Capture(opts, &resp); err == nil {
		t.Error("Capture() error = nil, want error")
	}
}

func TestSourceRPCRoundTrip(t *testing.T) {
	mock := &mockSource{
		data: []byte("image-bytes"),
		info: SourceInfo{Name: "tab", Version: "1.0.0", ProtocolVersion: ProtocolVersion},
	}
	client := newPipeClient(t, mock)

	info, err := client.Info()
	if err != nil {
		t.Fatalf("Info() error = %v", err)
	}
	if info.Name != "tab" || info.ProtocolVersion != ProtocolVersion {
		t.Errorf("Info() = %+v", info)
	}

	data, err := client.Capture(context.Background(), CaptureOptions{Target: "tab:1"})
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	if string(data) != "image-bytes" {
		t.Errorf("Capture() = %q, want %q", data, "image-bytes")
	}
}

func TestSourceRPCClientCancel(t *testing.T) {
	mock := &mockSource{block: make(chan struct{})}
	defer close(mock.block)
	client := newPipeClient(t, mock)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := client.Capture(ctx, CaptureOptions{}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Capture() error = %v, want deadline exceeded", err)
	}
}

func TestHandshake(t *testing.T) {
	if Handshake.MagicCookieKey != "CONTRASTLENS_PLUGIN" {
		t.Errorf("MagicCookieKey = %q", Handshake.MagicCookieKey)
	}
	if Handshake.ProtocolVersion != ProtocolVersion {
		t.Errorf("ProtocolVersion = %d, want %d", Handshake.ProtocolVersion, ProtocolVersion)
	}
}

func TestSourcePlugin(t *testing.T) {
	mock := &mockSource{}
	p := &SourcePlugin{Impl: mock}

	t.Run("Server", func(t *testing.T) {
		server, err := p.Server(nil)
		if err != nil {
			t.Fatalf("Server() error = %v", err)
		}
		rpcServer, ok := server.(*SourceRPCServer)
		if !ok {
			t.Fatal("Server() returned wrong type")
		}
		if rpcServer.Impl != mock {
			t.Fatal("Server() impl not set correctly")
		}
	})

	t.Run("Client", func(t *testing.T) {
		client, err := p.Client(nil, nil)
		if err != nil {
			t.Fatalf("Client() error = %v", err)
		}
		if _, ok := client.(*SourceRPCClient); !ok {
			t.Fatal("Client() returned wrong type")
		}
	})
}
