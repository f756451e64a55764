// Package grpc implements the gRPC transport for castervoice.
//
// The service is castervoice.v1.Synthesizer with a single unary Synthesize
// method. Messages are JSON, carried with the "json" content subtype, so
// clients call it with grpc.CallContentSubtype("json") and no generated
// stubs. The standard grpc.health.v1 service is registered alongside.
package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/nadzzz/castervoice/internal/message"
	"github.com/nadzzz/castervoice/internal/transport"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "castervoice.v1.Synthesizer"

// SynthesizeMethod is the full method path of the unary Synthesize RPC.
const SynthesizeMethod = "/" + ServiceName + "/Synthesize"

// SynthesizeResponse is the reply to a Synthesize call. Audio is base64 on
// the wire.
type SynthesizeResponse struct {
	RequestID   string `json:"request_id"`
	Audio       []byte `json:"audio"`
	ContentType string `json:"content_type"`
	SampleRate  int    `json:"sample_rate"`
	Emotion     string `json:"emotion"`
}

// SynthesizerServer is the server API for the Synthesizer service.
type SynthesizerServer interface {
	Synthesize(ctx context.Context, req json.RawMessage) (*SynthesizeResponse, error)
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// jsonCodec marshals messages as JSON. Raw messages pass through untouched
// so that malformed request bodies reach the handler and are reported as
// InvalidArgument.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(v any) ([]byte, error) {
	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if raw, ok := v.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], data...)
		return nil
	}
	return json.Unmarshal(data, v)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SynthesizerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Synthesize", Handler: synthesizeHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "castervoice/v1/synthesizer.proto",
}

func synthesizeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	var in json.RawMessage
	if err := dec(&in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SynthesizerServer).Synthesize(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SynthesizeMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SynthesizerServer).Synthesize(ctx, req.(json.RawMessage))
	}
	return interceptor(ctx, in, info, handler)
}

// synthesizer adapts a transport.Handler to SynthesizerServer.
type synthesizer struct {
	handler transport.Handler
}

func (s *synthesizer) Synthesize(ctx context.Context, body json.RawMessage) (*SynthesizeResponse, error) {
	id := uuid.NewString()

	req, err := message.ParseSynthesisRequest(body)
	if err != nil {
		slog.Debug("rejecting grpc synthesize", "request_id", id, "error", err)
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	req.ID = id

	result, err := s.handler(ctx, req)
	if err != nil {
		slog.Error("grpc synthesize failed", "request_id", id, "error", err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, status.FromContextError(ctxErr).Err()
		}
		return nil, status.Error(codes.Internal, "synthesis failed")
	}

	return &SynthesizeResponse{
		RequestID:   id,
		Audio:       result.Audio,
		ContentType: result.ContentType,
		SampleRate:  result.SampleRate,
		Emotion:     result.Emotion.String(),
	}, nil
}

// Transport implements transport.Transport over gRPC.
type Transport struct {
	port   int
	health *health.Server

	mu     sync.Mutex
	server *grpc.Server
	closed bool
}

// New creates a new gRPC transport on the given port.
func New(port int) *Transport {
	return &Transport{port: port, health: health.NewServer()}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "grpc" }

// Listen starts the gRPC server and routes incoming requests to the handler.
func (t *Transport) Listen(ctx context.Context, handler transport.Handler) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", t.port))
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	slog.Info("grpc transport listening", "port", t.port)
	return t.Serve(ctx, lis, handler)
}

// Serve accepts connections on lis until ctx is cancelled.
func (t *Transport) Serve(ctx context.Context, lis net.Listener, handler transport.Handler) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	server := grpc.NewServer(
		grpc.ChainUnaryInterceptor(logUnary, recoverUnary),
	)
	server.RegisterService(&serviceDesc, &synthesizer{handler: handler})
	healthpb.RegisterHealthServer(server, t.health)
	t.server = server
	t.mu.Unlock()

	// The transport only starts once the generator is preloaded.
	t.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	t.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	go func() {
		<-ctx.Done()
		slog.Info("grpc transport shutting down")
		t.health.Shutdown()
		server.GracefulStop()
	}()

	if err := server.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("grpc serve: %w", err)
	}
	return nil
}

// Close gracefully stops the gRPC server. A transport closed before Serve
// never starts.
func (t *Transport) Close() error {
	t.mu.Lock()
	t.closed = true
	server := t.server
	t.mu.Unlock()

	t.health.Shutdown()
	if server != nil {
		server.GracefulStop()
	}
	return nil
}

func logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	slog.Debug("grpc call",
		"method", info.FullMethod,
		"code", status.Code(err).String(),
		"duration", time.Since(start))
	return resp, err
}

func recoverUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("panic in grpc handler", "method", info.FullMethod, "panic", rec, "stack", string(debug.Stack()))
			resp, err = nil, status.Error(codes.Internal, "synthesis failed")
		}
	}()
	return handler(ctx, req)
}

// Client calls a remote Synthesizer service.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps an established connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Synthesize sends text and emotion and returns the encoded audio. An empty
// emotion leaves the server default in place.
func (c *Client) Synthesize(ctx context.Context, text, emotion string, opts ...grpc.CallOption) (*SynthesizeResponse, error) {
	body, err := json.Marshal(struct {
		Text    string `json:"text"`
		Emotion string `json:"emotion,omitempty"`
	}{Text: text, Emotion: emotion})
	if err != nil {
		return nil, err
	}
	return c.Invoke(ctx, body, opts...)
}

// Invoke sends a raw JSON request body.
func (c *Client) Invoke(ctx context.Context, body json.RawMessage, opts ...grpc.CallOption) (*SynthesizeResponse, error) {
	out := new(SynthesizeResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype("json")}, opts...)
	if err := c.cc.Invoke(ctx, SynthesizeMethod, body, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
