package llm

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// chatMethod is the fully-qualified gRPC method the remote decision
// service must expose: a single unary call taking a generic struct
// ({"prompt": "...", "model": "..."}) and returning a generic struct
// ({"content": "..."}). Using structpb.Struct as the wire payload lets
// this adapter talk to any backend that implements the method without
// the core module owning or generating that backend's .proto.
const chatMethod = "/recall.llm.ChatService/Chat"

// maxChatRetries and retryBackoff bound the retry of a Chat call on
// transient gRPC failures, carrying over the reference client's
// urllib3.Retry(total=2, backoff_factor=0.2, status_forcelist=[429,
// 500, 502, 503, 504]) policy translated to gRPC status codes.
const maxChatRetries = 2

var retryableCodes = map[codes.Code]struct{}{
	codes.Unavailable:       {},
	codes.ResourceExhausted: {},
	codes.DeadlineExceeded:  {},
	codes.Aborted:           {},
}

func retryBackoff(attempt int) time.Duration {
	return time.Duration(200*(attempt+1)) * time.Millisecond
}

// Client is a gRPC-backed ChatBackend. It never interprets the model's
// response beyond lifting the "content" field off the wire — decision
// parsing happens in ParseDecision.
type Client struct {
	conn  *grpc.ClientConn
	model string
}

// NewClient dials addr and returns a Client bound to model. The
// connection is lazy (grpc.NewClient does not block on dial).
func NewClient(addr, model string) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("llm: failed to connect to chat service: %w", err)
	}
	return &Client{conn: conn, model: model}, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Chat implements ChatBackend by invoking the remote chat method with
// a structpb-encoded request and pulling the "content" field out of
// the structpb-encoded response.
func (c *Client) Chat(ctx context.Context, promptText string) (string, error) {
	req, err := structpb.NewStruct(map[string]any{
		"prompt": promptText,
		"model":  c.model,
	})
	if err != nil {
		return "", fmt.Errorf("llm: failed to encode request: %w", err)
	}

	resp := &structpb.Struct{}
	var lastErr error
	for attempt := 0; attempt <= maxChatRetries; attempt++ {
		lastErr = c.conn.Invoke(ctx, chatMethod, req, resp)
		if lastErr == nil {
			break
		}
		if _, retryable := retryableCodes[status.Code(lastErr)]; !retryable || attempt == maxChatRetries {
			break
		}
		select {
		case <-time.After(retryBackoff(attempt)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if lastErr != nil {
		return "", fmt.Errorf("llm: chat rpc failed: %w", lastErr)
	}

	content, ok := resp.Fields["content"]
	if !ok {
		return "", fmt.Errorf("llm: response missing content field")
	}
	return content.GetStringValue(), nil
}
