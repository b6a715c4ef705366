package predictor

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/LeonardoBeccarini/agrisense/internal/config"
	"github.com/LeonardoBeccarini/agrisense/internal/resilience"
)

// Client invoca il Predictor remoto attraverso un circuit breaker.
type Client struct {
	conn    grpc.ClientConnInterface
	closer  func() error
	cb      *gobreaker.CircuitBreaker
	timeout time.Duration
}

var _ Predictor = (*Client)(nil)

// Dial crea la connessione (lazy: grpc.NewClient non blocca) verso addr.
func Dial(addr string, cfg config.PredictorConfig, opts ...grpc.DialOption) (*Client, error) {
	if addr == "" {
		return nil, ErrNoModel
	}
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial predictor %s: %w", addr, err)
	}
	c := NewClient(conn, cfg)
	c.closer = conn.Close
	return c, nil
}

func NewClient(conn grpc.ClientConnInterface, cfg config.PredictorConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Client{
		conn:    conn,
		cb:      resilience.NewBreaker("predictor", cfg.Breaker),
		timeout: timeout,
	}
}

// Predict returns gobreaker.ErrOpenState without calling out while the breaker is open.
func (c *Client) Predict(ctx context.Context, model string, features map[string]any) (Prediction, error) {
	req, err := encodeRequest(model, features)
	if err != nil {
		return Prediction{}, err
	}
	res, err := c.cb.Execute(func() (any, error) {
		cctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		out := new(structpb.Struct)
		if err := c.conn.Invoke(cctx, PredictMethod, req, out); err != nil {
			return nil, err
		}
		return out, nil
	})
	if err != nil {
		return Prediction{}, fmt.Errorf("predict %s: %w", model, err)
	}
	return decodeResponse(res.(*structpb.Struct)), nil
}

func (c *Client) State() gobreaker.State { return c.cb.State() }

func (c *Client) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}
