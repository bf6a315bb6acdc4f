package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// maxReplyBytes bounds how much of a gateway reply is read.
const maxReplyBytes = 64 << 10

// HTTPNotifier posts the code with net/http instead of an external client.
// It classifies replies exactly like CurlNotifier.
type HTTPNotifier struct {
	client *http.Client
	url    string
	logger *zap.Logger
}

// NewHTTPNotifier returns an HTTPNotifier for the gateway at gatewayURL.
// A nil client gets a 15 second timeout.
func NewHTTPNotifier(client *http.Client, gatewayURL string, logger *zap.Logger) *HTTPNotifier {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if gatewayURL == "" {
		gatewayURL = DefaultGatewayURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPNotifier{client: client, url: gatewayURL, logger: logger}
}

// Notify implements Notifier.
func (n *HTTPNotifier) Notify(ctx context.Context, req Request) error {
	form := url.Values{}
	form.Set("number", req.Number)
	form.Set("message", req.Message())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%w: build request: %w", ErrNotDelivered, err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	log := n.logger.With(zap.String("request_id", req.ID))
	resp, err := n.client.Do(httpReq)
	if err != nil {
		log.Warn("gateway request failed", zap.Error(err))
		return fmt.Errorf("%w: http post: %w", ErrNotDelivered, err)
	}
	defer resp.Body.Close()

	reply, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		log.Warn("gateway reply unreadable", zap.Error(err))
	}
	if !IsSuccess(reply) {
		log.Warn("gateway did not confirm delivery",
			zap.Int("status", resp.StatusCode),
			zap.String("reply", snippet(reply)),
		)
		return fmt.Errorf("%w: gateway returned %d", ErrNotDelivered, resp.StatusCode)
	}
	log.Info("authentication code delivered", zap.Int("status", resp.StatusCode))
	return nil
}
