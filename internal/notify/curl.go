package notify

import (
	"context"
	"fmt"

	"github.com/atinyakov/twofzip/internal/runner"
	"go.uber.org/zap"
)

// CurlNotifier posts the code with the curl executable through a
// runner.Runner.
type CurlNotifier struct {
	runner runner.Runner
	tool   string
	url    string
	logger *zap.Logger
}

// NewCurlNotifier returns a CurlNotifier running tool (normally "curl")
// against the gateway at url. Empty values fall back to the defaults.
func NewCurlNotifier(r runner.Runner, tool, url string, logger *zap.Logger) *CurlNotifier {
	if tool == "" {
		tool = "curl"
	}
	if url == "" {
		url = DefaultGatewayURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CurlNotifier{runner: r, tool: tool, url: url, logger: logger}
}

// Args builds the curl argument vector for req. Both fields are sent
// form-urlencoded.
func (n *CurlNotifier) Args(req Request) []string {
	return []string{
		"--silent",
		"--show-error",
		"-X", "POST",
		n.url,
		"--data-urlencode", "number=" + req.Number,
		"--data-urlencode", "message=" + req.Message(),
	}
}

// Notify implements Notifier. The reply is captured, never echoed.
func (n *CurlNotifier) Notify(ctx context.Context, req Request) error {
	res, err := n.runner.Run(ctx, runner.Command{
		Program: n.tool,
		Args:    n.Args(req),
	})
	if err != nil {
		return fmt.Errorf("run %s: %w", n.tool, err)
	}

	log := n.logger.With(zap.String("request_id", req.ID))
	if !IsSuccess(res.Output) {
		log.Warn("gateway did not confirm delivery",
			zap.String("result", res.String()),
			zap.String("reply", snippet(res.Output)),
		)
		if res.Err != nil {
			return fmt.Errorf("%w: %s %s: %w", ErrNotDelivered, n.tool, res, res.Err)
		}
		return fmt.Errorf("%w: %s %s", ErrNotDelivered, n.tool, res)
	}
	log.Info("authentication code delivered", zap.String("result", res.String()))
	return nil
}
