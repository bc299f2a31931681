package remotestore

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"time"

	"github.com/shuvo-dotcom/nfgcalc/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

type socketTransport struct {
	io *socket.Socket
}

func (t *socketTransport) OnResponse(event string, handler func(args ...any)) {
	t.io.On(types.EventName(event), handler)
}

func (t *socketTransport) Emit(event string, payload any) {
	t.io.Emit(event, payload)
}

func (t *socketTransport) Close() {
	t.io.Disconnect()
}

// Dial connects to the data service and returns a ready store.
func Dial(ctx context.Context, opts Options) (*Store, error) {
	opts.setDefaults()
	logger := ctxlog.FromContext(ctx).With("component", "remotestore", "url", opts.URL)
	logger.Info("Connecting to data service...")

	parsedURL, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	sockOpts := socket.DefaultOptions()
	sockOpts.SetPath(parsedURL.Path)
	if opts.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		sockOpts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	sockOpts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, sockOpts)
	io := manager.Socket(opts.Namespace, sockOpts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Connected to data service.", "sid", io.Id())
		connectChan <- nil
	})

	io.Once(types.EventName("connect_error"), func(errs ...any) {
		var err error = fmt.Errorf("connect error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		connectChan <- err
	})

	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return newStore(&socketTransport{io: io}, opts, logger), nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection")
	case <-time.After(opts.Timeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %v connecting to %s", opts.Timeout, opts.URL)
	}
}
