package supervisor

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// HTTPService runs one http.Handler under the supervisor.
type HTTPService struct {
	name            string
	addr            string
	handler         http.Handler
	onListen        func(addr string)
	shutdownTimeout time.Duration
}

func NewHTTPService(name, addr string, h http.Handler) *HTTPService {
	return &HTTPService{name: name, addr: addr, handler: h, shutdownTimeout: 2 * time.Second}
}

// OnListen is called with the bound address, which matters when addr ends in ":0".
func (s *HTTPService) OnListen(fn func(addr string)) *HTTPService {
	s.onListen = fn
	return s
}

func (s *HTTPService) Serve(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return errors.Wrapf(err, "%s listen", s.name)
	}
	if s.onListen != nil {
		s.onListen(lis.Addr().String())
	}

	srv := &http.Server{Handler: s.handler, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(lis)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrapf(err, "%s serve", s.name)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		<-errCh
		return ctx.Err()
	}
}

func (s *HTTPService) String() string { return s.name }

// FuncService adapts a blocking function to suture.Service.
type FuncService struct {
	name string
	fn   func(ctx context.Context) error
}

func NewFuncService(name string, fn func(ctx context.Context) error) *FuncService {
	return &FuncService{name: name, fn: fn}
}

func (s *FuncService) Serve(ctx context.Context) error { return s.fn(ctx) }

func (s *FuncService) String() string { return s.name }
