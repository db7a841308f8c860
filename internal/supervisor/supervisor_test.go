package supervisor

import (
	"context"
	"io"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHTTPService_ServesAndStops(t *testing.T) {
	addrCh := make(chan string, 1)
	svc := NewHTTPService("ops", "127.0.0.1:0", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})).OnListen(func(addr string) { addrCh <- addr })

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	addr := <-addrCh
	resp, err := http.Get("http://" + addr + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.Equal(t, "ok", string(body))

	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)
	require.Equal(t, "ops", svc.String())
}

func TestHTTPService_ListenError(t *testing.T) {
	err := NewHTTPService("api", "256.0.0.1:bad", http.NotFoundHandler()).Serve(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "api listen")
}

func TestTree_RunsAndRestartsWorkers(t *testing.T) {
	tree := New(nil, Config{FailureBackoff: 10 * time.Millisecond})

	var starts atomic.Int32
	restarted := make(chan struct{})
	tree.AddWorker(NewFuncService("flaky", func(ctx context.Context) error {
		if starts.Add(1) == 1 {
			return io.ErrUnexpectedEOF
		}
		close(restarted)
		<-ctx.Done()
		return ctx.Err()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := tree.ServeBackground(ctx)

	select {
	case <-restarted:
	case <-time.After(5 * time.Second):
		t.Fatal("worker was not restarted")
	}
	cancel()
	<-done
	require.Equal(t, int32(2), starts.Load())
}
