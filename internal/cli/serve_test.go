package cli

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func waitServer(t *testing.T, errCh <-chan error, within time.Duration) {
	t.Helper()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(within):
		t.Fatal("server did not shut down")
	}
}

func TestRunServerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := &http.Server{Addr: freeAddr(t), Handler: http.NotFoundHandler()}

	errCh := make(chan error, 1)
	go func() { errCh <- runServer(ctx, srv) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	waitServer(t, errCh, 5*time.Second)
}

func TestRunServerEndsOpenStreams(t *testing.T) {
	entered := make(chan struct{})
	streamDone := make(chan struct{})
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		close(entered)
		<-r.Context().Done()
		close(streamDone)
	})

	addr := freeAddr(t)
	ctx, cancel := context.WithCancel(context.Background())
	srv := &http.Server{Addr: addr, Handler: handler}

	errCh := make(chan error, 1)
	go func() { errCh <- runServer(ctx, srv) }()

	go func() {
		for i := 0; i < 50; i++ {
			resp, err := http.Get("http://" + addr + "/events")
			if err == nil {
				defer resp.Body.Close()
				buf := make([]byte, 1)
				_, _ = resp.Body.Read(buf)
				return
			}
			time.Sleep(20 * time.Millisecond)
		}
	}()

	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("stream never opened")
	}

	cancel()
	waitServer(t, errCh, 5*time.Second)

	select {
	case <-streamDone:
	default:
		t.Fatal("stream handler still running after shutdown")
	}
}
