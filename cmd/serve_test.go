package main

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusAccepted, map[string]string{"status": "accepted"})

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"accepted"}`, rec.Body.String())
}

func TestShutdownWhenDone_DrainsInFlightRequests(t *testing.T) {
	inHandler := make(chan struct{})
	release := make(chan struct{})
	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(inHandler)
		<-release
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "done")
	})}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ln) }()

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		shutdownWhenDone(ctx, srv, 5*time.Second)
	}()

	// Park a request inside the handler, then trigger shutdown. The
	// in-flight request must still complete.
	type result struct {
		resp *http.Response
		err  error
	}
	got := make(chan result, 1)
	go func() {
		resp, err := http.Get("http://" + ln.Addr().String())
		got <- result{resp, err}
	}()
	<-inHandler
	cancel()

	// Give the drain a moment to start, then let the handler finish.
	time.Sleep(50 * time.Millisecond)
	close(release)

	r := <-got
	require.NoError(t, r.err)
	body, err := io.ReadAll(r.resp.Body)
	require.NoError(t, err)
	_ = r.resp.Body.Close()
	assert.Equal(t, http.StatusOK, r.resp.StatusCode)
	assert.Equal(t, "done", string(body))

	assert.ErrorIs(t, <-serveErr, http.ErrServerClosed)
	wg.Wait()
}
