package bootstrap

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_ServesUntilCancelled(t *testing.T) {
	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, &ServiceOrchestrationConfig{
			Config:   testConfig(t, nil),
			Logger:   quietLogger(),
			Listener: ln,
		})
	}()

	url := "http://" + ln.Addr().String() + "/healthz"
	require.Eventually(t, func() bool {
		resp, getErr := http.Get(url) //nolint:noctx // readiness poll
		if getErr != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestRun_RejectsMissingConfig(t *testing.T) {
	require.Error(t, Run(context.Background(), nil))
	require.Error(t, Run(context.Background(), &ServiceOrchestrationConfig{}))
}

func TestNewHTTPServer(t *testing.T) {
	cfg := testConfig(t, map[string]string{"HTTP_ADDR": "127.0.0.1:9999"})
	svc, err := BuildSessionService(context.Background(), SessionDeps{Config: cfg, Logger: quietLogger()})
	require.NoError(t, err)

	srv, err := NewHTTPServer(HTTPServerConfig{Config: cfg, Sessions: svc, Logger: quietLogger()})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9999", srv.Addr)
	assert.Equal(t, cfg.HTTP.ReadHeaderTimeout, srv.ReadHeaderTimeout)

	_, err = NewHTTPServer(HTTPServerConfig{Config: cfg})
	require.Error(t, err)
}
