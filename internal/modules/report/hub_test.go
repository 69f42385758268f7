package report

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"treasuryroi/internal/jobs"
)

// gatedNarrator blocks the job runner until the test releases it, so
// the watcher can connect before any progress is published.
type gatedNarrator struct {
	release chan struct{}
	text    string
}

func (n *gatedNarrator) GenerateNarrative(context.Context, string) (string, error) {
	<-n.release
	return n.text, nil
}

func (n *gatedNarrator) TestConnection(context.Context) error { return nil }

// wsPipe returns a connected client/server websocket pair.
func wsPipe(t *testing.T) (client, server *websocket.Conn) {
	t.Helper()

	serverConns := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		serverConns <- conn
	}))
	t.Cleanup(srv.Close)

	client, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { client.Close() })

	return client, <-serverConns
}

func TestHub_WatcherReceivesJobUpdates(t *testing.T) {
	leads := &mockLeadStore{}
	leads.On("Create", mock.Anything, mock.Anything).Return(nil)
	leads.On("SetReportHTML", mock.Anything, int64(42), mock.Anything).Return(nil)

	narrator := &gatedNarrator{release: make(chan struct{}), text: "## Executive summary\n\nWorth doing."}
	hub := NewHub()
	defer hub.Close()

	svc := NewService(leads, &stubSettings{}, jobs.NewMemoryStore(time.Minute), narrator, hub)
	handler := NewHandler(svc)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler.RegisterWebSocket(r)
	srv := httptest.NewServer(r)
	defer srv.Close()

	outcome, err := svc.Submit(context.Background(), validRequest(), RequestMeta{})
	require.NoError(t, err)
	require.NotEmpty(t, outcome.JobID)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/jobs/" + outcome.JobID
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	resp.Body.Close()
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))

	// the current status is pushed on connect
	var first JobStatusResponse
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, outcome.JobID, first.JobID)

	close(narrator.release)

	var last JobStatusResponse
	for i := 0; i < 10; i++ {
		require.NoError(t, conn.ReadJSON(&last))
		if last.Status == string(jobs.StatusCompleted) {
			break
		}
	}
	require.Equal(t, string(jobs.StatusCompleted), last.Status)
	require.NotNil(t, last.Result)
	assert.Contains(t, last.Result.ReportHTML, "Executive summary")
	assert.Greater(t, float64(last.Result.Scenarios.Base.TotalAnnualBenefit), 0.0)
}

func TestHub_ReconnectReplacesSocket(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	client1, server1 := wsPipe(t)
	client2, server2 := wsPipe(t)

	hub.Register("job-1", server1)
	hub.Register("job-1", server2)

	require.True(t, hub.SendToJob("job-1", map[string]string{"status": "running"}))

	require.NoError(t, client2.SetReadDeadline(time.Now().Add(time.Second)))
	var msg map[string]string
	require.NoError(t, client2.ReadJSON(&msg))
	assert.Equal(t, "running", msg["status"])

	// the replaced socket was closed on registration
	require.NoError(t, client1.SetReadDeadline(time.Now().Add(time.Second)))
	_, _, err := client1.ReadMessage()
	assert.Error(t, err)

	// a stale unregister from the old socket leaves the new one alone
	hub.Unregister("job-1", server1)
	assert.True(t, hub.IsWatched("job-1"))

	hub.Unregister("job-1", server2)
	assert.False(t, hub.IsWatched("job-1"))
	assert.False(t, hub.SendToJob("job-1", map[string]string{"status": "completed"}))
}

func TestHub_SendToUnwatchedJob(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	assert.False(t, hub.SendToJob("nobody-listening", map[string]string{"status": "running"}))
	assert.False(t, hub.IsWatched("nobody-listening"))
}
