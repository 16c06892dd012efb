package chatclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"flowboard/internal/chat"
	"flowboard/internal/i18n"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{GatewayURL: srv.URL + "/", Messages: i18n.New("en")})
}

func TestSendStreamsIntoTranscript(t *testing.T) {
	var (
		got     chat.ChatRequest
		gotPath string
	)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, `data: {"tasks_changed":true,"actions":[]}`+"\n\n")
		_, _ = io.WriteString(w, delta("Task "))
		w.(http.Flusher).Flush()
		_, _ = io.WriteString(w, delta("created")+"data: [DONE]\n\n")
	})

	tr := &Transcript{}
	tr.AppendUser("hi")
	tr.UpsertAssistant("hello")

	changed := 0
	var fragments []string
	err := client.Send(context.Background(), tr, "  add a task  ", HandlerFuncs{
		Content:      func(s string) { fragments = append(fragments, s) },
		TasksChanged: func([]chat.ActionRecord) { changed++ },
	})
	require.NoError(t, err)

	require.Equal(t, "/chat", gotPath)
	require.Len(t, got.Messages, 3)
	require.Equal(t, "add a task", got.Messages[2].Content)
	require.Equal(t, 1, changed)
	require.Equal(t, []string{"Task ", "created"}, fragments)

	msgs := tr.Messages()
	require.Len(t, msgs, 4)
	require.Equal(t, chat.RoleAssistant, msgs[3].Role)
	require.Equal(t, "Task created", msgs[3].Content)
	require.False(t, client.Busy())
}

func TestSendCannedStatusMessages(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{http.StatusTooManyRequests, "I'm being rate limited. Please try again in a moment."},
		{http.StatusPaymentRequired, "AI credits have been exhausted. Please add more credits."},
		{http.StatusInternalServerError, "Sorry, something went wrong. Please try again."},
		{http.StatusBadRequest, "Sorry, something went wrong. Please try again."},
	}
	for _, tc := range tests {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = io.WriteString(w, `{"error":"x"}`)
		})
		tr := &Transcript{}
		require.NoError(t, client.Send(context.Background(), tr, "hi", nil))
		require.Equal(t, tc.want, tr.LastAssistant(), "status %d", tc.status)
		require.Equal(t, 2, tr.Len())
	}
}

func TestSendConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := New(Config{GatewayURL: url, Messages: i18n.New("en")})
	tr := &Transcript{}
	require.NoError(t, client.Send(context.Background(), tr, "hi", nil))
	require.Equal(t, "Connection error. Please check your internet and try again.", tr.LastAssistant())
}

func TestSendRefusesConcurrentSend(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.(http.Flusher).Flush()
		close(started)
		<-release
		_, _ = io.WriteString(w, "data: [DONE]\n\n")
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = client.Send(context.Background(), &Transcript{}, "first", nil)
	}()
	<-started
	require.True(t, client.Busy())
	require.ErrorIs(t, client.Send(context.Background(), &Transcript{}, "second", nil), ErrBusy)
	close(release)
	wg.Wait()
	require.False(t, client.Busy())
}

func TestSendIgnoresBlankInput(t *testing.T) {
	client := New(Config{GatewayURL: "http://127.0.0.1:1"})
	tr := &Transcript{}
	require.NoError(t, client.Send(context.Background(), tr, "   ", nil))
	require.Zero(t, tr.Len())
}

func TestTasksAndStats(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/tasks":
			_, _ = io.WriteString(w, `[{"id":"1","title":"a","status":"todo","priority":"low","labels":[],"position":0}]`)
		case "/tasks/stats":
			_, _ = io.WriteString(w, `{"total":1,"completion_percent":0}`)
		default:
			http.NotFound(w, r)
		}
	})
	tasks, err := client.Tasks(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.Equal(t, "a", tasks[0].Title)

	stats, err := client.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, stats.Total)
}

func TestUpsertAssistant(t *testing.T) {
	tr := &Transcript{}
	tr.UpsertAssistant("a")
	tr.UpsertAssistant("b")
	tr.AppendUser("q")
	tr.UpsertAssistant("c")
	msgs := tr.Messages()
	require.Len(t, msgs, 3)
	require.Equal(t, "ab", msgs[0].Content)
	require.Equal(t, "c", msgs[2].Content)
}
