package communication

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type posted struct {
	channel string
	text    string
}

func newSlackServer(t *testing.T) (*httptest.Server, func() []posted) {
	var mu sync.Mutex
	var got []posted
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat.postMessage", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		mu.Lock()
		got = append(got, posted{channel: r.FormValue("channel"), text: r.FormValue("text")})
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"channel":"C1","ts":"1700000000.000100"}`))
	}))
	t.Cleanup(srv.Close)
	return srv, func() []posted {
		mu.Lock()
		defer mu.Unlock()
		return append([]posted(nil), got...)
	}
}

func TestSlackRoutesByChannel(t *testing.T) {
	srv, messages := newSlackServer(t)
	s := NewSlack("xoxb-test", SlackOption{InfoChannelID: "INFO", ErrorChannelID: "ERR", APIURL: srv.URL + "/"})

	require.NoError(t, s.Notify(context.Background(), "cleanup: 8 removed"))
	require.NoError(t, s.Alert(context.Background(), "job attendance-pull failed"))

	got := messages()
	require.Len(t, got, 2)
	assert.Equal(t, posted{channel: "INFO", text: "cleanup: 8 removed"}, got[0])
	assert.Equal(t, "ERR", got[1].channel)
	assert.Contains(t, got[1].text, "job attendance-pull failed")
}

func TestSlackErrorChannelDefaultsToInfo(t *testing.T) {
	srv, messages := newSlackServer(t)
	s := NewSlack("xoxb-test", SlackOption{InfoChannelID: "INFO", APIURL: srv.URL + "/"})

	require.NoError(t, s.Alert(context.Background(), "boom"))
	assert.Equal(t, "INFO", messages()[0].channel)
}
