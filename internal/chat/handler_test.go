package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type handlerFixture struct {
	fixture
	router chi.Router
	hub    *Hub
}

func newHandlerFixture(t *testing.T) handlerFixture {
	t.Helper()
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	f := newFixture(t, &stubRand{f: 0.5}, WithNotifier(hub.Publish))
	r := chi.NewRouter()
	NewHandler(f.store, hub, nil).Register(r)
	return handlerFixture{fixture: f, router: r, hub: hub}
}

func (h handlerFixture) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func decodeSnapshot(t *testing.T, rec *httptest.ResponseRecorder) Snapshot {
	t.Helper()
	var snap Snapshot
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&snap))
	return snap
}

func TestHandlerGetState(t *testing.T) {
	h := newHandlerFixture(t)

	rec := h.do(http.MethodGet, "/api/state", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	snap := decodeSnapshot(t, rec)
	assert.Equal(t, local, snap.LocalUser)
	assert.Len(t, snap.Messages, 4)
	assert.Equal(t, 1, snap.UnreadCount)
	assert.True(t, snap.Messages[1].IsOwn)
}

func TestHandlerSendMessage(t *testing.T) {
	h := newHandlerFixture(t)

	rec := h.do(http.MethodPost, "/api/messages", `{"content":"hello"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	snap := decodeSnapshot(t, rec)
	require.Len(t, snap.Messages, 5)
	assert.Equal(t, "hello", snap.Messages[4].Content)
	assert.Equal(t, 0, snap.UnreadCount)

	rec = h.do(http.MethodPost, "/api/messages", `{"content":"   "}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = h.do(http.MethodPost, "/api/messages", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, h.store.Messages(), 5)
}

func TestHandlerUploadFile(t *testing.T) {
	h := newHandlerFixture(t)

	rec := h.do(http.MethodPost, "/api/files", `{"name":"report.pdf","size":2048}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "report.pdf (2.0 KB)", decodeSnapshot(t, rec).Messages[4].Content)

	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/api/files", `{"name":"","size":1}`).Code)
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/api/files", `{"name":"x","size":-4}`).Code)
}

func TestHandlerCalls(t *testing.T) {
	h := newHandlerFixture(t)

	rec := h.do(http.MethodPost, "/api/calls/voice", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "📞 Shivam started a voice call", decodeSnapshot(t, rec).Messages[4].Content)

	rec = h.do(http.MethodPost, "/api/calls/video", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "📹 Shivam started a video call", decodeSnapshot(t, rec).Messages[5].Content)

	assert.Equal(t, http.StatusNotFound, h.do(http.MethodPost, "/api/calls/fax", "").Code)
}

func TestHandlerToggleReaction(t *testing.T) {
	h := newHandlerFixture(t)

	rec := h.do(http.MethodPost, "/api/messages/3/reactions", `{"emoji":"🔥"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	reactions := decodeSnapshot(t, rec).Messages[2].Reactions
	assert.Equal(t, []Reaction{{Emoji: "🔥", Count: 1, Users: []string{local}}}, reactions)

	rec = h.do(http.MethodPost, "/api/messages/missing/reactions", `{"emoji":"🔥"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHandlerSelectChannel(t *testing.T) {
	h := newHandlerFixture(t)

	rec := h.do(http.MethodPut, "/api/channel", `{"channel_id":"4"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "design", decodeSnapshot(t, rec).ActiveChannel.Name)

	rec = h.do(http.MethodPut, "/api/channel", `{"channel_id":"42"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "4", h.store.ActiveChannel().ID)
}

func TestHandlerVoiceNote(t *testing.T) {
	h := newHandlerFixture(t)

	rec := h.do(http.MethodPost, "/api/voice-notes", "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.True(t, decodeSnapshot(t, rec).Recording)

	assert.Equal(t, http.StatusConflict, h.do(http.MethodPost, "/api/voice-notes", "").Code)
}

func TestHandlerSearch(t *testing.T) {
	h := newHandlerFixture(t)

	search := func(q string) SearchResult {
		rec := h.do(http.MethodGet, "/api/search?q="+q, "")
		require.Equal(t, http.StatusOK, rec.Code)
		var res SearchResult
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
		return res
	}

	res := search("RANDOM")
	assert.Equal(t, []Channel{{ID: "2", Name: "random", MemberCount: 8}}, res.Channels)
	assert.Empty(t, res.Users)

	res = search("par")
	assert.Empty(t, res.Channels)
	assert.Equal(t, []UserEntry{{Name: "Paras", Status: StatusOffline}}, res.Users)
}

func TestHandlerClosedStore(t *testing.T) {
	h := newHandlerFixture(t)
	require.NoError(t, h.store.Close())

	assert.Equal(t, http.StatusServiceUnavailable, h.do(http.MethodPost, "/api/messages", `{"content":"hi"}`).Code)
	assert.Equal(t, http.StatusServiceUnavailable, h.do(http.MethodPost, "/api/calls/voice", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, h.do(http.MethodPost, "/api/messages/1/reactions", `{"emoji":"🔥"}`).Code)
	assert.ErrorIs(t, NewHandler(h.store, h.hub, nil).Apply(IntentToggleReaction, json.RawMessage(`{"message_id":"1","emoji":"🔥"}`)), ErrClosed)
}

func TestApplyIntents(t *testing.T) {
	h := newHandlerFixture(t)
	handler := NewHandler(h.store, h.hub, nil)

	require.NoError(t, handler.Apply(IntentSendMessage, json.RawMessage(`{"content":"yo"}`)))
	require.NoError(t, handler.Apply(IntentSendMessage, json.RawMessage(`{"content":""}`)))
	require.NoError(t, handler.Apply(IntentVoiceCall, nil))
	require.NoError(t, handler.Apply(IntentToggleReaction, json.RawMessage(`{"message_id":"nope","emoji":"🔥"}`)))
	require.NoError(t, handler.Apply(IntentSelectChannel, json.RawMessage(`{"channel_id":"2"}`)))

	assert.ErrorIs(t, handler.Apply(IntentSelectChannel, json.RawMessage(`{"channel_id":"x"}`)), ErrInvalidChannel)
	assert.Error(t, handler.Apply(IntentUploadFile, nil))
	assert.Error(t, handler.Apply("dance", nil))

	msgs := h.store.Messages()
	require.Len(t, msgs, 6)
	assert.Equal(t, "yo", msgs[4].Content)
	assert.Equal(t, SystemAuthor, msgs[5].Author)
	assert.Equal(t, "2", h.store.ActiveChannel().ID)
}

func dialView(t *testing.T, h handlerFixture) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(h.router)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

type viewFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// nextFrame reads frames until one of the wanted type arrives.
func nextFrame(t *testing.T, conn *websocket.Conn, typ string) json.RawMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var f viewFrame
		require.NoError(t, conn.ReadJSON(&f))
		if f.Type == typ {
			return f.Payload
		}
	}
}

func TestViewReceivesSnapshots(t *testing.T) {
	h := newHandlerFixture(t)
	conn := dialView(t, h)

	var snap Snapshot
	require.NoError(t, json.Unmarshal(nextFrame(t, conn, WSTypeSnapshot), &snap))
	assert.Len(t, snap.Messages, 4)

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":    IntentSendMessage,
		"payload": map[string]string{"content": "over the wire"},
	}))

	for {
		require.NoError(t, json.Unmarshal(nextFrame(t, conn, WSTypeSnapshot), &snap))
		if len(snap.Messages) == 5 {
			break
		}
	}
	assert.Equal(t, "over the wire", snap.Messages[4].Content)
	assert.True(t, snap.Messages[4].IsOwn)
	assert.Equal(t, "over the wire", h.store.Messages()[4].Content)
}

func TestViewReceivesErrors(t *testing.T) {
	h := newHandlerFixture(t)
	conn := dialView(t, h)
	nextFrame(t, conn, WSTypeSnapshot)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	var text string
	require.NoError(t, json.Unmarshal(nextFrame(t, conn, WSTypeError), &text))
	assert.Equal(t, "malformed frame", text)

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":    IntentSelectChannel,
		"payload": map[string]string{"channel_id": "nope"},
	}))
	require.NoError(t, json.Unmarshal(nextFrame(t, conn, WSTypeError), &text))
	assert.Contains(t, text, "unknown channel")
}
