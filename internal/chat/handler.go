package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // the view is served by the same local process
	},
}

// Handler exposes one store to a browser view.
type Handler struct {
	store *Store
	hub   *Hub
	log   *zap.Logger
}

func NewHandler(store *Store, hub *Hub, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{store: store, hub: hub, log: log}
}

// Register mounts the view API on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/state", h.GetState)
	r.Get("/api/search", h.Search)
	r.Post("/api/messages", h.SendMessage)
	r.Post("/api/messages/{id}/reactions", h.ToggleReaction)
	r.Post("/api/files", h.UploadFile)
	r.Post("/api/calls/{kind}", h.StartCall)
	r.Post("/api/voice-notes", h.SendVoiceNote)
	r.Put("/api/channel", h.SelectChannel)
	r.Get("/ws", h.ServeWs)
}

func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Snapshot())
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Search(r.URL.Query().Get("q")))
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	h.respond(w, http.StatusAccepted, h.store.SendMessage(req.Content))
}

func (h *Handler) UploadFile(w http.ResponseWriter, r *http.Request) {
	var req UploadFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	h.respond(w, http.StatusAccepted, h.store.UploadFile(req.Name, req.Size))
}

func (h *Handler) StartCall(w http.ResponseWriter, r *http.Request) {
	var err error
	switch chi.URLParam(r, "kind") {
	case "voice":
		err = h.store.StartVoiceCall()
	case "video":
		err = h.store.StartVideoCall()
	default:
		http.Error(w, "unknown call kind", http.StatusNotFound)
		return
	}
	h.respond(w, http.StatusCreated, err)
}

func (h *Handler) ToggleReaction(w http.ResponseWriter, r *http.Request) {
	var req ToggleReactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if !h.store.ToggleReaction(chi.URLParam(r, "id"), req.Emoji, h.store.LocalUser()) {
		if h.store.Closed() {
			h.respond(w, http.StatusOK, ErrClosed)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, h.store.Snapshot())
}

func (h *Handler) SelectChannel(w http.ResponseWriter, r *http.Request) {
	var req SelectChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	h.respond(w, http.StatusOK, h.store.SelectChannel(req.ChannelID))
}

func (h *Handler) SendVoiceNote(w http.ResponseWriter, r *http.Request) {
	h.respond(w, http.StatusAccepted, h.store.SendVoiceNote())
}

// respond writes the current snapshot on success and maps store errors to
// status codes. Blank messages are dropped silently.
func (h *Handler) respond(w http.ResponseWriter, status int, err error) {
	switch {
	case err == nil:
		writeJSON(w, status, h.store.Snapshot())
	case errors.Is(err, ErrEmptyMessage):
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, ErrInvalidChannel),
		errors.Is(err, ErrEmptyFileName),
		errors.Is(err, ErrInvalidFileSize):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrAlreadyRecording):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrClosed):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		h.log.Error("request_failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Apply runs a view intent against the store. Rejections the view should
// not surface (blank messages, reactions on unknown messages) return nil.
func (h *Handler) Apply(intent string, payload json.RawMessage) error {
	switch intent {
	case IntentSendMessage:
		var req SendMessageRequest
		if err := decodePayload(payload, &req); err != nil {
			return err
		}
		if err := h.store.SendMessage(req.Content); !errors.Is(err, ErrEmptyMessage) {
			return err
		}
		return nil
	case IntentUploadFile:
		var req UploadFileRequest
		if err := decodePayload(payload, &req); err != nil {
			return err
		}
		return h.store.UploadFile(req.Name, req.Size)
	case IntentVoiceCall:
		return h.store.StartVoiceCall()
	case IntentVideoCall:
		return h.store.StartVideoCall()
	case IntentToggleReaction:
		var req ToggleReactionRequest
		if err := decodePayload(payload, &req); err != nil {
			return err
		}
		if !h.store.ToggleReaction(req.MessageID, req.Emoji, h.store.LocalUser()) && h.store.Closed() {
			return ErrClosed
		}
		return nil
	case IntentSelectChannel:
		var req SelectChannelRequest
		if err := decodePayload(payload, &req); err != nil {
			return err
		}
		return h.store.SelectChannel(req.ChannelID)
	case IntentVoiceNote:
		return h.store.SendVoiceNote()
	default:
		return fmt.Errorf("unknown intent %q", intent)
	}
}

func decodePayload(payload json.RawMessage, v any) error {
	if len(payload) == 0 {
		return errors.New("missing payload")
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}

func (h *Handler) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws_upgrade_failed", zap.Error(err))
		return
	}

	client := &Client{
		Hub:   h.hub,
		Conn:  conn,
		Send:  make(chan []byte, 256),
		Apply: h.Apply,
	}

	// The view starts from the current state; later snapshots come from the
	// hub, which skips anything not newer than this one.
	snap := h.store.Snapshot()
	initial, err := json.Marshal(WSMessage{Type: WSTypeSnapshot, Payload: snap})
	if err == nil {
		client.Send <- initial
		client.seen = snap.Version
	}
	if !h.hub.register(client) {
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
