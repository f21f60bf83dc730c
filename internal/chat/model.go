package chat

import "time"

// ---------------------------------------------
// 💬 Conversation Models
// ---------------------------------------------

type Message struct {
	ID        string     `json:"id"`
	Author    string     `json:"author"`
	Content   string     `json:"content"`
	Timestamp time.Time  `json:"timestamp"`
	Reactions []Reaction `json:"reactions,omitempty"`
	Replies   int        `json:"replies,omitempty"` // advisory only, nothing increments it
	IsRead    bool       `json:"is_read"`
}

// Reaction aggregates every user who applied one emoji to a message.
// Count always equals len(Users) and is never zero.
type Reaction struct {
	Emoji string   `json:"emoji"`
	Count int      `json:"count"`
	Users []string `json:"users"`
}

type Channel struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	MemberCount int    `json:"member_count" yaml:"member_count"`
	Unread      int    `json:"unread,omitempty" yaml:"unread"` // static sidebar badge
}

type Status string

const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
)

// QuickReactions is the fixed emoji picker offered on every message.
var QuickReactions = []string{"❤️", "👍", "😂", "😮", "😢", "🔥"}

// ---------------------------------------------
// 📸 View Models
// ---------------------------------------------

// Snapshot is a detached copy of the session. Version increases on every
// change so consumers can discard deliveries that arrive out of order.
type Snapshot struct {
	Version        uint64        `json:"version"`
	LocalUser      string        `json:"local_user"`
	ActiveChannel  Channel       `json:"active_channel"`
	Channels       []Channel     `json:"channels"`
	Messages       []MessageView `json:"messages"`
	TypingUsers    []string      `json:"typing_users"`
	OnlineUsers    []string      `json:"online_users"`
	UnreadCount    int           `json:"unread_count"`
	Recording      bool          `json:"recording"`
	QuickReactions []string      `json:"quick_reactions"`
}

type MessageView struct {
	Message
	IsOwn bool `json:"is_own"`
}

type UserEntry struct {
	Name   string `json:"name"`
	Status Status `json:"status"`
}

type SearchResult struct {
	Channels []Channel   `json:"channels"`
	Users    []UserEntry `json:"users"`
}

// ---------------------------------------------
// ⚡ View Bridge Models
// ---------------------------------------------

// WSMessage is the frame exchanged with a view over the websocket.
type WSMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

const (
	WSTypeSnapshot = "snapshot"
	WSTypeError    = "error"

	IntentSendMessage    = "send_message"
	IntentUploadFile     = "upload_file"
	IntentVoiceCall      = "voice_call"
	IntentVideoCall      = "video_call"
	IntentToggleReaction = "toggle_reaction"
	IntentSelectChannel  = "select_channel"
	IntentVoiceNote      = "voice_note"
)

type SendMessageRequest struct {
	Content string `json:"content"`
}

type UploadFileRequest struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

type ToggleReactionRequest struct {
	MessageID string `json:"message_id"`
	Emoji     string `json:"emoji"`
}

type SelectChannelRequest struct {
	ChannelID string `json:"channel_id"`
}
