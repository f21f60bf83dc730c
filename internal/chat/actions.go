package chat

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

// SendMessage appends content as the local user, marks the whole log read
// and schedules one simulated reply.
func (s *Store) SendMessage(content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrEmptyMessage
	}
	if err := s.lock(); err != nil {
		return err
	}
	s.sendLocked(content)
	s.unlockAndNotify(true)
	return nil
}

func (s *Store) sendLocked(content string) {
	s.appendLocked("local", s.cfg.LocalUserName, content, true)
	for i := range s.messages {
		s.messages[i].IsRead = true
	}
	s.scheduleReplyLocked()
}

// UploadFile records a shared file as a local message and schedules an
// acknowledgment from the first simulated user.
func (s *Store) UploadFile(name string, sizeBytes int64) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyFileName
	}
	if sizeBytes < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidFileSize, sizeBytes)
	}
	if err := s.lock(); err != nil {
		return err
	}

	s.appendLocked("file", s.cfg.LocalUserName, FileContent(name, sizeBytes), true)
	s.log.Info("file_shared", zap.String("name", name), zap.String("size", humanize.IBytes(uint64(sizeBytes))))

	acker := s.cfg.SimulatedUsers[0]
	ack := fmt.Sprintf("Thanks for sharing that file, %s! 📄", s.cfg.LocalUserName)
	s.scheduleLocked("ack", s.timing.AckDelay, func() bool {
		s.appendLocked("ack", acker, ack, false)
		return true
	})

	s.unlockAndNotify(true)
	return nil
}

// FileContent renders the message text for a shared file, e.g.
// "report.pdf (2.0 KB)".
func FileContent(name string, sizeBytes int64) string {
	return fmt.Sprintf("%s (%.1f KB)", name, float64(sizeBytes)/1024)
}

func (s *Store) StartVoiceCall() error {
	return s.startCall(fmt.Sprintf("📞 %s started a voice call", s.cfg.LocalUserName))
}

func (s *Store) StartVideoCall() error {
	return s.startCall(fmt.Sprintf("📹 %s started a video call", s.cfg.LocalUserName))
}

func (s *Store) startCall(content string) error {
	if err := s.lock(); err != nil {
		return err
	}
	s.appendLocked("call", SystemAuthor, content, true)
	s.unlockAndNotify(true)
	return nil
}

// ToggleReaction adds user to the emoji's reaction on messageID, or removes
// them if already present. It reports false without changing anything when
// the message does not exist.
func (s *Store) ToggleReaction(messageID, emoji, user string) bool {
	if emoji == "" || user == "" {
		return false
	}
	if err := s.lock(); err != nil {
		return false
	}

	idx := s.indexLocked(messageID)
	if idx < 0 {
		s.mu.Unlock()
		s.log.Debug("reaction_unknown_message", zap.String("message_id", messageID))
		return false
	}

	reactions, added := toggleReaction(s.messages[idx].Reactions, emoji, user)
	s.messages[idx].Reactions = reactions
	s.metrics.reaction(added)
	s.log.Debug("reaction_toggled",
		zap.String("message_id", messageID),
		zap.String("emoji", emoji),
		zap.String("user", user),
		zap.Bool("added", added),
	)
	s.unlockAndNotify(true)
	return true
}

func (s *Store) indexLocked(messageID string) int {
	for i := range s.messages {
		if s.messages[i].ID == messageID {
			return i
		}
	}
	return -1
}

func (s *Store) SelectChannel(channelID string) error {
	if err := s.lock(); err != nil {
		return err
	}
	if _, ok := s.channels[channelID]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrInvalidChannel, channelID)
	}
	changed := s.active != channelID
	s.active = channelID
	s.unlockAndNotify(changed)
	return nil
}

// SendVoiceNote starts a recording; when it finishes the note is sent like
// any other local message.
func (s *Store) SendVoiceNote() error {
	if err := s.lock(); err != nil {
		return err
	}
	if s.recording {
		s.mu.Unlock()
		return ErrAlreadyRecording
	}
	s.recording = true
	length := s.timing.VoiceNoteLength
	s.scheduleLocked("voice_note", length, func() bool {
		s.recording = false
		s.sendLocked(fmt.Sprintf("🎤 Voice message (%ds)", int(length.Seconds())))
		return true
	})
	s.unlockAndNotify(true)
	return nil
}
