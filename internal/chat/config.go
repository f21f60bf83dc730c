package chat

import (
	"errors"
	"fmt"
	"time"
)

// Config is the static session setup handed to New. Nothing in it changes
// after construction.
type Config struct {
	LocalUserName  string
	Channels       []Channel
	SimulatedUsers []string
	// Replies are the canned texts used for simulated answers. "{user}" is
	// replaced with LocalUserName.
	Replies []string
	Seed    []SeedMessage
	Timing  Timing
}

// SeedMessage is a message present when the session starts. Ago is
// subtracted from the clock's current time to produce its timestamp.
type SeedMessage struct {
	ID        string
	Author    string
	Content   string
	Ago       time.Duration
	Reactions []Reaction
	Replies   int
	IsRead    bool
}

type Timing struct {
	ReplyDelayMin     time.Duration
	ReplyDelayMax     time.Duration
	AckDelay          time.Duration
	TypingDwell       time.Duration
	TypingProbability float64
	PresenceInterval  time.Duration
	VoiceNoteLength   time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		ReplyDelayMin:     1000 * time.Millisecond,
		ReplyDelayMax:     3000 * time.Millisecond,
		AckDelay:          1500 * time.Millisecond,
		TypingDwell:       2 * time.Second,
		TypingProbability: 0.2,
		PresenceInterval:  10 * time.Second,
		VoiceNoteLength:   3 * time.Second,
	}
}

// withDefaults returns DefaultTiming for an unset Timing. A Timing with any
// field set is taken as is, so zero delays and a zero probability are valid.
func (t Timing) withDefaults() Timing {
	if t == (Timing{}) {
		return DefaultTiming()
	}
	return t
}

var DefaultReplies = []string{
	"That's a great point, {user}!",
	"I completely agree with you.",
	"Thanks for sharing that insight!",
	"Interesting perspective, {user}!",
	"Let me think about that...",
	"Good idea! Let's discuss this further.",
	"I have some thoughts on this too.",
	"That makes a lot of sense!",
	"Great suggestion, {user}!",
	"Absolutely! I was thinking the same thing.",
	"Nice work on that implementation!",
	"Could you elaborate on that?",
	"I'd love to hear more about your approach.",
	"That's exactly what we needed!",
	"Perfect timing with that message!",
}

// Validate reports the first problem that would make a session unusable.
func (c Config) Validate() error {
	if c.LocalUserName == "" {
		return errors.New("config: local user name is required")
	}
	if len(c.Channels) == 0 {
		return errors.New("config: at least one channel is required")
	}
	seen := make(map[string]bool, len(c.Channels))
	for _, ch := range c.Channels {
		if ch.ID == "" {
			return fmt.Errorf("config: channel %q has no id", ch.Name)
		}
		if seen[ch.ID] {
			return fmt.Errorf("config: duplicate channel id %q", ch.ID)
		}
		seen[ch.ID] = true
	}
	if len(c.SimulatedUsers) == 0 {
		return errors.New("config: at least one simulated user is required")
	}
	for _, u := range c.SimulatedUsers {
		if u == "" {
			return errors.New("config: simulated user names must not be empty")
		}
		if u == c.LocalUserName {
			return fmt.Errorf("config: simulated users must not include the local user %q", u)
		}
	}
	t := c.Timing.withDefaults()
	if t.ReplyDelayMin < 0 || t.ReplyDelayMax < t.ReplyDelayMin {
		return fmt.Errorf("config: invalid reply delay window %s..%s", t.ReplyDelayMin, t.ReplyDelayMax)
	}
	if t.TypingProbability < 0 || t.TypingProbability > 1 {
		return fmt.Errorf("config: typing probability %v outside [0,1]", t.TypingProbability)
	}
	if t.AckDelay < 0 || t.TypingDwell < 0 || t.VoiceNoteLength < 0 {
		return errors.New("config: durations must not be negative")
	}
	if t.PresenceInterval <= 0 {
		return fmt.Errorf("config: presence interval %s must be positive", t.PresenceInterval)
	}
	ids := make(map[string]bool, len(c.Seed))
	for _, m := range c.Seed {
		if m.ID != "" {
			if ids[m.ID] {
				return fmt.Errorf("config: duplicate seed message id %q", m.ID)
			}
			ids[m.ID] = true
		}
		if err := validateReactions(m.Reactions); err != nil {
			return fmt.Errorf("config: seed message %q: %w", m.ID, err)
		}
	}
	return nil
}

// validateReactions enforces one entry per emoji, a count equal to the
// number of distinct reacting users, and no empty entries.
func validateReactions(reactions []Reaction) error {
	emojis := make(map[string]bool, len(reactions))
	for _, r := range reactions {
		if emojis[r.Emoji] {
			return fmt.Errorf("duplicate %s reaction", r.Emoji)
		}
		emojis[r.Emoji] = true
		if r.Count != len(r.Users) || r.Count == 0 {
			return fmt.Errorf("inconsistent %s reaction", r.Emoji)
		}
		users := make(map[string]bool, len(r.Users))
		for _, u := range r.Users {
			if users[u] {
				return fmt.Errorf("%s reaction lists %q twice", r.Emoji, u)
			}
			users[u] = true
		}
	}
	return nil
}
