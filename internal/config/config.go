package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"chatspace/internal/chat"
)

//go:embed session.yaml
var defaultSession []byte

// Settings are the process-level knobs of cmd/server. The session itself
// never reads the environment.
type Settings struct {
	Addr        string
	SessionPath string
	LogLevel    string
}

// LoadSettings reads the environment after applying any .env files. Missing
// .env files are ignored; variables already set in the environment win.
func LoadSettings(envFiles ...string) (Settings, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Settings{}, fmt.Errorf("config: load env: %w", err)
	}
	s := Settings{
		Addr:        os.Getenv("CHATSPACE_ADDR"),
		SessionPath: os.Getenv("CHATSPACE_SESSION"),
		LogLevel:    os.Getenv("CHATSPACE_LOG_LEVEL"),
	}
	if s.Addr == "" {
		s.Addr = ":8080"
	}
	return s, nil
}

type duration time.Duration

func (d *duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = duration(v)
	return nil
}

type sessionFile struct {
	LocalUser      string         `yaml:"local_user"`
	Channels       []chat.Channel `yaml:"channels"`
	SimulatedUsers []string       `yaml:"simulated_users"`
	Replies        []string       `yaml:"replies"`
	// Pointers tell an explicit zero apart from an omitted key.
	Timing struct {
		ReplyDelayMin     *duration `yaml:"reply_delay_min"`
		ReplyDelayMax     *duration `yaml:"reply_delay_max"`
		AckDelay          *duration `yaml:"ack_delay"`
		TypingDwell       *duration `yaml:"typing_dwell"`
		TypingProbability *float64  `yaml:"typing_probability"`
		PresenceInterval  *duration `yaml:"presence_interval"`
		VoiceNoteLength   *duration `yaml:"voice_note_length"`
	} `yaml:"timing"`
	Seed []struct {
		ID        string   `yaml:"id"`
		Author    string   `yaml:"author"`
		Content   string   `yaml:"content"`
		Ago       duration `yaml:"ago"`
		Replies   int      `yaml:"replies"`
		Read      bool     `yaml:"read"`
		Reactions []struct {
			Emoji string   `yaml:"emoji"`
			Users []string `yaml:"users"`
		} `yaml:"reactions"`
	} `yaml:"seed"`
}

func setDuration(dst *time.Duration, v *duration) {
	if v != nil {
		*dst = time.Duration(*v)
	}
}

// LoadSession reads a session file. An empty path selects the built-in
// demo session.
func LoadSession(path string) (chat.Config, error) {
	data := defaultSession
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return chat.Config{}, fmt.Errorf("config: read session: %w", err)
		}
		data = b
	}
	return ParseSession(data)
}

func ParseSession(data []byte) (chat.Config, error) {
	var f sessionFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return chat.Config{}, fmt.Errorf("config: parse session: %w", err)
	}

	cfg := chat.Config{
		LocalUserName:  f.LocalUser,
		Channels:       f.Channels,
		SimulatedUsers: f.SimulatedUsers,
		Replies:        f.Replies,
		Timing:         chat.DefaultTiming(),
	}
	setDuration(&cfg.Timing.ReplyDelayMin, f.Timing.ReplyDelayMin)
	setDuration(&cfg.Timing.ReplyDelayMax, f.Timing.ReplyDelayMax)
	setDuration(&cfg.Timing.AckDelay, f.Timing.AckDelay)
	setDuration(&cfg.Timing.TypingDwell, f.Timing.TypingDwell)
	setDuration(&cfg.Timing.PresenceInterval, f.Timing.PresenceInterval)
	setDuration(&cfg.Timing.VoiceNoteLength, f.Timing.VoiceNoteLength)
	if f.Timing.TypingProbability != nil {
		cfg.Timing.TypingProbability = *f.Timing.TypingProbability
	}
	for _, m := range f.Seed {
		seed := chat.SeedMessage{
			ID:      m.ID,
			Author:  m.Author,
			Content: m.Content,
			Ago:     time.Duration(m.Ago),
			Replies: m.Replies,
			IsRead:  m.Read,
		}
		for _, r := range m.Reactions {
			seed.Reactions = append(seed.Reactions, chat.Reaction{Emoji: r.Emoji, Count: len(r.Users), Users: r.Users})
		}
		cfg.Seed = append(cfg.Seed, seed)
	}

	if err := cfg.Validate(); err != nil {
		return chat.Config{}, err
	}
	return cfg, nil
}
