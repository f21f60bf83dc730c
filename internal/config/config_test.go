package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSessionDefault(t *testing.T) {
	cfg, err := LoadSession("")
	require.NoError(t, err)

	assert.Equal(t, "Shivam", cfg.LocalUserName)
	require.Len(t, cfg.Channels, 4)
	assert.Equal(t, "general", cfg.Channels[0].Name)
	assert.Equal(t, 12, cfg.Channels[0].MemberCount)
	assert.Equal(t, 2, cfg.Channels[0].Unread)
	assert.Equal(t, "Shivam Shekhawat", cfg.SimulatedUsers[0])
	assert.Equal(t, 1500*time.Millisecond, cfg.Timing.AckDelay)
	assert.Equal(t, 0.2, cfg.Timing.TypingProbability)

	require.Len(t, cfg.Seed, 4)
	assert.Equal(t, time.Hour, cfg.Seed[0].Ago)
	assert.Equal(t, 2, cfg.Seed[0].Replies)
	require.Len(t, cfg.Seed[0].Reactions, 1)
	assert.Equal(t, 3, cfg.Seed[0].Reactions[0].Count)
	assert.False(t, cfg.Seed[3].IsRead)
}

func TestParseSessionRejectsBadDuration(t *testing.T) {
	_, err := ParseSession([]byte(`
local_user: me
channels: [{id: "1", name: general}]
simulated_users: [bot]
timing:
  ack_delay: soon
`))
	assert.Error(t, err)
}

func TestParseSessionValidates(t *testing.T) {
	_, err := ParseSession([]byte(`
local_user: me
channels: [{id: "1", name: general}]
simulated_users: [me]
`))
	assert.ErrorContains(t, err, "local user")
}

func TestLoadSessionFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
local_user: ada
channels: [{id: ops, name: ops, member_count: 3}]
simulated_users: [grace, linus]
replies: ["ok {user}"]
`), 0o600))

	cfg, err := LoadSession(path)
	require.NoError(t, err)
	assert.Equal(t, "ada", cfg.LocalUserName)
	assert.Equal(t, []string{"ok {user}"}, cfg.Replies)
	assert.Empty(t, cfg.Seed)
}

func TestLoadSessionMissingFile(t *testing.T) {
	_, err := LoadSession(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadSettings(t *testing.T) {
	dir := t.TempDir()
	env := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(env, []byte("CHATSPACE_LOG_LEVEL=debug\n"), 0o600))
	t.Setenv("CHATSPACE_ADDR", "")
	t.Setenv("CHATSPACE_SESSION", "/tmp/session.yaml")
	t.Setenv("CHATSPACE_LOG_LEVEL", "")
	os.Unsetenv("CHATSPACE_LOG_LEVEL")

	s, err := LoadSettings(env)
	require.NoError(t, err)
	assert.Equal(t, ":8080", s.Addr)
	assert.Equal(t, "/tmp/session.yaml", s.SessionPath)
	assert.Equal(t, "debug", s.LogLevel)

	_, err = LoadSettings(filepath.Join(dir, "missing.env"))
	assert.NoError(t, err)
}

func TestParseSessionKeepsExplicitZeroTiming(t *testing.T) {
	cfg, err := ParseSession([]byte(`
local_user: me
channels: [{id: "1", name: general}]
simulated_users: [bot]
timing:
  reply_delay_min: 0s
  reply_delay_max: 500ms
  typing_probability: 0
`))
	require.NoError(t, err)

	assert.Equal(t, time.Duration(0), cfg.Timing.ReplyDelayMin)
	assert.Equal(t, 500*time.Millisecond, cfg.Timing.ReplyDelayMax)
	assert.Zero(t, cfg.Timing.TypingProbability)
	// Omitted keys keep their defaults.
	assert.Equal(t, 1500*time.Millisecond, cfg.Timing.AckDelay)
	assert.Equal(t, 10*time.Second, cfg.Timing.PresenceInterval)
}

func TestParseSessionRejectsDuplicateReactionUsers(t *testing.T) {
	_, err := ParseSession([]byte(`
local_user: me
channels: [{id: "1", name: general}]
simulated_users: [bot]
seed:
  - id: "1"
    author: bot
    content: hi
    reactions:
      - emoji: "🔥"
        users: [bot, bot]
`))
	assert.ErrorContains(t, err, "twice")
}
