package chat

import "strings"

func (s *Store) LocalUser() string {
	return s.cfg.LocalUserName
}

// Messages returns a copy of the log in insertion order.
func (s *Store) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	for i, m := range s.messages {
		m.Reactions = copyReactions(m.Reactions)
		out[i] = m
	}
	return out
}

func (s *Store) TypingUsers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.typing...)
}

func (s *Store) OnlineUsers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.online...)
}

func (s *Store) ActiveChannel() Channel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channels[s.active]
}

func (s *Store) Channels() []Channel {
	return append([]Channel{}, s.cfg.Channels...)
}

func (s *Store) Recording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recording
}

// UnreadCount counts peer messages the local user has not seen. It is
// computed on every call.
func (s *Store) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unreadLocked()
}

func (s *Store) unreadLocked() int {
	n := 0
	for _, m := range s.messages {
		if !m.IsRead && m.Author != s.cfg.LocalUserName {
			n++
		}
	}
	return n
}

// Closed reports whether Close has been called.
func (s *Store) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// PendingTimers reports how many scheduled effects have not fired.
func (s *Store) PendingTimers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

func (s *Store) IsOwn(m Message) bool {
	return m.Author == s.cfg.LocalUserName
}

// UserStatus is online for the local user and for anyone in the current
// online set.
func (s *Store) UserStatus(name string) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked(name)
}

func (s *Store) statusLocked(name string) Status {
	if name == s.cfg.LocalUserName || contains(s.online, name) {
		return StatusOnline
	}
	return StatusOffline
}

// Search filters channels and the user directory by a case-insensitive
// substring. An empty query matches everything.
func (s *Store) Search(query string) SearchResult {
	q := strings.ToLower(strings.TrimSpace(query))
	match := func(name string) bool {
		return strings.Contains(strings.ToLower(name), q)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res := SearchResult{Channels: []Channel{}, Users: []UserEntry{}}
	for _, ch := range s.cfg.Channels {
		if match(ch.Name) {
			res.Channels = append(res.Channels, ch)
		}
	}
	directory := append([]string{s.cfg.LocalUserName}, s.cfg.SimulatedUsers...)
	for _, name := range directory {
		if match(name) {
			res.Users = append(res.Users, UserEntry{Name: name, Status: s.statusLocked(name)})
		}
	}
	return res
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	views := make([]MessageView, len(s.messages))
	for i, m := range s.messages {
		m.Reactions = copyReactions(m.Reactions)
		views[i] = MessageView{Message: m, IsOwn: m.Author == s.cfg.LocalUserName}
	}
	return Snapshot{
		Version:        s.version,
		LocalUser:      s.cfg.LocalUserName,
		ActiveChannel:  s.channels[s.active],
		Channels:       append([]Channel{}, s.cfg.Channels...),
		Messages:       views,
		TypingUsers:    append([]string{}, s.typing...),
		OnlineUsers:    append([]string{}, s.online...),
		UnreadCount:    s.unreadLocked(),
		Recording:      s.recording,
		QuickReactions: append([]string{}, QuickReactions...),
	}
}
