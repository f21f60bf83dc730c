package chat

import (
	"strings"
	"time"

	"go.uber.org/zap"
)

func (s *Store) scheduleReplyLocked() {
	window := s.timing.ReplyDelayMax - s.timing.ReplyDelayMin
	delay := s.timing.ReplyDelayMin + time.Duration(s.rand.Float64()*float64(window))
	s.scheduleLocked("reply", delay, func() bool {
		author := s.cfg.SimulatedUsers[s.rand.Intn(len(s.cfg.SimulatedUsers))]
		text := s.cfg.Replies[s.rand.Intn(len(s.cfg.Replies))]
		s.appendLocked("reply", author, strings.ReplaceAll(text, "{user}", s.cfg.LocalUserName), false)
		return true
	})
}

// StartSimulation runs TickPresence every PresenceInterval until Close.
// Calling it again is a no-op.
func (s *Store) StartSimulation() error {
	if err := s.lock(); err != nil {
		return err
	}
	if !s.simulating {
		s.simulating = true
		s.armPresenceLocked()
		s.log.Info("simulation_started", zap.Duration("interval", s.timing.PresenceInterval))
	}
	s.mu.Unlock()
	return nil
}

func (s *Store) armPresenceLocked() {
	s.scheduleLocked("presence_tick", s.timing.PresenceInterval, func() bool {
		s.tickLocked()
		s.armPresenceLocked()
		return true
	})
}

// TickPresence runs one round of the peer simulation: maybe start a typing
// pulse, and always reshuffle who is online.
func (s *Store) TickPresence() {
	if err := s.lock(); err != nil {
		return
	}
	s.tickLocked()
	s.unlockAndNotify(true)
}

func (s *Store) tickLocked() {
	roster := s.cfg.SimulatedUsers
	s.metrics.tick()

	if s.rand.Float64() < s.timing.TypingProbability {
		user := roster[s.rand.Intn(len(roster))]
		// The dwell is absolute: a user already typing keeps the removal
		// time of their first pulse.
		if !contains(s.typing, user) {
			s.typing = append(s.typing, user)
			s.scheduleLocked("typing_dwell", s.timing.TypingDwell, func() bool {
				if !contains(s.typing, user) {
					return false
				}
				s.typing = without(s.typing, user)
				return true
			})
		}
	}

	n := 1 + s.rand.Intn(len(roster))
	perm := s.rand.Perm(len(roster))
	online := make([]string, 0, n)
	for _, i := range perm[:n] {
		online = append(online, roster[i])
	}
	s.online = online
	s.log.Debug("presence_tick", zap.Strings("online", online), zap.Strings("typing", s.typing))
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func without(list []string, v string) []string {
	out := make([]string, 0, len(list))
	for _, x := range list {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}
