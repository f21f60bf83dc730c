package chat

// toggleReaction returns a new reaction list with user's emoji toggled and
// reports whether the user was added. The input slice and the Users slices
// it references are never written to, so snapshots handed out earlier stay
// valid.
func toggleReaction(reactions []Reaction, emoji, user string) ([]Reaction, bool) {
	idx := -1
	for i, r := range reactions {
		if r.Emoji == emoji {
			idx = i
			break
		}
	}

	if idx < 0 {
		out := make([]Reaction, len(reactions), len(reactions)+1)
		copy(out, reactions)
		return append(out, Reaction{Emoji: emoji, Count: 1, Users: []string{user}}), true
	}

	existing := reactions[idx]
	users := make([]string, 0, len(existing.Users)+1)
	removed := false
	for _, u := range existing.Users {
		if u == user {
			removed = true
			continue
		}
		users = append(users, u)
	}
	if !removed {
		users = append(users, user)
	}

	out := make([]Reaction, 0, len(reactions))
	for i, r := range reactions {
		if i != idx {
			out = append(out, r)
			continue
		}
		if len(users) > 0 {
			out = append(out, Reaction{Emoji: emoji, Count: len(users), Users: users})
		}
	}
	if len(out) == 0 {
		out = nil
	}
	return out, !removed
}

func copyReactions(in []Reaction) []Reaction {
	if len(in) == 0 {
		return nil
	}
	out := make([]Reaction, len(in))
	for i, r := range in {
		out[i] = Reaction{Emoji: r.Emoji, Count: len(r.Users), Users: append([]string(nil), r.Users...)}
	}
	return out
}
