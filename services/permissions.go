package services

import "github.com/Dosada05/tournament-engine/brackets"

// HasOwnerPrivilege reports whether userID owns t.
func HasOwnerPrivilege(t *brackets.Tournament, userID string) bool {
	return userID != "" && t.Owner() == userID
}

// HasModeratorPrivilege is true for the owner and for moderators. Moderators
// may record results and advance phases.
func HasModeratorPrivilege(t *brackets.Tournament, userID string) bool {
	if HasOwnerPrivilege(t, userID) {
		return true
	}
	u, ok := t.User(userID)
	return ok && u.IsModerator()
}

// HasStreamerPrivilege is true for moderators and streamers.
func HasStreamerPrivilege(t *brackets.Tournament, userID string) bool {
	if HasModeratorPrivilege(t, userID) {
		return true
	}
	u, ok := t.User(userID)
	return ok && u.IsStreamer()
}
