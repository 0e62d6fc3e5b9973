package navguard

import (
	"github.com/ndoemo/dialogbrain/internal/models"
	"github.com/ndoemo/dialogbrain/internal/session"
)

// Push appends a rendered surface to the dialog stack, capping it at
// dialogStackCap entries (dropping the oldest) and pointing the index at
// the new top.
func Push(sess *session.Session, entry models.DialogStackEntry) {
	sess.DialogStack = append(sess.DialogStack, entry)
	if len(sess.DialogStack) > dialogStackCap {
		sess.DialogStack = sess.DialogStack[len(sess.DialogStack)-dialogStackCap:]
	}
	sess.DialogStackIndex = len(sess.DialogStack) - 1
}

// Back decrements the stack index and returns the entry now pointed at; a
// no-op (returns false) once already at index 0.
func Back(sess *session.Session) (models.DialogStackEntry, bool) {
	if len(sess.DialogStack) == 0 || sess.DialogStackIndex <= 0 {
		return models.DialogStackEntry{}, false
	}
	sess.DialogStackIndex--
	return sess.DialogStack[sess.DialogStackIndex], true
}

// Forward increments the stack index when possible.
func Forward(sess *session.Session) (models.DialogStackEntry, bool) {
	if len(sess.DialogStack) == 0 || sess.DialogStackIndex >= len(sess.DialogStack)-1 {
		return models.DialogStackEntry{}, false
	}
	sess.DialogStackIndex++
	return sess.DialogStack[sess.DialogStackIndex], true
}

// Current returns the entry at the current stack index.
func Current(sess *session.Session) (models.DialogStackEntry, bool) {
	if len(sess.DialogStack) == 0 {
		return models.DialogStackEntry{}, false
	}
	idx := sess.DialogStackIndex
	if idx < 0 || idx >= len(sess.DialogStack) {
		idx = len(sess.DialogStack) - 1
	}
	return sess.DialogStack[idx], true
}
