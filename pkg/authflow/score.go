package authflow

import (
	"time"

	"github.com/figuroforge/authkit/pkg/session"
)

// Security score weights. The score is a display heuristic in [0,100],
// recomputed on every state change and never persisted.
const (
	scoreEmailConfirmed = 40
	scoreLiveSession    = 30
	scoreOAuthProvider  = 20
	scoreFutureExpiry   = 10
)

// SecurityScore derives the heuristic score for a (user, session) pair.
// Pure function of the pair: confirmed email +40, live session +30, OAuth
// provider +20, expiry still in the future +10. Either half may be nil;
// a nil half contributes nothing.
func SecurityScore(user *session.User, sess *session.Session) int {
	score := 0
	if user != nil {
		if user.IsVerified() {
			score += scoreEmailConfirmed
		}
		if user.IsOAuth() {
			score += scoreOAuthProvider
		}
	}
	if sess != nil {
		if sess.IsLive() {
			score += scoreLiveSession
		}
		if time.Until(sess.ExpiresAt) > 0 {
			score += scoreFutureExpiry
		}
	}
	return score
}
