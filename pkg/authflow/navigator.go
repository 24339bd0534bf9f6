package authflow

import "sync"

// NavIntent is a navigation command emitted by the auth flow. The core
// never navigates directly; the UI layer executes intents, which keeps
// redirects testable and the core free of side effects.
type NavIntent struct {
	Route string
	// Hard marks a full-page redirect used for error recovery, where no
	// stale protected UI may remain painted.
	Hard bool
}

// Navigator executes navigation intents and reports the current location.
type Navigator interface {
	Navigate(intent NavIntent)
	Current() string
}

// NoticeLevel classifies a toast-style notification.
type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
	NoticeInfo    NoticeLevel = "info"
)

// Notice is a single user-facing notification.
type Notice struct {
	Level   NoticeLevel
	Message string
}

// Notifier surfaces toast-style notifications to the user. Fire-and-forget
// paths (OAuth initiation, the verification-required override) report
// through it instead of a return value.
type Notifier interface {
	Notify(n Notice)
}

// PreferenceStore persists advisory client preferences. The rememberMe
// flag is read by the session store's own persistence layer; the auth flow
// only records it.
type PreferenceStore interface {
	SetRememberMe(remember bool)
	RememberMe() bool
}

// RecordingNavigator is the default Navigator: it records intents and
// tracks the "current" location as the route of the last intent. Tests
// assert on the recorded intents; a real UI supplies its own Navigator.
type RecordingNavigator struct {
	mu      sync.Mutex
	current string
	intents []NavIntent
}

// NewRecordingNavigator creates a navigator positioned at the given route.
func NewRecordingNavigator(current string) *RecordingNavigator {
	return &RecordingNavigator{current: current}
}

func (n *RecordingNavigator) Navigate(intent NavIntent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.intents = append(n.intents, intent)
	n.current = intent.Route
}

func (n *RecordingNavigator) Current() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// SetCurrent moves the navigator without recording an intent, emulating
// user-initiated navigation.
func (n *RecordingNavigator) SetCurrent(route string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.current = route
}

// Intents returns a copy of all recorded intents.
func (n *RecordingNavigator) Intents() []NavIntent {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]NavIntent, len(n.intents))
	copy(out, n.intents)
	return out
}

// RecordingNotifier is the default Notifier: it collects notices for
// later inspection.
type RecordingNotifier struct {
	mu      sync.Mutex
	notices []Notice
}

// NewRecordingNotifier creates an empty recording notifier.
func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{}
}

func (n *RecordingNotifier) Notify(notice Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
}

// Notices returns a copy of all recorded notices.
func (n *RecordingNotifier) Notices() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Notice, len(n.notices))
	copy(out, n.notices)
	return out
}

// MemoryPreferences is an in-memory PreferenceStore.
type MemoryPreferences struct {
	mu       sync.Mutex
	remember bool
}

func (p *MemoryPreferences) SetRememberMe(remember bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.remember = remember
}

func (p *MemoryPreferences) RememberMe() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.remember
}

var (
	_ Navigator       = (*RecordingNavigator)(nil)
	_ Notifier        = (*RecordingNotifier)(nil)
	_ PreferenceStore = (*MemoryPreferences)(nil)
)
