package dialog

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"nonemergency-bot/api/internal/luis"
)

// Outcome is how a finished intake ended.
type Outcome string

const (
	OutcomeEmergency Outcome = "emergency"
	OutcomeOperator  Outcome = "operator"
	OutcomeCrimeRef  Outcome = "crime_ref"
)

// Session is the per-conversation record the wizard works on. It is owned
// by one conversation at a time; the gateway archives and resets it once
// the wizard reaches StateResolved.
type Session struct {
	ChatID        int64
	CorrelationID string

	State State

	NeedsEmergencyHelp bool
	Name               string
	DateOfBirth        time.Time
	HasDateOfBirth     bool

	Classification Classification
	Issue          *luis.Result

	StolenObject      string
	EvidenceImageURLs []string
	EvidenceImageHash string
	InjuryImageURLs   []string

	Outcome  Outcome
	CrimeRef int64
}

// Sessions is the in-memory session registry, keyed by chat id.
type Sessions struct {
	mu     sync.RWMutex
	states map[int64]*Session
}

func NewSessions() *Sessions {
	return &Sessions{states: make(map[int64]*Session)}
}

// Get returns the session for a chat, creating one on first contact.
func (s *Sessions) Get(chatID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.states[chatID]; ok {
		return sess
	}
	sess := &Session{
		ChatID:        chatID,
		CorrelationID: uuid.New().String(),
		State:         StateStart,
	}
	s.states[chatID] = sess
	return sess
}

func (s *Sessions) Reset(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, chatID)
}

func (s *Sessions) ActiveChatIDs() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int64, 0, len(s.states))
	for id := range s.states {
		ids = append(ids, id)
	}
	return ids
}
