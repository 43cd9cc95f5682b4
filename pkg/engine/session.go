package engine

import "sync"

// State is the position of one actor's conversation.
type State int

const (
	// StateIdle is the initial state: no conversation yet, or logged out.
	StateIdle State = iota
	StateAwaitingPassword
	StateMainMenu
	StateBrowsingFolders
	StateAwaitingFolderName
	StateBrowsingFiles
	StateAwaitingFolderRename
	StateAwaitingFileRename
	StateAwaitingUpload
	StateConfirmingFileDelete
	StateConfirmingFolderDelete
	StateBrowsingUsers
	StateManagingUser
	StateAwaitingNewUserID
	StateAwaitingNewUserPassword
	StateAwaitingNewUserName
	StateAwaitingPasswordChange
	StateAwaitingFolderLimit
	StateAwaitingMessageText
	StateConfirmingMessage
	StateConfirmingUserDelete
)

// pending is the bag of parameters carried between the prompt that opened
// a sub-flow and the event that completes it. Cleared on every return to
// a stable state.
type pending struct {
	FolderID string
	FileID   string
	Page     int

	TargetUserID int64
	UserPage     int

	// Multi-step add-user flow accumulator.
	NewUserID       int64
	NewUserPassword string

	// Message awaiting confirmation.
	MessageText string
}

// Session is one actor's transient conversation state. The mutex
// serializes the actor's own events; distinct actors never contend.
type Session struct {
	mu      sync.Mutex
	State   State
	Pending pending
}

// reset returns the session to a stable state, discarding any pending
// sub-flow context except the listing positions needed to re-render it.
func (s *Session) reset(state State) {
	folderID, page := s.Pending.FolderID, s.Pending.Page
	userID, userPage := s.Pending.TargetUserID, s.Pending.UserPage
	s.Pending = pending{}
	switch state {
	case StateBrowsingFiles:
		s.Pending.FolderID = folderID
		s.Pending.Page = page
	case StateBrowsingFolders:
		s.Pending.Page = page
	case StateManagingUser:
		s.Pending.TargetUserID = userID
		s.Pending.UserPage = userPage
	case StateBrowsingUsers:
		s.Pending.UserPage = userPage
	}
	s.State = state
}

// sessionStore holds every live session, keyed by actor id. Sessions are
// created on first event and never expire.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[int64]*Session)}
}

func (st *sessionStore) get(actorID int64) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	session, ok := st.sessions[actorID]
	if !ok {
		session = &Session{State: StateIdle}
		st.sessions[actorID] = session
	}
	return session
}
