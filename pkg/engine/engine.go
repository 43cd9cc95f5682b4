// Package engine is the conversation layer of the depot: a per-actor
// finite-state machine that turns transport events (free text, uploads,
// structured selections) into repository operations and rendering
// payloads. The transport itself stays outside: it decodes callbacks
// with ParseAction, feeds Events in, and renders Replies back.
//
// Thread Safety: events for the same actor are serialized on the
// session mutex; events for distinct actors run fully in parallel.
package engine

import (
	"context"
	"strings"

	"github.com/kol-dayn/depot/internal/logger"
	"github.com/kol-dayn/depot/internal/ratelimiter"
	"github.com/kol-dayn/depot/pkg/catalog"
	"github.com/kol-dayn/depot/pkg/paging"
	"github.com/kol-dayn/depot/pkg/repository"
)

// Notifier delivers out-of-band notices to users (admin actions, direct
// messages). Delivery is best-effort: failures are logged, never
// propagated, and never roll back the state change that triggered them.
type Notifier interface {
	Notify(ctx context.Context, userID int64, text string) error
}

// Engine routes events against per-actor sessions.
type Engine struct {
	repo     *repository.Service
	notifier Notifier
	sessions *sessionStore
	limiter  *ratelimiter.PerActor
	pageSize int
}

// Options configures an Engine.
type Options struct {
	// Notifier receives best-effort user notifications. May be nil.
	Notifier Notifier

	// Limiter throttles inbound events per actor. May be nil (no limit).
	Limiter *ratelimiter.PerActor

	// PageSize is entries per listing page. Defaults to paging.DefaultPageSize.
	PageSize int
}

func NewEngine(repo *repository.Service, opts Options) *Engine {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = paging.DefaultPageSize
	}
	return &Engine{
		repo:     repo,
		notifier: opts.Notifier,
		sessions: newSessionStore(),
		limiter:  opts.Limiter,
		pageSize: pageSize,
	}
}

// HandleEvent processes one inbound event and returns the payload to
// render. It never returns nil: every event, including denied and
// malformed ones, produces something to show the actor.
func (e *Engine) HandleEvent(ctx context.Context, event Event) *Reply {
	if e.limiter != nil && !e.limiter.Allow(event.Actor()) {
		return textReply("Too many requests, slow down.")
	}

	session := e.sessions.get(event.Actor())
	session.mu.Lock()
	defer session.mu.Unlock()

	actor, err := e.repo.Store().GetUser(ctx, event.Actor())
	if err != nil {
		if catalog.IsCode(err, catalog.ErrNotFound) {
			return textReply("No access.")
		}
		logger.Error("Failed to load user %d: %v", event.Actor(), err)
		return textReply("Something went wrong, try again later.")
	}
	if actor.IsBanned() {
		return textReply("No access.")
	}

	switch ev := event.(type) {
	case TextEvent:
		return e.handleText(ctx, actor, session, strings.TrimSpace(ev.Text))
	case UploadEvent:
		return e.handleUpload(ctx, actor, session, ev)
	case CallbackEvent:
		return e.handleCallback(ctx, actor, session, ev.Action)
	default:
		return textReply("Unsupported event.")
	}
}

// textHandlers is the transition table for states that consume free text.
// States absent from the table do not expect text: input there folds back
// into the current stable view.
var textHandlers = map[State]func(e *Engine, ctx context.Context, actor *catalog.User, session *Session, text string) *Reply{
	StateAwaitingPassword:        (*Engine).textPassword,
	StateAwaitingFolderName:      (*Engine).textFolderName,
	StateAwaitingFolderRename:    (*Engine).textFolderRename,
	StateAwaitingFileRename:      (*Engine).textFileRename,
	StateAwaitingNewUserID:       (*Engine).textNewUserID,
	StateAwaitingNewUserPassword: (*Engine).textNewUserPassword,
	StateAwaitingNewUserName:     (*Engine).textNewUserName,
	StateAwaitingPasswordChange:  (*Engine).textPasswordChange,
	StateAwaitingFolderLimit:     (*Engine).textFolderLimit,
	StateAwaitingMessageText:     (*Engine).textMessage,
}

func (e *Engine) handleText(ctx context.Context, actor *catalog.User, session *Session, text string) *Reply {
	switch text {
	case "/start":
		session.reset(StateIdle)
		session.State = StateAwaitingPassword
		return textReply("Welcome back. Send your password to log in.")
	case "/logout":
		if err := e.repo.Logout(ctx, actor.ID); err != nil {
			logger.Warn("Logout for %d failed: %v", actor.ID, err)
		}
		session.reset(StateIdle)
		return textReply("Logged out. Send /start to log in again.")
	case "/cancel":
		return e.cancel(ctx, actor, session)
	}

	if session.State == StateAwaitingPassword {
		return e.textPassword(ctx, actor, session, text)
	}
	if !actor.Authorized {
		return textReply("Please log in first. Send /start.")
	}

	if handler, ok := textHandlers[session.State]; ok {
		return handler(e, ctx, actor, session, text)
	}

	// Text arrived in a stable state: fold back into the current view.
	return e.refold(ctx, actor, session)
}

func (e *Engine) handleUpload(ctx context.Context, actor *catalog.User, session *Session, ev UploadEvent) *Reply {
	if !actor.Authorized {
		return textReply("Please log in first. Send /start.")
	}
	if session.State != StateAwaitingUpload {
		return e.refold(ctx, actor, session)
	}
	return e.uploadFile(ctx, actor, session, ev)
}

func (e *Engine) handleCallback(ctx context.Context, actor *catalog.User, session *Session, action Action) *Reply {
	if action.Kind == KindCancel {
		return e.cancel(ctx, actor, session)
	}
	if !actor.Authorized {
		return textReply("Please log in first. Send /start.")
	}

	// A selection arriving while a text prompt is pending is stale UI:
	// fold the prompt back instead of acting on it.
	if _, awaitingText := textHandlers[session.State]; awaitingText && session.State != StateAwaitingPassword {
		return e.refold(ctx, actor, session)
	}

	switch action.Kind {
	case KindMainMenu:
		return e.showMainMenu(actor, session)
	case KindFolderList:
		return e.showFolderList(ctx, actor, session, action.Page)
	case KindOpenFolder:
		return e.showFolderView(ctx, actor, session, action.FolderID, action.Page)
	case KindNewFolder:
		return e.promptFolderName(session)
	case KindRenameFolder:
		return e.promptFolderRename(ctx, actor, session, action.FolderID)
	case KindDeleteFolder:
		return e.promptFolderDelete(ctx, actor, session, action.FolderID)
	case KindConfirmFolderDelete:
		return e.confirmFolderDelete(ctx, actor, session, action.FolderID)
	case KindToggleVisibility:
		return e.toggleVisibility(ctx, actor, session, action.FolderID)
	case KindToggleFreeze:
		return e.toggleFreeze(ctx, actor, session, action.FolderID)
	case KindAddFiles:
		return e.promptUpload(ctx, actor, session, action.FolderID)
	case KindFinishUpload:
		return e.showFolderView(ctx, actor, session, action.FolderID, session.Pending.Page)
	case KindOpenFile:
		return e.showFileView(ctx, actor, session, action.FolderID, action.FileID)
	case KindDownloadFile:
		return e.downloadFile(ctx, actor, session, action.FolderID, action.FileID)
	case KindRenameFile:
		return e.promptFileRename(ctx, actor, session, action.FolderID, action.FileID)
	case KindDeleteFile:
		return e.promptFileDelete(ctx, actor, session, action.FolderID, action.FileID)
	case KindConfirmFileDelete:
		return e.confirmFileDelete(ctx, actor, session, action.FolderID, action.FileID)
	case KindUserList:
		return e.adminOnly(actor, func() *Reply { return e.showUserList(ctx, actor, session, action.Page) })
	case KindManageUser:
		return e.adminOnly(actor, func() *Reply { return e.showManageUser(ctx, actor, session, action.UserID, action.Page) })
	case KindAddUser:
		return e.adminOnly(actor, func() *Reply { return e.promptNewUserID(session) })
	case KindToggleCapability:
		return e.adminOnly(actor, func() *Reply { return e.toggleCapability(ctx, actor, session, action.UserID, action.Capability) })
	case KindToggleAdmin:
		return e.adminOnly(actor, func() *Reply { return e.toggleAdmin(ctx, actor, session, action.UserID) })
	case KindToggleBlock:
		return e.adminOnly(actor, func() *Reply { return e.toggleBlock(ctx, actor, session, action.UserID) })
	case KindSetPassword:
		return e.adminOnly(actor, func() *Reply { return e.promptPasswordChange(session, action.UserID) })
	case KindSetLimit:
		return e.adminOnly(actor, func() *Reply { return e.promptFolderLimit(session, action.UserID) })
	case KindMessageUser:
		return e.adminOnly(actor, func() *Reply { return e.promptMessage(session, action.UserID) })
	case KindConfirmMessage:
		return e.adminOnly(actor, func() *Reply { return e.confirmMessage(ctx, actor, session) })
	case KindDeleteUser:
		return e.adminOnly(actor, func() *Reply { return e.promptUserDelete(ctx, session, action.UserID) })
	case KindConfirmUserDelete:
		return e.adminOnly(actor, func() *Reply { return e.confirmUserDelete(ctx, actor, session, action.UserID) })
	default:
		return e.refold(ctx, actor, session)
	}
}

func (e *Engine) adminOnly(actor *catalog.User, handler func() *Reply) *Reply {
	if !actor.IsAdmin() {
		return textReply("No access.")
	}
	return handler()
}

// cancel returns the session to the nearest stable view, discarding the
// pending sub-flow.
func (e *Engine) cancel(ctx context.Context, actor *catalog.User, session *Session) *Reply {
	switch {
	case session.Pending.FolderID != "":
		return e.showFolderView(ctx, actor, session, session.Pending.FolderID, session.Pending.Page)
	case session.Pending.TargetUserID != 0:
		return e.showManageUser(ctx, actor, session, session.Pending.TargetUserID, session.Pending.UserPage)
	case session.State == StateBrowsingUsers || session.State == StateAwaitingNewUserID ||
		session.State == StateAwaitingNewUserPassword || session.State == StateAwaitingNewUserName:
		return e.showUserList(ctx, actor, session, session.Pending.UserPage)
	case session.State == StateBrowsingFolders || session.State == StateAwaitingFolderName:
		return e.showFolderList(ctx, actor, session, session.Pending.Page)
	case actor.Authorized:
		return e.showMainMenu(actor, session)
	default:
		session.reset(StateIdle)
		return textReply("Nothing to cancel. Send /start to log in.")
	}
}

// refold re-renders whatever view the session is parked in. Used when an
// event shape does not fit the current state.
func (e *Engine) refold(ctx context.Context, actor *catalog.User, session *Session) *Reply {
	switch session.State {
	case StateBrowsingFolders:
		return e.showFolderList(ctx, actor, session, session.Pending.Page)
	case StateBrowsingFiles, StateAwaitingUpload, StateConfirmingFileDelete, StateConfirmingFolderDelete:
		return e.showFolderView(ctx, actor, session, session.Pending.FolderID, session.Pending.Page)
	case StateBrowsingUsers:
		return e.showUserList(ctx, actor, session, session.Pending.UserPage)
	case StateManagingUser, StateConfirmingMessage, StateConfirmingUserDelete:
		return e.showManageUser(ctx, actor, session, session.Pending.TargetUserID, session.Pending.UserPage)
	case StateAwaitingFolderName:
		return textReply("Send the new folder's name, or /cancel.")
	case StateAwaitingFolderRename:
		return textReply("Send the folder's new name, or /cancel.")
	case StateAwaitingFileRename:
		return textReply("Send the file's new name, or /cancel.")
	case StateAwaitingNewUserID:
		return textReply("Send the new user's numeric id, or /cancel.")
	case StateAwaitingNewUserPassword:
		return textReply("Send the new user's password, or /cancel.")
	case StateAwaitingNewUserName:
		return textReply("Send the new user's display name, or /cancel.")
	case StateAwaitingPasswordChange:
		return textReply("Send the new password, or /cancel.")
	case StateAwaitingFolderLimit:
		return textReply("Send the folder limit (0-1000, 0 = unlimited), or /cancel.")
	case StateAwaitingMessageText:
		return textReply("Send the message text, or /cancel.")
	case StateMainMenu:
		return e.showMainMenu(actor, session)
	default:
		if actor.Authorized {
			return e.showMainMenu(actor, session)
		}
		return textReply("Send /start to log in.")
	}
}

// textPassword handles the login prompt. It is reachable even for
// actors whose session is Idle, because /start always routes here.
func (e *Engine) textPassword(ctx context.Context, actor *catalog.User, session *Session, text string) *Reply {
	_, err := e.repo.Authenticate(ctx, actor.ID, text)
	if err != nil {
		if catalog.IsCode(err, catalog.ErrAccessDenied) {
			return textReply("Wrong password, try again or /cancel.")
		}
		logger.Error("Authentication for %d failed: %v", actor.ID, err)
		return textReply("Something went wrong, try again later.")
	}
	actor.Authorized = true
	return e.showMainMenu(actor, session)
}

func (e *Engine) showMainMenu(actor *catalog.User, session *Session) *Reply {
	session.reset(StateMainMenu)
	keyboard := [][]Button{
		{{Label: "Folders", Action: Action{Kind: KindFolderList}}},
	}
	if actor.IsAdmin() {
		keyboard = append(keyboard, []Button{{Label: "Users", Action: Action{Kind: KindUserList}}})
	}
	return &Reply{
		Text:     "Main menu. Pick a section, /logout to leave.",
		Keyboard: keyboard,
	}
}

// notify delivers a best-effort notification through the configured
// Notifier, if any.
func (e *Engine) notify(ctx context.Context, userID int64, text string) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.Notify(ctx, userID, text); err != nil {
		logger.Warn("Notification to %d failed: %v", userID, err)
	}
}

// storeFailure logs an unexpected store error and renders the generic
// failure notice, leaving the session where it was.
func storeFailure(op string, err error) *Reply {
	logger.Error("Store failure during %s: %v", op, err)
	return textReply("Something went wrong, try again later.")
}
