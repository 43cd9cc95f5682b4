package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/kol-dayn/depot/pkg/catalog"
	"github.com/kol-dayn/depot/pkg/paging"
	"github.com/kol-dayn/depot/pkg/repository"
)

func capabilityLabel(c repository.Capability) string {
	switch c {
	case repository.CapabilityAddition:
		return "upload"
	case repository.CapabilityDownload:
		return "download"
	case repository.CapabilityRename:
		return "rename"
	case repository.CapabilityDelete:
		return "delete"
	default:
		return "unknown"
	}
}

func onOff(enabled bool) string {
	if enabled {
		return "on"
	}
	return "off"
}

func userLabel(user *catalog.User) string {
	label := fmt.Sprintf("%d", user.ID)
	if user.Username != "" {
		label = fmt.Sprintf("%s (%d)", user.Username, user.ID)
	}
	switch {
	case user.IsAdmin():
		label += " [admin]"
	case user.IsBanned():
		label += " [blocked]"
	}
	return label
}

func (e *Engine) showUserList(ctx context.Context, actor *catalog.User, session *Session, requestedPage int) *Reply {
	users, err := e.repo.Store().ListUsers(ctx)
	if err != nil {
		return storeFailure("user list", err)
	}

	page := paging.Paginate(len(users), e.pageSize, requestedPage)
	session.reset(StateBrowsingUsers)
	session.Pending.UserPage = page.Number

	var keyboard [][]Button
	for _, user := range paging.Slice(users, page) {
		keyboard = append(keyboard, []Button{{
			Label:  userLabel(&user),
			Action: Action{Kind: KindManageUser, UserID: user.ID, Page: page.Number},
		}})
	}
	keyboard = append(keyboard, []Button{{Label: "Add user", Action: Action{Kind: KindAddUser}}})
	keyboard = append(keyboard, navRow(page,
		func(p int) Action { return Action{Kind: KindUserList, Page: p} },
		backButton("Menu", Action{Kind: KindMainMenu})))

	return &Reply{
		Text:     fmt.Sprintf("Users, page %d/%d.", page.Number+1, page.TotalPages),
		Keyboard: keyboard,
	}
}

// loadTarget fetches the user under management. A vanished target routes
// back to the user list.
func (e *Engine) loadTarget(ctx context.Context, actor *catalog.User, session *Session, userID int64) (*catalog.User, *Reply) {
	target, err := e.repo.Store().GetUser(ctx, userID)
	if err != nil {
		if catalog.IsCode(err, catalog.ErrNotFound) {
			reply := e.showUserList(ctx, actor, session, session.Pending.UserPage)
			reply.Text = "That user is already gone.\n\n" + reply.Text
			return nil, reply
		}
		return nil, storeFailure("user lookup", err)
	}
	return target, nil
}

func (e *Engine) showManageUser(ctx context.Context, actor *catalog.User, session *Session, userID int64, page int) *Reply {
	target, fail := e.loadTarget(ctx, actor, session, userID)
	if fail != nil {
		return fail
	}

	session.reset(StateManagingUser)
	session.Pending.TargetUserID = target.ID
	session.Pending.UserPage = page

	var text strings.Builder
	fmt.Fprintf(&text, "%s\nStatus: %s, logged in: %s.\n", userLabel(target), target.Status, onOff(target.Authorized))
	limit := strconv.Itoa(target.FoldersLimit)
	if target.FoldersLimit == 0 {
		limit = "unlimited"
	}
	fmt.Fprintf(&text, "Folders: %d (limit %s).\n", target.Folders, limit)
	fmt.Fprintf(&text, "Flags: upload %s, download %s, rename %s, delete %s.",
		onOff(target.Addition), onOff(target.Download), onOff(target.Rename), onOff(target.Delete))
	if !target.CreatedAt.IsZero() {
		fmt.Fprintf(&text, "\nCreated %s.", target.CreatedAt.Format("2006-01-02"))
	}

	var keyboard [][]Button
	if !target.IsAdmin() {
		flags := []struct {
			cap     repository.Capability
			enabled bool
		}{
			{repository.CapabilityAddition, target.Addition},
			{repository.CapabilityDownload, target.Download},
			{repository.CapabilityRename, target.Rename},
			{repository.CapabilityDelete, target.Delete},
		}
		var row []Button
		for _, flag := range flags {
			row = append(row, Button{
				Label:  fmt.Sprintf("%s: %s", capabilityLabel(flag.cap), onOff(flag.enabled)),
				Action: Action{Kind: KindToggleCapability, UserID: target.ID, Capability: flag.cap},
			})
		}
		keyboard = append(keyboard, row)
		keyboard = append(keyboard, []Button{{
			Label:  "Folder limit",
			Action: Action{Kind: KindSetLimit, UserID: target.ID},
		}})
	}

	adminLabel := "Promote to admin"
	if target.IsAdmin() {
		adminLabel = "Demote to user"
	}
	blockLabel := "Block"
	if target.IsBanned() {
		blockLabel = "Unblock"
	}
	keyboard = append(keyboard, []Button{
		{Label: adminLabel, Action: Action{Kind: KindToggleAdmin, UserID: target.ID}},
		{Label: blockLabel, Action: Action{Kind: KindToggleBlock, UserID: target.ID}},
	})
	keyboard = append(keyboard, []Button{
		{Label: "Set password", Action: Action{Kind: KindSetPassword, UserID: target.ID}},
		{Label: "Message", Action: Action{Kind: KindMessageUser, UserID: target.ID}},
		{Label: "Delete", Action: Action{Kind: KindDeleteUser, UserID: target.ID}},
	})
	keyboard = append(keyboard, []Button{
		backButton("Users", Action{Kind: KindUserList, Page: page}),
	})

	return &Reply{Text: text.String(), Keyboard: keyboard}
}

func (e *Engine) promptNewUserID(session *Session) *Reply {
	session.State = StateAwaitingNewUserID
	session.Pending.TargetUserID = 0
	return textReply("Send the new user's numeric id, or /cancel.")
}

func (e *Engine) textNewUserID(ctx context.Context, actor *catalog.User, session *Session, text string) *Reply {
	id, err := strconv.ParseInt(text, 10, 64)
	if err != nil || id <= 0 {
		return textReply("That is not a valid id. Send a positive number, or /cancel.")
	}
	if _, err := e.repo.Store().GetUser(ctx, id); err == nil {
		return textReply("A user with that id already exists. Send another, or /cancel.")
	} else if !catalog.IsCode(err, catalog.ErrNotFound) {
		return storeFailure("user lookup", err)
	}
	session.Pending.NewUserID = id
	session.State = StateAwaitingNewUserPassword
	return textReply("Send the new user's password, or /cancel.")
}

func (e *Engine) textNewUserPassword(ctx context.Context, actor *catalog.User, session *Session, text string) *Reply {
	if text == "" {
		return textReply("The password cannot be empty. Send another, or /cancel.")
	}
	session.Pending.NewUserPassword = text
	session.State = StateAwaitingNewUserName
	return textReply("Send the new user's display name, or /cancel.")
}

func (e *Engine) textNewUserName(ctx context.Context, actor *catalog.User, session *Session, text string) *Reply {
	user, err := e.repo.AddUser(ctx, session.Pending.NewUserID, session.Pending.NewUserPassword, text)
	if err != nil {
		if catalog.IsCode(err, catalog.ErrAlreadyExists) {
			reply := e.showUserList(ctx, actor, session, session.Pending.UserPage)
			reply.Text = "A user with that id appeared in the meantime.\n\n" + reply.Text
			return reply
		}
		return storeFailure("user create", err)
	}
	reply := e.showManageUser(ctx, actor, session, user.ID, session.Pending.UserPage)
	reply.Text = fmt.Sprintf("User %s created.\n\n", userLabel(user)) + reply.Text
	return reply
}

func (e *Engine) toggleCapability(ctx context.Context, actor *catalog.User, session *Session, userID int64, capability repository.Capability) *Reply {
	target, err := e.repo.ToggleCapability(ctx, userID, capability)
	if err != nil {
		switch {
		case catalog.IsCode(err, catalog.ErrNotFound):
			return e.showUserList(ctx, actor, session, session.Pending.UserPage)
		case catalog.IsCode(err, catalog.ErrAccessDenied):
			return textReply("Administrator rights cannot be adjusted per flag.")
		default:
			return storeFailure("capability toggle", err)
		}
	}

	enabled := map[repository.Capability]bool{
		repository.CapabilityAddition: target.Addition,
		repository.CapabilityDownload: target.Download,
		repository.CapabilityRename:   target.Rename,
		repository.CapabilityDelete:   target.Delete,
	}[capability]
	e.notify(ctx, target.ID, fmt.Sprintf("An administrator turned %s %s for you.", capabilityLabel(capability), onOff(enabled)))

	return e.showManageUser(ctx, actor, session, target.ID, session.Pending.UserPage)
}

func (e *Engine) toggleAdmin(ctx context.Context, actor *catalog.User, session *Session, userID int64) *Reply {
	target, err := e.repo.ToggleAdmin(ctx, userID)
	if err != nil {
		if catalog.IsCode(err, catalog.ErrNotFound) {
			return e.showUserList(ctx, actor, session, session.Pending.UserPage)
		}
		return storeFailure("admin toggle", err)
	}

	if target.IsAdmin() {
		e.notify(ctx, target.ID, "You are now an administrator.")
	} else {
		e.notify(ctx, target.ID, "You are no longer an administrator.")
	}
	return e.showManageUser(ctx, actor, session, target.ID, session.Pending.UserPage)
}

func (e *Engine) toggleBlock(ctx context.Context, actor *catalog.User, session *Session, userID int64) *Reply {
	target, fail := e.loadTarget(ctx, actor, session, userID)
	if fail != nil {
		return fail
	}

	target, err := e.repo.SetBlocked(ctx, userID, !target.IsBanned())
	if err != nil {
		return storeFailure("block toggle", err)
	}

	if target.IsBanned() {
		e.notify(ctx, target.ID, "Your access has been blocked by an administrator.")
	} else {
		e.notify(ctx, target.ID, "Your access has been restored.")
	}
	return e.showManageUser(ctx, actor, session, target.ID, session.Pending.UserPage)
}

func (e *Engine) promptPasswordChange(session *Session, userID int64) *Reply {
	session.State = StateAwaitingPasswordChange
	session.Pending.TargetUserID = userID
	return textReply("Send the new password, or /cancel.")
}

func (e *Engine) textPasswordChange(ctx context.Context, actor *catalog.User, session *Session, text string) *Reply {
	if text == "" {
		return textReply("The password cannot be empty. Send another, or /cancel.")
	}
	target, err := e.repo.SetPassword(ctx, session.Pending.TargetUserID, text)
	if err != nil {
		if catalog.IsCode(err, catalog.ErrNotFound) {
			reply := e.showUserList(ctx, actor, session, session.Pending.UserPage)
			reply.Text = "That user is already gone.\n\n" + reply.Text
			return reply
		}
		return storeFailure("password change", err)
	}

	e.notify(ctx, target.ID, "An administrator changed your password. Log in again with /start.")
	reply := e.showManageUser(ctx, actor, session, target.ID, session.Pending.UserPage)
	reply.Text = "Password updated.\n\n" + reply.Text
	return reply
}

func (e *Engine) promptFolderLimit(session *Session, userID int64) *Reply {
	session.State = StateAwaitingFolderLimit
	session.Pending.TargetUserID = userID
	return textReply("Send the folder limit (0-1000, 0 = unlimited), or /cancel.")
}

func (e *Engine) textFolderLimit(ctx context.Context, actor *catalog.User, session *Session, text string) *Reply {
	limit, err := strconv.Atoi(text)
	if err != nil {
		return textReply("Send a number between 0 and 1000, or /cancel.")
	}
	target, err := e.repo.SetFolderLimit(ctx, session.Pending.TargetUserID, limit)
	if err != nil {
		switch {
		case catalog.IsCode(err, catalog.ErrInvalidName):
			return textReply("Send a number between 0 and 1000, or /cancel.")
		case catalog.IsCode(err, catalog.ErrAccessDenied):
			return textReply("Administrators have no folder limit.")
		case catalog.IsCode(err, catalog.ErrNotFound):
			reply := e.showUserList(ctx, actor, session, session.Pending.UserPage)
			reply.Text = "That user is already gone.\n\n" + reply.Text
			return reply
		default:
			return storeFailure("folder limit", err)
		}
	}

	e.notify(ctx, target.ID, fmt.Sprintf("An administrator set your folder limit to %d.", target.FoldersLimit))
	return e.showManageUser(ctx, actor, session, target.ID, session.Pending.UserPage)
}

func (e *Engine) promptMessage(session *Session, userID int64) *Reply {
	session.State = StateAwaitingMessageText
	session.Pending.TargetUserID = userID
	return textReply("Send the message text, or /cancel.")
}

func (e *Engine) textMessage(ctx context.Context, actor *catalog.User, session *Session, text string) *Reply {
	if text == "" {
		return textReply("The message cannot be empty. Send it again, or /cancel.")
	}
	session.Pending.MessageText = text
	session.State = StateConfirmingMessage
	return &Reply{
		Text:     fmt.Sprintf("Send this to user %d?\n\n%s", session.Pending.TargetUserID, text),
		Keyboard: confirmKeyboard("Send", Action{Kind: KindConfirmMessage}),
	}
}

func (e *Engine) confirmMessage(ctx context.Context, actor *catalog.User, session *Session) *Reply {
	targetID := session.Pending.TargetUserID
	e.notify(ctx, targetID, session.Pending.MessageText)
	reply := e.showManageUser(ctx, actor, session, targetID, session.Pending.UserPage)
	reply.Text = "Message sent.\n\n" + reply.Text
	return reply
}

func (e *Engine) promptUserDelete(ctx context.Context, session *Session, userID int64) *Reply {
	session.State = StateConfirmingUserDelete
	session.Pending.TargetUserID = userID
	return &Reply{
		Text:     fmt.Sprintf("Delete user %d? Their folders stay behind as ownerless.", userID),
		Keyboard: confirmKeyboard("Delete", Action{Kind: KindConfirmUserDelete, UserID: userID}),
	}
}

func (e *Engine) confirmUserDelete(ctx context.Context, actor *catalog.User, session *Session, userID int64) *Reply {
	if err := e.repo.DeleteUser(ctx, userID); err != nil && !catalog.IsCode(err, catalog.ErrNotFound) {
		return storeFailure("user delete", err)
	}
	session.Pending.TargetUserID = 0
	reply := e.showUserList(ctx, actor, session, session.Pending.UserPage)
	reply.Text = fmt.Sprintf("User %d deleted.\n\n", userID) + reply.Text
	return reply
}
