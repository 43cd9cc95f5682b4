package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kol-dayn/depot/internal/logger"
	"github.com/kol-dayn/depot/pkg/access"
	"github.com/kol-dayn/depot/pkg/catalog"
	"github.com/kol-dayn/depot/pkg/paging"
	"github.com/kol-dayn/depot/pkg/repository"
)

// loadFolder fetches a reconciled folder for an action. A vanished folder
// (deleted concurrently by another actor) routes the session back to the
// folder list instead of re-prompting.
func (e *Engine) loadFolder(ctx context.Context, actor *catalog.User, session *Session, folderID string) (*catalog.Folder, *Reply) {
	folder, err := e.repo.GetFolder(ctx, folderID)
	if err != nil {
		if catalog.IsCode(err, catalog.ErrNotFound) {
			reply := e.showFolderList(ctx, actor, session, session.Pending.Page)
			reply.Text = "That folder is already gone.\n\n" + reply.Text
			return nil, reply
		}
		return nil, storeFailure("folder lookup", err)
	}
	return folder, nil
}

// allowed runs the capability resolver for a callback-originated action
// and renders the denial when it fails.
func allowed(actor *catalog.User, folder *catalog.Folder, action access.Action) *Reply {
	decision := access.Check(actor, folder, action, access.ViaCallback)
	if !decision.Allowed {
		return textReply(decision.Reason)
	}
	return nil
}

func folderLabel(folder *catalog.Folder) string {
	label := folder.Name
	if folder.Status == catalog.StatusPrivate {
		label += " (private)"
	}
	if folder.Freezing {
		label += " (frozen)"
	}
	return label
}

func (e *Engine) showFolderList(ctx context.Context, actor *catalog.User, session *Session, requestedPage int) *Reply {
	// The directory tree is ground truth: reconverge before rendering.
	if err := e.repo.ReconcileAll(ctx); err != nil {
		logger.Warn("Reconciliation before folder list failed: %v", err)
	}

	folders, err := e.repo.Store().ListFolders(ctx)
	if err != nil {
		return storeFailure("folder list", err)
	}

	visible := folders[:0]
	for i := range folders {
		if access.Check(actor, &folders[i], access.ActionReadList, access.ViaCallback).Allowed {
			visible = append(visible, folders[i])
		}
	}

	page := paging.Paginate(len(visible), e.pageSize, requestedPage)
	session.reset(StateBrowsingFolders)
	session.Pending.Page = page.Number

	var text strings.Builder
	if stats, err := e.repo.StatDepot(ctx); err == nil {
		fmt.Fprintf(&text, "Depot: %d folders, %d files, %s, %d users.\n",
			stats.Folders, stats.Files, repository.HumanSize(stats.TotalBytes), stats.Users)
	}
	fmt.Fprintf(&text, "Folders, page %d/%d. Pick one or create a new one.", page.Number+1, page.TotalPages)

	var keyboard [][]Button
	for _, folder := range paging.Slice(visible, page) {
		keyboard = append(keyboard, []Button{{
			Label:  folderLabel(&folder),
			Action: Action{Kind: KindOpenFolder, FolderID: folder.ID},
		}})
	}
	keyboard = append(keyboard, []Button{{Label: "New folder", Action: Action{Kind: KindNewFolder}}})
	keyboard = append(keyboard, navRow(page,
		func(p int) Action { return Action{Kind: KindFolderList, Page: p} },
		backButton("Menu", Action{Kind: KindMainMenu})))

	return &Reply{Text: text.String(), Keyboard: keyboard}
}

func (e *Engine) showFolderView(ctx context.Context, actor *catalog.User, session *Session, folderID string, requestedPage int) *Reply {
	folder, fail := e.loadFolder(ctx, actor, session, folderID)
	if fail != nil {
		return fail
	}
	if denied := allowed(actor, folder, access.ActionReadList); denied != nil {
		return denied
	}

	files := make([]catalog.File, len(folder.Files))
	copy(files, folder.Files)
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	page := paging.Paginate(len(files), e.pageSize, requestedPage)
	session.reset(StateBrowsingFiles)
	session.Pending.FolderID = folder.ID
	session.Pending.Page = page.Number

	stats := e.repo.StatFolder(folder)
	var text strings.Builder
	fmt.Fprintf(&text, "Folder %s", folder.Name)
	if folder.Status == catalog.StatusPrivate {
		text.WriteString(" (private)")
	}
	if folder.Freezing {
		text.WriteString(" (frozen)")
	}
	fmt.Fprintf(&text, "\n%d files, %s.", stats.Files, repository.HumanSize(stats.TotalBytes))
	if created, ok := e.repo.FolderCreatedAt(folder); ok {
		fmt.Fprintf(&text, " Created %s.", created.Format("2006-01-02"))
	}
	fmt.Fprintf(&text, "\nPage %d/%d.", page.Number+1, page.TotalPages)

	var keyboard [][]Button
	for _, file := range paging.Slice(files, page) {
		keyboard = append(keyboard, []Button{{
			Label:  file.Name,
			Action: Action{Kind: KindOpenFile, FolderID: folder.ID, FileID: file.ID},
		}})
	}
	keyboard = append(keyboard, []Button{
		{Label: "Add files", Action: Action{Kind: KindAddFiles, FolderID: folder.ID}},
		{Label: "Rename", Action: Action{Kind: KindRenameFolder, FolderID: folder.ID}},
		{Label: "Delete", Action: Action{Kind: KindDeleteFolder, FolderID: folder.ID}},
	})
	manage := []Button{}
	if actor.IsAdmin() || folder.OwnerID == actor.ID {
		label := "Make private"
		if folder.Status == catalog.StatusPrivate {
			label = "Make public"
		}
		manage = append(manage, Button{Label: label, Action: Action{Kind: KindToggleVisibility, FolderID: folder.ID}})
	}
	if actor.IsAdmin() {
		label := "Freeze"
		if folder.Freezing {
			label = "Unfreeze"
		}
		manage = append(manage, Button{Label: label, Action: Action{Kind: KindToggleFreeze, FolderID: folder.ID}})
	}
	if len(manage) > 0 {
		keyboard = append(keyboard, manage)
	}
	keyboard = append(keyboard, navRow(page,
		func(p int) Action { return Action{Kind: KindOpenFolder, FolderID: folder.ID, Page: p} },
		backButton("Folders", Action{Kind: KindFolderList})))

	return &Reply{Text: text.String(), Keyboard: keyboard}
}

func (e *Engine) promptFolderName(session *Session) *Reply {
	session.State = StateAwaitingFolderName
	return textReply("Send the new folder's name, or /cancel.")
}

func (e *Engine) textFolderName(ctx context.Context, actor *catalog.User, session *Session, text string) *Reply {
	folder, err := e.repo.CreateFolder(ctx, text, actor.ID)
	if err != nil {
		switch {
		case catalog.IsCode(err, catalog.ErrInvalidName):
			return textReply(`That name is not allowed (no \ / : * ? " < > | or dots). Try another, or /cancel.`)
		case catalog.IsCode(err, catalog.ErrAlreadyExists):
			return textReply("That name is taken. Try another, or /cancel.")
		case catalog.IsCode(err, catalog.ErrLimitExceeded):
			reply := e.showFolderList(ctx, actor, session, session.Pending.Page)
			reply.Text = "You have reached your folder limit.\n\n" + reply.Text
			return reply
		default:
			return storeFailure("folder create", err)
		}
	}
	return e.showFolderView(ctx, actor, session, folder.ID, 0)
}

func (e *Engine) promptFolderRename(ctx context.Context, actor *catalog.User, session *Session, folderID string) *Reply {
	folder, fail := e.loadFolder(ctx, actor, session, folderID)
	if fail != nil {
		return fail
	}
	if denied := allowed(actor, folder, access.ActionRename); denied != nil {
		return denied
	}
	session.State = StateAwaitingFolderRename
	session.Pending.FolderID = folder.ID
	return textReply(fmt.Sprintf("Send the new name for %s, or /cancel.", folder.Name))
}

func (e *Engine) textFolderRename(ctx context.Context, actor *catalog.User, session *Session, text string) *Reply {
	folderID := session.Pending.FolderID
	folder, err := e.repo.RenameFolder(ctx, folderID, text)
	if err != nil {
		switch {
		case catalog.IsCode(err, catalog.ErrNotFound):
			reply := e.showFolderList(ctx, actor, session, 0)
			reply.Text = "That folder is already gone.\n\n" + reply.Text
			return reply
		case catalog.IsCode(err, catalog.ErrInvalidName):
			return textReply(`That name is not allowed (no \ / : * ? " < > |). Try another, or /cancel.`)
		case catalog.IsCode(err, catalog.ErrAlreadyExists):
			return textReply("That name is taken. Try another, or /cancel.")
		case catalog.IsCode(err, catalog.ErrIO):
			return textReply(fmt.Sprintf("Rename failed: %s", err))
		default:
			return storeFailure("folder rename", err)
		}
	}
	return e.showFolderView(ctx, actor, session, folder.ID, session.Pending.Page)
}

func (e *Engine) promptFolderDelete(ctx context.Context, actor *catalog.User, session *Session, folderID string) *Reply {
	folder, fail := e.loadFolder(ctx, actor, session, folderID)
	if fail != nil {
		return fail
	}
	if denied := allowed(actor, folder, access.ActionDelete); denied != nil {
		return denied
	}
	session.State = StateConfirmingFolderDelete
	session.Pending.FolderID = folder.ID
	return &Reply{
		Text:     fmt.Sprintf("Delete folder %s and everything in it?", folder.Name),
		Keyboard: confirmKeyboard("Delete", Action{Kind: KindConfirmFolderDelete, FolderID: folder.ID}),
	}
}

func (e *Engine) confirmFolderDelete(ctx context.Context, actor *catalog.User, session *Session, folderID string) *Reply {
	folder, fail := e.loadFolder(ctx, actor, session, folderID)
	if fail != nil {
		return fail
	}
	if denied := allowed(actor, folder, access.ActionDelete); denied != nil {
		return denied
	}
	if err := e.repo.DeleteFolder(ctx, folder.ID); err != nil {
		if catalog.IsCode(err, catalog.ErrIO) {
			return textReply(fmt.Sprintf("Delete failed: %s", err))
		}
		return storeFailure("folder delete", err)
	}
	session.Pending.FolderID = ""
	reply := e.showFolderList(ctx, actor, session, 0)
	reply.Text = fmt.Sprintf("Folder %s deleted.\n\n", folder.Name) + reply.Text
	return reply
}

func (e *Engine) toggleVisibility(ctx context.Context, actor *catalog.User, session *Session, folderID string) *Reply {
	folder, fail := e.loadFolder(ctx, actor, session, folderID)
	if fail != nil {
		return fail
	}
	if denied := allowed(actor, folder, access.ActionSetVisibility); denied != nil {
		return denied
	}
	status := catalog.StatusPrivate
	if folder.Status == catalog.StatusPrivate {
		status = catalog.StatusPublic
	}
	if _, err := e.repo.SetFolderStatus(ctx, folder.ID, status); err != nil {
		return storeFailure("visibility toggle", err)
	}
	return e.showFolderView(ctx, actor, session, folder.ID, session.Pending.Page)
}

func (e *Engine) toggleFreeze(ctx context.Context, actor *catalog.User, session *Session, folderID string) *Reply {
	folder, fail := e.loadFolder(ctx, actor, session, folderID)
	if fail != nil {
		return fail
	}
	if denied := allowed(actor, folder, access.ActionFreezeToggle); denied != nil {
		return denied
	}
	if _, err := e.repo.SetFolderFreeze(ctx, folder.ID, !folder.Freezing); err != nil {
		return storeFailure("freeze toggle", err)
	}
	return e.showFolderView(ctx, actor, session, folder.ID, session.Pending.Page)
}
