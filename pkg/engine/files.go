package engine

import (
	"context"
	"fmt"

	"github.com/kol-dayn/depot/pkg/access"
	"github.com/kol-dayn/depot/pkg/catalog"
	"github.com/kol-dayn/depot/pkg/repository"
)

// loadFile resolves a file inside a reconciled folder. A vanished file
// routes back to the folder view, since the selection that led here is
// now meaningless.
func (e *Engine) loadFile(ctx context.Context, actor *catalog.User, session *Session, folderID, fileID string) (*catalog.Folder, *catalog.File, *Reply) {
	folder, fail := e.loadFolder(ctx, actor, session, folderID)
	if fail != nil {
		return nil, nil, fail
	}
	file := folder.FileByID(fileID)
	if file == nil {
		reply := e.showFolderView(ctx, actor, session, folder.ID, session.Pending.Page)
		reply.Text = "That file is already gone.\n\n" + reply.Text
		return nil, nil, reply
	}
	return folder, file, nil
}

func (e *Engine) promptUpload(ctx context.Context, actor *catalog.User, session *Session, folderID string) *Reply {
	folder, fail := e.loadFolder(ctx, actor, session, folderID)
	if fail != nil {
		return fail
	}
	if denied := allowed(actor, folder, access.ActionAddFile); denied != nil {
		return denied
	}
	session.State = StateAwaitingUpload
	session.Pending.FolderID = folder.ID
	return &Reply{
		Text: fmt.Sprintf("Send files for %s (up to %s each). Press Done when finished.",
			folder.Name, repository.HumanSize(e.repo.MaxUploadBytes())),
		Keyboard: [][]Button{{
			{Label: "Done", Action: Action{Kind: KindFinishUpload, FolderID: folder.ID}},
			{Label: "Cancel", Action: Action{Kind: KindCancel}},
		}},
	}
}

// uploadFile stores one incoming file. The session stays parked in the
// upload state so the actor can keep sending files until Done.
func (e *Engine) uploadFile(ctx context.Context, actor *catalog.User, session *Session, ev UploadEvent) *Reply {
	folder, fail := e.loadFolder(ctx, actor, session, session.Pending.FolderID)
	if fail != nil {
		return fail
	}
	if denied := allowed(actor, folder, access.ActionAddFile); denied != nil {
		return denied
	}

	file, err := e.repo.AddFile(ctx, folder.ID, ev.Name, ev.Content, ev.Size)
	if err != nil {
		switch {
		case catalog.IsCode(err, catalog.ErrLimitExceeded):
			return textReply(fmt.Sprintf("%s is too big (limit %s).",
				ev.Name, repository.HumanSize(e.repo.MaxUploadBytes())))
		case catalog.IsCode(err, catalog.ErrAlreadyExists):
			return textReply(fmt.Sprintf("%s already exists in %s.", ev.Name, folder.Name))
		case catalog.IsCode(err, catalog.ErrInvalidName):
			return textReply(fmt.Sprintf("%s is not an acceptable file name.", ev.Name))
		case catalog.IsCode(err, catalog.ErrIO):
			return textReply(fmt.Sprintf("Saving %s failed: %s", ev.Name, err))
		default:
			return storeFailure("file upload", err)
		}
	}
	return textReply(fmt.Sprintf("Saved %s. Send more, or press Done.", file.Name))
}

func (e *Engine) showFileView(ctx context.Context, actor *catalog.User, session *Session, folderID, fileID string) *Reply {
	folder, file, fail := e.loadFile(ctx, actor, session, folderID, fileID)
	if fail != nil {
		return fail
	}
	if denied := allowed(actor, folder, access.ActionReadList); denied != nil {
		return denied
	}

	session.State = StateBrowsingFiles
	session.Pending.FolderID = folder.ID

	return &Reply{
		Text: fmt.Sprintf("%s in %s", file.Name, folder.Name),
		Keyboard: [][]Button{
			{
				{Label: "Download", Action: Action{Kind: KindDownloadFile, FolderID: folder.ID, FileID: file.ID}},
				{Label: "Rename", Action: Action{Kind: KindRenameFile, FolderID: folder.ID, FileID: file.ID}},
				{Label: "Delete", Action: Action{Kind: KindDeleteFile, FolderID: folder.ID, FileID: file.ID}},
			},
			{backButton("Back", Action{Kind: KindOpenFolder, FolderID: folder.ID, Page: session.Pending.Page})},
		},
	}
}

func (e *Engine) downloadFile(ctx context.Context, actor *catalog.User, session *Session, folderID, fileID string) *Reply {
	folder, _, fail := e.loadFile(ctx, actor, session, folderID, fileID)
	if fail != nil {
		return fail
	}
	if denied := allowed(actor, folder, access.ActionDownload); denied != nil {
		return denied
	}

	handle, file, err := e.repo.OpenFile(ctx, folder.ID, fileID)
	if err != nil {
		if catalog.IsCode(err, catalog.ErrNotFound) {
			reply := e.showFolderView(ctx, actor, session, folder.ID, session.Pending.Page)
			reply.Text = "That file is already gone.\n\n" + reply.Text
			return reply
		}
		return storeFailure("file download", err)
	}

	return &Reply{
		Text:       fmt.Sprintf("Here is %s.", file.Name),
		Attachment: &Attachment{Name: file.Name, Content: handle},
	}
}

func (e *Engine) promptFileRename(ctx context.Context, actor *catalog.User, session *Session, folderID, fileID string) *Reply {
	folder, file, fail := e.loadFile(ctx, actor, session, folderID, fileID)
	if fail != nil {
		return fail
	}
	if denied := allowed(actor, folder, access.ActionRename); denied != nil {
		return denied
	}
	session.State = StateAwaitingFileRename
	session.Pending.FolderID = folder.ID
	session.Pending.FileID = file.ID
	return textReply(fmt.Sprintf("Send the new name for %s, or /cancel. The extension is kept if you leave it out.", file.Name))
}

func (e *Engine) textFileRename(ctx context.Context, actor *catalog.User, session *Session, text string) *Reply {
	file, err := e.repo.RenameFile(ctx, session.Pending.FolderID, session.Pending.FileID, text)
	if err != nil {
		switch {
		case catalog.IsCode(err, catalog.ErrNotFound):
			reply := e.showFolderView(ctx, actor, session, session.Pending.FolderID, session.Pending.Page)
			reply.Text = "That file is already gone.\n\n" + reply.Text
			return reply
		case catalog.IsCode(err, catalog.ErrInvalidName):
			return textReply(`That name is not allowed (no \ / : * ? " < > |). Try another, or /cancel.`)
		case catalog.IsCode(err, catalog.ErrAlreadyExists):
			return textReply("That name is taken in this folder. Try another, or /cancel.")
		case catalog.IsCode(err, catalog.ErrIO):
			return textReply(fmt.Sprintf("Rename failed: %s", err))
		default:
			return storeFailure("file rename", err)
		}
	}
	reply := e.showFolderView(ctx, actor, session, session.Pending.FolderID, session.Pending.Page)
	reply.Text = fmt.Sprintf("Renamed to %s.\n\n", file.Name) + reply.Text
	return reply
}

func (e *Engine) promptFileDelete(ctx context.Context, actor *catalog.User, session *Session, folderID, fileID string) *Reply {
	folder, file, fail := e.loadFile(ctx, actor, session, folderID, fileID)
	if fail != nil {
		return fail
	}
	if denied := allowed(actor, folder, access.ActionDelete); denied != nil {
		return denied
	}
	session.State = StateConfirmingFileDelete
	session.Pending.FolderID = folder.ID
	session.Pending.FileID = file.ID
	return &Reply{
		Text:     fmt.Sprintf("Delete %s from %s?", file.Name, folder.Name),
		Keyboard: confirmKeyboard("Delete", Action{Kind: KindConfirmFileDelete, FolderID: folder.ID, FileID: file.ID}),
	}
}

func (e *Engine) confirmFileDelete(ctx context.Context, actor *catalog.User, session *Session, folderID, fileID string) *Reply {
	folder, file, fail := e.loadFile(ctx, actor, session, folderID, fileID)
	if fail != nil {
		return fail
	}
	if denied := allowed(actor, folder, access.ActionDelete); denied != nil {
		return denied
	}
	if err := e.repo.DeleteFile(ctx, folder.ID, file.ID); err != nil {
		switch {
		case catalog.IsCode(err, catalog.ErrNotFound):
			reply := e.showFolderView(ctx, actor, session, folder.ID, session.Pending.Page)
			reply.Text = "That file is already gone.\n\n" + reply.Text
			return reply
		case catalog.IsCode(err, catalog.ErrIO):
			return textReply(fmt.Sprintf("Delete failed: %s", err))
		default:
			return storeFailure("file delete", err)
		}
	}
	reply := e.showFolderView(ctx, actor, session, folder.ID, session.Pending.Page)
	reply.Text = fmt.Sprintf("%s deleted.\n\n", file.Name) + reply.Text
	return reply
}
