package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kol-dayn/depot/pkg/repository"
)

// ActionKind enumerates every structured selection the transport can send.
// Raw callback strings are decoded once, at the boundary, into an Action;
// the engine itself never inspects tag strings.
type ActionKind int

const (
	KindMainMenu ActionKind = iota
	KindFolderList
	KindOpenFolder
	KindNewFolder
	KindRenameFolder
	KindDeleteFolder
	KindConfirmFolderDelete
	KindToggleVisibility
	KindToggleFreeze
	KindAddFiles
	KindFinishUpload
	KindOpenFile
	KindDownloadFile
	KindRenameFile
	KindDeleteFile
	KindConfirmFileDelete
	KindUserList
	KindManageUser
	KindAddUser
	KindToggleCapability
	KindToggleAdmin
	KindToggleBlock
	KindSetPassword
	KindSetLimit
	KindMessageUser
	KindConfirmMessage
	KindDeleteUser
	KindConfirmUserDelete
	KindCancel
)

// Action is one decoded structured selection with its typed parameters.
// Only the fields relevant for the kind are set.
type Action struct {
	Kind       ActionKind
	FolderID   string
	FileID     string
	UserID     int64
	Page       int
	Capability repository.Capability
}

// tag returns the wire tag for a kind. Tags are stable: they end up inside
// rendered buttons and come back verbatim in callback events.
func (k ActionKind) tag() string {
	switch k {
	case KindMainMenu:
		return "menu"
	case KindFolderList:
		return "folders"
	case KindOpenFolder:
		return "folder"
	case KindNewFolder:
		return "newfolder"
	case KindRenameFolder:
		return "renamefolder"
	case KindDeleteFolder:
		return "delfolder"
	case KindConfirmFolderDelete:
		return "confirmdelfolder"
	case KindToggleVisibility:
		return "visibility"
	case KindToggleFreeze:
		return "freeze"
	case KindAddFiles:
		return "addfiles"
	case KindFinishUpload:
		return "done"
	case KindOpenFile:
		return "file"
	case KindDownloadFile:
		return "download"
	case KindRenameFile:
		return "renamefile"
	case KindDeleteFile:
		return "delfile"
	case KindConfirmFileDelete:
		return "confirmdelfile"
	case KindUserList:
		return "users"
	case KindManageUser:
		return "user"
	case KindAddUser:
		return "adduser"
	case KindToggleCapability:
		return "cap"
	case KindToggleAdmin:
		return "admin"
	case KindToggleBlock:
		return "block"
	case KindSetPassword:
		return "password"
	case KindSetLimit:
		return "limit"
	case KindMessageUser:
		return "message"
	case KindConfirmMessage:
		return "confirmmessage"
	case KindDeleteUser:
		return "deluser"
	case KindConfirmUserDelete:
		return "confirmdeluser"
	case KindCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

var kindByTag = func() map[string]ActionKind {
	m := make(map[string]ActionKind)
	for k := KindMainMenu; k <= KindCancel; k++ {
		m[k.tag()] = k
	}
	return m
}()

// Encode renders the action as a colon-delimited callback string suitable
// for embedding in a button. ParseAction is its inverse.
func (a Action) Encode() string {
	switch a.Kind {
	case KindFolderList, KindUserList:
		return fmt.Sprintf("%s:%d", a.Kind.tag(), a.Page)
	case KindOpenFolder:
		return fmt.Sprintf("%s:%s:%d", a.Kind.tag(), a.FolderID, a.Page)
	case KindRenameFolder, KindDeleteFolder, KindConfirmFolderDelete,
		KindToggleVisibility, KindToggleFreeze, KindAddFiles, KindFinishUpload:
		return fmt.Sprintf("%s:%s", a.Kind.tag(), a.FolderID)
	case KindOpenFile, KindDownloadFile, KindRenameFile, KindDeleteFile, KindConfirmFileDelete:
		return fmt.Sprintf("%s:%s:%s", a.Kind.tag(), a.FolderID, a.FileID)
	case KindManageUser:
		return fmt.Sprintf("%s:%d:%d", a.Kind.tag(), a.UserID, a.Page)
	case KindToggleCapability:
		return fmt.Sprintf("%s:%d:%d", a.Kind.tag(), a.UserID, int(a.Capability))
	case KindToggleAdmin, KindToggleBlock, KindSetPassword, KindSetLimit,
		KindMessageUser, KindDeleteUser, KindConfirmUserDelete:
		return fmt.Sprintf("%s:%d", a.Kind.tag(), a.UserID)
	default:
		return a.Kind.tag()
	}
}

// ParseAction decodes a raw callback string into a typed Action.
// Unknown tags and malformed parameters are reported as errors so the
// transport can drop stale or forged callbacks instead of dispatching them.
func ParseAction(raw string) (Action, error) {
	parts := strings.Split(raw, ":")
	kind, ok := kindByTag[parts[0]]
	if !ok {
		return Action{}, fmt.Errorf("unknown action tag %q", parts[0])
	}

	action := Action{Kind: kind}
	args := parts[1:]

	switch kind {
	case KindFolderList, KindUserList:
		page, err := intArg(args, 0)
		if err != nil {
			return Action{}, err
		}
		action.Page = page
	case KindOpenFolder:
		if len(args) != 2 {
			return Action{}, fmt.Errorf("action %q: want 2 parameters, got %d", parts[0], len(args))
		}
		page, err := strconv.Atoi(args[1])
		if err != nil {
			return Action{}, fmt.Errorf("action %q: bad page %q", parts[0], args[1])
		}
		action.FolderID = args[0]
		action.Page = page
	case KindRenameFolder, KindDeleteFolder, KindConfirmFolderDelete,
		KindToggleVisibility, KindToggleFreeze, KindAddFiles, KindFinishUpload:
		if len(args) != 1 || args[0] == "" {
			return Action{}, fmt.Errorf("action %q: want a folder id", parts[0])
		}
		action.FolderID = args[0]
	case KindOpenFile, KindDownloadFile, KindRenameFile, KindDeleteFile, KindConfirmFileDelete:
		if len(args) != 2 || args[0] == "" || args[1] == "" {
			return Action{}, fmt.Errorf("action %q: want folder and file ids", parts[0])
		}
		action.FolderID = args[0]
		action.FileID = args[1]
	case KindManageUser:
		if len(args) != 2 {
			return Action{}, fmt.Errorf("action %q: want 2 parameters, got %d", parts[0], len(args))
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return Action{}, fmt.Errorf("action %q: bad user id %q", parts[0], args[0])
		}
		page, err := strconv.Atoi(args[1])
		if err != nil {
			return Action{}, fmt.Errorf("action %q: bad page %q", parts[0], args[1])
		}
		action.UserID = id
		action.Page = page
	case KindToggleCapability:
		if len(args) != 2 {
			return Action{}, fmt.Errorf("action %q: want 2 parameters, got %d", parts[0], len(args))
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return Action{}, fmt.Errorf("action %q: bad user id %q", parts[0], args[0])
		}
		flag, err := strconv.Atoi(args[1])
		if err != nil || flag < int(repository.CapabilityAddition) || flag > int(repository.CapabilityDelete) {
			return Action{}, fmt.Errorf("action %q: bad capability %q", parts[0], args[1])
		}
		action.UserID = id
		action.Capability = repository.Capability(flag)
	case KindToggleAdmin, KindToggleBlock, KindSetPassword, KindSetLimit,
		KindMessageUser, KindDeleteUser, KindConfirmUserDelete:
		if len(args) != 1 {
			return Action{}, fmt.Errorf("action %q: want a user id", parts[0])
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return Action{}, fmt.Errorf("action %q: bad user id %q", parts[0], args[0])
		}
		action.UserID = id
	default:
		if len(args) != 0 {
			return Action{}, fmt.Errorf("action %q: want no parameters, got %d", parts[0], len(args))
		}
	}

	return action, nil
}

func intArg(args []string, i int) (int, error) {
	if len(args) <= i {
		return 0, fmt.Errorf("missing parameter %d", i)
	}
	n, err := strconv.Atoi(args[i])
	if err != nil {
		return 0, fmt.Errorf("bad numeric parameter %q", args[i])
	}
	return n, nil
}
