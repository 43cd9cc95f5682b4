// Package access implements the capability resolver: a pure decision
// function from (actor snapshot, resource snapshot, requested action) to
// allow/deny with a short user-facing reason.
//
// The rules are evaluated in a fixed order and the first matching rule
// wins. Freeze is checked before privacy, and privacy before per-user
// capability flags, because an admin must always be able to override
// freeze and privacy but never overrides a disabled capability flag,
// not even on their own resources. Every denial is terminal for that
// single action; nothing here escalates.
package access

import "github.com/kol-dayn/depot/pkg/catalog"

// Action is the operation being requested against a folder (and
// optionally a file inside it).
type Action int

const (
	// ActionReadList lists a folder's contents or management view.
	ActionReadList Action = iota

	// ActionAddFile uploads files into a folder.
	ActionAddFile

	// ActionRename renames a folder or a file inside it.
	ActionRename

	// ActionDelete deletes a folder or a file inside it.
	ActionDelete

	// ActionDownload fetches a file's content.
	ActionDownload

	// ActionSetVisibility flips a folder between public and private.
	ActionSetVisibility

	// ActionFreezeToggle freezes or unfreezes a folder.
	ActionFreezeToggle
)

// Via distinguishes the two entry points a request can arrive through.
// The logged-in check applies only to free-text (reply-style) entry
// points; structured callbacks re-check membership and ban separately
// and are otherwise trusted to originate from a rendered view.
type Via int

const (
	ViaMessage Via = iota
	ViaCallback
)

// Decision is the resolver verdict.
type Decision struct {
	// Allowed reports whether the action may proceed.
	Allowed bool

	// Reason is the short user-facing denial notice. Empty when allowed.
	Reason string
}

func deny(reason string) Decision { return Decision{Reason: reason} }

var allow = Decision{Allowed: true}

// Check resolves whether actor may perform action on folder.
//
// actor may be nil (unknown id); folder may be nil for actions that are
// not folder-scoped (none currently, but the resolver tolerates it).
// Check reads only its arguments; given identical snapshots it always
// returns the identical decision.
func Check(actor *catalog.User, folder *catalog.Folder, action Action, via Via) Decision {
	// Rule 1: unknown or banned actors have no access at all.
	if actor == nil || actor.IsBanned() {
		return deny("No access.")
	}

	// Rule 2: reply-style entry points require a completed login.
	if via == ViaMessage && !actor.Authorized {
		return deny("Please log in first.")
	}

	admin := actor.IsAdmin()

	if folder != nil {
		// Rule 3: freeze blocks every action but read-list for non-admins.
		if folder.Freezing && !admin && action != ActionReadList {
			return deny("Folder is frozen by an administrator.")
		}

		// Rule 4: private folders are invisible to everyone but the
		// owner and admins, read-list included.
		if folder.Status == catalog.StatusPrivate && !admin && folder.OwnerID != actor.ID {
			return deny("No access to this private folder.")
		}
	}

	// Rule 5: per-user capability flags. Ownership and admin status never
	// override a disabled flag.
	switch action {
	case ActionAddFile:
		if !actor.Addition {
			return deny("No access.")
		}
	case ActionRename:
		if !actor.Rename {
			return deny("No access.")
		}
	case ActionDelete:
		if !actor.Delete {
			return deny("No access.")
		}
	case ActionDownload:
		if !actor.Download {
			return deny("No access.")
		}
	}

	// Rule 6: visibility is owner-or-admin, freezing is admin-only.
	switch action {
	case ActionSetVisibility:
		if folder != nil && folder.OwnerID != actor.ID && !admin {
			return deny("Only the folder owner can change this setting.")
		}
	case ActionFreezeToggle:
		if !admin {
			return deny("Only an administrator can freeze folders.")
		}
	}

	return allow
}
