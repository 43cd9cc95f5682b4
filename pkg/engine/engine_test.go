package engine

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kol-dayn/depot/internal/ratelimiter"
	"github.com/kol-dayn/depot/pkg/catalog"
	"github.com/kol-dayn/depot/pkg/catalog/memory"
	"github.com/kol-dayn/depot/pkg/repository"
)

type note struct {
	UserID int64
	Text   string
}

// recordingNotifier captures notifications instead of delivering them.
type recordingNotifier struct {
	mu    sync.Mutex
	notes []note
}

func (n *recordingNotifier) Notify(_ context.Context, userID int64, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, note{UserID: userID, Text: text})
	return nil
}

func (n *recordingNotifier) sentTo(userID int64) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var texts []string
	for _, note := range n.notes {
		if note.UserID == userID {
			texts = append(texts, note.Text)
		}
	}
	return texts
}

const (
	adminID = int64(1)
	aliceID = int64(100)
	bobID   = int64(200)
)

func newTestEngine(t *testing.T) (*Engine, *repository.Service, *recordingNotifier) {
	t.Helper()
	ctx := context.Background()

	repo, err := repository.NewService(memory.NewMemoryStore(), repository.Options{Root: t.TempDir()})
	require.NoError(t, err)

	_, err = repo.AddAdmin(ctx, adminID, "root", "boss")
	require.NoError(t, err)
	_, err = repo.AddUser(ctx, aliceID, "secret", "alice")
	require.NoError(t, err)
	_, err = repo.AddUser(ctx, bobID, "hunter2", "bob")
	require.NoError(t, err)

	notifier := &recordingNotifier{}
	return NewEngine(repo, Options{Notifier: notifier}), repo, notifier
}

func login(t *testing.T, e *Engine, actorID int64, password string) {
	t.Helper()
	ctx := context.Background()
	reply := e.HandleEvent(ctx, TextEvent{ActorID: actorID, Text: "/start"})
	require.Contains(t, reply.Text, "password")
	reply = e.HandleEvent(ctx, TextEvent{ActorID: actorID, Text: password})
	require.Contains(t, reply.Text, "Main menu")
}

// findButton returns the first button whose label contains want.
func findButton(reply *Reply, want string) (Button, bool) {
	for _, row := range reply.Keyboard {
		for _, button := range row {
			if strings.Contains(button.Label, want) {
				return button, true
			}
		}
	}
	return Button{}, false
}

func press(e *Engine, actorID int64, action Action) *Reply {
	return e.HandleEvent(context.Background(), CallbackEvent{ActorID: actorID, Action: action})
}

func say(e *Engine, actorID int64, text string) *Reply {
	return e.HandleEvent(context.Background(), TextEvent{ActorID: actorID, Text: text})
}

// createFolder drives the full create flow and returns the folder.
func createFolder(t *testing.T, e *Engine, repo *repository.Service, actorID int64, name string) *catalog.Folder {
	t.Helper()
	reply := press(e, actorID, Action{Kind: KindFolderList})
	_, ok := findButton(reply, "New folder")
	require.True(t, ok)
	reply = press(e, actorID, Action{Kind: KindNewFolder})
	require.Contains(t, reply.Text, "name")
	reply = say(e, actorID, name)
	require.Contains(t, reply.Text, "Folder "+name)

	folder, err := repo.Store().GetFolderByName(context.Background(), name)
	require.NoError(t, err)
	return folder
}

func TestLoginFlow(t *testing.T) {
	e, _, _ := newTestEngine(t)

	reply := say(e, aliceID, "/start")
	assert.Contains(t, reply.Text, "password")

	reply = say(e, aliceID, "wrong")
	assert.Contains(t, reply.Text, "Wrong password")

	reply = say(e, aliceID, "secret")
	assert.Contains(t, reply.Text, "Main menu")
	_, hasFolders := findButton(reply, "Folders")
	assert.True(t, hasFolders)
	_, hasUsers := findButton(reply, "Users")
	assert.False(t, hasUsers, "regular users get no admin section")
}

func TestAdminMenuHasUsersSection(t *testing.T) {
	e, _, _ := newTestEngine(t)
	login(t, e, adminID, "root")

	reply := press(e, adminID, Action{Kind: KindMainMenu})
	_, hasUsers := findButton(reply, "Users")
	assert.True(t, hasUsers)
}

func TestUnknownActorDenied(t *testing.T) {
	e, _, _ := newTestEngine(t)
	reply := say(e, 999, "/start")
	assert.Equal(t, "No access.", reply.Text)
}

func TestBannedActorDenied(t *testing.T) {
	e, repo, _ := newTestEngine(t)
	_, err := repo.SetBlocked(context.Background(), aliceID, true)
	require.NoError(t, err)

	reply := say(e, aliceID, "/start")
	assert.Equal(t, "No access.", reply.Text)
	reply = press(e, aliceID, Action{Kind: KindFolderList})
	assert.Equal(t, "No access.", reply.Text)
}

func TestTextRequiresLogin(t *testing.T) {
	e, _, _ := newTestEngine(t)
	reply := say(e, aliceID, "hello")
	assert.Contains(t, reply.Text, "log in first")
	reply = press(e, aliceID, Action{Kind: KindFolderList})
	assert.Contains(t, reply.Text, "log in first")
}

func TestLogout(t *testing.T) {
	e, repo, _ := newTestEngine(t)
	login(t, e, aliceID, "secret")

	reply := say(e, aliceID, "/logout")
	assert.Contains(t, reply.Text, "Logged out")

	user, err := repo.Store().GetUser(context.Background(), aliceID)
	require.NoError(t, err)
	assert.False(t, user.Authorized)

	reply = say(e, aliceID, "anything")
	assert.Contains(t, reply.Text, "log in first")
}

func TestFolderCreateFlow(t *testing.T) {
	e, repo, _ := newTestEngine(t)
	login(t, e, aliceID, "secret")

	folder := createFolder(t, e, repo, aliceID, "docs")
	assert.Equal(t, aliceID, folder.OwnerID)

	// The folder list now offers it.
	reply := press(e, aliceID, Action{Kind: KindFolderList})
	_, ok := findButton(reply, "docs")
	assert.True(t, ok)
}

func TestFolderCreateValidation(t *testing.T) {
	e, repo, _ := newTestEngine(t)
	login(t, e, aliceID, "secret")

	press(e, aliceID, Action{Kind: KindFolderList})
	press(e, aliceID, Action{Kind: KindNewFolder})

	reply := say(e, aliceID, "bad/name")
	assert.Contains(t, reply.Text, "not allowed")

	// The prompt survived the rejection: the next text still creates.
	reply = say(e, aliceID, "fine")
	assert.Contains(t, reply.Text, "Folder fine")
	_, err := repo.Store().GetFolderByName(context.Background(), "fine")
	require.NoError(t, err)
}

func TestFolderCreateNameTaken(t *testing.T) {
	e, repo, _ := newTestEngine(t)
	login(t, e, aliceID, "secret")
	login(t, e, bobID, "hunter2")

	createFolder(t, e, repo, aliceID, "docs")

	press(e, bobID, Action{Kind: KindFolderList})
	press(e, bobID, Action{Kind: KindNewFolder})
	reply := say(e, bobID, "docs")
	assert.Contains(t, reply.Text, "taken")
}

func TestFolderQuotaRejection(t *testing.T) {
	e, repo, _ := newTestEngine(t)
	ctx := context.Background()
	login(t, e, aliceID, "secret")

	_, err := repo.SetFolderLimit(ctx, aliceID, 1)
	require.NoError(t, err)
	createFolder(t, e, repo, aliceID, "first")

	press(e, aliceID, Action{Kind: KindNewFolder})
	reply := say(e, aliceID, "second")
	assert.Contains(t, reply.Text, "folder limit")

	_, err = repo.Store().GetFolderByName(ctx, "second")
	assert.True(t, catalog.IsCode(err, catalog.ErrNotFound))
}

func TestPrivateFolderDenied(t *testing.T) {
	e, repo, _ := newTestEngine(t)
	login(t, e, aliceID, "secret")
	login(t, e, bobID, "hunter2")

	folder := createFolder(t, e, repo, aliceID, "diary")
	reply := press(e, aliceID, Action{Kind: KindToggleVisibility, FolderID: folder.ID})
	assert.Contains(t, reply.Text, "(private)")

	reply = press(e, bobID, Action{Kind: KindOpenFolder, FolderID: folder.ID})
	assert.Equal(t, "No access to this private folder.", reply.Text)

	// The owner and an admin still get in.
	reply = press(e, aliceID, Action{Kind: KindOpenFolder, FolderID: folder.ID})
	assert.Contains(t, reply.Text, "Folder diary")
	login(t, e, adminID, "root")
	reply = press(e, adminID, Action{Kind: KindOpenFolder, FolderID: folder.ID})
	assert.Contains(t, reply.Text, "Folder diary")
}

func TestFreezeBlocksOwnerButNotAdmin(t *testing.T) {
	e, repo, _ := newTestEngine(t)
	login(t, e, aliceID, "secret")
	login(t, e, adminID, "root")

	folder := createFolder(t, e, repo, aliceID, "docs")

	// Only an admin can freeze.
	reply := press(e, aliceID, Action{Kind: KindToggleFreeze, FolderID: folder.ID})
	assert.Contains(t, reply.Text, "administrator")
	reply = press(e, adminID, Action{Kind: KindToggleFreeze, FolderID: folder.ID})
	assert.Contains(t, reply.Text, "(frozen)")

	// The owner is locked out of mutation but can still look.
	reply = press(e, aliceID, Action{Kind: KindRenameFolder, FolderID: folder.ID})
	assert.Equal(t, "Folder is frozen by an administrator.", reply.Text)
	reply = press(e, aliceID, Action{Kind: KindOpenFolder, FolderID: folder.ID})
	assert.Contains(t, reply.Text, "Folder docs")

	// The admin renames through the freeze.
	press(e, adminID, Action{Kind: KindRenameFolder, FolderID: folder.ID})
	reply = say(e, adminID, "archive")
	assert.Contains(t, reply.Text, "Folder archive")
}

func TestDisabledFlagBindsEveryone(t *testing.T) {
	e, repo, _ := newTestEngine(t)
	ctx := context.Background()
	login(t, e, aliceID, "secret")

	folder := createFolder(t, e, repo, aliceID, "docs")
	_, err := repo.AddFile(ctx, folder.ID, "a.txt", strings.NewReader("x"), 1)
	require.NoError(t, err)

	_, err = repo.ToggleCapability(ctx, aliceID, repository.CapabilityDownload)
	require.NoError(t, err)

	// Ownership does not override the disabled flag.
	got, err := repo.GetFolder(ctx, folder.ID)
	require.NoError(t, err)
	reply := press(e, aliceID, Action{Kind: KindDownloadFile, FolderID: folder.ID, FileID: got.Files[0].ID})
	assert.Equal(t, "No access.", reply.Text)
}

func TestUploadFlow(t *testing.T) {
	e, repo, _ := newTestEngine(t)
	login(t, e, aliceID, "secret")
	folder := createFolder(t, e, repo, aliceID, "docs")

	reply := press(e, aliceID, Action{Kind: KindAddFiles, FolderID: folder.ID})
	assert.Contains(t, reply.Text, "Send files")

	reply = e.HandleEvent(context.Background(), UploadEvent{
		ActorID: aliceID, Name: "a.txt", Size: 5, Content: strings.NewReader("12345"),
	})
	assert.Contains(t, reply.Text, "Saved a.txt")

	// Duplicate names are rejected per message, flow keeps going.
	reply = e.HandleEvent(context.Background(), UploadEvent{
		ActorID: aliceID, Name: "a.txt", Size: 5, Content: strings.NewReader("12345"),
	})
	assert.Contains(t, reply.Text, "already exists")

	reply = press(e, aliceID, Action{Kind: KindFinishUpload, FolderID: folder.ID})
	assert.Contains(t, reply.Text, "1 files")
	_, ok := findButton(reply, "a.txt")
	assert.True(t, ok)
}

func TestRenameFilePreservesExtension(t *testing.T) {
	e, repo, _ := newTestEngine(t)
	ctx := context.Background()
	login(t, e, aliceID, "secret")
	folder := createFolder(t, e, repo, aliceID, "docs")

	file, err := repo.AddFile(ctx, folder.ID, "report.pdf", strings.NewReader("x"), 1)
	require.NoError(t, err)

	press(e, aliceID, Action{Kind: KindRenameFile, FolderID: folder.ID, FileID: file.ID})
	reply := say(e, aliceID, "summary")
	assert.Contains(t, reply.Text, "Renamed to summary.pdf")
}

func TestDeleteFileConfirmFlow(t *testing.T) {
	e, repo, _ := newTestEngine(t)
	ctx := context.Background()
	login(t, e, aliceID, "secret")
	folder := createFolder(t, e, repo, aliceID, "docs")
	file, err := repo.AddFile(ctx, folder.ID, "a.txt", strings.NewReader("x"), 1)
	require.NoError(t, err)

	reply := press(e, aliceID, Action{Kind: KindDeleteFile, FolderID: folder.ID, FileID: file.ID})
	assert.Contains(t, reply.Text, "Delete a.txt")
	_, hasCancel := findButton(reply, "Cancel")
	assert.True(t, hasCancel)

	reply = press(e, aliceID, Action{Kind: KindConfirmFileDelete, FolderID: folder.ID, FileID: file.ID})
	assert.Contains(t, reply.Text, "a.txt deleted")

	got, err := repo.GetFolder(ctx, folder.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Files)
}

func TestDownloadReturnsAttachment(t *testing.T) {
	e, repo, _ := newTestEngine(t)
	ctx := context.Background()
	login(t, e, aliceID, "secret")
	folder := createFolder(t, e, repo, aliceID, "docs")
	file, err := repo.AddFile(ctx, folder.ID, "a.txt", strings.NewReader("payload"), 7)
	require.NoError(t, err)

	reply := press(e, aliceID, Action{Kind: KindDownloadFile, FolderID: folder.ID, FileID: file.ID})
	require.NotNil(t, reply.Attachment)
	assert.Equal(t, "a.txt", reply.Attachment.Name)
	reply.Attachment.Content.Close()
}

func TestVanishedFolderRoutesToList(t *testing.T) {
	e, repo, _ := newTestEngine(t)
	ctx := context.Background()
	login(t, e, aliceID, "secret")
	folder := createFolder(t, e, repo, aliceID, "docs")

	require.NoError(t, repo.DeleteFolder(ctx, folder.ID))

	reply := press(e, aliceID, Action{Kind: KindOpenFolder, FolderID: folder.ID})
	assert.Contains(t, reply.Text, "already gone")
	assert.Contains(t, reply.Text, "Folders, page")
}

func TestCancelReturnsToFolderView(t *testing.T) {
	e, repo, _ := newTestEngine(t)
	login(t, e, aliceID, "secret")
	folder := createFolder(t, e, repo, aliceID, "docs")

	press(e, aliceID, Action{Kind: KindRenameFolder, FolderID: folder.ID})
	reply := say(e, aliceID, "/cancel")
	assert.Contains(t, reply.Text, "Folder docs")

	// The rename never happened.
	_, err := repo.Store().GetFolderByName(context.Background(), "docs")
	require.NoError(t, err)
}

func TestCallbackDuringPromptFoldsBack(t *testing.T) {
	e, repo, _ := newTestEngine(t)
	login(t, e, aliceID, "secret")
	folder := createFolder(t, e, repo, aliceID, "docs")

	press(e, aliceID, Action{Kind: KindRenameFolder, FolderID: folder.ID})
	reply := press(e, aliceID, Action{Kind: KindFolderList})
	assert.Contains(t, reply.Text, "new name", "stale selections fold the prompt back")

	// The prompt is still live.
	reply = say(e, aliceID, "archive")
	assert.Contains(t, reply.Text, "Folder archive")
}

func TestTextInStableStateFolds(t *testing.T) {
	e, repo, _ := newTestEngine(t)
	login(t, e, aliceID, "secret")
	folder := createFolder(t, e, repo, aliceID, "docs")

	press(e, aliceID, Action{Kind: KindOpenFolder, FolderID: folder.ID})
	reply := say(e, aliceID, "what do I do now")
	assert.Contains(t, reply.Text, "Folder docs")
}

func TestNonAdminCannotOpenUsers(t *testing.T) {
	e, _, _ := newTestEngine(t)
	login(t, e, aliceID, "secret")

	reply := press(e, aliceID, Action{Kind: KindUserList})
	assert.Equal(t, "No access.", reply.Text)
	reply = press(e, aliceID, Action{Kind: KindToggleAdmin, UserID: aliceID})
	assert.Equal(t, "No access.", reply.Text)
}

func TestAddUserFlow(t *testing.T) {
	e, repo, _ := newTestEngine(t)
	ctx := context.Background()
	login(t, e, adminID, "root")

	press(e, adminID, Action{Kind: KindUserList})
	reply := press(e, adminID, Action{Kind: KindAddUser})
	assert.Contains(t, reply.Text, "numeric id")

	reply = say(e, adminID, "not-a-number")
	assert.Contains(t, reply.Text, "not a valid id")
	reply = say(e, adminID, "100")
	assert.Contains(t, reply.Text, "already exists")
	reply = say(e, adminID, "300")
	assert.Contains(t, reply.Text, "password")
	reply = say(e, adminID, "pw300")
	assert.Contains(t, reply.Text, "display name")
	reply = say(e, adminID, "carol")
	assert.Contains(t, reply.Text, "created")

	user, err := repo.Store().GetUser(ctx, 300)
	require.NoError(t, err)
	assert.Equal(t, "carol", user.Username)
	assert.Equal(t, catalog.DefaultFolderLimit, user.FoldersLimit)
}

func TestToggleCapabilityNotifiesTarget(t *testing.T) {
	e, repo, notifier := newTestEngine(t)
	ctx := context.Background()
	login(t, e, adminID, "root")

	reply := press(e, adminID, Action{Kind: KindToggleCapability, UserID: aliceID, Capability: repository.CapabilityDownload})
	assert.Contains(t, reply.Text, "download off")

	user, err := repo.Store().GetUser(ctx, aliceID)
	require.NoError(t, err)
	assert.False(t, user.Download)

	sent := notifier.sentTo(aliceID)
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0], "download off")
}

func TestPromoteResetsFlagsAndLimit(t *testing.T) {
	e, repo, notifier := newTestEngine(t)
	ctx := context.Background()
	login(t, e, adminID, "root")

	_, err := repo.ToggleCapability(ctx, aliceID, repository.CapabilityDelete)
	require.NoError(t, err)

	reply := press(e, adminID, Action{Kind: KindToggleAdmin, UserID: aliceID})
	assert.Contains(t, reply.Text, "admin")

	user, err := repo.Store().GetUser(ctx, aliceID)
	require.NoError(t, err)
	assert.True(t, user.IsAdmin())
	assert.True(t, user.Delete)
	assert.Equal(t, 0, user.FoldersLimit)
	assert.NotEmpty(t, notifier.sentTo(aliceID))
}

func TestSetFolderLimitFlow(t *testing.T) {
	e, repo, _ := newTestEngine(t)
	ctx := context.Background()
	login(t, e, adminID, "root")

	press(e, adminID, Action{Kind: KindSetLimit, UserID: aliceID})
	reply := say(e, adminID, "5000")
	assert.Contains(t, reply.Text, "between 0 and 1000")
	reply = say(e, adminID, "3")
	assert.Contains(t, reply.Text, "limit 3")

	user, err := repo.Store().GetUser(ctx, aliceID)
	require.NoError(t, err)
	assert.Equal(t, 3, user.FoldersLimit)
}

func TestMessageUserFlow(t *testing.T) {
	e, _, notifier := newTestEngine(t)
	login(t, e, adminID, "root")

	press(e, adminID, Action{Kind: KindMessageUser, UserID: aliceID})
	reply := say(e, adminID, "hello from the admin")
	assert.Contains(t, reply.Text, "Send this to user 100?")

	// Cancel discards the draft.
	reply = press(e, adminID, Action{Kind: KindCancel})
	assert.Empty(t, notifier.sentTo(aliceID))

	press(e, adminID, Action{Kind: KindMessageUser, UserID: aliceID})
	say(e, adminID, "hello again")
	reply = press(e, adminID, Action{Kind: KindConfirmMessage})
	assert.Contains(t, reply.Text, "Message sent")

	sent := notifier.sentTo(aliceID)
	require.Len(t, sent, 1)
	assert.Equal(t, "hello again", sent[0])
}

func TestDeleteUserFlow(t *testing.T) {
	e, repo, _ := newTestEngine(t)
	ctx := context.Background()
	login(t, e, adminID, "root")

	reply := press(e, adminID, Action{Kind: KindDeleteUser, UserID: bobID})
	assert.Contains(t, reply.Text, "Delete user 200?")
	reply = press(e, adminID, Action{Kind: KindConfirmUserDelete, UserID: bobID})
	assert.Contains(t, reply.Text, "User 200 deleted")

	_, err := repo.Store().GetUser(ctx, bobID)
	assert.True(t, catalog.IsCode(err, catalog.ErrNotFound))
}

func TestFolderListPagination(t *testing.T) {
	e, repo, _ := newTestEngine(t)
	ctx := context.Background()
	login(t, e, adminID, "root")

	for i := 0; i < 12; i++ {
		_, err := repo.CreateFolder(ctx, fmt.Sprintf("folder%02d", i), adminID)
		require.NoError(t, err)
	}

	reply := press(e, adminID, Action{Kind: KindFolderList})
	assert.Contains(t, reply.Text, "page 1/2")
	_, hasNext := findButton(reply, "Next")
	assert.True(t, hasNext)
	_, hasPrev := findButton(reply, "Prev")
	assert.False(t, hasPrev)

	reply = press(e, adminID, Action{Kind: KindFolderList, Page: 1})
	assert.Contains(t, reply.Text, "page 2/2")
	_, hasPrev = findButton(reply, "Prev")
	assert.True(t, hasPrev)

	// Out-of-range requests clamp instead of failing.
	reply = press(e, adminID, Action{Kind: KindFolderList, Page: 99})
	assert.Contains(t, reply.Text, "page 2/2")
}

func TestListingAdoptsOutOfBandDirectory(t *testing.T) {
	e, repo, _ := newTestEngine(t)
	login(t, e, aliceID, "secret")

	// A directory appears on disk with no catalog entry.
	require.NoError(t, os.Mkdir(repo.FileLocation("dropped", ""), 0o755))

	reply := press(e, aliceID, Action{Kind: KindFolderList})
	_, ok := findButton(reply, "dropped")
	assert.True(t, ok, "untracked directories are adopted before rendering")
}

func TestLimiterThrottlesFloodingActor(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newTestEngine(t)
	e.limiter = ratelimiter.NewPerActor(1, 2)

	login(t, e, aliceID, "secret")

	// Login consumed the burst; the next event for alice is dropped.
	reply := e.HandleEvent(ctx, TextEvent{ActorID: aliceID, Text: "anything"})
	assert.Contains(t, reply.Text, "slow down")

	// Other actors keep their own budget.
	reply = e.HandleEvent(ctx, TextEvent{ActorID: bobID, Text: "/start"})
	assert.Contains(t, reply.Text, "password")
}
