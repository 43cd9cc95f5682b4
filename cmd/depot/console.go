package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kol-dayn/depot/internal/logger"
	"github.com/kol-dayn/depot/pkg/engine"
)

// consoleNotifier prints notifications for other users to stdout. A real
// deployment replaces this with the chat transport's delivery path.
type consoleNotifier struct{}

func (consoleNotifier) Notify(_ context.Context, userID int64, text string) error {
	fmt.Printf("[notify %d] %s\n", userID, text)
	return nil
}

// console is a line-based transport over stdin for local operation and
// debugging. One process acts as one actor:
//
//	text          free-text message
//	:tag:id:page  structured callback, same encoding buttons carry
//	!upload path  send a local file as an upload event
type console struct {
	engine  *engine.Engine
	actorID int64
	out     io.Writer
}

func newConsole(eng *engine.Engine, actorID int64) *console {
	return &console{engine: eng, actorID: actorID, out: os.Stdout}
}

func (c *console) run(ctx context.Context) error {
	scanner := bufio.NewScanner(os.Stdin)
	lines := make(chan string)
	go func() {
		defer close(lines)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return scanner.Err()
			}
			c.render(c.dispatch(ctx, strings.TrimSpace(line)))
		}
	}
}

func (c *console) dispatch(ctx context.Context, line string) *engine.Reply {
	switch {
	case line == "":
		return nil
	case strings.HasPrefix(line, ":"):
		action, err := engine.ParseAction(strings.TrimPrefix(line, ":"))
		if err != nil {
			fmt.Fprintf(c.out, "bad action: %v\n", err)
			return nil
		}
		return c.engine.HandleEvent(ctx, engine.CallbackEvent{ActorID: c.actorID, Action: action})
	case strings.HasPrefix(line, "!upload "):
		return c.upload(ctx, strings.TrimSpace(strings.TrimPrefix(line, "!upload ")))
	default:
		return c.engine.HandleEvent(ctx, engine.TextEvent{ActorID: c.actorID, Text: line})
	}
}

func (c *console) upload(ctx context.Context, path string) *engine.Reply {
	file, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(c.out, "cannot open %s: %v\n", path, err)
		return nil
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		fmt.Fprintf(c.out, "cannot stat %s: %v\n", path, err)
		return nil
	}

	return c.engine.HandleEvent(ctx, engine.UploadEvent{
		ActorID: c.actorID,
		Name:    filepath.Base(path),
		Size:    info.Size(),
		Content: file,
	})
}

// render prints a reply the way a chat client would: text first, then
// each button with the callback string that triggers it.
func (c *console) render(reply *engine.Reply) {
	if reply == nil {
		return
	}
	fmt.Fprintln(c.out, reply.Text)
	for _, row := range reply.Keyboard {
		for _, button := range row {
			fmt.Fprintf(c.out, "  [%s] :%s\n", button.Label, button.Action.Encode())
		}
	}
	if reply.Attachment != nil {
		c.saveAttachment(reply.Attachment)
	}
}

func (c *console) saveAttachment(attachment *engine.Attachment) {
	defer attachment.Content.Close()
	target := filepath.Join(os.TempDir(), attachment.Name)
	out, err := os.Create(target)
	if err != nil {
		logger.Error("Failed to save attachment %s: %v", attachment.Name, err)
		return
	}
	defer out.Close()
	if _, err := io.Copy(out, attachment.Content); err != nil {
		logger.Error("Failed to save attachment %s: %v", attachment.Name, err)
		return
	}
	fmt.Fprintf(c.out, "saved attachment to %s\n", target)
}
