package engine

import (
	"io"

	"github.com/kol-dayn/depot/pkg/paging"
)

// Button is one selectable affordance. The transport renders Label and
// sends Action.Encode() back when pressed.
type Button struct {
	Label  string
	Action Action
}

// Attachment is a file handed back to the transport for delivery to the
// actor. The transport owns closing Content.
type Attachment struct {
	Name    string
	Content io.ReadCloser
}

// Reply is the rendering payload for one handled event.
type Reply struct {
	Text       string
	Keyboard   [][]Button
	Attachment *Attachment
}

func textReply(text string) *Reply {
	return &Reply{Text: text}
}

// navRow builds the prev/next pagination row for a listing, plus a
// trailing back button. Rows for single-page listings carry only back.
func navRow(page paging.Page, pageAction func(page int) Action, back Button) []Button {
	var row []Button
	if page.HasPrev() {
		row = append(row, Button{Label: "« Prev", Action: pageAction(page.Number - 1)})
	}
	if page.HasNext() {
		row = append(row, Button{Label: "Next »", Action: pageAction(page.Number + 1)})
	}
	row = append(row, back)
	return row
}

func backButton(label string, action Action) Button {
	return Button{Label: label, Action: action}
}

// confirmKeyboard is the uniform yes/cancel layout for destructive steps.
func confirmKeyboard(yesLabel string, yes Action) [][]Button {
	return [][]Button{{
		{Label: yesLabel, Action: yes},
		{Label: "Cancel", Action: Action{Kind: KindCancel}},
	}}
}
