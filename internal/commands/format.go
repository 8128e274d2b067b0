package commands

import (
	"fmt"
	"strings"

	"github.com/nickdenys/grocery-bot/internal/confirm"
	"github.com/nickdenys/grocery-bot/internal/items"
)

const (
	// DeleteItemCallback correlates clicks on a remove prompt.
	DeleteItemCallback = "delete_item_callback"
	// ClearListCallback correlates clicks on a clear prompt.
	ClearListCallback = "clear_list_callback"

	promptColor        = "#3AA3E3"
	buttonStyleDanger  = "danger"
	buttonNameDelete   = "delete"
	buttonNameCancel   = "cancel"
	buttonLabelDelete  = "Delete"
	buttonLabelCancel  = "Cancel"
	promptFallbackText = "Your client cannot show confirmation buttons."
)

// Visibility controls who sees a reply.
type Visibility int

const (
	// Ephemeral replies are only shown to the invoking user.
	Ephemeral Visibility = iota
	// InChannel replies are posted to the whole channel.
	InChannel
)

// Reply is the rendered response to a command or a button click.
type Reply struct {
	Text            string
	Visibility      Visibility
	Attachments     []Attachment
	ReplaceOriginal bool
}

// Empty reports whether the reply carries nothing to post.
func (r Reply) Empty() bool {
	return r.Text == "" && len(r.Attachments) == 0
}

// Attachment is an interactive block whose button clicks come back tagged with CallbackID.
type Attachment struct {
	Text       string
	Fallback   string
	CallbackID string
	Color      string
	Buttons    []Button
}

// Button is one interactive action. Value is echoed back on click.
type Button struct {
	Name  string
	Text  string
	Style string
	Value string
}

// RenderList renders the list with a header, one line per item. An empty list
// renders the variant's empty text, which may itself be empty.
func (v Variant) RenderList(rows []items.Item) string {
	if len(rows) == 0 {
		return v.Texts.ListEmpty
	}
	var builder strings.Builder
	builder.WriteString(v.Texts.ListHeader)
	for _, item := range rows {
		builder.WriteString("\n")
		builder.WriteString(v.FormatLine(item))
	}
	return builder.String()
}

// RemovePrompt builds the Delete/Cancel prompt for removing an item.
func (v Variant) RemovePrompt(name, deleteValue string) Reply {
	return v.prompt(fmt.Sprintf(v.Texts.RemovePrompt, name), DeleteItemCallback, deleteValue)
}

// ClearPrompt builds the Delete/Cancel prompt for clearing the list.
func (v Variant) ClearPrompt(deleteValue string) Reply {
	return v.prompt(v.Texts.ClearPrompt, ClearListCallback, deleteValue)
}

func (v Variant) prompt(text, callbackID, deleteValue string) Reply {
	return Reply{
		Attachments: []Attachment{{
			Text:       text,
			Fallback:   promptFallbackText,
			CallbackID: callbackID,
			Color:      promptColor,
			Buttons: []Button{
				{Name: buttonNameDelete, Text: buttonLabelDelete, Style: buttonStyleDanger, Value: deleteValue},
				{Name: buttonNameCancel, Text: buttonLabelCancel, Value: confirm.CancelValue},
			},
		}},
	}
}
