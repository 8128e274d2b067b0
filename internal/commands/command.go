// Package commands parses slash-command text into typed commands, routes them to
// the item store and renders the replies.
package commands

import (
	"errors"
	"strings"
	"unicode"

	"github.com/nickdenys/grocery-bot/internal/items"
)

// Command is one parsed subcommand. The set is closed: Help, List, Add, Edit,
// Remove, Clear and Unknown.
type Command interface {
	isCommand()
}

// Help asks for the help text.
type Help struct{}

// List asks for every item on the list.
type List struct{}

// Add appends Text to the list.
type Add struct {
	Text string
}

// Edit replaces the name of item ID with Text.
type Edit struct {
	ID   items.ItemID
	Text string
}

// Remove deletes item ID.
type Remove struct {
	ID items.ItemID
}

// Clear empties the list.
type Clear struct{}

// Unknown is any subcommand outside the vocabulary.
type Unknown struct {
	Text string
}

func (Help) isCommand()    {}
func (List) isCommand()    {}
func (Add) isCommand()     {}
func (Edit) isCommand()    {}
func (Remove) isCommand()  {}
func (Clear) isCommand()   {}
func (Unknown) isCommand() {}

// UsageError reports a command with missing or malformed arguments.
type UsageError struct {
	reason string
}

func (e *UsageError) Error() string {
	return "commands: usage: " + e.reason
}

// IsUsageError reports whether err is, or wraps, a *UsageError.
func IsUsageError(err error) bool {
	var usageErr *UsageError
	return errors.As(err, &usageErr)
}

func usageError(reason string) error {
	return &UsageError{reason: reason}
}

// Parse turns the text that followed the slash command into a Command.
// The subcommand is the first word, matched case-insensitively.
func Parse(text string, syntax EditSyntax) (Command, error) {
	name, args := splitFirstWord(strings.TrimSpace(text))
	switch strings.ToLower(name) {
	case "help":
		return Help{}, nil
	case "list":
		return List{}, nil
	case "add":
		if args == "" {
			return nil, usageError("add requires item text")
		}
		return Add{Text: args}, nil
	case "edit":
		return parseEdit(args, syntax)
	case "remove":
		if args == "" {
			return nil, usageError("remove requires an item id")
		}
		id, err := items.ParseItemID(args)
		if err != nil {
			return nil, usageError(err.Error())
		}
		return Remove{ID: id}, nil
	case "clear":
		return Clear{}, nil
	default:
		return Unknown{Text: text}, nil
	}
}

func parseEdit(args string, syntax EditSyntax) (Command, error) {
	if args == "" {
		return nil, usageError("edit requires an item id and text")
	}

	var rawID, replacement string
	switch syntax {
	case EditSplitOnSpace:
		rawID, replacement = splitFirstWord(args)
	default:
		segments := strings.Split(args, "new")
		for index := range segments {
			segments[index] = strings.TrimSpace(segments[index])
		}
		rawID = segments[0]
		if len(segments) > 1 {
			replacement = segments[1]
		}
	}

	if replacement == "" {
		return nil, usageError("edit requires replacement text")
	}
	id, err := items.ParseItemID(rawID)
	if err != nil {
		return nil, usageError(err.Error())
	}
	return Edit{ID: id, Text: replacement}, nil
}

// splitFirstWord splits value at its first whitespace run.
func splitFirstWord(value string) (string, string) {
	index := strings.IndexFunc(value, unicode.IsSpace)
	if index < 0 {
		return value, ""
	}
	return value[:index], strings.TrimLeftFunc(value[index:], unicode.IsSpace)
}
