package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nickdenys/grocery-bot/internal/items"
)

// ErrUnknownVariant indicates that no list variant is registered under a name.
var ErrUnknownVariant = errors.New("commands: unknown variant")

// EditSyntax selects how the arguments of an edit command are split.
type EditSyntax int

const (
	// EditSplitOnNew splits "<id> new <text>" on every literal "new". Only the
	// first two segments are used, so replacement text containing "new" is truncated.
	EditSplitOnNew EditSyntax = iota
	// EditSplitOnSpace splits "<id> <text>" on the first whitespace run.
	EditSplitOnSpace
)

// Texts holds every user-facing string of a variant. Fields ending in Format take
// one %s argument.
type Texts struct {
	Help           string
	ListHeader     string
	ListEmpty      string
	ListFailed     string
	Usage          string
	AddedFormat    string
	AddFailed      string
	Removed        string
	RemoveFailed   string
	Edited         string
	EditFailed     string
	Cleared        string
	ClearFailed    string
	CreateFailed   string
	RemovePrompt   string
	ClearPrompt    string
	UnknownItem    string
	RemoveCanceled string
	ClearCanceled  string
	Expired        string
}

// Variant is one deployed flavour of the list bot.
type Variant struct {
	Name    string
	Command string
	Schema  items.Schema
	Edit    EditSyntax
	// Confirm gates remove and clear behind an interactive Delete/Cancel prompt.
	Confirm bool
	Texts   Texts
}

// FormatLine renders one list entry.
func (v Variant) FormatLine(item items.Item) string {
	if v.Schema.WithUser {
		return fmt.Sprintf("%d - @%s - %s", item.ID.Int64(), item.User, item.Name)
	}
	return fmt.Sprintf("*#%d* - %s", item.ID.Int64(), item.Name)
}

const usageText = "Whoops. Try again."

// Grocery is the immediate-action grocery list.
var Grocery = Variant{
	Name:    "grocery",
	Command: "/grocery",
	Schema:  items.GrocerySchema,
	Edit:    EditSplitOnNew,
	Texts: Texts{
		Help: "\n" +
			"  I will respond to the following messages:\n" +
			"  `help` - to see this message.\n" +
			"  `list` - to see all items on the grocery list.\n" +
			"  `add [item]` - to add an item to the list.\n" +
			"  `edit [id] new [item]` - to edit an item on the list.\n" +
			"  `remove [id]` - to remove an item from the list.\n" +
			"  `clear` - to remove all items from the list and start from scratch.\n" +
			"  ",
		ListHeader:     ":memo: *Here's the grocery list:*",
		ListFailed:     "Something went wrong. We can't seem to find your list :anguished:",
		Usage:          usageText,
		AddedFormat:    ":heavy_check_mark: Alright! We've added *%s* to the list.",
		AddFailed:      "Something went wrong. We couldn't add that to the list :scream:",
		Removed:        ":x: Done! We've removed it from the list.",
		RemoveFailed:   "Something went wrong. We couldn't remove that item from the list :triumph:",
		Edited:         ":floppy_disk: Saved! The item has been edited.",
		EditFailed:     "Something went wrong. We couldn't edit that item :triumph:",
		Cleared:        ":zap: Clear! Everything has been removed from the list.",
		ClearFailed:    "Something went wrong. We couldn't clear the grocery list :triumph:",
		CreateFailed:   "Something went wrong. We couldn't create a new grocery list :triumph:",
		RemovePrompt:   "Are you sure you want to remove *%s* from the grocery list?",
		ClearPrompt:    "Are you sure you want to remove everything from the grocery list?",
		UnknownItem:    "an unknown item",
		RemoveCanceled: "Okay, the item stays on the list.",
		ClearCanceled:  "Okay, the grocery list was left alone.",
		Expired:        "That confirmation has expired. Please run the command again.",
	},
}

// Lunch is the confirmation-gated lunch list that records who added each entry.
var Lunch = Variant{
	Name:    "lunch",
	Command: "/lunch",
	Schema:  items.LunchSchema,
	Edit:    EditSplitOnSpace,
	Confirm: true,
	Texts: Texts{
		Help: "\n" +
			"  I will respond to the following messages:\n" +
			"  `help` - to see this message.\n" +
			"  `list` - to see everything on the lunch list.\n" +
			"  `add [item]` - to add your lunch order to the list.\n" +
			"  `edit [id] [item]` - to change an entry on the list.\n" +
			"  `remove [id]` - to remove an entry from the list.\n" +
			"  `clear` - to remove everything from the list and start from scratch.\n" +
			"  ",
		ListHeader:     ":fork_and_knife: *Here's the lunch list:*",
		ListEmpty:      ":see_no_evil: The lunch list is empty.",
		ListFailed:     "Something went wrong. We can't seem to find the lunch list :anguished:",
		Usage:          usageText,
		AddedFormat:    ":heavy_check_mark: Alright! We've added *%s* to the lunch list.",
		AddFailed:      "Something went wrong. We couldn't add that to the lunch list :scream:",
		Removed:        ":x: Done! We've removed it from the lunch list.",
		RemoveFailed:   "Something went wrong. We couldn't remove that from the lunch list :triumph:",
		Edited:         ":floppy_disk: Saved! The entry has been edited.",
		EditFailed:     "Something went wrong. We couldn't edit that entry :triumph:",
		Cleared:        ":zap: Clear! Everything has been removed from the lunch list.",
		ClearFailed:    "Something went wrong. We couldn't clear the lunch list :triumph:",
		CreateFailed:   "Something went wrong. We couldn't create a new lunch list :triumph:",
		RemovePrompt:   "Are you sure you want to remove *%s* from the lunch list?",
		ClearPrompt:    "Are you sure you want to remove everything from the lunch list?",
		UnknownItem:    "an unknown item",
		RemoveCanceled: "Okay, the entry stays on the list.",
		ClearCanceled:  "Okay, the lunch list was left alone.",
		Expired:        "That confirmation has expired. Please run the command again.",
	},
}

var variants = map[string]Variant{
	Grocery.Name: Grocery,
	Lunch.Name:   Lunch,
}

// LookupVariant returns the registered variant with the given name.
func LookupVariant(name string) (Variant, error) {
	variant, ok := variants[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Variant{}, fmt.Errorf("%w: %q", ErrUnknownVariant, name)
	}
	return variant, nil
}
