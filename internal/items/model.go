package items

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrInvalidItemID indicates that an item identifier is empty or not an integer.
	ErrInvalidItemID = errors.New("items: invalid item id")
	// ErrInvalidTableName indicates that a schema table name is not a plain identifier.
	ErrInvalidTableName = errors.New("items: invalid table name")
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ItemID is the auto-assigned row identifier of a list item.
type ItemID int64

// ParseItemID validates raw user input and returns an ItemID.
// A leading "#" is accepted so ids can be copied straight from a rendered list.
func ParseItemID(rawInput string) (ItemID, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(rawInput), "#")
	if trimmed == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidItemID)
	}
	value, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidItemID, rawInput)
	}
	return ItemID(value), nil
}

// Int64 exposes the raw identifier.
func (id ItemID) Int64() int64 {
	return int64(id)
}

// String renders the identifier in decimal.
func (id ItemID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Item is one row of the list table. User is only populated by schemas that carry the user column.
type Item struct {
	ID   ItemID `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"column:name" json:"name"`
	User string `gorm:"column:user" json:"user,omitempty"`
}

// Schema describes the single table backing a list.
type Schema struct {
	Table    string
	WithUser bool
}

var (
	// GrocerySchema is the table layout of the grocery list.
	GrocerySchema = Schema{Table: "Groceries"}
	// LunchSchema is the table layout of the lunch list, which records the submitter.
	LunchSchema = Schema{Table: "Lunches", WithUser: true}
)

// Validate ensures the table name can be safely interpolated into DDL.
func (s Schema) Validate() error {
	if !tableNamePattern.MatchString(s.Table) {
		return fmt.Errorf("%w: %q", ErrInvalidTableName, s.Table)
	}
	return nil
}

// CreateStatement returns the CREATE TABLE statement for the schema. It deliberately
// omits IF NOT EXISTS so that creating an existing table fails.
func (s Schema) CreateStatement() string {
	columns := "`id` INTEGER PRIMARY KEY AUTOINCREMENT UNIQUE, `name` TEXT"
	if s.WithUser {
		columns += ", `user` TEXT"
	}
	return fmt.Sprintf("CREATE TABLE %s ( %s );", s.quotedTable(), columns)
}

// DropStatement returns the statement that removes the table and every row in it.
func (s Schema) DropStatement() string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", s.quotedTable())
}

func (s Schema) insertColumns() []string {
	if s.WithUser {
		return []string{"name", "user"}
	}
	return []string{"name"}
}

func (s Schema) quotedTable() string {
	return "`" + s.Table + "`"
}
