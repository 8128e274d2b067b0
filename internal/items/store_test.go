package items

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDatabase(t *testing.T) *gorm.DB {
	t.Helper()
	databasePath := filepath.Join(t.TempDir(), "items.db")
	db, err := gorm.Open(sqlite.Open(databasePath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func newTestStore(t *testing.T, schema Schema) *Store {
	t.Helper()
	store, err := NewStore(StoreConfig{
		Database: openTestDatabase(t),
		Schema:   schema,
		Dispatch: func(task func()) { task() },
	})
	require.NoError(t, err)
	require.NoError(t, store.CreateTable(context.Background()))
	return store
}

func requireStoreErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var storeErr *StoreError
	require.True(t, errors.As(err, &storeErr), "expected *StoreError, got %T", err)
	require.Equal(t, code, storeErr.Code())
}

func TestNewStoreRequiresDatabase(t *testing.T) {
	_, err := NewStore(StoreConfig{Schema: GrocerySchema})
	requireStoreErrorCode(t, err, "items.store.new.missing_database")
}

func TestNewStoreRejectsUnsafeTableName(t *testing.T) {
	_, err := NewStore(StoreConfig{
		Database: openTestDatabase(t),
		Schema:   Schema{Table: "Groceries; DROP TABLE x"},
	})
	requireStoreErrorCode(t, err, "items.store.new.invalid_schema")
	require.ErrorIs(t, err, ErrInvalidTableName)
}

func TestStoreAddListsInInsertionOrder(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, GrocerySchema)

	_, err := store.Add(ctx, "milk", "")
	require.NoError(t, err)
	_, err = store.Add(ctx, "eggs", "")
	require.NoError(t, err)

	rows, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, ItemID(1), rows[0].ID)
	require.Equal(t, "milk", rows[0].Name)
	require.Equal(t, ItemID(2), rows[1].ID)
	require.Equal(t, "eggs", rows[1].Name)
}

func TestStoreAddAcceptsEmptyAndDuplicateNames(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, GrocerySchema)

	for _, name := range []string{"", "bread", "bread"} {
		_, err := store.Add(ctx, name, "")
		require.NoError(t, err)
	}

	rows, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "", rows[0].Name)
	require.Equal(t, rows[1].Name, rows[2].Name)
	require.Less(t, rows[1].ID, rows[2].ID)
}

func TestStoreAddRecordsUserOnlyWhenSchemaHasColumn(t *testing.T) {
	ctx := context.Background()

	lunch := newTestStore(t, LunchSchema)
	_, err := lunch.Add(ctx, "burrito", "sam")
	require.NoError(t, err)
	rows, err := lunch.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "sam", rows[0].User)

	grocery := newTestStore(t, GrocerySchema)
	_, err = grocery.Add(ctx, "milk", "sam")
	require.NoError(t, err)
	rows, err = grocery.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Empty(t, rows[0].User)
}

func TestStoreRemoveDeletesMatchingRow(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, GrocerySchema)
	_, err := store.Add(ctx, "milk", "")
	require.NoError(t, err)
	_, err = store.Add(ctx, "eggs", "")
	require.NoError(t, err)

	require.NoError(t, store.Remove(ctx, 1))

	rows, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, ItemID(2), rows[0].ID)
}

func TestStoreRemoveUnknownIDSucceedsWithoutChanges(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, GrocerySchema)
	_, err := store.Add(ctx, "milk", "")
	require.NoError(t, err)

	require.NoError(t, store.Remove(ctx, 42))

	rows, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestStoreUpdateKeepsIDAndUser(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, LunchSchema)
	_, err := store.Add(ctx, "soup", "alex")
	require.NoError(t, err)

	rows, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	original := rows[0]

	require.NoError(t, store.Update(ctx, original.ID, "salad"))
	require.NoError(t, store.Update(ctx, 99, "ignored"))

	rows, err = store.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, original.ID, rows[0].ID)
	require.Equal(t, "alex", rows[0].User)
	require.Equal(t, "salad", rows[0].Name)
}

func TestStoreClearThenCreateTableResetsList(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, GrocerySchema)
	for _, name := range []string{"milk", "eggs", "flour"} {
		_, err := store.Add(ctx, name, "")
		require.NoError(t, err)
	}

	require.NoError(t, store.Clear(ctx))

	_, err := store.List(ctx)
	requireStoreErrorCode(t, err, "items.list.query_failed")
	_, err = store.Add(ctx, "late", "")
	requireStoreErrorCode(t, err, "items.add.insert_failed")

	require.NoError(t, store.CreateTable(ctx))
	rows, err := store.List(ctx)
	require.NoError(t, err)
	require.Empty(t, rows)

	_, err = store.Add(ctx, "fresh", "")
	require.NoError(t, err)
	rows, err = store.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, ItemID(1), rows[0].ID, "auto-increment numbering restarts after a clear")
}

func TestStoreCreateTableFailsWhenTableExists(t *testing.T) {
	store := newTestStore(t, GrocerySchema)

	err := store.CreateTable(context.Background())
	requireStoreErrorCode(t, err, "items.create_table.create_failed")
}

func TestStoreRefreshesMirrorAfterMutations(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, LunchSchema)
	mirror := store.Mirror()

	_, loaded := mirror.Snapshot()
	require.False(t, loaded)

	_, err := store.Add(ctx, "tacos", "jo")
	require.NoError(t, err)
	item, found := mirror.Lookup(1)
	require.True(t, found)
	require.Equal(t, "tacos", item.Name)

	require.NoError(t, store.Update(ctx, 1, "nachos"))
	item, found = mirror.Lookup(1)
	require.True(t, found)
	require.Equal(t, "nachos", item.Name)

	require.NoError(t, store.Remove(ctx, 1))
	_, found = mirror.Lookup(1)
	require.False(t, found)
	snapshot, loaded := mirror.Snapshot()
	require.True(t, loaded)
	require.Empty(t, snapshot.Items)

	_, err = store.Add(ctx, "pizza", "jo")
	require.NoError(t, err)
	require.NoError(t, store.Clear(ctx))
	_, loaded = mirror.Snapshot()
	require.False(t, loaded, "clear must return the mirror to unloaded")
}

func TestStoreDefaultDispatchRefreshesAsynchronously(t *testing.T) {
	ctx := context.Background()
	refreshed := make(chan struct{}, 1)
	store, err := NewStore(StoreConfig{
		Database: openTestDatabase(t),
		Schema:   GrocerySchema,
	})
	require.NoError(t, err)
	require.NoError(t, store.CreateTable(ctx))

	store.dispatch = func(task func()) {
		go func() {
			task()
			refreshed <- struct{}{}
		}()
	}

	_, err = store.Add(ctx, "milk", "")
	require.NoError(t, err)
	<-refreshed

	snapshot, loaded := store.Mirror().Snapshot()
	require.True(t, loaded)
	require.Len(t, snapshot.Items, 1)
}

func TestZeroStoreReportsMissingDatabase(t *testing.T) {
	store := &Store{}
	ctx := context.Background()

	_, err := store.List(ctx)
	requireStoreErrorCode(t, err, "items.list.missing_database")
	_, err = store.Add(ctx, "milk", "")
	requireStoreErrorCode(t, err, "items.add.missing_database")
	requireStoreErrorCode(t, store.Remove(ctx, 1), "items.remove.missing_database")
	requireStoreErrorCode(t, store.Update(ctx, 1, "x"), "items.update.missing_database")
	requireStoreErrorCode(t, store.Clear(ctx), "items.clear.missing_database")
	requireStoreErrorCode(t, store.CreateTable(ctx), "items.create_table.missing_database")
}

func TestParseItemID(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		want    ItemID
		wantErr bool
	}{
		{name: "plain", input: "3", want: 3},
		{name: "padded", input: "  12 ", want: 12},
		{name: "hash-prefixed", input: "#7", want: 7},
		{name: "empty", input: "   ", wantErr: true},
		{name: "word", input: "milk", wantErr: true},
		{name: "hash-only", input: "#", wantErr: true},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			id, err := ParseItemID(testCase.input)
			if testCase.wantErr {
				require.ErrorIs(t, err, ErrInvalidItemID)
				return
			}
			require.NoError(t, err)
			require.Equal(t, testCase.want, id)
		})
	}
}

func TestSchemaStatements(t *testing.T) {
	require.Equal(t,
		"CREATE TABLE `Groceries` ( `id` INTEGER PRIMARY KEY AUTOINCREMENT UNIQUE, `name` TEXT );",
		GrocerySchema.CreateStatement())
	require.Equal(t,
		"CREATE TABLE `Lunches` ( `id` INTEGER PRIMARY KEY AUTOINCREMENT UNIQUE, `name` TEXT, `user` TEXT );",
		LunchSchema.CreateStatement())
	require.Equal(t, "DROP TABLE IF EXISTS `Groceries`", GrocerySchema.DropStatement())
}
