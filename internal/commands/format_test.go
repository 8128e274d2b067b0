package commands

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/nickdenys/grocery-bot/internal/items"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
)

func newGolden(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func assertReplyGolden(t *testing.T, name string, reply Reply) {
	t.Helper()
	encoded, err := json.MarshalIndent(reply, "", "  ")
	require.NoError(t, err)
	newGolden(t).Assert(t, name, encoded)
}

func TestRenderGroceryList(t *testing.T) {
	rendered := Grocery.RenderList([]items.Item{
		{ID: 1, Name: "milk"},
		{ID: 2, Name: "eggs"},
	})
	newGolden(t).Assert(t, "grocery_list", []byte(rendered))
}

func TestRenderLunchList(t *testing.T) {
	rendered := Lunch.RenderList([]items.Item{
		{ID: 1, Name: "burrito", User: "sam"},
		{ID: 2, Name: "pho", User: "alex"},
	})
	newGolden(t).Assert(t, "lunch_list", []byte(rendered))
}

func TestRenderEmptyList(t *testing.T) {
	require.Empty(t, Grocery.RenderList(nil))
	require.Equal(t, Lunch.Texts.ListEmpty, Lunch.RenderList(nil))
}

func TestLunchRemovePrompt(t *testing.T) {
	router := newTestRouter(t, Lunch, newRecordingStore(), staticLookup{1: {ID: 1, Name: "burrito", User: "sam"}}, nil)

	assertReplyGolden(t, "lunch_remove_prompt",
		router.HandleCommand(context.Background(), Invocation{Text: "remove 1"}))
	assertReplyGolden(t, "lunch_remove_prompt_unknown_item",
		router.HandleCommand(context.Background(), Invocation{Text: "remove 42"}))
}

func TestLunchClearPrompt(t *testing.T) {
	router := newTestRouter(t, Lunch, newRecordingStore(), staticLookup{}, nil)

	assertReplyGolden(t, "lunch_clear_prompt",
		router.HandleCommand(context.Background(), Invocation{Text: "clear"}))
}
