package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/nickdenys/grocery-bot/internal/confirm"
	"github.com/nickdenys/grocery-bot/internal/items"
	"go.uber.org/zap"
)

var (
	errMissingStore  = errors.New("item store dependency required")
	errMissingMirror = errors.New("mirror dependency required for confirmation prompts")

	// ErrUnknownCallback indicates a button click whose callback id no prompt produces.
	ErrUnknownCallback = errors.New("commands: unknown callback")
)

// ItemStore is the persistence surface the router drives.
type ItemStore interface {
	List(ctx context.Context) ([]items.Item, error)
	Add(ctx context.Context, name, user string) (items.Item, error)
	Remove(ctx context.Context, id items.ItemID) error
	Update(ctx context.Context, id items.ItemID, name string) error
	Clear(ctx context.Context) error
	CreateTable(ctx context.Context) error
}

// ItemLookup resolves display names for confirmation prompts.
type ItemLookup interface {
	Lookup(id items.ItemID) (items.Item, bool)
}

// RouterConfig describes the dependencies of a Router.
type RouterConfig struct {
	Variant Variant
	Store   ItemStore
	Mirror  ItemLookup
	Codec   confirm.Codec
	Logger  *zap.Logger
}

// Router maps slash commands and button clicks to store operations.
// Each invocation is handled on its own; no conversation state is kept.
type Router struct {
	variant Variant
	store   ItemStore
	mirror  ItemLookup
	codec   confirm.Codec
	logger  *zap.Logger
}

// Invocation is one slash command as delivered by the platform.
type Invocation struct {
	Command  string
	Text     string
	UserID   string
	UserName string
}

// Action is one button click as delivered by the platform.
type Action struct {
	CallbackID string
	Value      string
	UserID     string
	UserName   string
}

// NewRouter validates the configuration and constructs a Router.
func NewRouter(cfg RouterConfig) (*Router, error) {
	if cfg.Store == nil {
		return nil, errMissingStore
	}
	if cfg.Variant.Confirm && cfg.Mirror == nil {
		return nil, errMissingMirror
	}
	codec := cfg.Codec
	if codec == nil {
		codec = confirm.PayloadCodec{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		variant: cfg.Variant,
		store:   cfg.Store,
		mirror:  cfg.Mirror,
		codec:   codec,
		logger:  logger.With(zap.String("variant", cfg.Variant.Name)),
	}, nil
}

// Variant returns the variant the router serves.
func (r *Router) Variant() Variant {
	return r.variant
}

// HandleCommand runs one slash command and renders its reply.
func (r *Router) HandleCommand(ctx context.Context, invocation Invocation) Reply {
	texts := r.variant.Texts
	command, err := Parse(invocation.Text, r.variant.Edit)
	if err != nil {
		r.logger.Debug("command rejected", zap.String("text", invocation.Text), zap.Error(err))
		return Reply{Text: texts.Usage}
	}

	switch cmd := command.(type) {
	case Help, Unknown:
		return Reply{Text: texts.Help, Visibility: InChannel}
	case List:
		rows, err := r.store.List(ctx)
		if err != nil {
			r.logStoreFailure("list", err)
			return Reply{Text: texts.ListFailed}
		}
		return Reply{Text: r.variant.RenderList(rows)}
	case Add:
		if _, err := r.store.Add(ctx, cmd.Text, invocation.UserName); err != nil {
			r.logStoreFailure("add", err)
			return Reply{Text: texts.AddFailed}
		}
		return Reply{Text: fmt.Sprintf(texts.AddedFormat, cmd.Text)}
	case Edit:
		if err := r.store.Update(ctx, cmd.ID, cmd.Text); err != nil {
			r.logStoreFailure("edit", err)
			return Reply{Text: texts.EditFailed}
		}
		return Reply{Text: texts.Edited}
	case Remove:
		if r.variant.Confirm {
			return r.promptRemove(cmd.ID)
		}
		return r.remove(ctx, cmd.ID)
	case Clear:
		if r.variant.Confirm {
			return r.promptClear()
		}
		return r.clear(ctx)
	default:
		return Reply{Text: texts.Help, Visibility: InChannel}
	}
}

// HandleAction runs the follow-up of a confirmation prompt.
func (r *Router) HandleAction(ctx context.Context, action Action) (Reply, error) {
	texts := r.variant.Texts
	switch action.CallbackID {
	case DeleteItemCallback:
		if action.Value == confirm.CancelValue {
			return replaceWith(texts.RemoveCanceled), nil
		}
		id, err := r.codec.DecodeRemove(action.Value)
		if err != nil {
			return r.rejectedConfirmation(err, texts.Usage), nil
		}
		reply := r.remove(ctx, id)
		reply.ReplaceOriginal = true
		return reply, nil
	case ClearListCallback:
		if action.Value == confirm.CancelValue {
			return replaceWith(texts.ClearCanceled), nil
		}
		if err := r.codec.DecodeClear(action.Value); err != nil {
			return r.rejectedConfirmation(err, texts.ClearCanceled), nil
		}
		reply := r.clear(ctx)
		reply.ReplaceOriginal = true
		return reply, nil
	default:
		return Reply{}, fmt.Errorf("%w: %q", ErrUnknownCallback, action.CallbackID)
	}
}

func (r *Router) promptRemove(id items.ItemID) Reply {
	name := r.variant.Texts.UnknownItem
	if item, found := r.mirror.Lookup(id); found {
		name = item.Name
	}
	value, err := r.codec.EncodeRemove(id)
	if err != nil {
		r.logger.Error("failed to encode remove confirmation", zap.Int64("item_id", id.Int64()), zap.Error(err))
		return Reply{Text: r.variant.Texts.RemoveFailed}
	}
	return r.variant.RemovePrompt(name, value)
}

func (r *Router) promptClear() Reply {
	value, err := r.codec.EncodeClear()
	if err != nil {
		r.logger.Error("failed to encode clear confirmation", zap.Error(err))
		return Reply{Text: r.variant.Texts.ClearFailed}
	}
	return r.variant.ClearPrompt(value)
}

func (r *Router) remove(ctx context.Context, id items.ItemID) Reply {
	if err := r.store.Remove(ctx, id); err != nil {
		r.logStoreFailure("remove", err)
		return Reply{Text: r.variant.Texts.RemoveFailed}
	}
	return Reply{Text: r.variant.Texts.Removed}
}

// clear drops and recreates the table. A failed recreate leaves the table absent.
func (r *Router) clear(ctx context.Context) Reply {
	if err := r.store.Clear(ctx); err != nil {
		r.logStoreFailure("clear", err)
		return Reply{Text: r.variant.Texts.ClearFailed}
	}
	if err := r.store.CreateTable(ctx); err != nil {
		r.logStoreFailure("create_table", err)
		return Reply{Text: r.variant.Texts.CreateFailed}
	}
	return Reply{Text: r.variant.Texts.Cleared}
}

func (r *Router) rejectedConfirmation(err error, fallback string) Reply {
	r.logger.Info("confirmation rejected", zap.Error(err))
	if errors.Is(err, confirm.ErrExpiredConfirmation) {
		return replaceWith(r.variant.Texts.Expired)
	}
	return replaceWith(fallback)
}

func (r *Router) logStoreFailure(command string, err error) {
	fields := []zap.Field{
		zap.String("command", command),
		zap.Error(err),
	}
	var storeErr *items.StoreError
	if errors.As(err, &storeErr) {
		fields = append(fields, zap.String("code", storeErr.Code()))
	}
	r.logger.Error("command failed", fields...)
}

func replaceWith(text string) Reply {
	return Reply{Text: text, ReplaceOriginal: true}
}
