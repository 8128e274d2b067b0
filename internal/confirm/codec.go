// Package confirm encodes the pending state of a destructive action into the
// value of an interactive button, and decodes it when the button is clicked.
package confirm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nickdenys/grocery-bot/internal/items"
)

const (
	// CancelValue is carried by every Cancel button.
	CancelValue = "cancel"
	// ClearValue is the Delete button value of a clear prompt in payload mode.
	ClearValue = "delete"
)

// Mode selects how confirmations are carried.
type Mode string

const (
	// ModePayload stores the item id, or the literal "delete", in the button value.
	ModePayload Mode = "payload"
	// ModeToken stores a signed, short-lived token in the button value.
	ModeToken Mode = "token"
)

var (
	// ErrInvalidConfirmation indicates a button value that does not decode to the expected action.
	ErrInvalidConfirmation = errors.New("confirm: invalid confirmation")
	// ErrExpiredConfirmation indicates a token whose lifetime has elapsed.
	ErrExpiredConfirmation = errors.New("confirm: confirmation expired")
	// ErrUnknownMode indicates an unsupported confirmation mode.
	ErrUnknownMode = errors.New("confirm: unknown mode")
)

// Codec converts pending destructive actions to button values and back.
type Codec interface {
	EncodeRemove(id items.ItemID) (string, error)
	EncodeClear() (string, error)
	DecodeRemove(value string) (items.ItemID, error)
	DecodeClear(value string) error
}

// ParseMode validates a configured mode name.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case ModePayload, "":
		return ModePayload, nil
	case ModeToken:
		return ModeToken, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, value)
	}
}

// NewCodec builds the codec for mode. tokenConfig is only consulted in token mode.
func NewCodec(mode Mode, tokenConfig TokenCodecConfig) (Codec, error) {
	switch mode {
	case ModePayload, "":
		return PayloadCodec{}, nil
	case ModeToken:
		return NewTokenCodec(tokenConfig)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
}

// PayloadCodec carries the target directly in the button value.
type PayloadCodec struct{}

func (PayloadCodec) EncodeRemove(id items.ItemID) (string, error) {
	return id.String(), nil
}

func (PayloadCodec) EncodeClear() (string, error) {
	return ClearValue, nil
}

func (PayloadCodec) DecodeRemove(value string) (items.ItemID, error) {
	id, err := items.ParseItemID(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidConfirmation, err)
	}
	return id, nil
}

func (PayloadCodec) DecodeClear(value string) error {
	if value != ClearValue {
		return fmt.Errorf("%w: %q", ErrInvalidConfirmation, value)
	}
	return nil
}
