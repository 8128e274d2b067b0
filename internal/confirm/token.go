package confirm

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nickdenys/grocery-bot/internal/items"
)

const (
	defaultTokenTTL    = 15 * time.Minute
	defaultTokenIssuer = "grocery-bot"

	actionRemove = "remove"
	actionClear  = "clear"
)

var errMissingSigningSecret = errors.New("confirm: signing secret must be provided")

// TokenCodecConfig configures signed confirmation tokens.
type TokenCodecConfig struct {
	SigningSecret []byte
	Issuer        string
	TTL           time.Duration
	Clock         func() time.Time
}

// TokenCodec issues HS256 tokens naming the pending action. A token is only
// honoured until it expires, so a stale prompt cannot trigger a delete later.
type TokenCodec struct {
	signingSecret []byte
	issuer        string
	ttl           time.Duration
	clock         func() time.Time
}

type confirmationClaims struct {
	Action string `json:"action"`
	ItemID int64  `json:"item_id,omitempty"`
	jwt.RegisteredClaims
}

// NewTokenCodec constructs a TokenCodec with defaults for unset fields.
func NewTokenCodec(cfg TokenCodecConfig) (*TokenCodec, error) {
	if len(cfg.SigningSecret) == 0 {
		return nil, errMissingSigningSecret
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	issuer := cfg.Issuer
	if issuer == "" {
		issuer = defaultTokenIssuer
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &TokenCodec{
		signingSecret: append([]byte(nil), cfg.SigningSecret...),
		issuer:        issuer,
		ttl:           ttl,
		clock:         clock,
	}, nil
}

func (c *TokenCodec) EncodeRemove(id items.ItemID) (string, error) {
	return c.sign(actionRemove, id.Int64())
}

func (c *TokenCodec) EncodeClear() (string, error) {
	return c.sign(actionClear, 0)
}

func (c *TokenCodec) DecodeRemove(value string) (items.ItemID, error) {
	claims, err := c.parse(value, actionRemove)
	if err != nil {
		return 0, err
	}
	return items.ItemID(claims.ItemID), nil
}

func (c *TokenCodec) DecodeClear(value string) error {
	_, err := c.parse(value, actionClear)
	return err
}

func (c *TokenCodec) sign(action string, itemID int64) (string, error) {
	now := c.clock().UTC()
	claims := confirmationClaims{
		Action: action,
		ItemID: itemID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.signingSecret)
}

func (c *TokenCodec) parse(value, action string) (*confirmationClaims, error) {
	claims := &confirmationClaims{}
	_, err := jwt.ParseWithClaims(
		value,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, fmt.Errorf("unexpected signing algorithm: %s", token.Method.Alg())
			}
			return c.signingSecret, nil
		},
		jwt.WithIssuer(c.issuer),
		jwt.WithTimeFunc(c.clock),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredConfirmation
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfirmation, err)
	}
	if claims.Action != action {
		return nil, fmt.Errorf("%w: action %q", ErrInvalidConfirmation, claims.Action)
	}
	return claims, nil
}
