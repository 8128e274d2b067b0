package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/nickdenys/grocery-bot/internal/commands"
	"github.com/nickdenys/grocery-bot/internal/items"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	errMissingCommandRouter = errors.New("command router dependency required")
	errMissingItemLister    = errors.New("item lister dependency required")
	errMissingVerifyToken   = errors.New("verification token required")
	errInvalidAuthorization = errors.New("authorization header missing or invalid")
)

// CommandRouter turns platform invocations into replies.
type CommandRouter interface {
	Variant() commands.Variant
	HandleCommand(ctx context.Context, invocation commands.Invocation) commands.Reply
	HandleAction(ctx context.Context, action commands.Action) (commands.Reply, error)
}

// ItemLister backs the read-only list API.
type ItemLister interface {
	List(ctx context.Context) ([]items.Item, error)
}

type Dependencies struct {
	Commands    CommandRouter
	Items       ItemLister
	VerifyToken string
	// RateLimit is the sustained requests per second; zero disables limiting.
	RateLimit float64
	RateBurst int
	Logger    *zap.Logger
}

func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Commands == nil {
		return nil, errMissingCommandRouter
	}
	if deps.Items == nil {
		return nil, errMissingItemLister
	}
	if strings.TrimSpace(deps.VerifyToken) == "" {
		return nil, errMissingVerifyToken
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(requestLogMiddleware(logger))
	router.Use(rateLimitMiddleware(newLimiter(deps.RateLimit, deps.RateBurst)))
	router.Use(corsMiddleware())

	handler := &httpHandler{
		commands:    deps.Commands,
		items:       deps.Items,
		verifyToken: deps.VerifyToken,
		logger:      logger,
	}

	router.GET("/healthz", handler.handleHealth)
	router.POST("/slack/commands", handler.handleSlashCommand)
	router.POST("/slack/actions", handler.handleAction)

	api := router.Group("/api")
	api.Use(handler.authorizeRequest)
	api.GET("/items", handler.handleListItems)

	return router, nil
}

func corsMiddleware() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:    []string{"Authorization", "Content-Type", requestIDHeader},
		ExposeHeaders:   []string{requestIDHeader},
		MaxAge:          12 * time.Hour,
	})
}

func newLimiter(limit float64, burst int) *rate.Limiter {
	if limit <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(limit), burst)
}

type httpHandler struct {
	commands    CommandRouter
	items       ItemLister
	verifyToken string
	logger      *zap.Logger
}

func (h *httpHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type itemsResponsePayload struct {
	Items []items.Item `json:"items"`
}

func (h *httpHandler) handleListItems(c *gin.Context) {
	rows, err := h.items.List(c.Request.Context())
	if err != nil {
		code := ""
		var storeErr *items.StoreError
		if errors.As(err, &storeErr) {
			code = storeErr.Code()
		}
		h.logger.Error("failed to list items", zap.Error(err), zap.String("request_id", c.GetString(requestIDContextKey)))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list_failed", "code": code})
		return
	}
	if rows == nil {
		rows = []items.Item{}
	}
	c.JSON(http.StatusOK, itemsResponsePayload{Items: rows})
}

func (h *httpHandler) authorizeRequest(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if !tokensMatch(h.verifyToken, token) {
		h.logger.Info("api token rejected", zap.String("request_id", c.GetString(requestIDContextKey)))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Next()
}
