package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nickdenys/grocery-bot/internal/commands"
	"github.com/nickdenys/grocery-bot/internal/config"
	"github.com/nickdenys/grocery-bot/internal/confirm"
	"github.com/nickdenys/grocery-bot/internal/database"
	"github.com/nickdenys/grocery-bot/internal/items"
	"github.com/nickdenys/grocery-bot/internal/logging"
	"github.com/nickdenys/grocery-bot/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "grocery-bot",
		Short: "Slack slash-command bot for a shared grocery or lunch list",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("port", defaults.GetString("http.port"), "Port overriding the one in the listen address")
	cmd.PersistentFlags().String("variant", defaults.GetString("bot.variant"), "List variant (grocery, lunch)")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("verify-token", "", "Slack verification token (overrides env)")
	cmd.PersistentFlags().String("confirm-mode", defaults.GetString("confirm.mode"), "Confirmation button encoding (payload, token)")
	cmd.PersistentFlags().Int("confirm-ttl-minutes", defaults.GetInt("confirm.ttl_minutes"), "Lifetime of signed confirmation buttons in minutes")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "http.port", "port")
	bindFlag(cmd, "bot.variant", "variant")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "slack.verify_token", "verify-token")
	bindFlag(cmd, "confirm.mode", "confirm-mode")
	bindFlag(cmd, "confirm.ttl_minutes", "confirm-ttl-minutes")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("grocery-bot")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	variant, err := commands.LookupVariant(appConfig.Variant)
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel, variant.Name)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := database.OpenSQLite(appConfig.DatabasePath, variant.Schema, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	store, err := items.NewStore(items.StoreConfig{
		Database: db,
		Schema:   variant.Schema,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	if err := store.Mirror().Refresh(ctx); err != nil {
		logger.Warn("initial list snapshot failed", zap.Error(err))
	}

	mode, err := confirm.ParseMode(appConfig.ConfirmMode)
	if err != nil {
		return err
	}
	codec, err := confirm.NewCodec(mode, confirm.TokenCodecConfig{
		SigningSecret: []byte(appConfig.ConfirmSigningSecret),
		TTL:           appConfig.ConfirmTTL,
		Clock:         time.Now,
	})
	if err != nil {
		return err
	}

	router, err := commands.NewRouter(commands.RouterConfig{
		Variant: variant,
		Store:   store,
		Mirror:  store.Mirror(),
		Codec:   codec,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		Commands:    router,
		Items:       store,
		VerifyToken: appConfig.VerifyToken,
		RateLimit:   appConfig.RateLimit,
		RateBurst:   appConfig.RateBurst,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              appConfig.HTTPAddress,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		_, port, _ := net.SplitHostPort(appConfig.HTTPAddress)
		logger.Info("Listening on port "+port,
			zap.String("address", appConfig.HTTPAddress),
			zap.String("command", variant.Command),
			zap.String("confirm_mode", string(mode)),
		)
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
