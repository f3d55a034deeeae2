package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diyetkent/diyetkent/internal/alarm"
	"github.com/diyetkent/diyetkent/internal/config"
	"github.com/diyetkent/diyetkent/internal/database"
	"github.com/diyetkent/diyetkent/internal/logging"
	"github.com/diyetkent/diyetkent/internal/profile"
	"github.com/diyetkent/diyetkent/internal/records"
	"github.com/diyetkent/diyetkent/internal/remote"
	"github.com/diyetkent/diyetkent/internal/server"
	"github.com/diyetkent/diyetkent/internal/session"
	"github.com/diyetkent/diyetkent/internal/syncer"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "diyetkent-api",
		Short: "Diyetkent desktop core service",
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
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path")
	cmd.PersistentFlags().String("remote-base-url", defaults.GetString("remote.base_url"), "Remote document store base URL (empty runs offline)")
	cmd.PersistentFlags().String("remote-api-key", "", "Remote document store API key (overrides env)")
	cmd.PersistentFlags().Int("token-ttl-minutes", defaults.GetInt("auth.token_ttl_minutes"), "Session token TTL in minutes")
	cmd.PersistentFlags().Int("note-poll-seconds", defaults.GetInt("alarm.note_poll_seconds"), "Note reminder poll interval in seconds")
	cmd.PersistentFlags().Int("appointment-poll-seconds", defaults.GetInt("alarm.appointment_poll_seconds"), "Appointment alert poll interval in seconds")
	cmd.PersistentFlags().Bool("notifications-enabled", defaults.GetBool("notifications.enabled"), "Surface alerts as system notifications")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("signing-secret", "", "Session signing secret (overrides env)")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "remote.base_url", "remote-base-url")
	bindFlag(cmd, "remote.api_key", "remote-api-key")
	bindFlag(cmd, "auth.token_ttl_minutes", "token-ttl-minutes")
	bindFlag(cmd, "alarm.note_poll_seconds", "note-poll-seconds")
	bindFlag(cmd, "alarm.appointment_poll_seconds", "appointment-poll-seconds")
	bindFlag(cmd, "notifications.enabled", "notifications-enabled")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "auth.signing_secret", "signing-secret")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
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

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := database.OpenSQLite(appConfig.DatabasePath, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	store, err := records.NewStore(records.StoreConfig{
		Database:   db,
		Clock:      time.Now,
		IDProvider: records.NewUUIDProvider(),
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	if err := store.SeedWelcomeNote(ctx); err != nil {
		return err
	}

	profiles, err := profile.NewService(profile.ServiceConfig{
		Database: db,
		Clock:    time.Now,
	})
	if err != nil {
		return err
	}

	sessions, err := session.NewManager(session.ManagerConfig{
		SigningSecret: []byte(appConfig.SigningSecret),
		TokenTTL:      appConfig.TokenTTL,
	})
	if err != nil {
		return err
	}

	remoteClient := remote.Disabled()
	if appConfig.RemoteBaseURL != "" {
		remoteClient, err = remote.NewHTTPClient(remote.HTTPClientConfig{
			BaseURL: appConfig.RemoteBaseURL,
			APIKey:  appConfig.RemoteAPIKey,
			Timeout: appConfig.RemoteTimeout,
			Logger:  logger,
		})
		if err != nil {
			return err
		}
	} else {
		logger.Info("remote base url not configured, running offline only")
	}

	hub, err := syncer.NewHub(syncer.HubConfig{
		Remote: remoteClient,
		Store:  store,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	inbox := alarm.NewInbox()
	notifier := alarm.LogNotifier{Enabled: appConfig.NotificationsOn, Logger: logger}

	noteScheduler, err := alarm.NewScheduler(alarm.SchedulerConfig{
		Name:     "note-reminders",
		Interval: appConfig.NotePollInterval,
		Source:   alarm.NoteReminderSource(store),
		Policy:   alarm.CatchUpPolicy{Window: alarm.NoteCatchUpWindow},
		Notifier: notifier,
		Sink:     inbox.Post,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	appointmentScheduler, err := alarm.NewScheduler(alarm.SchedulerConfig{
		Name:     "appointment-alerts",
		Interval: appConfig.ApptPollInterval,
		Source:   alarm.AppointmentAlertSource(store),
		Policy:   alarm.PreAlertPolicy{Window: alarm.AppointmentPreAlertWindow},
		Notifier: notifier,
		Sink:     inbox.Post,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		Sessions: sessions,
		Records:  store,
		Profiles: profiles,
		Sync:     hub,
		Inbox:    inbox,
		Clock:    time.Now,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    appConfig.HTTPAddress,
		Handler: handler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go noteScheduler.Run(signalCtx)
	go appointmentScheduler.Run(signalCtx)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("address", appConfig.HTTPAddress))
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
