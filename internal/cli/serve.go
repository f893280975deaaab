package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"replybot/internal/responder"
	"replybot/internal/server"
	"replybot/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook HTTP server",
		Run:   runServe,
	}

	cmd.Flags().String("addr", "", "Listen address (default: $LISTEN_ADDR or :8080)")

	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) {
	if err := godotenv.Load(".env"); err != nil {
		log.Debug().Err(err).Msg(".env file not loaded")
	}

	cfg := loadConfig()
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.ListenAddr = addr
	}

	st, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		exitErr("open store", err)
	}
	defer st.Close()

	svc := responder.New(st, cfg.DefaultReply)
	srv := server.New(svc, cfg.ListenAddr)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig

		log.Info().Msg("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}()

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		exitErr("serve", err)
	}
}
