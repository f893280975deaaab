// Package cli implements the replybot CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"replybot/internal/config"
	"replybot/internal/store"
)

var dbPath string

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "replybot",
	Short: "Trainable auto-responder for inbound text messages",
	Long:  "A trainable auto-responder keyed by sender phone number. Stores per-sender memory, CRM fields, and trigger-based reply rules in SQLite.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $REPLYBOT_DB or data/replybot.db)")
}

func loadConfig() *config.Config {
	cfg, err := config.New()
	if err != nil {
		exitErr("config", err)
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	return cfg
}

func openStore() (*store.SQLiteStore, *config.Config) {
	cfg := loadConfig()
	s, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		exitErr("open store", err)
	}
	return s, cfg
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}

func printJSON(v interface{}) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}
