// Package model defines the core user record data types.
package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// UserRecord holds the per-sender state, keyed by identity (a normalized
// phone number). The three maps are independent namespaces.
type UserRecord struct {
	Identity   string               `json:"identity"`
	Memory     map[string]string    `json:"memory"`
	CRMFields  map[string]string    `json:"crm_fields"`
	ReplyRules map[string]ReplyRule `json:"reply_rules"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

// ReplyRule is a trained trigger→response pair. UsageCount is incremented
// only by successful matches, never by training.
type ReplyRule struct {
	Trigger    string `json:"trigger"`
	Response   string `json:"response"`
	UsageCount int    `json:"usage_count"`
}

// RuleID derives the storage key for a trigger: the hex SHA-256 digest of
// the trimmed, lowercased trigger text. Retraining the same trigger
// (case-insensitively) therefore overwrites the prior rule in place, so at
// most one live rule exists per distinct case-folded trigger.
func RuleID(trigger string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(trigger))))
	return hex.EncodeToString(sum[:])
}

// Handler labels recorded with each interaction.
const (
	HandlerTrained = "trained"
	HandlerCRM     = "crm"
	HandlerMemory  = "memory"
	HandlerDefault = "default"
)

// Interaction is one processed inbound message and the response it produced.
// Interactions form an append-only audit log; the decision pipeline never
// reads them.
type Interaction struct {
	ID        string    `json:"id"`
	Identity  string    `json:"identity"`
	Inbound   string    `json:"inbound"`
	Response  string    `json:"response"`
	Handler   string    `json:"handler"`
	CreatedAt time.Time `json:"created_at"`
}
