// Package responder implements the message-processing pipeline: trained
// replies first, then crm:/remember: commands, then the default response.
package responder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"replybot/internal/model"
	"replybot/internal/store"
)

// DefaultReply is returned when no rule matches and no command applies.
const DefaultReply = "How can I help you today?"

// ErrInvalidRule marks Train input that cannot form a rule.
var ErrInvalidRule = errors.New("invalid rule")

// Service decides how each inbound message is answered and mutates the
// per-sender state through the store.
type Service struct {
	store        store.Store
	locks        *keyedMutex
	defaultReply string
}

// New creates a responder service. An empty defaultReply falls back to
// DefaultReply.
func New(st store.Store, defaultReply string) *Service {
	if defaultReply == "" {
		defaultReply = DefaultReply
	}
	return &Service{
		store:        st,
		locks:        newKeyedMutex(),
		defaultReply: defaultReply,
	}
}

// HandleMessage runs one inbound message through the pipeline and returns
// the single user-facing response. Malformed commands resolve to an error
// string, never to an error; only store failures propagate. The identity
// lock covers the whole read-modify-write so concurrent messages for one
// sender serialize.
func (s *Service) HandleMessage(ctx context.Context, identity, text string) (string, error) {
	unlock := s.locks.lock(identity)
	defer unlock()

	reply, handler, err := s.dispatch(ctx, identity, text)
	if err != nil {
		return "", err
	}

	// Audit is best-effort; a failed write must not fail the message.
	ev := model.Interaction{Identity: identity, Inbound: text, Response: reply, Handler: handler}
	if err := s.store.RecordInteraction(ctx, ev); err != nil {
		log.Warn().Err(err).Str("identity", identity).Msg("failed to record interaction")
	}

	log.Info().Str("identity", identity).Str("handler", handler).Msg("message handled")
	return reply, nil
}

func (s *Service) dispatch(ctx context.Context, identity, text string) (string, string, error) {
	reply, matched, err := s.matchTrained(ctx, identity, text)
	if err != nil {
		return "", "", err
	}
	if matched {
		return reply, model.HandlerTrained, nil
	}

	if strings.HasPrefix(text, crmPrefix) {
		reply, err := s.handleCRMCommand(ctx, identity, text)
		return reply, model.HandlerCRM, err
	}
	if strings.HasPrefix(text, memoryPrefix) {
		reply, err := s.handleMemoryCommand(ctx, identity, text)
		return reply, model.HandlerMemory, err
	}

	return s.defaultReply, model.HandlerDefault, nil
}

// Train inserts or overwrites the rule for trigger. Overwriting resets the
// usage count. The full rule set after the write is returned.
func (s *Service) Train(ctx context.Context, identity, trigger, response string) (map[string]model.ReplyRule, error) {
	trigger = strings.TrimSpace(trigger)
	response = strings.TrimSpace(response)
	if trigger == "" {
		// An empty trigger would match every message.
		return nil, fmt.Errorf("%w: trigger is required", ErrInvalidRule)
	}
	if response == "" {
		return nil, fmt.Errorf("%w: response is required", ErrInvalidRule)
	}

	unlock := s.locks.lock(identity)
	defer unlock()

	rec, err := s.store.GetOrCreate(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("get or create user: %w", err)
	}
	if rec.ReplyRules == nil {
		rec.ReplyRules = make(map[string]model.ReplyRule)
	}
	rec.ReplyRules[model.RuleID(trigger)] = model.ReplyRule{Trigger: trigger, Response: response}
	if err := s.store.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("save rules: %w", err)
	}

	log.Info().Str("identity", identity).Str("trigger", trigger).Msg("trained reply")
	return rec.ReplyRules, nil
}

// UpdateMemory sets one memory entry, creating the record lazily.
func (s *Service) UpdateMemory(ctx context.Context, identity, key, value string) error {
	unlock := s.locks.lock(identity)
	defer unlock()
	return s.updateMemory(ctx, identity, key, value)
}

func (s *Service) updateMemory(ctx context.Context, identity, key, value string) error {
	rec, err := s.store.GetOrCreate(ctx, identity)
	if err != nil {
		return fmt.Errorf("get or create user: %w", err)
	}
	if rec.Memory == nil {
		rec.Memory = make(map[string]string)
	}
	rec.Memory[key] = value
	if err := s.store.Save(ctx, rec); err != nil {
		return fmt.Errorf("save memory: %w", err)
	}
	return nil
}

// UpdateCRMField sets one CRM field, creating the record lazily.
func (s *Service) UpdateCRMField(ctx context.Context, identity, field, value string) error {
	unlock := s.locks.lock(identity)
	defer unlock()
	return s.updateCRMField(ctx, identity, field, value)
}

func (s *Service) updateCRMField(ctx context.Context, identity, field, value string) error {
	rec, err := s.store.GetOrCreate(ctx, identity)
	if err != nil {
		return fmt.Errorf("get or create user: %w", err)
	}
	if rec.CRMFields == nil {
		rec.CRMFields = make(map[string]string)
	}
	rec.CRMFields[field] = value
	if err := s.store.Save(ctx, rec); err != nil {
		return fmt.Errorf("save crm fields: %w", err)
	}
	return nil
}

// Memory returns one memory entry. An unknown identity reads as no data and
// never creates the record.
func (s *Service) Memory(ctx context.Context, identity, key string) (string, bool, error) {
	rec, err := s.store.Get(ctx, identity)
	if err != nil || rec == nil {
		return "", false, err
	}
	v, ok := rec.Memory[key]
	return v, ok, nil
}

// MemoryMap returns the full memory namespace, nil for an unknown identity.
func (s *Service) MemoryMap(ctx context.Context, identity string) (map[string]string, error) {
	rec, err := s.store.Get(ctx, identity)
	if err != nil || rec == nil {
		return nil, err
	}
	return rec.Memory, nil
}

// CRMField returns one CRM field. An unknown identity reads as no data and
// never creates the record.
func (s *Service) CRMField(ctx context.Context, identity, field string) (string, bool, error) {
	rec, err := s.store.Get(ctx, identity)
	if err != nil || rec == nil {
		return "", false, err
	}
	v, ok := rec.CRMFields[field]
	return v, ok, nil
}

// CRMFieldMap returns the full CRM namespace, nil for an unknown identity.
func (s *Service) CRMFieldMap(ctx context.Context, identity string) (map[string]string, error) {
	rec, err := s.store.Get(ctx, identity)
	if err != nil || rec == nil {
		return nil, err
	}
	return rec.CRMFields, nil
}

// Rules returns the trained rule set, nil for an unknown identity.
func (s *Service) Rules(ctx context.Context, identity string) (map[string]model.ReplyRule, error) {
	rec, err := s.store.Get(ctx, identity)
	if err != nil || rec == nil {
		return nil, err
	}
	return rec.ReplyRules, nil
}
