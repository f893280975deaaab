package responder

import (
	"context"
	"fmt"
	"strings"

	"replybot/internal/model"
)

// matchTrained checks the sender's trained rules against the message. On a
// match it increments the rule's usage count, persists, and returns the
// response. No record or no match is not an error; the pipeline falls
// through.
func (s *Service) matchTrained(ctx context.Context, identity, message string) (string, bool, error) {
	rec, err := s.store.Get(ctx, identity)
	if err != nil {
		return "", false, fmt.Errorf("load user: %w", err)
	}
	if rec == nil || len(rec.ReplyRules) == 0 {
		return "", false, nil
	}

	id, ok := bestMatch(rec, message)
	if !ok {
		return "", false, nil
	}

	rule := rec.ReplyRules[id]
	rule.UsageCount++
	rec.ReplyRules[id] = rule
	if err := s.store.Save(ctx, rec); err != nil {
		return "", false, fmt.Errorf("save usage count: %w", err)
	}
	return rule.Response, true, nil
}

// bestMatch selects the single winning rule for a message. A rule matches
// when its lowercased trigger is a substring of the lowercased message.
// When several rules match, the longest trigger wins; equal lengths break
// by lexical rule-id order, so the outcome never depends on map iteration
// order.
func bestMatch(rec *model.UserRecord, message string) (string, bool) {
	lower := strings.ToLower(message)

	bestID := ""
	bestLen := -1
	for id, rule := range rec.ReplyRules {
		trigger := strings.ToLower(rule.Trigger)
		if trigger == "" || !strings.Contains(lower, trigger) {
			continue
		}
		if len(trigger) > bestLen || (len(trigger) == bestLen && id < bestID) {
			bestID = id
			bestLen = len(trigger)
		}
	}
	return bestID, bestID != ""
}
