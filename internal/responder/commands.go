package responder

import (
	"context"
	"fmt"
	"strings"
)

const (
	crmPrefix    = "crm:"
	memoryPrefix = "remember:"

	invalidCRMFormat    = "Invalid CRM command format"
	invalidMemoryFormat = "Invalid memory command format"
	noDataFound         = "No data found"
)

// handleCRMCommand parses "crm: field = value" (update) or "crm: field"
// (lookup). Malformed input resolves to a user-visible error string, never
// to an error.
func (s *Service) handleCRMCommand(ctx context.Context, identity, text string) (string, error) {
	_, command, ok := strings.Cut(text, ":")
	if !ok {
		return invalidCRMFormat, nil
	}

	if field, value, hasValue := strings.Cut(command, "="); hasValue {
		field = strings.TrimSpace(field)
		value = strings.TrimSpace(value)
		if field == "" {
			return invalidCRMFormat, nil
		}
		if err := s.updateCRMField(ctx, identity, field, value); err != nil {
			return "", err
		}
		return fmt.Sprintf("Updated CRM: %s = %s", field, value), nil
	}

	field := strings.TrimSpace(command)
	if field == "" {
		return invalidCRMFormat, nil
	}
	rec, err := s.store.Get(ctx, identity)
	if err != nil {
		return "", fmt.Errorf("load user: %w", err)
	}
	if rec == nil {
		return noDataFound, nil
	}
	value, ok := rec.CRMFields[field]
	if !ok {
		return noDataFound, nil
	}
	return fmt.Sprintf("CRM Data: %s", value), nil
}

// handleMemoryCommand parses "remember: key = value". Malformed input
// resolves to a user-visible error string, never to an error.
func (s *Service) handleMemoryCommand(ctx context.Context, identity, text string) (string, error) {
	_, keyValue, ok := strings.Cut(text, ":")
	if !ok {
		return invalidMemoryFormat, nil
	}

	key, value, hasValue := strings.Cut(keyValue, "=")
	if !hasValue {
		return invalidMemoryFormat, nil
	}
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)
	if key == "" {
		return invalidMemoryFormat, nil
	}

	if err := s.updateMemory(ctx, identity, key, value); err != nil {
		return "", err
	}
	return fmt.Sprintf("Remembered: %s = %s", key, value), nil
}
