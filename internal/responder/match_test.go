package responder

import (
	"context"
	"testing"

	"replybot/internal/model"
)

func record(triggers ...string) *model.UserRecord {
	rec := &model.UserRecord{ReplyRules: make(map[string]model.ReplyRule)}
	for _, trig := range triggers {
		rec.ReplyRules[model.RuleID(trig)] = model.ReplyRule{Trigger: trig, Response: "r:" + trig}
	}
	return rec
}

func TestBestMatch(t *testing.T) {
	tests := []struct {
		name     string
		triggers []string
		message  string
		want     string // winning trigger, "" for no match
	}{
		{"exact", []string{"hi"}, "hi", "hi"},
		{"substring", []string{"order"}, "what is my order status", "order"},
		{"case insensitive message", []string{"hi"}, "HI THERE", "hi"},
		{"case insensitive trigger", []string{"Hi"}, "hi there", "Hi"},
		{"no match", []string{"order"}, "hello", ""},
		{"no rules", nil, "hello", ""},
		{"longest trigger wins", []string{"order", "order status"}, "what is my order status", "order status"},
		{"overlap picks longer", []string{"hi", "hi there"}, "well hi there friend", "hi there"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := record(tt.triggers...)
			id, ok := bestMatch(rec, tt.message)
			if tt.want == "" {
				if ok {
					t.Fatalf("expected no match, got rule %q", rec.ReplyRules[id].Trigger)
				}
				return
			}
			if !ok {
				t.Fatal("expected a match")
			}
			if got := rec.ReplyRules[id].Trigger; got != tt.want {
				t.Errorf("expected trigger %q to win, got %q", tt.want, got)
			}
		})
	}
}

func TestBestMatchTieBreakIsDeterministic(t *testing.T) {
	// Two triggers of equal length that both match; the lexically smaller
	// rule id must win, every time.
	rec := record("abc", "xyz")
	wantID := model.RuleID("abc")
	if model.RuleID("xyz") < wantID {
		wantID = model.RuleID("xyz")
	}

	for i := 0; i < 50; i++ {
		id, ok := bestMatch(rec, "abc and xyz together")
		if !ok {
			t.Fatal("expected a match")
		}
		if id != wantID {
			t.Fatalf("tie-break not deterministic: got %q, want %q", id, wantID)
		}
	}
}

func TestMatchTrainedPersistsUsage(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)

	if _, err := svc.Train(ctx, "+1", "order", "shipped"); err != nil {
		t.Fatalf("train: %v", err)
	}

	reply, matched, err := svc.matchTrained(ctx, "+1", "what is my ORDER status")
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if !matched || reply != "shipped" {
		t.Fatalf("expected match with shipped, got %q (matched=%v)", reply, matched)
	}

	rec, err := st.Get(ctx, "+1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got := rec.ReplyRules[model.RuleID("order")].UsageCount; got != 1 {
		t.Errorf("expected persisted usage count 1, got %d", got)
	}
}

func TestMatchTrainedAbsentUser(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)

	_, matched, err := svc.matchTrained(ctx, "+404", "hi")
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if matched {
		t.Error("expected no match for unknown identity")
	}
	rec, _ := st.Get(ctx, "+404")
	if rec != nil {
		t.Error("matching created a record")
	}
}
