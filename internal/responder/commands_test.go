package responder

import (
	"context"
	"testing"
)

func TestCRMCommandRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	reply, err := svc.HandleMessage(ctx, "+1", "crm: city = Lagos")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if reply != "Updated CRM: city = Lagos" {
		t.Errorf("unexpected update reply: %q", reply)
	}

	reply, err = svc.HandleMessage(ctx, "+1", "crm: city")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if reply != "CRM Data: Lagos" {
		t.Errorf("unexpected lookup reply: %q", reply)
	}
}

func TestMemoryCommandRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	reply, err := svc.HandleMessage(ctx, "+1", "remember: favorite_color = blue")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if reply != "Remembered: favorite_color = blue" {
		t.Errorf("unexpected reply: %q", reply)
	}

	v, ok, err := svc.Memory(ctx, "+1", "favorite_color")
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	if !ok || v != "blue" {
		t.Errorf("expected blue, got %q (ok=%v)", v, ok)
	}
}

func TestCommandGrammar(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"crm lookup missing field", "crm: country", "No data found"},
		{"crm empty body", "crm:", "Invalid CRM command format"},
		{"crm whitespace body", "crm:   ", "Invalid CRM command format"},
		{"crm empty field with value", "crm: = Lagos", "Invalid CRM command format"},
		{"crm value keeps later equals", "crm: note = a = b", "Updated CRM: note = a = b"},
		{"memory missing equals", "remember: just words", "Invalid memory command format"},
		{"memory empty body", "remember:", "Invalid memory command format"},
		{"memory empty key", "remember: = blue", "Invalid memory command format"},
		{"memory empty value ok", "remember: nickname =", "Remembered: nickname = "},
		{"prefix must be literal", " crm: city", DefaultReply},
		{"unrelated text", "hello there", DefaultReply},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			svc, _ := newTestService(t)
			got, err := svc.HandleMessage(ctx, "+1", tt.text)
			if err != nil {
				t.Fatalf("handle: %v", err)
			}
			if got != tt.want {
				t.Errorf("HandleMessage(%q) = %q, want %q", tt.text, got, tt.want)
			}
			if got == "" {
				t.Error("reply must never be empty")
			}
		})
	}
}

func TestCRMLookupUnknownIdentity(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)

	reply, err := svc.HandleMessage(ctx, "+404", "crm: city")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if reply != "No data found" {
		t.Errorf("expected no-data reply, got %q", reply)
	}
	// The lookup itself must not create the record; only the audit log
	// grows.
	rec, _ := st.Get(ctx, "+404")
	if rec != nil {
		t.Error("lookup created a record")
	}
}
