package models

import (
	"encoding/json"
	"testing"
)

func TestPartyResolution(t *testing.T) {
	label := PartyFromLabel("John Doe")
	if label.ID() != "John Doe" || label.Name() != "John Doe" {
		t.Errorf("label party resolved to %q / %q", label.ID(), label.Name())
	}

	ref := PartyFromUser(User{ID: "u1", DisplayName: "Jane Doe"})
	if ref.ID() != "u1" || ref.Name() != "Jane Doe" {
		t.Errorf("user party resolved to %q / %q", ref.ID(), ref.Name())
	}

	// A reference missing id or display name falls back rather than
	// resolving to empty strings.
	anon := PartyFromUser(User{})
	if anon.ID() != "unknown" || anon.Name() != "Unnamed" {
		t.Errorf("anonymous reference resolved to %q / %q", anon.ID(), anon.Name())
	}
}

func TestPartyWireShapes(t *testing.T) {
	var d Debt
	raw := `{"_id":"1","debtor":"John Doe","creditor":{"_id":"u1","displayName":"Jane Doe"},"amount":10,"description":"x","debtDate":"2025-01-01","status":"unpaid"}`
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d.Debtor.User != nil || d.Debtor.Label != "John Doe" {
		t.Errorf("debtor = %+v", d.Debtor)
	}
	if d.Creditor.User == nil || d.Creditor.User.ID != "u1" {
		t.Errorf("creditor = %+v", d.Creditor)
	}

	out, err := json.Marshal(d.Debtor)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `"John Doe"` {
		t.Errorf("label party marshaled as %s", out)
	}
}

func TestInvolves(t *testing.T) {
	d := Debt{
		Debtor:   PartyFromLabel("John"),
		Creditor: PartyFromUser(User{ID: "u1"}),
	}
	if !d.Involves("u1") || !d.Involves("John") {
		t.Error("parties not recognized")
	}
	if d.Involves("u2") {
		t.Error("stranger recognized as party")
	}
}
