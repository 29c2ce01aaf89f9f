package dtos

import "testing"

func TestParseMessageType(t *testing.T) {
	tests := []struct {
		in   string
		want MessageType
	}{
		{"Authorization", MessageAuthorization},
		{"AuthorizationNotification", MessageAuthorization},
		{"capturenotification", MessageCapture},
		{" Refund ", MessageRefund},
		{"OrderReferenceNotification", MessageType("OrderReferenceNotification")},
		{"", MessageType("")},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseMessageType(tt.in); got != tt.want {
				t.Errorf("ParseMessageType(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMessageTypeKnown(t *testing.T) {
	if !MessageRefund.Known() {
		t.Error("Refund should be known")
	}
	if MessageType("ChargebackNotification").Known() {
		t.Error("Chargeback should not be known")
	}
}

func TestNotificationSummaryAdd(t *testing.T) {
	s := NewNotificationSummary()
	s.Add(InboxEntry{MessageType: MessageCapture, Status: "matched"})
	s.Add(InboxEntry{MessageType: MessageCapture, Status: "matched"})
	s.Add(InboxEntry{MessageType: MessageRefund, Status: "not_found"})

	if s.Total != 3 {
		t.Errorf("Total = %d, want 3", s.Total)
	}
	if s.ByType["Capture"]["matched"] != 2 {
		t.Errorf("Capture matched = %d, want 2", s.ByType["Capture"]["matched"])
	}
	if s.ByType["Refund"]["not_found"] != 1 {
		t.Errorf("Refund not_found = %d, want 1", s.ByType["Refund"]["not_found"])
	}
}
