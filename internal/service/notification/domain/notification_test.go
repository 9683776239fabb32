package domain

import (
	"testing"
	"time"

	"github.com/pkg/errors"

	"sportshub/internal/pkg/apperr"
	"sportshub/internal/pkg/events"
)

func event(typ events.NotificationType, prio events.Priority) events.Notification {
	e := events.New("user", "u-1", typ, "Booking confirmed", "See you on the field")
	e.Priority = prio
	return e
}

func TestFromEvent(t *testing.T) {
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	e := event(events.TypeBookingConfirmation, "")
	e.OccurredAt = now
	n, err := FromEvent(e, 24*time.Hour, now)
	if err != nil {
		t.Fatal(err)
	}
	if n.ID != e.EventID || n.Recipient.Key() != "user:u-1" || n.Priority != events.PriorityNormal {
		t.Fatalf("unexpected notification %+v", n)
	}
	if n.ExpiresAt == nil || !n.ExpiresAt.Equal(now.Add(24*time.Hour)) {
		t.Fatalf("default ttl not applied: %v", n.ExpiresAt)
	}
	if n.Expired(now.Add(time.Hour)) || !n.Expired(now.Add(25*time.Hour)) {
		t.Fatal("expiry window wrong")
	}

	e.RecipientType = "robot"
	if _, err := FromEvent(e, 0, now); !errors.Is(err, ErrInvalidRecipient) {
		t.Fatalf("expected invalid recipient, got %v", err)
	}
	e = event(events.TypeNewRequest, "urgent")
	if _, err := FromEvent(e, 0, now); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation for bad priority, got %v", err)
	}
	e.EventID = ""
	if _, err := FromEvent(e, 0, now); !errors.Is(err, ErrEventIDRequired) {
		t.Fatalf("expected event id required, got %v", err)
	}
}

func TestMarkRead(t *testing.T) {
	n, _ := FromEvent(event(events.TypeNewRequest, events.PriorityLow), 0, time.Now())
	if err := n.MarkRead(Recipient{Kind: RecipientUser, ID: "u-2"}, time.Now()); !errors.Is(err, ErrNotRecipient) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if err := n.MarkRead(n.Recipient, time.Now()); err != nil || !n.IsRead || n.ReadAt == nil {
		t.Fatalf("mark read failed: %v", err)
	}
	first := *n.ReadAt
	n.MarkRead(n.Recipient, time.Now().Add(time.Hour))
	if !n.ReadAt.Equal(first) {
		t.Fatal("marking twice must keep the first read time")
	}
}

func TestChannelRouter(t *testing.T) {
	router, err := NewChannelRouter([]ChannelRule{
		{Channel: ChannelRealtime, Expr: "true"},
		{Channel: ChannelPush, Expr: `notification.priority == "high" || notification.type in ["booking_confirmation", "booking_rejection"]`},
		{Channel: ChannelPush, Expr: `notification.recipientType == "supplier"`},
	})
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		e    events.Notification
		push bool
	}{
		{event(events.TypeNewRequest, events.PriorityLow), false},
		{event(events.TypeNewRequest, events.PriorityHigh), true},
		{event(events.TypeBookingRejection, events.PriorityNormal), true},
	}
	for _, c := range cases {
		n, _ := FromEvent(c.e, 0, time.Now())
		chans, err := router.Route(n)
		if err != nil {
			t.Fatal(err)
		}
		hasPush := len(chans) == 2 && chans[1] == ChannelPush
		if chans[0] != ChannelRealtime || hasPush != c.push {
			t.Errorf("%s/%s: unexpected channels %v", c.e.Type, c.e.Priority, chans)
		}
	}

	supplierEvent := events.New("supplier", "s-1", events.TypePromotionActivated, "Promotion live", "")
	n, _ := FromEvent(supplierEvent, 0, time.Now())
	chans, _ := router.Route(n)
	if len(chans) != 2 {
		t.Fatalf("supplier notifications go to push once, got %v", chans)
	}
}

func TestChannelRouterRejectsBadRules(t *testing.T) {
	bad := [][]ChannelRule{
		{{Channel: "sms", Expr: "true"}},
		{{Channel: ChannelPush, Expr: "notification.priority =="}},
		{{Channel: ChannelPush, Expr: `"not a bool"`}},
	}
	for _, rules := range bad {
		if _, err := NewChannelRouter(rules); err == nil {
			t.Errorf("expected %v to be rejected", rules)
		}
	}
}
