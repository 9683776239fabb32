package listing

import (
	"testing"

	"sportshub/internal/pkg/apperr"
)

func TestNewRef(t *testing.T) {
	r, err := NewRef("Coach", " c-1 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Kind != KindCoach || r.ID != "c-1" {
		t.Fatalf("unexpected ref %+v", r)
	}
	if r.String() != "coach:c-1" {
		t.Fatalf("unexpected string %q", r.String())
	}

	if _, err := NewRef("stadium", "x"); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error for unknown kind, got %v", err)
	}
	if _, err := NewRef("turf", ""); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error for empty id, got %v", err)
	}
}

func TestValidateAgainstKindSets(t *testing.T) {
	ground := Ref{Kind: KindGround, ID: "g-1"}
	if err := ground.Validate(SlotParentKinds); err != nil {
		t.Fatalf("ground is a slot parent: %v", err)
	}
	if err := ground.Validate(ServiceKinds); err == nil {
		t.Fatal("ground cannot be promoted")
	}
	academy := Ref{Kind: KindAcademy, ID: "a-1"}
	if err := academy.Validate(SlotParentKinds); err == nil {
		t.Fatal("academy cannot hold slots directly")
	}
	for k := range tables {
		if _, ok := Table(k); !ok {
			t.Fatalf("kind %s has no table", k)
		}
	}
}
