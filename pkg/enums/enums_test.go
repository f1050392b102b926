package enums

import "testing"

func TestParseOrderStatus(t *testing.T) {
	for _, raw := range []string{"pending", "paid", "shipped"} {
		status, err := ParseOrderStatus(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if !status.IsValid() || status.String() != raw {
			t.Fatalf("unexpected status %q", status)
		}
	}
	if _, err := ParseOrderStatus("PAID"); err == nil {
		t.Fatal("expected case-sensitive parse to fail")
	}
}

func TestShippingMethod(t *testing.T) {
	if DefaultShippingMethod != ShippingMethodPickup {
		t.Fatalf("expected pickup default, got %s", DefaultShippingMethod)
	}
	if !ShippingMethodPickup.RequiresPickupPoint() || ShippingMethodAddress.RequiresPickupPoint() {
		t.Fatal("only pickup delivery requires a pickup point")
	}
	if _, err := ParseShippingMethod("courier"); err == nil {
		t.Fatal("expected unknown method to fail")
	}
}

func TestPaymentStateClassification(t *testing.T) {
	cases := map[PaymentState][2]bool{
		PaymentStateSucceeded:      {true, false},
		PaymentStateProcessing:     {false, true},
		PaymentStateRequiresAction: {false, true},
		PaymentStateFailed:         {false, false},
	}
	for state, want := range cases {
		if state.Settled() != want[0] || state.Outstanding() != want[1] {
			t.Fatalf("%s: settled=%v outstanding=%v", state, state.Settled(), state.Outstanding())
		}
	}
}

func TestPlacementAndSegmentParsing(t *testing.T) {
	if _, err := ParsePlacementStatus("initiated"); err != nil {
		t.Fatalf("parse initiated: %v", err)
	}
	if _, err := ParsePlacementStatus("done"); err == nil {
		t.Fatal("expected invalid placement status")
	}
	if _, err := ParseNewsletterSegment("kids"); err != nil {
		t.Fatalf("parse kids: %v", err)
	}
	if NewsletterSegment("pets").IsValid() {
		t.Fatal("pets is not a segment")
	}
}

func TestOutboxEnums(t *testing.T) {
	if !EventLoyaltyCodeIssued.IsValid() || OutboxEventType("x").IsValid() {
		t.Fatal("unexpected event type validity")
	}
	if _, err := ParseOutboxAggregateType("user"); err != nil {
		t.Fatalf("parse user aggregate: %v", err)
	}
}
