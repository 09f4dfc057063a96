package enums

import "testing"

func TestParsePlatformCaseInsensitive(t *testing.T) {
	p, err := ParsePlatform(" PlayStation ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != PlatformPlayStation {
		t.Fatalf("expected playstation, got %q", p)
	}
	if _, err := ParsePlatform("dreamcast"); err == nil {
		t.Fatal("expected error for unknown platform")
	}
}

func TestParseGenre(t *testing.T) {
	g, err := ParseGenre("RPG")
	if err != nil || g != GenreRPG {
		t.Fatalf("expected rpg, got %q (%v)", g, err)
	}
	if Genre("opera").IsValid() {
		t.Fatal("opera should not be a valid genre")
	}
}

func TestCardBrandValues(t *testing.T) {
	for _, b := range []CardBrand{CardBrandVisa, CardBrandMastercard, CardBrandAmex, CardBrandUnknown} {
		parsed, err := ParseCardBrand(b.String())
		if err != nil || parsed != b {
			t.Fatalf("round trip failed for %q", b)
		}
	}
	if CardBrand("Discover").IsValid() {
		t.Fatal("Discover is not a detected brand")
	}
}

func TestParseCartAction(t *testing.T) {
	a, err := ParseCartAction("Remove")
	if err != nil || a != CartActionRemove {
		t.Fatalf("expected remove, got %q (%v)", a, err)
	}
	if _, err := ParseCartAction("wishlist"); err == nil {
		t.Fatal("expected error for unknown action")
	}
}

func TestOutboxEnums(t *testing.T) {
	if !EventOrderCreated.IsValid() || !AggregateOrder.IsValid() {
		t.Fatal("order event and aggregate should be valid")
	}
	if _, err := ParseOutboxEventType("order_paid"); err == nil {
		t.Fatal("expected error for unknown event")
	}
}
