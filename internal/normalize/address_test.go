package normalize

import "testing"

func TestCanonical(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"123 Main Street", "123 MAIN ST"},
		{"456 North Saint Avenue", "456 N ST AVE"},
		{"789 W. Fort Boulevard #4", "789 W FT BLVD APT 4"},
		{"", ""},
		{"100  Oak   Drive", "100 OAK DR"},
	}
	for _, c := range cases {
		if got := Canonical(c.in); got != c.want {
			t.Errorf("Canonical(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestCanonical_SaintBeforeStreet(t *testing.T) {
	// SAINT must become ST before STREET does, or "SAINT STREET" collides.
	got := Canonical("1 Saint Street")
	if got != "1 ST ST" {
		t.Errorf("Canonical(saint street) = %q, want %q", got, "1 ST ST")
	}
}

func TestNormalizeState(t *testing.T) {
	cases := map[string]string{
		"California": "CA",
		"ca":         "CA",
		"CA":         "CA",
		"New York":   "NY",
		"":           "",
		"Atlantis":   "ATLANTIS",
	}
	for in, want := range cases {
		if got := NormalizeState(in); got != want {
			t.Errorf("NormalizeState(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestVariants_DedupesAndCaps(t *testing.T) {
	parts := AddressParts{
		AddressLine: "123 Main St Apt 4",
		City:        "Springfield",
		State:       "IL",
		ZipCode:     "62704",
	}
	variants := Variants(parts)
	if len(variants) == 0 {
		t.Fatal("expected at least one variant")
	}
	if len(variants) > 3 {
		t.Fatalf("expected at most 3 variants, got %d", len(variants))
	}
	seen := make(map[string]bool)
	for _, v := range variants {
		if seen[v] {
			t.Errorf("duplicate variant %q", v)
		}
		seen[v] = true
	}
}

func TestVariants_EmptyZipSkipsSimplifiedForm(t *testing.T) {
	parts := AddressParts{AddressLine: "123 Main St", City: "Springfield", State: "IL"}
	variants := Variants(parts)
	if len(variants) != 1 {
		t.Fatalf("expected exactly 1 variant with no zip and no unit token, got %d: %v", len(variants), variants)
	}
}
