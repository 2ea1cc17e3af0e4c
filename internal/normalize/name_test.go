package normalize

import "testing"

func TestNamesMatch_ExactAfterNormalization(t *testing.T) {
	if !NamesMatch("John Smith, Jr.", "john smith") {
		t.Error("expected designation-suffixed name to match its plain form")
	}
}

func TestNamesMatch_FuzzyTypo(t *testing.T) {
	if !NamesMatch("Jonathan Smith", "Jonathon Smith") {
		t.Error("expected a one-letter typo to match above the 85 threshold")
	}
}

func TestNamesMatch_Different(t *testing.T) {
	if NamesMatch("John Smith", "Jane Doe") {
		t.Error("expected unrelated names not to match")
	}
}

func TestNamesMatch_EmptyInputs(t *testing.T) {
	if NamesMatch("", "John Smith") {
		t.Error("expected empty name never to match")
	}
	if NamesMatch("John Smith", "") {
		t.Error("expected empty name never to match")
	}
}

func TestCleanName_StripsLicenseSuffix(t *testing.T) {
	got := CleanName("JANE DOE DRE#01234567")
	if got != "Jane Doe" {
		t.Errorf("CleanName = %q, want %q", got, "Jane Doe")
	}
}

func TestNormalizeBrokerage_ExpandsAliasAndStripsSuffix(t *testing.T) {
	got := NormalizeBrokerage("KW Realty Group LLC")
	if got != "KELLER WILLIAMS REALTY" {
		t.Errorf("NormalizeBrokerage = %q, want %q", got, "KELLER WILLIAMS REALTY")
	}
}
