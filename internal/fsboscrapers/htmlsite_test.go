package fsboscrapers

import "testing"

func TestHtmlFSBOSite_Resolve(t *testing.T) {
	s := &htmlFSBOSite{baseURL: "https://www.fsbo.com"}

	cases := map[string]string{
		"https://www.fsbo.com/listing/123": "https://www.fsbo.com/listing/123",
		"/listing/123":                     "https://www.fsbo.com/listing/123",
		"listing/123":                      "https://www.fsbo.com/listing/123",
	}
	for in, want := range cases {
		if got := s.resolve(in); got != want {
			t.Errorf("resolve(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHtmlFSBOSite_ExtractURLsFromNextData(t *testing.T) {
	s := &htmlFSBOSite{
		baseURL:      "https://www.fsbo.com",
		jsonURLMatch: func(v string) bool { return len(v) > 9 && v[:9] == "/listing/" },
	}
	raw := `{"props":{"listings":[{"url":"/listing/111"},{"url":"/listing/222"},{"other":"nope"}]}}`
	urls := s.extractURLsFromNextData(raw)
	if len(urls) != 2 {
		t.Fatalf("len(urls) = %d, want 2: %v", len(urls), urls)
	}
	if urls[0] != "https://www.fsbo.com/listing/111" || urls[1] != "https://www.fsbo.com/listing/222" {
		t.Errorf("urls = %v", urls)
	}
}

func TestHtmlFSBOSite_ExtractURLsFromNextData_InvalidJSON(t *testing.T) {
	s := &htmlFSBOSite{baseURL: "https://www.fsbo.com", jsonURLMatch: func(string) bool { return true }}
	if got := s.extractURLsFromNextData("not json"); got != nil {
		t.Errorf("expected nil for invalid JSON, got %v", got)
	}
}
