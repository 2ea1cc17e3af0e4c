package main

import "testing"

func TestWithoutExt(t *testing.T) {
	cases := map[string]string{
		"properties.csv":          "properties",
		"data/in/properties.csv":  "data/in/properties",
		"no-extension":            "no-extension",
		"dir.with.dots/file.csv":  "dir.with.dots/file",
		"/abs/path/file.tar.gz":   "/abs/path/file.tar",
	}
	for in, want := range cases {
		if got := withoutExt(in); got != want {
			t.Errorf("withoutExt(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDeriveOutputPath(t *testing.T) {
	if got := deriveOutputPath("properties.csv"); got != "properties_results.zip" {
		t.Errorf("deriveOutputPath = %q, want %q", got, "properties_results.zip")
	}
	if got := deriveOutputPath("data/in/properties.csv"); got != "data/in/properties_results.zip" {
		t.Errorf("deriveOutputPath = %q, want %q", got, "data/in/properties_results.zip")
	}
}
