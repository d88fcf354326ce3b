package bagit_test

import (
	"testing"

	"github.com/APTrust/bagittools/bagit"
)

func TestCanonicalize(t *testing.T) {
	cases := map[string]string{
		"a/b/../c":  "a/c",
		"./a/./b":   "a/b",
		"/a/../../b": "/b",
		"a\\b\\c":   "a/b/c",
	}
	for in, want := range cases {
		got := bagit.Canonicalize(in)
		if got != want {
			t.Errorf("Canonicalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMakeAbsoluteAndRelative(t *testing.T) {
	root := "/bags/mybag"
	abs := bagit.MakeAbsolute(root, "data/file.txt")
	if abs != "/bags/mybag/data/file.txt" {
		t.Errorf("MakeAbsolute = %q", abs)
	}
	rel := bagit.MakeRelative(root, abs)
	if rel != "data/file.txt" {
		t.Errorf("MakeRelative = %q", rel)
	}
	if bagit.MakeRelative(root, "/somewhere/else") != "" {
		t.Errorf("expected empty string for path outside root")
	}
}

func TestIsInsideData(t *testing.T) {
	if !bagit.IsInsideData("data/a/b.txt") {
		t.Errorf("expected data/a/b.txt to be inside data/")
	}
	if bagit.IsInsideData("bag-info.txt") {
		t.Errorf("expected bag-info.txt to not be inside data/")
	}
}

func TestDecodePathField(t *testing.T) {
	got, err := bagit.DecodePathField("a%0Ab%0Dc%25d")
	if err != nil {
		t.Fatal(err)
	}
	want := "a\nb\rc%d"
	if got != want {
		t.Errorf("DecodePathField = %q, want %q", got, want)
	}
	if _, err := bagit.DecodePathField("a%zzb"); err == nil {
		t.Errorf("expected error for unrecognized percent-encoding")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	original := "weird\nname\rwith%percent.txt"
	encoded := bagit.EncodePathField(original)
	decoded, err := bagit.DecodePathField(encoded)
	if err != nil {
		t.Fatal(err)
	}
	if decoded != original {
		t.Errorf("round trip = %q, want %q", decoded, original)
	}
}
