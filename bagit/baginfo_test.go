package bagit_test

import (
	"strings"
	"testing"

	"github.com/APTrust/bagittools/bagit"
)

func TestBagInfoAddAndValue(t *testing.T) {
	bi := bagit.NewBagInfo()
	if err := bi.Add("Source-Organization", "Example University"); err != nil {
		t.Fatal(err)
	}
	if bi.Value("source-organization") != "Example University" {
		t.Errorf("expected case-insensitive lookup to find the value")
	}
}

func TestBagInfoRejectsAutoGeneratedTag(t *testing.T) {
	bi := bagit.NewBagInfo()
	if err := bi.Add("Payload-Oxum", "100.2"); err == nil {
		t.Errorf("expected Payload-Oxum to be rejected")
	}
}

func TestBagInfoSetGeneratedInstallsPayloadOxum(t *testing.T) {
	bi := bagit.NewBagInfo()
	if err := bi.AddAll([]bagit.TagLine{}); err != nil {
		t.Fatal(err)
	}
	bi.SetGenerated(100, 2)
	if !bi.Has("Payload-Oxum") {
		t.Fatal("expected SetGenerated to install Payload-Oxum")
	}
}

func TestParseBagInfoContinuationLine(t *testing.T) {
	text := "Source-Organization: Example\n  University\n"
	bi, problems := bagit.ParseBagInfo(text, 1, 0)
	if len(problems) != 0 {
		t.Fatalf("unexpected problems: %v", problems)
	}
	got := bi.Value("Source-Organization")
	if got != "Example\nUniversity" {
		t.Errorf("got %q", got)
	}
}

func TestParseBagInfoRejectsPaddedTagLabel(t *testing.T) {
	text := "Source-Organization  : Example University\n"
	_, problems := bagit.ParseBagInfo(text, 1, 0)
	found := false
	for _, p := range problems {
		if strings.Contains(p.Message, "must not begin or end with whitespace") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a whitespace-padded-label problem, got %v", problems)
	}
}

func TestParseBagInfoFirstLineLeadingWhitespaceLabel(t *testing.T) {
	text := "  Source-Organization: Example University\n"
	_, problems := bagit.ParseBagInfo(text, 1, 0)
	found := false
	for _, p := range problems {
		if strings.Contains(p.Message, "must not begin or end with whitespace") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a whitespace-padded-label problem for a leading-whitespace first line, got %v", problems)
	}
}

func TestParseBagInfoShouldNotRepeatWarns(t *testing.T) {
	text := "Bag-Count: 1 of 2\nBag-Count: 2 of 2\n"
	_, problems := bagit.ParseBagInfo(text, 1, 0)
	found := false
	for _, p := range problems {
		if strings.Contains(p.Message, "should not be repeated") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a should-not-repeat problem, got %v", problems)
	}
}

func TestPayloadOxum(t *testing.T) {
	bytes, count, err := bagit.PayloadOxum("12345.6")
	if err != nil {
		t.Fatal(err)
	}
	if bytes != 12345 || count != 6 {
		t.Errorf("got bytes=%d count=%d", bytes, count)
	}
	if _, _, err := bagit.PayloadOxum("not-an-oxum"); err == nil {
		t.Errorf("expected error for malformed Payload-Oxum")
	}
}
