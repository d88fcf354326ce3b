package bagit

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Version is a BagIt-Version pair.
type Version struct {
	Major int
	Minor int
}

func (v Version) String() string { return fmt.Sprintf("%d.%d", v.Major, v.Minor) }

// DefaultVersion is the version Create installs: 1.0.
var DefaultVersion = Version{Major: 1, Minor: 0}

// Declaration is the parsed form of bagit.txt: the bag version and
// the declared tag-file character encoding.
type Declaration struct {
	Version  Version
	Encoding string
}

var versionLineRe = regexp.MustCompile(`^BagIt-Version:\s*(\d+)\.(\d+)\s*$`)
var encodingLineRe = regexp.MustCompile(`^Tag-File-Character-Encoding:\s*(.+?)\s*$`)

// WriteDeclaration writes bagit.txt under bagRoot. bagit.txt is always
// written as UTF-8, irrespective of the bag's declared tag-file
// encoding: this is a hard RFC 8493 requirement and the classic
// implementation pitfall spec.md §9 calls out.
func WriteDeclaration(bagRoot string, d Declaration) error {
	body := fmt.Sprintf("BagIt-Version: %s\nTag-File-Character-Encoding: %s\n",
		d.Version, d.Encoding)
	path := MakeAbsolute(bagRoot, "bagit.txt")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		return fsErr("write", path, err)
	}
	return nil
}

// LoadDeclaration reads and parses bagit.txt. The file must contain
// exactly two non-empty lines matching the BagIt-Version and
// Tag-File-Character-Encoding grammar; any deviation is a load error.
func LoadDeclaration(bagRoot string) (Declaration, error) {
	path := MakeAbsolute(bagRoot, "bagit.txt")
	raw, err := os.ReadFile(path)
	if err != nil {
		return Declaration{}, fsErr("read", path, err)
	}
	text := strings.ReplaceAll(string(raw), "\r\n", "\n")
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) != 2 {
		return Declaration{}, bagErr("bagit.txt must contain exactly two non-empty lines, found %d", len(lines))
	}
	vm := versionLineRe.FindStringSubmatch(lines[0])
	if vm == nil {
		return Declaration{}, bagErr("bagit.txt: could not parse BagIt-Version line %q", lines[0])
	}
	em := encodingLineRe.FindStringSubmatch(lines[1])
	if em == nil {
		return Declaration{}, bagErr("bagit.txt: could not parse Tag-File-Character-Encoding line %q", lines[1])
	}
	major, _ := strconv.Atoi(vm[1])
	minor, _ := strconv.Atoi(vm[2])
	return Declaration{
		Version:  Version{Major: major, Minor: minor},
		Encoding: em[1],
	}, nil
}
