// +build !partners cgo

package bagit

import (
	"regexp"

	"github.com/rakyll/magicmime"
)

// magicMime is the libmagic database; only one copy is ever opened.
var magicMime *magicmime.Magic

var validMimeType = regexp.MustCompile(`^\w+/\w+$`)

// GuessMimeType sniffs the content type of the file at absPath. This
// is purely informational: results are recorded on Bag.MimeTypes and
// never affect validity or manifest content. A sniff failure or an
// implausible result falls back to "application/octet-stream" rather
// than propagating an error, since a bad guess must never block
// Update.
func GuessMimeType(absPath string) string {
	var err error
	if magicMime == nil {
		magicMime, err = magicmime.New()
		if err != nil {
			return "application/octet-stream"
		}
	}
	guessed, err := magicMime.TypeByFile(absPath)
	if err != nil || guessed == "" || !validMimeType.MatchString(guessed) {
		return "application/octet-stream"
	}
	return guessed
}
