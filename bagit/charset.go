package bagit

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
)

// acceptedCharsets is the fixed set spec.md §6 enumerates. Tag-File-
// Character-Encoding must be one of these for this library to accept
// it without reservation; anything else is recorded into the bag as-is
// (per Declaration semantics) but will likely fail to decode later.
var acceptedCharsets = map[string]bool{
	"UTF-8": true, "UTF-16": true, "US-ASCII": true,
	"ISO-8859-1": true, "ISO-8859-2": true, "ISO-8859-3": true,
	"ISO-8859-4": true, "ISO-8859-5": true, "ISO-8859-6": true,
	"ISO-8859-7": true, "ISO-8859-8": true, "ISO-8859-9": true,
	"ISO-8859-10": true, "Shift_JIS": true, "EUC-JP": true,
	"ISO-2022-KR": true, "EUC-KR": true, "ISO-2022-JP": true,
	"ISO-2022-JP-2": true, "ISO-8859-6-E": true, "ISO-8859-6-I": true,
	"ISO-8859-8-E": true, "ISO-8859-8-I": true, "GB2312": true,
	"Big5": true, "KOI8-R": true,
}

// IsAcceptedCharset reports whether name is one of the MIME charsets
// spec.md §6 enumerates, matched case-insensitively.
func IsAcceptedCharset(name string) bool {
	for accepted := range acceptedCharsets {
		if strings.EqualFold(accepted, name) {
			return true
		}
	}
	return false
}

// charsetOverrides maps accepted names straight to a codec, ahead of
// golang.org/x/text's htmlindex. The -E/-I 8859-6/8859-8 visual/logical
// variants and ISO-2022-JP-2 have no distinct x/text codec and use
// their base encoding; GB2312 uses GBK, its superset.
var charsetOverrides = map[string]encoding.Encoding{
	"iso-8859-6-e": charmap.ISO8859_6,
	"iso-8859-6-i": charmap.ISO8859_6,
	"iso-8859-8-e": charmap.ISO8859_8,
	"iso-8859-8-i": charmap.ISO8859_8,
	"iso-2022-jp-2": japanese.ISO2022JP,
	"iso-2022-jp":   japanese.ISO2022JP,
	"iso-2022-kr":   korean.EUCKR, // x/text has no ISO-2022-KR codec; EUC-KR is the closest available transcoder.
	"shift_jis":     japanese.ShiftJIS,
	"euc-jp":        japanese.EUCJP,
	"euc-kr":        korean.EUCKR,
	"gb2312":        simplifiedchinese.GBK,
	"big5":          traditionalchinese.Big5,
	"koi8-r":        charmap.KOI8R,
	"us-ascii":      unicode.UTF8, // ASCII is a subset of UTF-8; bytes round-trip identically.
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	key := strings.ToLower(name)
	if enc, ok := charsetOverrides[key]; ok {
		return enc, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, bagErrWrap(err, "unrecognized character set %q", name)
	}
	return enc, nil
}

// DecodeText converts bytes in charsetName into UTF-8 text.
func DecodeText(data []byte, charsetName string) (string, error) {
	enc, err := lookupEncoding(charsetName)
	if err != nil {
		return "", err
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", bagErrWrap(err, "decoding text as %q", charsetName)
	}
	return string(out), nil
}

// EncodeText converts UTF-8 text into charsetName's byte encoding.
func EncodeText(text, charsetName string) ([]byte, error) {
	enc, err := lookupEncoding(charsetName)
	if err != nil {
		return nil, err
	}
	out, err := enc.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, bagErrWrap(err, "encoding text as %q", charsetName)
	}
	return out, nil
}
