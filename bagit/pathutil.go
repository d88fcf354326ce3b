package bagit

import (
	"strings"
)

// Standardize replaces backslashes with forward slashes so that every
// path comparison inside this package can assume forward-slash form,
// regardless of what platform produced the path.
func Standardize(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

// Canonicalize resolves "." and ".." segments in a standardized path
// without touching the filesystem. A leading "/" is preserved; a
// Windows drive letter (e.g. "C:") is preserved as the first segment.
// A ".." that would climb above a rooted path is simply dropped
// (clamped), never allowed to escape.
func Canonicalize(p string) string {
	p = Standardize(p)
	rooted := strings.HasPrefix(p, "/")
	var drive string
	if len(p) >= 2 && p[1] == ':' && isAlpha(p[0]) {
		drive = p[:2]
		p = p[2:]
		rooted = true
	}

	segments := strings.Split(p, "/")
	var out []string
	for _, seg := range segments {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(out) > 0 && out[len(out)-1] != ".." {
				out = out[:len(out)-1]
			} else if !rooted {
				out = append(out, "..")
			}
			// rooted path: a ".." that would escape is clamped (dropped).
		default:
			out = append(out, seg)
		}
	}

	joined := strings.Join(out, "/")
	switch {
	case drive != "":
		return drive + "/" + joined
	case rooted:
		return "/" + joined
	default:
		return joined
	}
}

func isAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// MakeAbsolute resolves p against bagRoot. If p already lies below
// bagRoot it is returned unchanged (standardized); otherwise it is
// joined to bagRoot and canonicalized.
func MakeAbsolute(bagRoot, p string) string {
	bagRoot = Canonicalize(bagRoot)
	std := Standardize(p)
	if strings.HasPrefix(std, bagRoot+"/") || std == bagRoot {
		return std
	}
	return Canonicalize(bagRoot + "/" + std)
}

// MakeRelative returns p's path below bagRoot, or "" if p does not
// resolve inside bagRoot. The empty string is the sentinel this
// package uses throughout for "outside the bag".
func MakeRelative(bagRoot, p string) string {
	abs := Standardize(p)
	rooted := strings.HasPrefix(abs, "/") || (len(abs) >= 2 && abs[1] == ':' && isAlpha(abs[0]))
	if !rooted {
		abs = MakeAbsolute(bagRoot, abs)
	}
	abs = Canonicalize(abs)
	root := Canonicalize(bagRoot)
	if abs == root {
		return ""
	}
	prefix := root + "/"
	if !strings.HasPrefix(abs, prefix) {
		return ""
	}
	return strings.TrimPrefix(abs, prefix)
}

// BaseInData prepends "data/" to p unless it is already there.
func BaseInData(p string) string {
	p = Standardize(p)
	if p == "data" || strings.HasPrefix(p, "data/") {
		return p
	}
	return "data/" + p
}

// IsInsideData reports whether the bag-root-relative path p resolves
// under data/.
func IsInsideData(p string) bool {
	p = Standardize(p)
	return p == "data" || strings.HasPrefix(p, "data/")
}

// DecodePathField decodes the three percent-triplets RFC 8493 §2.1.3
// defines for manifest and fetch path fields: %0A -> LF, %0D -> CR,
// %25 -> '%'. Any other %xx sequence is a parse error, recorded by
// the caller rather than treated as fatal.
func DecodePathField(s string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '%' {
			b.WriteByte(s[i])
			continue
		}
		if i+2 >= len(s) {
			return "", bagErr("truncated percent-encoding in path %q", s)
		}
		triplet := strings.ToUpper(s[i : i+3])
		switch triplet {
		case "%0A":
			b.WriteByte('\n')
		case "%0D":
			b.WriteByte('\r')
		case "%25":
			b.WriteByte('%')
		default:
			return "", bagErr("unrecognized percent-encoding %q in path %q", s[i:i+3], s)
		}
		i += 2
	}
	return b.String(), nil
}

// EncodePathField is the inverse of DecodePathField: it percent-encodes
// literal '%', CR and LF so the result round-trips through the manifest
// and fetch wire grammars.
func EncodePathField(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%':
			b.WriteString("%25")
		case '\r':
			b.WriteString("%0D")
		case '\n':
			b.WriteString("%0A")
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
