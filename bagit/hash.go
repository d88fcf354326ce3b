package bagit

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"sort"
	"strings"

	"golang.org/x/crypto/sha3"
)

// algorithms maps the BagIt algorithm name (spec.md §6, lower-case,
// no dashes) to a constructor for the underlying hash.Hash. This is
// the admissible set: anything not listed here is rejected regardless
// of what a manifest filename claims.
var algorithms = map[string]func() hash.Hash{
	"md5":     md5.New,
	"sha1":    sha1.New,
	"sha224":  sha256.New224,
	"sha256":  sha256.New,
	"sha384":  sha512.New384,
	"sha512":  sha512.New,
	"sha3224": sha3.New224,
	"sha3256": sha3.New256,
	"sha3384": sha3.New384,
	"sha3512": sha3.New512,
}

// NormalizeAlgorithm lower-cases and strips dashes from a user- or
// filename-supplied algorithm name, e.g. "SHA-3-256" -> "sha3256".
func NormalizeAlgorithm(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), "-", "")
}

// IsSupportedAlgorithm reports whether name (after normalization)
// belongs to the enumerated set and has a Hasher implementation.
func IsSupportedAlgorithm(name string) bool {
	_, ok := algorithms[NormalizeAlgorithm(name)]
	return ok
}

// SortedAlgorithms returns a sorted copy of names. Used so that
// manifest filename enumeration during update() has deterministic
// ordering in tests.
func SortedAlgorithms(names []string) []string {
	out := append([]string(nil), names...)
	sort.Strings(out)
	return out
}

// DigestFile computes the hex digest of the file at path for every
// algorithm in algos in a single streaming read, the way
// CalculateDigests computes md5 and sha256 together via io.MultiWriter,
// generalized to an arbitrary algorithm set.
func DigestFile(path string, algos []string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fsErr("open", path, err)
	}
	defer f.Close()

	hashers := make(map[string]hash.Hash, len(algos))
	writers := make([]io.Writer, 0, len(algos))
	for _, a := range algos {
		norm := NormalizeAlgorithm(a)
		ctor, ok := algorithms[norm]
		if !ok {
			return nil, bagErr("unsupported hash algorithm %q", a)
		}
		h := ctor()
		hashers[norm] = h
		writers = append(writers, h)
	}

	multi := io.MultiWriter(writers...)
	if _, err := io.Copy(multi, f); err != nil {
		return nil, fsErr("read", path, err)
	}

	out := make(map[string]string, len(hashers))
	for name, h := range hashers {
		out[name] = hex.EncodeToString(h.Sum(nil))
	}
	return out, nil
}

// ManifestFilename builds the BagIt manifest filename for algorithm
// and family ("manifest" or "tagmanifest").
func ManifestFilename(family, algorithm string) string {
	return fmt.Sprintf("%s-%s.txt", family, NormalizeAlgorithm(algorithm))
}
