package bagit

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/op/go-logging"
)

// Bag is the top-level orchestrator: it coordinates creation, loading,
// mutation, update (re-materialization to disk) and validation, and
// enforces every cross-file invariant of the BagIt format.
type Bag struct {
	root     string
	version  Version
	encoding string
	extended bool

	payloadManifests map[string]*ManifestFile // keyed by normalized algorithm
	tagManifests     map[string]*ManifestFile
	algorithms       []string // the shared algorithm set (§4.6 "Algorithm management")

	bagInfo *BagInfo
	fetch   *FetchTable

	dirty  bool
	loaded bool

	serialization string // MIME type, set when Load unpacked an archive

	errors   []Problem
	warnings []Problem

	// MimeTypes is a supplemental, informational map of payload
	// relative path -> sniffed MIME type. It is never written to disk
	// and never affects validity.
	MimeTypes map[string]string

	cfg        Config
	log        *logging.Logger
	serializer Serializer
}

// Root returns the bag's absolute root directory.
func (b *Bag) Root() string { return b.root }

// MakeAbsolute implements BagContext.
func (b *Bag) MakeAbsolute(p string) string { return MakeAbsolute(b.root, p) }

// MakeRelative implements BagContext.
func (b *Bag) MakeRelative(p string) string { return MakeRelative(b.root, p) }

// Encoding implements BagContext.
func (b *Bag) Encoding() string { return b.encoding }

func (b *Bag) context() BagContext { return bagContext{bag: b} }

// Version returns the bag's declared BagIt-Version.
func (b *Bag) Version() Version { return b.version }

// IsExtended reports whether the bag carries BagInfo, tag manifests or
// fetch rows -- the three conditions that define an extended bag.
func (b *Bag) IsExtended() bool { return b.extended }

// IsDirty reports whether mutations are pending a call to Update.
func (b *Bag) IsDirty() bool { return b.dirty }

// IsLoaded reports whether the bag was constructed via Load.
func (b *Bag) IsLoaded() bool { return b.loaded }

// Serialization returns the MIME type the bag was unpacked from, or ""
// if it was not loaded from an archive.
func (b *Bag) Serialization() string { return b.serialization }

// Errors returns the problems recorded by the most recent Load or
// Validate.
func (b *Bag) Errors() []Problem { return b.errors }

// Warnings returns the warnings recorded by the most recent Load or
// Validate.
func (b *Bag) Warnings() []Problem { return b.warnings }

// Algorithms returns the bag's installed hash algorithm set.
func (b *Bag) Algorithms() []string {
	out := append([]string(nil), b.algorithms...)
	sort.Strings(out)
	return out
}

// BagInfo exposes the bag's tag metadata for read and mutation via its
// own API (Add/RemoveTag/etc); callers should prefer Bag.AddBagInfoTag
// for additions so that auto-generated tag names are rejected and
// extended/dirty bookkeeping stays correct.
func (b *Bag) BagInfo() *BagInfo { return b.bagInfo }

// Fetch returns the bag's fetch table, or nil if none is installed.
func (b *Bag) Fetch() *FetchTable { return b.fetch }

func (b *Bag) markDirty() { b.dirty = true }

func (b *Bag) recomputeExtended() {
	b.extended = len(b.bagInfo.Lines) > 0 ||
		len(b.tagManifests) > 0 ||
		(b.fetch != nil && len(b.fetch.Rows) > 0)
}

// newBag builds an empty, unconfigured Bag bound to root.
func newBag(root string, cfg Config) *Bag {
	b := &Bag{
		root:             Canonicalize(Standardize(root)),
		version:          DefaultVersion,
		encoding:         "UTF-8",
		payloadManifests: make(map[string]*ManifestFile),
		tagManifests:     make(map[string]*ManifestFile),
		bagInfo:          NewBagInfo(),
		MimeTypes:        make(map[string]string),
		cfg:              cfg,
		serializer:       DefaultSerializer{},
	}
	if log, err := NewLogger("bagit", cfg); err == nil {
		b.log = log
	} else {
		b.log = DiscardLogger("bagit")
	}
	return b
}

// Create builds a brand-new bag at root, which must not already
// exist: root/data/, bagit.txt, and one default payload manifest
// (sha512 unless cfg overrides DefaultAlgorithms).
func Create(root string, cfg Config) (*Bag, error) {
	if FileExists(root) {
		return nil, bagErr("cannot create bag: %q already exists", root)
	}
	b := newBag(root, cfg)
	if err := os.MkdirAll(b.MakeAbsolute("data"), 0755); err != nil {
		return nil, fsErr("mkdir", b.MakeAbsolute("data"), err)
	}
	algos := cfg.DefaultAlgorithms
	if len(algos) == 0 {
		algos = []string{"sha512"}
	}
	for _, a := range algos {
		if !IsSupportedAlgorithm(a) {
			return nil, bagErr("unsupported hash algorithm %q", a)
		}
		norm := NormalizeAlgorithm(a)
		b.algorithms = append(b.algorithms, norm)
		b.payloadManifests[norm] = NewManifestFile("manifest", norm)
	}
	if err := WriteDeclaration(b.root, Declaration{Version: b.version, Encoding: b.encoding}); err != nil {
		return nil, err
	}
	b.dirty = true
	b.loaded = false
	return b, nil
}

// manifestFilenameRe and tagManifestFilenameRe match manifest-*.txt /
// tagmanifest-*.txt basenames so they can be enumerated and excluded
// consistently.
var manifestFilenameRe = regexp.MustCompile(`^manifest-([a-z0-9]+)\.txt$`)
var tagManifestFilenameRe = regexp.MustCompile(`^tagmanifest-([a-z0-9]+)\.txt$`)

// Load reads a bag from rootOrArchive, which may be a directory or a
// recognized archive file. Archives are unpacked into a temporary
// directory first; the archive must contain exactly one top-level
// directory, which becomes the bag root.
func Load(rootOrArchive string, cfg Config) (*Bag, error) {
	info, err := os.Stat(rootOrArchive)
	if err != nil {
		return nil, fsErr("stat", rootOrArchive, err)
	}

	root := rootOrArchive
	serialization := ""
	if !info.IsDir() {
		kind := DetectArchiveKind(rootOrArchive)
		if kind == ArchiveNone {
			return nil, bagErr("%q is neither a directory nor a recognized archive", rootOrArchive)
		}
		tmpDir, err := os.MkdirTemp("", "bagit-unpack-")
		if err != nil {
			return nil, fsErr("mkdtemp", "", err)
		}
		serializer := DefaultSerializer{}
		if err := serializer.Unpack(rootOrArchive, tmpDir); err != nil {
			return nil, err
		}
		entries, err := os.ReadDir(tmpDir)
		if err != nil || len(entries) != 1 {
			return nil, bagErr("archive %q did not unpack to a single directory", rootOrArchive)
		}
		root = filepath.Join(tmpDir, entries[0].Name())
		serialization = MimeTypeForArchive(kind)
	}

	b := newBag(root, cfg)
	b.serialization = serialization
	b.loadFromDisk()
	b.loaded = true
	b.dirty = false
	return b, nil
}

// loadFromDisk runs the load pipeline of spec.md §2: Declaration ->
// payload ManifestFiles -> BagInfo -> tag ManifestFiles -> FetchTable.
// Parse errors are accumulated rather than thrown.
func (b *Bag) loadFromDisk() {
	b.errors = nil
	b.warnings = nil

	decl, err := LoadDeclaration(b.root)
	if err != nil {
		b.errors = append(b.errors, Problem{File: "bagit.txt", Message: err.Error()})
	} else {
		b.version = decl.Version
		b.encoding = decl.Encoding
	}

	entries, _ := os.ReadDir(b.root)

	b.payloadManifests = make(map[string]*ManifestFile)
	b.algorithms = nil
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := manifestFilenameRe.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		algo := m[1]
		mf := NewManifestFile("manifest", algo)
		if err := mf.Load(b.MakeAbsolute(e.Name())); err != nil {
			b.errors = append(b.errors, Problem{File: e.Name(), Message: err.Error()})
			continue
		}
		for _, le := range mf.LoadErrors {
			b.errors = append(b.errors, le)
		}
		for p := range mf.Entries {
			if !IsInsideData(p) {
				b.errors = append(b.errors, Problem{File: e.Name(),
					Message: fmt.Sprintf("payload manifest entry %q does not start with data/", p)})
			}
		}
		b.payloadManifests[algo] = mf
		b.algorithms = append(b.algorithms, algo)
	}
	if len(b.payloadManifests) == 0 {
		b.errors = append(b.errors, Problem{File: "bag", Message: "bag has no payload manifests"})
	}

	biPath := b.MakeAbsolute("bag-info.txt")
	b.bagInfo = NewBagInfo()
	if FileExists(biPath) {
		text, err := ReadTagFile(biPath, b.encoding)
		if err != nil {
			b.errors = append(b.errors, Problem{File: "bag-info.txt", Message: err.Error()})
		} else {
			bi, problems := ParseBagInfo(text, b.version.Major, b.version.Minor)
			b.bagInfo = bi
			for _, p := range problems {
				if strings.Contains(p.Message, "should not be repeated") {
					b.warnings = append(b.warnings, p)
				} else {
					b.errors = append(b.errors, p)
				}
			}
		}
	}

	b.tagManifests = make(map[string]*ManifestFile)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := tagManifestFilenameRe.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		algo := m[1]
		mf := NewManifestFile("tagmanifest", algo)
		if err := mf.Load(b.MakeAbsolute(e.Name())); err != nil {
			b.errors = append(b.errors, Problem{File: e.Name(), Message: err.Error()})
			continue
		}
		for _, le := range mf.LoadErrors {
			b.errors = append(b.errors, le)
		}
		b.tagManifests[algo] = mf
		found := false
		for _, a := range b.algorithms {
			if a == algo {
				found = true
			}
		}
		if !found {
			b.algorithms = append(b.algorithms, algo)
		}
	}

	b.fetch = nil
	fetchPath := b.MakeAbsolute("fetch.txt")
	if FileExists(fetchPath) {
		ft := NewFetchTable(b.context())
		if err := ft.Load(fetchPath); err != nil {
			b.errors = append(b.errors, Problem{File: "fetch.txt", Message: err.Error()})
		}
		for _, le := range ft.LoadErrors {
			b.errors = append(b.errors, le)
		}
		b.fetch = ft
	}

	b.recomputeExtended()
}

// ---- Mutation API ----
//
// Every mutator below flips dirty. Payload and tag-file mutators
// (AddFile, CreateFile, RemoveFile, AddTagFile, RemoveTagFile) and
// AddFetchFile write or remove the file itself at once; bagit.txt, the
// manifests, bag-info.txt and fetch.txt are not rewritten until Update
// or Validate runs.

// AddFile copies srcPath into the bag's payload at data/relPath,
// creating any intermediate directories. relPath is interpreted
// relative to data/ regardless of whether it already carries that
// prefix.
func (b *Bag) AddFile(srcPath, relPath string) error {
	if isWindowsReservedName(filepath.Base(relPath)) {
		return bagErr("%q is a reserved device name and cannot be used as a payload file name", relPath)
	}
	dest := b.MakeAbsolute(BaseInData(relPath))
	if err := copyFile(srcPath, dest); err != nil {
		return err
	}
	if guessed := GuessMimeType(dest); guessed != "" {
		b.MimeTypes[BaseInData(Standardize(relPath))] = guessed
	}
	b.markDirty()
	return nil
}

// CreateFile writes content directly to data/relPath.
func (b *Bag) CreateFile(relPath string, content []byte) error {
	if isWindowsReservedName(filepath.Base(relPath)) {
		return bagErr("%q is a reserved device name and cannot be used as a payload file name", relPath)
	}
	dest := b.MakeAbsolute(BaseInData(relPath))
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fsErr("mkdir", filepath.Dir(dest), err)
	}
	if err := os.WriteFile(dest, content, 0644); err != nil {
		return fsErr("write", dest, err)
	}
	if guessed := GuessMimeType(dest); guessed != "" {
		b.MimeTypes[BaseInData(Standardize(relPath))] = guessed
	}
	b.markDirty()
	return nil
}

// RemoveFile deletes data/relPath and prunes any directories left
// empty by its removal.
func (b *Bag) RemoveFile(relPath string) error {
	dest := b.MakeAbsolute(BaseInData(relPath))
	if !FileExists(dest) {
		return bagErr("%q does not exist in the payload", relPath)
	}
	if err := os.Remove(dest); err != nil {
		return fsErr("remove", dest, err)
	}
	pruneEmptyAncestors(filepath.Dir(dest), b.MakeAbsolute("data"))
	delete(b.MimeTypes, BaseInData(Standardize(relPath)))
	b.markDirty()
	return nil
}

// reservedTagFilename reports the names no tag file may collide with:
// the fixed top-level files plus any installed manifest/tagmanifest.
func (b *Bag) reservedTagFilename(name string) bool {
	switch name {
	case "bagit.txt", "bag-info.txt", "fetch.txt":
		return true
	}
	return manifestFilenameRe.MatchString(name) || tagManifestFilenameRe.MatchString(name)
}

// AddTagFile copies srcPath to relPath under the bag root (outside
// data/). relPath must not collide with a reserved top-level name.
func (b *Bag) AddTagFile(srcPath, relPath string) error {
	relPath = Standardize(relPath)
	if IsInsideData(relPath) {
		return bagErr("%q is inside data/ and cannot be added as a tag file", relPath)
	}
	if b.reservedTagFilename(relPath) {
		return bagErr("%q is a reserved bag file name", relPath)
	}
	dest := b.MakeAbsolute(relPath)
	if err := copyFile(srcPath, dest); err != nil {
		return err
	}
	b.markDirty()
	return nil
}

// RemoveTagFile deletes relPath under the bag root.
func (b *Bag) RemoveTagFile(relPath string) error {
	relPath = Standardize(relPath)
	if b.reservedTagFilename(relPath) {
		return bagErr("%q is a reserved bag file name and cannot be removed directly", relPath)
	}
	dest := b.MakeAbsolute(relPath)
	if !FileExists(dest) {
		return bagErr("%q does not exist", relPath)
	}
	if err := os.Remove(dest); err != nil {
		return fsErr("remove", dest, err)
	}
	b.markDirty()
	return nil
}

// SetEncoding changes the tag-file character encoding the bag
// declares and uses to read/write bag-info.txt. name must be one of
// the accepted charsets.
func (b *Bag) SetEncoding(name string) error {
	if !IsAcceptedCharset(name) {
		return bagErr("%q is not an accepted tag-file character encoding", name)
	}
	b.encoding = name
	b.markDirty()
	return nil
}

// Upgrade migrates a loaded bag to BagIt-Version 1.0. It only applies
// to a bag that was loaded from disk, is not already at 1.0, and
// currently validates; otherwise it returns a BagError and makes no
// change. If md5 is the bag's only algorithm, it is swapped for
// sha512 (the old manifest-md5.txt is discarded) before the version
// is updated, since 1.0 bags should not rely on md5 alone.
func (b *Bag) Upgrade() error {
	if !b.loaded {
		return bagErr("upgrade requires a bag loaded from disk")
	}
	if b.version == DefaultVersion {
		return bagErr("bag is already at version %s", DefaultVersion)
	}
	if !b.Validate() {
		return bagErr("upgrade requires a currently valid bag")
	}
	if len(b.algorithms) == 1 && b.algorithms[0] == "md5" {
		if err := b.SetAlgorithms([]string{"sha512"}); err != nil {
			return err
		}
	}
	b.version = DefaultVersion
	b.markDirty()
	return nil
}

// SetExtended forces the bag's extended status. Disabling extended
// mode discards BagInfo, tag manifests and the fetch table; their
// files are removed from disk on the next Update. Enabling it installs
// a tag manifest for every currently installed payload algorithm, to
// be populated by the next Update.
func (b *Bag) SetExtended(extended bool) {
	if extended {
		for _, a := range b.algorithms {
			if _, ok := b.tagManifests[a]; !ok {
				b.tagManifests[a] = NewManifestFile("tagmanifest", a)
			}
		}
		if len(b.tagManifests) == 0 {
			// No algorithms installed yet (shouldn't happen in practice,
			// since Create always installs at least one): fall back to an
			// empty BagInfo line so extended status sticks regardless.
			_ = b.bagInfo.addRaw("Bag-Software-Agent", "bagittools")
		}
	} else {
		b.bagInfo = NewBagInfo()
		b.tagManifests = make(map[string]*ManifestFile)
		b.fetch = nil
	}
	b.recomputeExtended()
	b.markDirty()
}

// AddBagInfoTag appends a (tag, value) pair to bag-info.txt. Auto
// generated tag names (Payload-Oxum, Bag-Size, Bagging-Date) are
// rejected; those are computed by Update.
func (b *Bag) AddBagInfoTag(tag, value string) error {
	if err := b.bagInfo.Add(tag, value); err != nil {
		return err
	}
	b.recomputeExtended()
	b.markDirty()
	return nil
}

// SetAlgorithms replaces the bag's installed hash algorithm set. Every
// name must be supported; the set must not be empty. Existing
// manifests for retained algorithms keep their content (Update
// recomputes them regardless); manifests for dropped algorithms are
// discarded, and fresh ones are installed for new algorithms. Tag
// manifests are kept in lockstep when the bag is extended.
func (b *Bag) SetAlgorithms(newAlgos []string) error {
	if len(newAlgos) == 0 {
		return bagErr("a bag must have at least one hash algorithm")
	}
	normalized := make(map[string]bool, len(newAlgos))
	var ordered []string
	for _, a := range newAlgos {
		if !IsSupportedAlgorithm(a) {
			return bagErr("unsupported hash algorithm %q", a)
		}
		norm := NormalizeAlgorithm(a)
		if !normalized[norm] {
			normalized[norm] = true
			ordered = append(ordered, norm)
		}
	}

	newPayload := make(map[string]*ManifestFile, len(ordered))
	for _, a := range ordered {
		if existing, ok := b.payloadManifests[a]; ok {
			newPayload[a] = existing
		} else {
			newPayload[a] = NewManifestFile("manifest", a)
		}
	}
	b.payloadManifests = newPayload

	if b.extended {
		newTag := make(map[string]*ManifestFile, len(ordered))
		for _, a := range ordered {
			if existing, ok := b.tagManifests[a]; ok {
				newTag[a] = existing
			} else {
				newTag[a] = NewManifestFile("tagmanifest", a)
			}
		}
		b.tagManifests = newTag
	}

	b.algorithms = ordered
	b.markDirty()
	return nil
}

// AddAlgorithm installs algo (a no-op if already installed).
func (b *Bag) AddAlgorithm(algo string) error {
	norm := NormalizeAlgorithm(algo)
	for _, a := range b.algorithms {
		if a == norm {
			return nil
		}
	}
	return b.SetAlgorithms(append(append([]string(nil), b.algorithms...), norm))
}

// RemoveAlgorithm uninstalls algo. Removing the last algorithm is an
// error: a bag must always have at least one payload manifest.
func (b *Bag) RemoveAlgorithm(algo string) error {
	norm := NormalizeAlgorithm(algo)
	if len(b.algorithms) == 1 && b.algorithms[0] == norm {
		return bagErr("cannot remove last payload algorithm %q: a bag must have at least one", norm)
	}
	var remaining []string
	found := false
	for _, a := range b.algorithms {
		if a == norm {
			found = true
			continue
		}
		remaining = append(remaining, a)
	}
	if !found {
		return bagErr("algorithm %q is not installed", norm)
	}
	return b.SetAlgorithms(remaining)
}

// SetAlgorithm switches the bag to exactly one algorithm.
func (b *Bag) SetAlgorithm(algo string) error {
	return b.SetAlgorithms([]string{algo})
}

// AddFetchFile installs a fetch.txt row mapping destination to rawURL.
// A row whose URL or destination is already present is rejected, not
// replaced. Installing any row makes the bag extended.
func (b *Bag) AddFetchFile(rawURL, destination string, size int64) error {
	if b.fetch == nil {
		b.fetch = NewFetchTable(b.context())
	}
	if err := b.fetch.Add(rawURL, destination, size); err != nil {
		return err
	}
	b.recomputeExtended()
	b.markDirty()
	return nil
}

// RemoveFetchFile deletes the fetch row for destination, if any.
func (b *Bag) RemoveFetchFile(destination string) bool {
	if b.fetch == nil {
		return false
	}
	ok := b.fetch.Remove(destination)
	if ok {
		b.recomputeExtended()
		b.markDirty()
	}
	return ok
}

// ClearFetch removes the entire fetch table.
func (b *Bag) ClearFetch() {
	b.fetch = nil
	b.recomputeExtended()
	b.markDirty()
}

// ---- Update ----

// deleteManifestFiles removes every manifest-*.txt (family ==
// "manifest") or tagmanifest-*.txt (family == "tagmanifest") file
// found directly under the bag root, regardless of which algorithms
// are currently installed in memory.
func (b *Bag) deleteManifestFiles(family string) error {
	entries, err := os.ReadDir(b.root)
	if err != nil {
		return fsErr("readdir", b.root, err)
	}
	re := manifestFilenameRe
	if family == "tagmanifest" {
		re = tagManifestFilenameRe
	}
	for _, e := range entries {
		if e.IsDir() || !re.MatchString(e.Name()) {
			continue
		}
		if err := os.Remove(b.MakeAbsolute(e.Name())); err != nil {
			return fsErr("remove", b.MakeAbsolute(e.Name()), err)
		}
	}
	return nil
}

// tagFileSet enumerates every file under the bag root that belongs to
// the tag-manifest coverage set: everything except data/ and every
// tagmanifest-*.txt (those are never self-listed).
func (b *Bag) tagFileSet() ([]string, error) {
	var out []string
	err := filepath.Walk(b.root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if p == b.MakeAbsolute("data") {
				return filepath.SkipDir
			}
			return nil
		}
		rel := b.MakeRelative(p)
		if tagManifestFilenameRe.MatchString(filepath.Base(rel)) {
			return nil
		}
		out = append(out, rel)
		return nil
	})
	if err != nil {
		return nil, fsErr("walk", b.root, err)
	}
	return out, nil
}

// Update re-materializes the bag to disk: bagit.txt, every payload
// manifest (recomputed from the current contents of data/), fetch.txt,
// and, when extended, bag-info.txt (with Payload-Oxum/Bag-Size/
// Bagging-Date regenerated) and every tag manifest. This is the only
// operation that writes manifest/tag-manifest/bag-info content; every
// mutator above only schedules work for it by setting dirty.
func (b *Bag) Update() error {
	dataDir := b.MakeAbsolute("data")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fsErr("mkdir", dataDir, err)
	}

	if err := WriteDeclaration(b.root, Declaration{Version: b.version, Encoding: b.encoding}); err != nil {
		return err
	}

	payloadFiles, err := RecursiveFileList(dataDir)
	if err != nil {
		return err
	}
	relPayload := make([]string, len(payloadFiles))
	for i, f := range payloadFiles {
		relPayload[i] = BaseInData(f)
	}
	sort.Strings(relPayload)

	if err := b.deleteManifestFiles("manifest"); err != nil {
		return err
	}
	for _, algo := range SortedAlgorithms(b.algorithms) {
		mf, ok := b.payloadManifests[algo]
		if !ok {
			mf = NewManifestFile("manifest", algo)
			b.payloadManifests[algo] = mf
		}
		if err := mf.Recompute(b.root, relPayload); err != nil {
			return err
		}
	}

	if b.fetch != nil {
		if err := b.fetch.Write(b.root); err != nil {
			return err
		}
	} else {
		_ = os.Remove(b.MakeAbsolute("fetch.txt"))
	}

	if b.extended {
		union := make(map[string]bool)
		for _, mf := range b.payloadManifests {
			for p := range mf.Entries {
				union[p] = true
			}
		}
		var totalBytes int64
		var totalCount int
		for p := range union {
			info, err := os.Stat(b.MakeAbsolute(p))
			if err != nil {
				continue // skipping missing files, per Payload-Oxum's definition
			}
			totalBytes += info.Size()
			totalCount++
		}
		b.bagInfo.SetGenerated(totalBytes, totalCount)
		if err := WriteTagFile(b.MakeAbsolute("bag-info.txt"), b.bagInfo.Write(), b.encoding); err != nil {
			return err
		}

		if err := b.deleteManifestFiles("tagmanifest"); err != nil {
			return err
		}
		tagFiles, err := b.tagFileSet()
		if err != nil {
			return err
		}
		sort.Strings(tagFiles)
		for _, algo := range SortedAlgorithms(b.algorithms) {
			mf, ok := b.tagManifests[algo]
			if !ok {
				mf = NewManifestFile("tagmanifest", algo)
				b.tagManifests[algo] = mf
			}
			if err := mf.Recompute(b.root, tagFiles); err != nil {
				return err
			}
		}
	} else {
		_ = os.Remove(b.MakeAbsolute("bag-info.txt"))
		if err := b.deleteManifestFiles("tagmanifest"); err != nil {
			return err
		}
		b.tagManifests = make(map[string]*ManifestFile)
	}

	b.dirty = false
	return nil
}

// ---- Validate ----

// Validate brings the bag's on-disk state in sync (via Update, if
// dirty or never loaded), re-reads it fresh from disk to catch
// anything a caller edited outside this API, downloads any
// outstanding fetch rows, then checks every manifest against the
// payload and tag files actually present. It returns true iff no
// errors were recorded; warnings never affect the result.
func (b *Bag) Validate() bool {
	if b.dirty || !b.loaded {
		if err := b.Update(); err != nil {
			b.errors = []Problem{{File: "bag", Message: err.Error()}}
			return false
		}
	}

	b.loadFromDisk()
	b.loaded = true

	if b.fetch != nil {
		concurrency := b.cfg.FetchConcurrency
		if concurrency == 0 {
			concurrency = 10
		}
		ratio := b.cfg.FetchOvershootRatio
		if ratio == 0 {
			ratio = 1.05
		}
		problems := b.fetch.DownloadAll(b.root, concurrency, ratio)
		b.errors = append(b.errors, problems...)
	}

	for _, algo := range SortedAlgorithms(b.algorithms) {
		mf, ok := b.payloadManifests[algo]
		if !ok {
			continue
		}
		mf.Validate(b.root)
		b.errors = append(b.errors, mf.Errors...)
		b.warnings = append(b.warnings, mf.Warnings...)
	}

	if b.extended {
		tagFiles, err := b.tagFileSet()
		if err != nil {
			b.errors = append(b.errors, Problem{File: "bag", Message: err.Error()})
			return len(b.errors) == 0
		}
		onDisk := make(map[string]bool, len(tagFiles))
		for _, f := range tagFiles {
			onDisk[f] = true
		}

		listed := make(map[string]bool)
		for _, algo := range SortedAlgorithms(b.algorithms) {
			mf, ok := b.tagManifests[algo]
			if !ok {
				continue
			}
			for p := range mf.Entries {
				if tagManifestFilenameRe.MatchString(filepath.Base(p)) {
					b.errors = append(b.errors, Problem{File: mf.Filename(),
						Message: fmt.Sprintf("%s MUST not list any tag-manifest files", p)})
					continue
				}
				listed[p] = true
			}
			mf.Validate(b.root)
			b.errors = append(b.errors, mf.Errors...)
			b.warnings = append(b.warnings, mf.Warnings...)
		}
		for f := range onDisk {
			if !listed[f] {
				b.warnings = append(b.warnings, Problem{File: "bag",
					Message: fmt.Sprintf("%s is present on disk but not listed in any tag manifest", f)})
			}
		}
	}

	return len(b.errors) == 0
}

// IsValid is an alias for Validate, read naturally at call sites that
// only care about the boolean result.
func (b *Bag) IsValid() bool { return b.Validate() }

// Finalize is equivalent to Update, named for call sites that mean
// "I am done mutating and want the bag materialized" rather than
// "apply pending writes".
func (b *Bag) Finalize() error { return b.Update() }

// Package finalizes the bag, then serializes it to destArchivePath
// using the extension-inferred archive kind.
func (b *Bag) Package(destArchivePath string) error {
	if err := b.Update(); err != nil {
		return err
	}
	return b.serializer.Pack(b.root, destArchivePath)
}
