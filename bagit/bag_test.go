package bagit_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/APTrust/bagittools/bagit"
)

func testConfig() bagit.Config {
	return bagit.DefaultConfig()
}

func TestCreateMakesMinimalValidBag(t *testing.T) {
	root := filepath.Join(t.TempDir(), "mybag")
	b, err := bagit.Create(root, testConfig())
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Algorithms()) != 1 || b.Algorithms()[0] != "sha512" {
		t.Errorf("expected default algorithm sha512, got %v", b.Algorithms())
	}
	if b.IsExtended() {
		t.Errorf("expected a freshly created bag to not be extended")
	}
	if !bagit.FileExists(filepath.Join(root, "bagit.txt")) {
		t.Errorf("expected bagit.txt to exist immediately after Create")
	}
	if !b.Validate() {
		t.Errorf("expected an empty freshly created bag to validate, got errors: %v", b.Errors())
	}
	if !bagit.FileExists(filepath.Join(root, "manifest-sha512.txt")) {
		t.Errorf("expected Validate to have materialized manifest-sha512.txt")
	}
}

func TestAddFileThenValidate(t *testing.T) {
	root := filepath.Join(t.TempDir(), "mybag")
	b, err := bagit.Create(root, testConfig())
	if err != nil {
		t.Fatal(err)
	}

	srcDir := t.TempDir()
	srcFile := filepath.Join(srcDir, "photo.jpg")
	if err := os.WriteFile(srcFile, []byte("binary-ish content"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := b.AddFile(srcFile, "images/photo.jpg"); err != nil {
		t.Fatal(err)
	}

	if !b.Validate() {
		t.Errorf("expected bag to validate after AddFile, got errors: %v", b.Errors())
	}
	manifestPath := filepath.Join(root, "manifest-sha512.txt")
	content, err := os.ReadFile(manifestPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(content) == 0 {
		t.Errorf("expected a non-empty manifest after adding a payload file")
	}

	// Tampering with the payload should make validation fail.
	if err := os.WriteFile(filepath.Join(root, "data", "images", "photo.jpg"), []byte("corrupted"), 0644); err != nil {
		t.Fatal(err)
	}
	if b.Validate() {
		t.Errorf("expected validation to fail after payload was tampered with on disk")
	}
}

func TestAddBagInfoTagMakesBagExtended(t *testing.T) {
	root := filepath.Join(t.TempDir(), "mybag")
	b, err := bagit.Create(root, testConfig())
	if err != nil {
		t.Fatal(err)
	}
	if err := b.AddBagInfoTag("Source-Organization", "Example University"); err != nil {
		t.Fatal(err)
	}
	if !b.IsExtended() {
		t.Errorf("expected adding a bag-info tag to make the bag extended")
	}
	if !b.Validate() {
		t.Errorf("expected bag to validate, got errors: %v", b.Errors())
	}
	if !bagit.FileExists(filepath.Join(root, "bag-info.txt")) {
		t.Errorf("expected bag-info.txt to be written")
	}
	if !bagit.FileExists(filepath.Join(root, "tagmanifest-sha512.txt")) {
		t.Errorf("expected a tag manifest once the bag is extended")
	}
}

func TestAddBagInfoTagRejectsAutoGenerated(t *testing.T) {
	root := filepath.Join(t.TempDir(), "mybag")
	b, err := bagit.Create(root, testConfig())
	if err != nil {
		t.Fatal(err)
	}
	if err := b.AddBagInfoTag("Payload-Oxum", "100.1"); err == nil {
		t.Errorf("expected Payload-Oxum to be rejected")
	}
}

func TestSetAlgorithmsReplacesManifests(t *testing.T) {
	root := filepath.Join(t.TempDir(), "mybag")
	b, err := bagit.Create(root, testConfig())
	if err != nil {
		t.Fatal(err)
	}
	if err := b.SetAlgorithms([]string{"md5", "sha256"}); err != nil {
		t.Fatal(err)
	}
	if !b.Validate() {
		t.Errorf("expected bag to validate after switching algorithms, got errors: %v", b.Errors())
	}
	if bagit.FileExists(filepath.Join(root, "manifest-sha512.txt")) {
		t.Errorf("expected manifest-sha512.txt to be removed after SetAlgorithms dropped it")
	}
	for _, name := range []string{"manifest-md5.txt", "manifest-sha256.txt"} {
		if !bagit.FileExists(filepath.Join(root, name)) {
			t.Errorf("expected %s to exist", name)
		}
	}
}

func TestRemoveLastAlgorithmIsError(t *testing.T) {
	root := filepath.Join(t.TempDir(), "mybag")
	b, err := bagit.Create(root, testConfig())
	if err != nil {
		t.Fatal(err)
	}
	if err := b.RemoveAlgorithm("sha512"); err == nil {
		t.Errorf("expected removing the last algorithm to be an error")
	}
}

func TestSetExtendedFalseClearsTagState(t *testing.T) {
	root := filepath.Join(t.TempDir(), "mybag")
	b, err := bagit.Create(root, testConfig())
	if err != nil {
		t.Fatal(err)
	}
	if err := b.AddBagInfoTag("Source-Organization", "Example University"); err != nil {
		t.Fatal(err)
	}
	if err := b.Update(); err != nil {
		t.Fatal(err)
	}
	b.SetExtended(false)
	if err := b.Update(); err != nil {
		t.Fatal(err)
	}
	if bagit.FileExists(filepath.Join(root, "bag-info.txt")) {
		t.Errorf("expected bag-info.txt to be removed once extended is cleared")
	}
}

func TestLoadRoundTripsCreatedBag(t *testing.T) {
	root := filepath.Join(t.TempDir(), "mybag")
	b, err := bagit.Create(root, testConfig())
	if err != nil {
		t.Fatal(err)
	}
	srcFile := filepath.Join(t.TempDir(), "note.txt")
	if err := os.WriteFile(srcFile, []byte("a note"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := b.AddFile(srcFile, "note.txt"); err != nil {
		t.Fatal(err)
	}
	if err := b.Update(); err != nil {
		t.Fatal(err)
	}

	reloaded, err := bagit.Load(root, testConfig())
	if err != nil {
		t.Fatal(err)
	}
	if !reloaded.Validate() {
		t.Errorf("expected reloaded bag to validate, got errors: %v", reloaded.Errors())
	}
	if len(reloaded.Algorithms()) != 1 || reloaded.Algorithms()[0] != "sha512" {
		t.Errorf("expected reloaded algorithms to match, got %v", reloaded.Algorithms())
	}
}

func TestUpgradeSwapsMd5ForSha512AndSetsVersion(t *testing.T) {
	root := filepath.Join(t.TempDir(), "mybag")
	cfg := testConfig()
	cfg.DefaultAlgorithms = []string{"md5"}
	b, err := bagit.Create(root, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Update(); err != nil {
		t.Fatal(err)
	}
	// Downgrade the on-disk declaration so Upgrade has something to do.
	old := bagit.Declaration{Version: bagit.Version{Major: 0, Minor: 97}, Encoding: "UTF-8"}
	if err := bagit.WriteDeclaration(root, old); err != nil {
		t.Fatal(err)
	}

	reloaded, err := bagit.Load(root, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Version() != old.Version {
		t.Fatalf("expected loaded version %s, got %s", old.Version, reloaded.Version())
	}

	if err := reloaded.Upgrade(); err != nil {
		t.Fatalf("expected Upgrade to succeed, got %v", err)
	}
	if reloaded.Version() != bagit.DefaultVersion {
		t.Errorf("expected version %s after Upgrade, got %s", bagit.DefaultVersion, reloaded.Version())
	}
	if len(reloaded.Algorithms()) != 1 || reloaded.Algorithms()[0] != "sha512" {
		t.Errorf("expected Upgrade to swap md5 for sha512, got %v", reloaded.Algorithms())
	}

	if err := reloaded.Update(); err != nil {
		t.Fatal(err)
	}
	if bagit.FileExists(filepath.Join(root, "manifest-md5.txt")) {
		t.Errorf("expected manifest-md5.txt to be removed after Upgrade")
	}
	if !bagit.FileExists(filepath.Join(root, "manifest-sha512.txt")) {
		t.Errorf("expected manifest-sha512.txt to exist after Upgrade")
	}
}

func TestUpgradeRejectsUnloadedBag(t *testing.T) {
	root := filepath.Join(t.TempDir(), "mybag")
	b, err := bagit.Create(root, testConfig())
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Upgrade(); err == nil {
		t.Errorf("expected Upgrade to reject a bag that was never loaded")
	}
}

func TestUpgradeRejectsAlreadyCurrentVersion(t *testing.T) {
	root := filepath.Join(t.TempDir(), "mybag")
	b, err := bagit.Create(root, testConfig())
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Update(); err != nil {
		t.Fatal(err)
	}
	reloaded, err := bagit.Load(root, testConfig())
	if err != nil {
		t.Fatal(err)
	}
	if err := reloaded.Upgrade(); err == nil {
		t.Errorf("expected Upgrade to reject a bag already at version %s", bagit.DefaultVersion)
	}
}

func TestPackageProducesArchive(t *testing.T) {
	root := filepath.Join(t.TempDir(), "mybag")
	b, err := bagit.Create(root, testConfig())
	if err != nil {
		t.Fatal(err)
	}
	archivePath := filepath.Join(t.TempDir(), "mybag.zip")
	if err := b.Package(archivePath); err != nil {
		t.Fatal(err)
	}
	if !bagit.FileExists(archivePath) {
		t.Errorf("expected %s to exist", archivePath)
	}
}
