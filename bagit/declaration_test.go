package bagit_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/APTrust/bagittools/bagit"
)

func TestWriteAndLoadDeclaration(t *testing.T) {
	root := t.TempDir()
	d := bagit.Declaration{Version: bagit.Version{Major: 1, Minor: 0}, Encoding: "UTF-8"}
	if err := bagit.WriteDeclaration(root, d); err != nil {
		t.Fatal(err)
	}
	loaded, err := bagit.LoadDeclaration(root)
	if err != nil {
		t.Fatal(err)
	}
	if loaded != d {
		t.Errorf("got %+v, want %+v", loaded, d)
	}
}

func TestLoadDeclarationMalformed(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "bagit.txt"), []byte("not a declaration\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := bagit.LoadDeclaration(root); err == nil {
		t.Errorf("expected an error for a malformed bagit.txt")
	}
}

func TestLoadDeclarationWrongLineCount(t *testing.T) {
	root := t.TempDir()
	body := "BagIt-Version: 1.0\n"
	if err := os.WriteFile(filepath.Join(root, "bagit.txt"), []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := bagit.LoadDeclaration(root); err == nil {
		t.Errorf("expected an error for a bagit.txt with only one line")
	}
}
