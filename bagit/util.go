package bagit

import (
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"regexp"
	"strings"
)

// FileExists returns true if the file at path exists, false if not.
// Grounded on the teacher's own bagman.FileExists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// RecursiveFileList returns every regular file under dir, relative to
// dir, with forward slashes. Directories themselves are not included.
func RecursiveFileList(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		files = append(files, Standardize(rel))
		return nil
	})
	if err != nil {
		return nil, fsErr("walk", dir, err)
	}
	return files, nil
}

// ExpandTilde expands a leading "~/" in filePath to the current user's
// home directory.
func ExpandTilde(filePath string) (string, error) {
	if !strings.HasPrefix(filePath, "~/") {
		return filePath, nil
	}
	usr, err := user.Current()
	if err != nil {
		return "", err
	}
	return filepath.Join(usr.HomeDir, strings.TrimPrefix(filePath, "~/")), nil
}

var multipartSuffix = regexp.MustCompile(`\.b\d+\.of\d+$`)

// CleanBagName strips a trailing .tar extension and any multi-part
// ".bNNN.ofNNN" suffix from a tar file name, e.g.
// "university.edu.archive.b001.of200.tar" -> "university.edu.archive".
func CleanBagName(bagName string) (string, error) {
	if len(bagName) < 5 || !strings.HasSuffix(bagName, ".tar") {
		return "", bagErr("%q is not a valid tar file name", bagName)
	}
	withoutTar := bagName[:len(bagName)-4]
	return multipartSuffix.ReplaceAllString(withoutTar, ""), nil
}

// SplitArchiveName splits a partner-style archive name of the form
// "<institution>.<tld>.<archive>[.tar]" into the institution domain and
// the bare archive/tar file name, the way the source tooling's
// Validator.InstitutionDomain/TarFileName did for partner-supplied bags.
// This is an optional convenience: Bag itself never assumes this
// naming convention.
func SplitArchiveName(pathToFile string) (institutionDomain, tarFileName string, err error) {
	base := filepath.Base(pathToFile)
	parts := strings.Split(base, ".")
	if len(parts) < 3 {
		return "", "", bagErr(
			"bag name %q should start with an institution domain, e.g. "+
				"'university.edu.my_archive.tar'", base)
	}
	institutionDomain = fmt.Sprintf("%s.%s", parts[0], parts[1])
	tarFileName = base
	if !strings.HasSuffix(tarFileName, ".tar") {
		tarFileName += ".tar"
	}
	return institutionDomain, tarFileName, nil
}

// windowsReservedNames are device basenames that cannot be created on
// Windows irrespective of extension or case. add_file rejects these
// regardless of the host OS, since bags must be portable.
var windowsReservedNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// isWindowsReservedName reports whether basename (ignoring any
// extension) is a Windows-reserved device name.
func isWindowsReservedName(basename string) bool {
	name := basename
	if idx := strings.IndexByte(basename, '.'); idx >= 0 {
		name = basename[:idx]
	}
	return windowsReservedNames[strings.ToUpper(name)]
}

// pruneEmptyAncestors removes dir and any empty ancestor directories,
// stopping at (and not removing) stopAt.
func pruneEmptyAncestors(dir, stopAt string) {
	stopAt = Canonicalize(stopAt)
	for {
		dir = Canonicalize(dir)
		if dir == "" || dir == stopAt || !strings.HasPrefix(dir, stopAt) {
			return
		}
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

// humanByteSize renders n bytes using binary prefixes (KB/MB/GB/...)
// to two decimal places, or "0 B" for zero.
func humanByteSize(n int64) string {
	if n == 0 {
		return "0 B"
	}
	units := []string{"B", "KB", "MB", "GB", "TB", "PB", "EB"}
	value := float64(n)
	unit := 0
	for value >= 1024 && unit < len(units)-1 {
		value /= 1024
		unit++
	}
	if unit == 0 {
		return fmt.Sprintf("%d %s", n, units[0])
	}
	return fmt.Sprintf("%.2f %s", value, units[unit])
}

// copyFile copies src to dst, creating dst's parent directories.
func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fsErr("mkdir", filepath.Dir(dst), err)
	}
	in, err := os.Open(src)
	if err != nil {
		return fsErr("open", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fsErr("create", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fsErr("copy", dst, err)
	}
	return nil
}
