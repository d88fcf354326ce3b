// bagit-validate validates one or more BagIt bags against RFC 8493.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/APTrust/bagittools/bagit"
)

func main() {
	verbose := flag.Bool("v", false, "Print validation errors")
	veryVerbose := flag.Bool("vv", false, "Print errors and warnings, and the bag's algorithms and extended status")
	flag.Parse()

	paths := flag.Args()
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "Please specify one or more bags to validate.")
		fmt.Fprintln(os.Stderr, "Usage: bagit-validate [-v|-vv] <path1> <path2> ...")
		os.Exit(1)
	}

	cfg := bagit.DefaultConfig()
	anyFailed := false
	for _, path := range paths {
		anyFailed = !validateOne(path, cfg, *verbose, *veryVerbose) || anyFailed
	}
	if anyFailed {
		os.Exit(1)
	}
}

func validateOne(path string, cfg bagit.Config, verbose, veryVerbose bool) bool {
	b, err := bagit.Load(path, cfg)
	if err != nil {
		fmt.Printf("[FAIL] %s: %s\n", path, err)
		return false
	}

	ok := b.Validate()
	if ok {
		fmt.Printf("[PASS] %s is a valid BagIt bag\n", path)
	} else {
		fmt.Printf("[FAIL] %s is not a valid BagIt bag\n", path)
	}

	if verbose || veryVerbose {
		for _, p := range b.Errors() {
			fmt.Printf("  %s: %s\n", p.File, p.Message)
		}
	}
	if veryVerbose {
		for _, p := range b.Warnings() {
			fmt.Printf("  [warning] %s: %s\n", p.File, p.Message)
		}
	}
	if veryVerbose {
		fmt.Printf("  algorithms: %v\n", b.Algorithms())
		fmt.Printf("  extended: %v\n", b.IsExtended())
		fmt.Printf("  version: %s\n", b.Version())
	}
	return ok
}
