package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jnayee7/minilang/pkg/driver"
)

func runFetch(args []string) int {
	fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	verbose := fs.Bool("v", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(os.Stderr, "mini fetch takes no arguments")
		return 2
	}
	logger := newLogger(*verbose)

	manifest, err := manifestNear(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load manifest: %v\n", err)
		return 1
	}
	if manifest == nil {
		fmt.Fprintf(os.Stderr, "%s not found\n", driver.ManifestName)
		return 1
	}
	if err := manifest.CheckTool(cliToolVersion); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	checkout, err := fetchSource(context.Background(), manifest, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	lock := driver.NewLockfile(cliToolVersion)
	lock.Source = checkout.Locked(manifest.Source)
	lockPath := filepath.Join(manifest.Dir(), driver.LockfileName)
	if err := driver.WriteLockfile(lock, lockPath); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	fmt.Fprintf(os.Stdout, "fetched %s@%s\n", manifest.Source.Git, checkout.Version)
	fmt.Fprintf(os.Stdout, "entry %s\n", checkout.Entry)
	return 0
}
