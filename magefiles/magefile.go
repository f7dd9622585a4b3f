//go:build mage

// Package main provides build targets for basket using Mage.
//
// Usage:
//
//	mage build          Compile basket binary to bin/
//	mage test           Run all tests
//	mage testUnit       Run tests that need no external services
//	mage testRedis      Run the redis backend tests against $BASKET_TEST_REDIS_ADDR
//	mage lint           Run golangci-lint
//	mage clean          Remove build artifacts
//	mage install        Install basket to GOPATH/bin
//	mage stats          Print Go lines of code
package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binaryName = "basket"
	binaryDir  = "bin"
	cmdDir     = "./cmd/basket"
	versionVar = "github.com/mesh-intelligence/basket/internal/cli.Version"
)

// Build compiles the basket binary to bin/. Set BASKET_VERSION to stamp a
// release version.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	args := []string{"build", "-v", "-o", filepath.Join(binaryDir, binaryName)}
	if v := os.Getenv("BASKET_VERSION"); v != "" {
		args = append(args, "-ldflags", "-X "+versionVar+"="+v)
	}
	return sh.RunV(binGo, append(args, cmdDir)...)
}

// Test runs all tests.
func Test() error {
	return sh.RunV(binGo, "test", "./...")
}

// TestUnit runs all tests with the redis backend tests skipped.
func TestUnit() error {
	return sh.RunWithV(map[string]string{"BASKET_TEST_REDIS_ADDR": ""}, binGo, "test", "-race", "./...")
}

// TestRedis runs the KV backend tests against the redis server named by
// BASKET_TEST_REDIS_ADDR.
func TestRedis() error {
	if os.Getenv("BASKET_TEST_REDIS_ADDR") == "" {
		return errors.New("BASKET_TEST_REDIS_ADDR is not set")
	}
	return sh.RunV(binGo, "test", "-run", "TestRedis", "-v", "./internal/kv/...")
}

// Lint runs golangci-lint.
func Lint() error {
	return sh.RunV("golangci-lint", "run", "./...")
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}

// Stats prints Go lines of code for production and test files.
func Stats() error {
	var prodLines, testLines int

	err := filepath.Walk(".", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			switch path {
			case "vendor", ".git", binaryDir, "_examples", "magefiles":
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}
		count, countErr := countLines(path)
		if countErr != nil {
			return nil
		}
		if strings.HasSuffix(path, "_test.go") {
			testLines += count
		} else {
			prodLines += count
		}
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Printf("Lines of code (Go, production): %d\n", prodLines)
	fmt.Printf("Lines of code (Go, tests):      %d\n", testLines)
	fmt.Printf("Lines of code (Go, total):      %d\n", prodLines+testLines)
	return nil
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		count++
	}
	return count, scanner.Err()
}
