//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Default target to run when none is specified
var Default = Build.Build

const (
	binaryName   = "conductor"
	packagePath  = "./cmd/conductor"
	coverageFile = "coverage.out"
	coverageHTML = "coverage.html"
)

// Demo creates a project and lists projects through the facade's CLI
// entry point to smoke-test the wiring end to end.
func Demo() error {
	mg.Deps(Build.Build)
	fmt.Println("Running demo workflow...")

	commands := [][]string{
		{"./" + binaryName, "project", "create", `{"name":"Demo Project"}`},
		{"./" + binaryName, "project", "list", `{}`},
	}

	for _, cmd := range commands {
		fmt.Printf("$ %s\n", strings.Join(cmd, " "))
		if err := sh.Run(cmd[0], cmd[1:]...); err != nil {
			return err
		}
		fmt.Println()
	}

	return nil
}

// Help shows available targets with descriptions
func Help() error {
	fmt.Println("Conductor Task Orchestration Service")
	fmt.Println()

	fmt.Println("Main Targets:")
	mainTargets := map[string]string{
		"build:build":   "Build binary for current platform",
		"build:install": "Install binary to $GOPATH/bin",
		"build:run":     "Build and run application",
		"demo":          "Run demo workflow",
		"build:clean":   "Remove build artifacts",
		"util:check":    "Run all quality checks",
		"util:setup":    "Setup development environment",
		"util:ci":       "Run CI pipeline",
		"build:version": "Show version information",
	}
	for target, desc := range mainTargets {
		fmt.Printf("  %-14s %s\n", target, desc)
	}

	fmt.Println("\nTest Targets:")
	fmt.Println("  test:all          Run all tests")
	fmt.Println("  test:unit         Run unit tests only")
	fmt.Println("  test:integration  Run integration tests")
	fmt.Println("  test:coverage     Run tests with coverage")
	fmt.Println("  test:race         Run tests with race detection")
	fmt.Println("  test:bench        Run benchmarks")
	fmt.Println("  test:view         Open coverage report")

	fmt.Println("\nRelease Targets:")
	fmt.Println("  release:build     Build for all platforms with goreleaser")
	fmt.Println("  release:dryrun    Run a dry release")
	fmt.Println("  release:release   Create release with goreleaser")

	fmt.Println("\nUtility Targets:")
	utilTargets := map[string]string{
		"util:fmt":      "Format code",
		"util:vet":      "Run go vet",
		"util:lint":     "Run golangci-lint",
		"util:lintfix":  "Run linter with auto-fix",
		"util:security": "Run security checks",
		"util:generate": "Run go generate",
		"util:tidy":     "Tidy go modules",
		"util:update":   "Update dependencies",
	}
	for target, desc := range utilTargets {
		fmt.Printf("  %-14s %s\n", target, desc)
	}

	fmt.Println("\nUsage: mage <target>")
	fmt.Println("Default target: build:build")
	return nil
}

// Helper functions shared across the other magefiles.
func getVersion() string {
	if version := os.Getenv("VERSION"); version != "" {
		return version
	}
	if output, err := sh.Output("git", "describe", "--tags", "--always", "--dirty"); err == nil {
		return strings.TrimSpace(output)
	}
	return "dev"
}

func getCommit() string {
	if output, err := sh.Output("git", "rev-parse", "--short", "HEAD"); err == nil {
		return strings.TrimSpace(output)
	}
	return "unknown"
}
