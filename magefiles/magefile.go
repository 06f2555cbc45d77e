//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Build compiles the typelab binary into bin/.
func Build() error {
	fmt.Println("building typelab...")
	return sh.RunV("go", "build", "-o", "bin/typelab", "./cmd/typelab")
}

// Test runs the full test suite with race detection.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Lint runs go vet and gofmt checks.
func Lint() error {
	if err := sh.RunV("go", "vet", "./..."); err != nil {
		return err
	}
	out, err := sh.Output("gofmt", "-l", ".")
	if err != nil {
		return err
	}
	if out != "" {
		return fmt.Errorf("gofmt needed:\n%s", out)
	}
	return nil
}

// Check runs lint then tests.
func Check() {
	mg.SerialDeps(Lint, Test)
}

// Tidy syncs go.mod with the source tree.
func Tidy() error {
	return sh.RunV("go", "mod", "tidy")
}
