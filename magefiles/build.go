//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Testbed compiles the demo binary, the namespace's one remaining target
// now that the old material/skybox/UI shader set has no render-feature
// consuming it (the frame orchestrator has no material system — see
// DESIGN.md's note on the dropped shader pipeline).
func (Build) Testbed() error {
	fmt.Println("Build testbed...")
	if _, err := executeCmd("go", withArgs("build", "-o", "bin/testbed", "main.go"), withStream()); err != nil {
		return err
	}
	return nil
}
