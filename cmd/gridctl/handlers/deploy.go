// Package handlers implements the business logic for CLI commands.
//
// Handler functions are called by command definitions in the commands
// package. They are framework-agnostic and tested independently of the
// CLI framework via the factory function variables below.
package handlers

import (
	"context"

	"github.com/qaops/gridctl/internal/deploy"
	"github.com/qaops/gridctl/internal/ui"
)

// Grid abstracts the deployer for testing - matches deploy.Deployer.
type Grid interface {
	Run(ctx context.Context) error
	Cleanup(ctx context.Context) error
}

// Factory function variables - can be replaced in tests for dependency injection.
var (
	// newDeployer builds the cluster deployer.
	newDeployer = func(spec deploy.Spec, log *ui.Logger) (Grid, error) {
		return deploy.New(spec, log)
	}

	// newLogger builds the operator-facing logger.
	newLogger = ui.Default
)

// Deploy runs the complete deployment workflow.
//
// Spec validation happens before any cluster call: an out-of-range node
// count is rejected without touching the orchestrator.
func Deploy(ctx context.Context, nodeCount int, manifestsDir string) error {
	log := newLogger()

	d, err := newDeployer(deploy.Spec{
		NodeCount:    nodeCount,
		ManifestsDir: manifestsDir,
	}, log)
	if err != nil {
		log.Errorf("%v", err)
		return err
	}

	return d.Run(ctx)
}

// Cleanup deletes all deployed resources.
func Cleanup(ctx context.Context) error {
	log := newLogger()

	// Node count is irrelevant for cleanup; use the minimum so spec
	// validation passes.
	d, err := newDeployer(deploy.Spec{NodeCount: 1}, log)
	if err != nil {
		return err
	}

	return d.Cleanup(ctx)
}
