package commands

import (
	"github.com/spf13/cobra"

	"github.com/qaops/gridctl/cmd/gridctl/handlers"
)

// Deploy returns the command for the full deployment workflow.
//
// It provisions the namespace, config, worker pool, service and test
// controller, waits for every readiness gate, then follows the test run
// to a terminal state.
//
// Optional flags:
//
//	--node-count, -n:    number of browser worker pods (1-5, default 2)
//	--manifests-dir, -m: directory containing the Kubernetes manifests
//	--cleanup:           tear down all deployed resources instead of deploying
func Deploy() *cobra.Command {
	var (
		nodeCount    int
		manifestsDir string
		cleanup      bool
	)

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy the browser-test grid and run the suite",
		Long: `Deploy the browser-test grid and run the test suite.

The workflow applies the namespace, config, worker deployment and service,
scales the worker pool to --node-count, waits for all workers and service
endpoints to become ready, then launches the test controller and streams
its logs until the run finishes.

Examples:
  # Deploy with the default two workers
  gridctl deploy

  # Deploy a five-worker grid from a custom manifests directory
  gridctl deploy --node-count 5 --manifests-dir deploy/manifests

  # Tear everything down
  gridctl deploy --cleanup`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cleanup {
				return handlers.Cleanup(cmd.Context())
			}
			return handlers.Deploy(cmd.Context(), nodeCount, manifestsDir)
		},
	}

	cmd.Flags().IntVarP(&nodeCount, "node-count", "n", 2, "Number of browser worker pods (1-5)")
	cmd.Flags().StringVarP(&manifestsDir, "manifests-dir", "m", "k8s/manifests", "Directory containing Kubernetes YAML files")
	cmd.Flags().BoolVar(&cleanup, "cleanup", false, "Clean up all deployed resources")

	return cmd
}
