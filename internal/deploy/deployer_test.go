package deploy

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qaops/gridctl/internal/kubectl"
	"github.com/qaops/gridctl/internal/ui"
)

func podListJSON(total, ready int, phase string) string {
	var items []string
	for i := 0; i < total; i++ {
		status := "False"
		if i < ready {
			status = "True"
		}
		items = append(items, fmt.Sprintf(`{
			"metadata": {"name": "pod-%d"},
			"status": {
				"phase": %q,
				"conditions": [{"type": "Ready", "status": %q}]
			}
		}`, i, phase, status))
	}
	return fmt.Sprintf(`{"items": [%s]}`, strings.Join(items, ","))
}

const (
	emptyEndpoints  = `{"subsets": []}`
	filledEndpoints = `{"subsets": [{"addresses": [{"ip": "10.0.0.1"}]}]}`
)

func newTestDeployer(t *testing.T, nodeCount int, fake *kubectl.FakeRunner) *Deployer {
	t.Helper()

	d, err := New(Spec{NodeCount: nodeCount, ManifestsDir: "k8s/manifests"}, ui.New(io.Discard))
	require.NoError(t, err)

	d.client.Runner = fake
	d.logsOut = io.Discard
	d.streamLogs = func(context.Context, string, io.Writer) error { return nil }

	d.workersTimeout = 50 * time.Millisecond
	d.workersInterval = time.Millisecond
	d.endpointInterval = time.Millisecond
	d.discoverTimeout = 50 * time.Millisecond
	d.discoverInterval = time.Millisecond
	return d
}

func isSelector(args []string, selector string) bool {
	for _, a := range args {
		if a == selector {
			return true
		}
	}
	return false
}

func TestNewRejectsInvalidNodeCount(t *testing.T) {
	t.Parallel()

	for _, count := range []int{-1, 0, 6, 100} {
		_, err := New(Spec{NodeCount: count}, ui.New(io.Discard))
		assert.ErrorIs(t, err, ErrInvalidNodeCount, "node count %d", count)
	}
}

func TestNewAcceptsValidRange(t *testing.T) {
	t.Parallel()

	for count := 1; count <= 5; count++ {
		d, err := New(Spec{NodeCount: count}, ui.New(io.Discard))
		require.NoError(t, err)
		assert.Equal(t, DefaultNamespace, d.spec.Namespace)
	}
}

func TestWorkersReadyFirstPoll(t *testing.T) {
	t.Parallel()

	fake := &kubectl.FakeRunner{Handler: func(args []string) (kubectl.Result, error) {
		return kubectl.Result{ExitCode: 0, Stdout: podListJSON(3, 3, "Running")}, nil
	}}
	d := newTestDeployer(t, 3, fake)

	err := d.workersReady(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, fake.CallCount("get", "pods"))
}

func TestWorkersReadyHealthPredicate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name         string
		total, ready int
		want         bool
	}{
		{"all ready", 3, 3, true},
		{"too few pods", 2, 2, false},
		{"too many pods", 4, 4, false},
		{"not all ready", 3, 2, false},
		{"none ready", 3, 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			fake := &kubectl.FakeRunner{Handler: func([]string) (kubectl.Result, error) {
				return kubectl.Result{ExitCode: 0, Stdout: podListJSON(tc.total, tc.ready, "Running")}, nil
			}}
			d := newTestDeployer(t, 3, fake)

			err := d.workersReady(context.Background())
			if tc.want {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrWorkersNotReady)
			}
		})
	}
}

func TestWorkersReadyTransientQueryFailure(t *testing.T) {
	t.Parallel()

	// First poll fails outright, second returns healthy pods: the failure
	// is absorbed by the budget rather than surfaced.
	polls := 0
	fake := &kubectl.FakeRunner{Handler: func(args []string) (kubectl.Result, error) {
		if args[0] == "get" && args[1] == "pods" {
			polls++
			if polls == 1 {
				return kubectl.Result{ExitCode: 1, Stderr: "etcd timeout"}, nil
			}
		}
		return kubectl.Result{ExitCode: 0, Stdout: podListJSON(2, 2, "Running")}, nil
	}}
	d := newTestDeployer(t, 2, fake)

	err := d.workersReady(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, polls)
}

func TestEndpointsReadySucceedsOnFinalAttempt(t *testing.T) {
	t.Parallel()

	attempt := 0
	fake := &kubectl.FakeRunner{Handler: func(args []string) (kubectl.Result, error) {
		attempt++
		if attempt < 5 {
			return kubectl.Result{ExitCode: 0, Stdout: emptyEndpoints}, nil
		}
		return kubectl.Result{ExitCode: 0, Stdout: filledEndpoints}, nil
	}}
	d := newTestDeployer(t, 2, fake)

	err := d.endpointsReady(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, attempt)
}

func TestEndpointsReadyExhaustsBudget(t *testing.T) {
	t.Parallel()

	fake := &kubectl.FakeRunner{Handler: func([]string) (kubectl.Result, error) {
		return kubectl.Result{ExitCode: 0, Stdout: emptyEndpoints}, nil
	}}
	d := newTestDeployer(t, 2, fake)

	err := d.endpointsReady(context.Background())
	assert.ErrorIs(t, err, ErrNoEndpoints)
	assert.Equal(t, 5, fake.CallCount("get", "endpoints"))
}

// fullClusterHandler simulates a healthy cluster for end-to-end runs.
func fullClusterHandler(nodeCount int, controllerPhase string) func(args []string) (kubectl.Result, error) {
	return func(args []string) (kubectl.Result, error) {
		switch {
		case args[0] == "get" && args[1] == "pods" && isSelector(args, controllerSelector):
			return kubectl.Result{ExitCode: 0, Stdout: podListJSON(1, 1, controllerPhase)}, nil
		case args[0] == "get" && args[1] == "pods":
			return kubectl.Result{ExitCode: 0, Stdout: podListJSON(nodeCount, nodeCount, "Running")}, nil
		case args[0] == "get" && args[1] == "endpoints":
			return kubectl.Result{ExitCode: 0, Stdout: filledEndpoints}, nil
		case args[0] == "get" && args[1] == "namespace":
			return kubectl.Result{ExitCode: 1, Stderr: "NotFound"}, nil
		default:
			return kubectl.Result{ExitCode: 0}, nil
		}
	}
}

func TestRunSucceededPhase(t *testing.T) {
	t.Parallel()

	fake := &kubectl.FakeRunner{Handler: fullClusterHandler(3, "Succeeded")}
	d := newTestDeployer(t, 3, fake)

	err := d.Run(context.Background())
	require.NoError(t, err)

	// The mutation side of the sequence ran in order.
	commands := fake.Commands()
	assert.Contains(t, commands, "apply -f k8s/manifests/01-namespace.yaml")
	assert.Contains(t, commands, "apply -f -")
	assert.Contains(t, commands, "apply -f k8s/manifests/03-chrome-node-deployment.yaml")
	assert.Contains(t, commands, "scale deployment chrome-node --replicas=3 -n test-automation")
	assert.Contains(t, commands, "apply -f k8s/manifests/04-chrome-node-service.yaml")
	assert.Contains(t, commands, "apply -f k8s/manifests/05-test-controller-deployment.yaml")
}

func TestRunFailedPhase(t *testing.T) {
	t.Parallel()

	fake := &kubectl.FakeRunner{Handler: fullClusterHandler(2, "Failed")}
	d := newTestDeployer(t, 2, fake)

	err := d.Run(context.Background())
	assert.ErrorIs(t, err, ErrTestsFailed)
}

func TestRunStillRunningIsSuccessWithWarning(t *testing.T) {
	t.Parallel()

	fake := &kubectl.FakeRunner{Handler: fullClusterHandler(2, "Running")}
	d := newTestDeployer(t, 2, fake)

	err := d.Run(context.Background())
	assert.NoError(t, err)
}

func TestRunHaltsOnPreflightFailure(t *testing.T) {
	t.Parallel()

	fake := &kubectl.FakeRunner{Handler: func(args []string) (kubectl.Result, error) {
		if args[0] == "cluster-info" {
			return kubectl.Result{ExitCode: 1, Stderr: "unable to connect"}, nil
		}
		return kubectl.Result{ExitCode: 0}, nil
	}}
	d := newTestDeployer(t, 2, fake)

	err := d.Run(context.Background())
	require.ErrorContains(t, err, "cannot connect to cluster")

	// Fail-fast: no mutation was attempted.
	assert.Equal(t, 0, fake.CallCount("apply"))
	assert.Equal(t, 0, fake.CallCount("scale"))
}

func TestMonitorControllerNeverFound(t *testing.T) {
	t.Parallel()

	fake := &kubectl.FakeRunner{Handler: func(args []string) (kubectl.Result, error) {
		return kubectl.Result{ExitCode: 0, Stdout: `{"items": []}`}, nil
	}}
	d := newTestDeployer(t, 2, fake)

	err := d.Monitor(context.Background())
	assert.ErrorIs(t, err, ErrControllerNotFound)
}

func TestMonitorUnreadableFinalPhase(t *testing.T) {
	t.Parallel()

	discovered := false
	fake := &kubectl.FakeRunner{Handler: func(args []string) (kubectl.Result, error) {
		if !discovered {
			discovered = true
			return kubectl.Result{ExitCode: 0, Stdout: podListJSON(1, 1, "Running")}, nil
		}
		return kubectl.Result{ExitCode: 0, Stdout: "{garbage"}, nil
	}}
	d := newTestDeployer(t, 2, fake)

	err := d.Monitor(context.Background())
	assert.ErrorIs(t, err, ErrPhaseUnreadable)
}

func TestCleanupIdempotent(t *testing.T) {
	t.Parallel()

	deleted := false
	fake := &kubectl.FakeRunner{Handler: func(args []string) (kubectl.Result, error) {
		if deleted {
			return kubectl.Result{ExitCode: 1, Stderr: "Error from server (NotFound)"}, nil
		}
		deleted = true
		return kubectl.Result{ExitCode: 0}, nil
	}}
	d := newTestDeployer(t, 2, fake)

	require.NoError(t, d.Cleanup(context.Background()))
	require.NoError(t, d.Cleanup(context.Background()))
}
