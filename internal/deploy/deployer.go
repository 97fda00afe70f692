// Package deploy sequences the full grid deployment workflow: preflight
// checks, ordered resource reconciliation, readiness polling, controller
// launch and lifecycle monitoring. The sequence is fail-fast: the first
// step that cannot report success halts the deployment.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	corev1 "k8s.io/api/core/v1"

	"github.com/qaops/gridctl/internal/kubectl"
	"github.com/qaops/gridctl/internal/poller"
	"github.com/qaops/gridctl/internal/reconcile"
	"github.com/qaops/gridctl/internal/ui"
)

const (
	// DefaultNamespace holds every resource of a deployment.
	DefaultNamespace = "test-automation"

	workerSelector     = "component=chrome-node"
	controllerSelector = "component=test-controller"
	workerService      = "chrome-node-service"

	minNodeCount = 1
	maxNodeCount = 5
)

// Spec is the immutable description of one deployment.
type Spec struct {
	NodeCount    int
	ManifestsDir string
	Namespace    string
}

// Step-level failures surfaced by the deployer. Each marks the retry or
// timeout budget of one readiness check as exhausted, or a terminal
// controller outcome.
var (
	ErrInvalidNodeCount   = errors.New("node count must be between 1 and 5")
	ErrWorkersNotReady    = errors.New("workers never became ready")
	ErrNoEndpoints        = errors.New("service has no endpoints after max retries")
	ErrControllerNotFound = errors.New("controller pod not found")
	ErrTestsFailed        = errors.New("tests failed")
	ErrPhaseUnreadable    = errors.New("controller phase could not be read")
)

// Deployer drives the workflow against one cluster.
type Deployer struct {
	spec       Spec
	client     *kubectl.Client
	reconciler *reconcile.Reconciler
	log        *ui.Logger
	logsOut    io.Writer

	workersTimeout   time.Duration
	workersInterval  time.Duration
	endpointAttempts int
	endpointInterval time.Duration
	discoverTimeout  time.Duration
	discoverInterval time.Duration

	// notifyInterrupt scopes log streaming so the operator can interrupt
	// it without aborting the final phase check.
	notifyInterrupt func(context.Context) (context.Context, context.CancelFunc)

	// streamLogs is swapped in tests to avoid spawning kubectl.
	streamLogs func(ctx context.Context, selector string, w io.Writer) error
}

// New validates the spec and builds a Deployer. An out-of-range node count
// fails here, before any orchestrator call is made.
func New(spec Spec, log *ui.Logger) (*Deployer, error) {
	if spec.NodeCount < minNodeCount || spec.NodeCount > maxNodeCount {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidNodeCount, spec.NodeCount)
	}
	if spec.Namespace == "" {
		spec.Namespace = DefaultNamespace
	}

	client := kubectl.NewClient(spec.Namespace)
	d := &Deployer{
		spec:       spec,
		client:     client,
		reconciler: reconcile.New(client, spec.ManifestsDir, log),
		log:        log,
		logsOut:    os.Stdout,

		workersTimeout:   5 * time.Minute,
		workersInterval:  5 * time.Second,
		endpointAttempts: 5,
		endpointInterval: 10 * time.Second,
		discoverTimeout:  60 * time.Second,
		discoverInterval: 2 * time.Second,

		notifyInterrupt: func(ctx context.Context) (context.Context, context.CancelFunc) {
			return signal.NotifyContext(ctx, os.Interrupt)
		},
	}
	d.streamLogs = d.client.StreamLogs
	return d, nil
}

// Run executes the complete workflow and returns the first hard failure.
func (d *Deployer) Run(ctx context.Context) error {
	d.log.Banner("KUBERNETES TEST AUTOMATION DEPLOYMENT")
	d.log.Infof("node count: %d", d.spec.NodeCount)

	type namedStep struct {
		name string
		run  func(context.Context) error
	}

	sequence := []namedStep{
		{"preflight", d.preflight},
		{"namespace", func(ctx context.Context) error {
			return d.reconciler.Apply(ctx, reconcile.KindNamespace)
		}},
		{"config", func(ctx context.Context) error {
			return d.reconciler.ApplyConfig(ctx, d.spec.NodeCount)
		}},
		{"worker pool", d.deployWorkers},
		{"service", func(ctx context.Context) error {
			return d.reconciler.Apply(ctx, reconcile.KindService)
		}},
		{"workers healthy", d.workersReady},
		{"endpoints verified", d.endpointsReady},
		{"controller", func(ctx context.Context) error {
			return d.reconciler.Apply(ctx, reconcile.KindController)
		}},
	}

	for _, step := range sequence {
		if err := step.run(ctx); err != nil {
			d.log.Errorf("%s: %v", step.name, err)
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}

	if err := d.Monitor(ctx); err != nil {
		return err
	}

	d.log.Rule()
	d.log.Successf("DEPLOYMENT COMPLETED")
	d.log.Rule()
	return nil
}

// preflight verifies the CLI tool and live cluster connectivity before any
// mutation is attempted.
func (d *Deployer) preflight(ctx context.Context) error {
	d.log.Infof("checking kubectl installation...")
	if err := d.client.ClientVersion(ctx); err != nil {
		return fmt.Errorf("kubectl not found or not configured: %w", err)
	}
	d.log.Successf("kubectl is installed")

	d.log.Infof("checking cluster connection...")
	if err := d.client.ClusterInfo(ctx); err != nil {
		return fmt.Errorf("cannot connect to cluster: %w", err)
	}
	d.log.Successf("connected to cluster")
	return nil
}

// deployWorkers applies the worker deployment then scales it to the
// requested replica count.
func (d *Deployer) deployWorkers(ctx context.Context) error {
	if err := d.reconciler.Apply(ctx, reconcile.KindWorkers); err != nil {
		return err
	}
	return d.reconciler.ScaleWorkers(ctx, d.spec.NodeCount)
}

// workersReady polls until exactly NodeCount worker pods exist and every
// one reports the Ready condition, bounded by wall-clock timeout.
func (d *Deployer) workersReady(ctx context.Context) error {
	d.log.Infof("waiting for %d worker pods to be ready...", d.spec.NodeCount)

	out := poller.Deadline(ctx, d.workersTimeout, d.workersInterval, func(ctx context.Context) error {
		pods, err := d.client.PodsByLabel(ctx, workerSelector)
		if err != nil {
			return err
		}
		if len(pods) != d.spec.NodeCount {
			return fmt.Errorf("found %d/%d pods", len(pods), d.spec.NodeCount)
		}

		ready := readyCount(pods)
		d.log.Infof("ready: %d/%d workers", ready, d.spec.NodeCount)
		if ready != d.spec.NodeCount {
			return fmt.Errorf("%d/%d pods ready", ready, d.spec.NodeCount)
		}
		return nil
	})

	if !out.Succeeded {
		return fmt.Errorf("%w after %s: %v", ErrWorkersNotReady, out.Elapsed.Round(time.Second), out.LastErr)
	}
	d.log.Successf("all workers are ready")
	return nil
}

// endpointsReady polls the worker service until at least one endpoint
// address is published, bounded by attempt count.
func (d *Deployer) endpointsReady(ctx context.Context) error {
	d.log.Infof("verifying %s endpoints...", workerService)

	out := poller.Attempts(ctx, d.endpointAttempts, d.endpointInterval, func(ctx context.Context) error {
		eps, err := d.client.Endpoints(ctx, workerService)
		if err != nil {
			return err
		}
		if n := addressCount(eps); n > 0 {
			d.log.Successf("service has %d endpoints", n)
			return nil
		}
		return errors.New("service has no endpoints")
	})

	if !out.Succeeded {
		return fmt.Errorf("%w: %v", ErrNoEndpoints, out.LastErr)
	}
	return nil
}

// Monitor follows the controller pod to a terminal state. The deployment
// fails only when the pod cannot be located, the final phase query is
// unreadable, or the observed phase is Failed; an interrupted stream with
// the pod still Running is success with a warning.
func (d *Deployer) Monitor(ctx context.Context) error {
	d.log.Infof("monitoring test execution...")

	var podName string
	out := poller.Deadline(ctx, d.discoverTimeout, d.discoverInterval, func(ctx context.Context) error {
		pods, err := d.client.PodsByLabel(ctx, controllerSelector)
		if err != nil {
			return err
		}
		if len(pods) == 0 {
			return errors.New("no controller pods yet")
		}
		podName = pods[0].Name
		return nil
	})
	if !out.Succeeded {
		return fmt.Errorf("%w: %v", ErrControllerNotFound, out.LastErr)
	}
	d.log.Successf("controller pod: %s", podName)

	d.log.Rule()
	d.log.Infof("TEST CONTROLLER LOGS:")
	d.log.Rule()

	streamCtx, stop := d.notifyInterrupt(ctx)
	err := d.streamLogs(streamCtx, controllerSelector, d.logsOut)
	interrupted := streamCtx.Err() != nil && ctx.Err() == nil
	stop()
	if err != nil {
		d.log.Warningf("log stream ended: %v", err)
	}
	if interrupted {
		d.log.Warningf("log streaming interrupted")
	}

	// Final phase check runs even after an interrupt.
	phase, err := d.controllerPhase(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPhaseUnreadable, err)
	}

	switch phase {
	case corev1.PodSucceeded:
		d.log.Successf("tests completed successfully")
		return nil
	case corev1.PodRunning:
		d.log.Warningf("tests are still running")
		return nil
	default:
		d.log.Errorf("tests failed (status: %s)", phase)
		return fmt.Errorf("%w: phase %s", ErrTestsFailed, phase)
	}
}

// controllerPhase queries the controller pod's current phase.
func (d *Deployer) controllerPhase(ctx context.Context) (corev1.PodPhase, error) {
	pods, err := d.client.PodsByLabel(ctx, controllerSelector)
	if err != nil {
		return corev1.PodUnknown, err
	}
	if len(pods) == 0 {
		return corev1.PodUnknown, errors.New("controller pod disappeared")
	}
	return pods[0].Status.Phase, nil
}

// Cleanup deletes the deployment namespace. Safe to call at any point,
// including after a failed deployment; an already-absent namespace counts
// as success.
func (d *Deployer) Cleanup(ctx context.Context) error {
	d.log.Infof("cleaning up resources...")

	err := d.client.DeleteNamespace(ctx)
	switch {
	case err == nil:
		d.log.Successf("resources cleaned up")
		return nil
	case errors.Is(err, kubectl.ErrNothingToClean):
		d.log.Warningf("nothing to clean: namespace %s already absent", d.spec.Namespace)
		return nil
	default:
		d.log.Errorf("failed to clean up resources: %v", err)
		return err
	}
}

func readyCount(pods []corev1.Pod) int {
	n := 0
	for _, pod := range pods {
		for _, cond := range pod.Status.Conditions {
			if cond.Type == corev1.PodReady && cond.Status == corev1.ConditionTrue {
				n++
				break
			}
		}
	}
	return n
}

func addressCount(eps *corev1.Endpoints) int {
	n := 0
	for _, subset := range eps.Subsets {
		n += len(subset.Addresses)
	}
	return n
}
