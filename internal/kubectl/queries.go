package kubectl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"strings"

	corev1 "k8s.io/api/core/v1"
)

// Client issues the fixed command patterns the deployment workflow needs
// and decodes JSON output into typed objects.
type Client struct {
	Runner    Runner
	Namespace string
}

// NewClient returns a Client scoped to a namespace, backed by the real CLI.
func NewClient(namespace string) *Client {
	return &Client{Runner: &CLI{}, Namespace: namespace}
}

// ClientVersion checks that the kubectl binary is installed and runnable.
func (c *Client) ClientVersion(ctx context.Context) error {
	_, err := RunStrict(ctx, c.Runner, "version", "--client")
	return err
}

// ClusterInfo checks live connectivity to the cluster's API server.
func (c *Client) ClusterInfo(ctx context.Context) error {
	_, err := RunStrict(ctx, c.Runner, "cluster-info")
	return err
}

// ResourceExists reports whether a named resource is already present.
// Namespace-scoped lookups use the client's namespace when ns is empty.
func (c *Client) ResourceExists(ctx context.Context, kind, name, ns string) bool {
	args := []string{"get", kind, name}
	if ns != "" {
		args = append(args, "-n", ns)
	}
	res, err := c.Runner.Run(ctx, args...)
	return err == nil && res.ExitCode == 0
}

// ApplyFile applies a manifest file.
func (c *Client) ApplyFile(ctx context.Context, path string) error {
	_, err := RunStrict(ctx, c.Runner, "apply", "-f", path)
	return err
}

// ApplyStdin applies a manifest supplied on stdin.
func (c *Client) ApplyStdin(ctx context.Context, manifest string) error {
	res, err := c.Runner.RunWithStdin(ctx, manifest, "apply", "-f", "-")
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return &CommandError{Args: []string{"apply", "-f", "-"}, ExitCode: res.ExitCode, Stderr: res.Stderr}
	}
	return nil
}

// ScaleDeployment sets the desired replica count of a deployment.
func (c *Client) ScaleDeployment(ctx context.Context, name string, replicas int) error {
	_, err := RunStrict(ctx, c.Runner,
		"scale", "deployment", name,
		fmt.Sprintf("--replicas=%d", replicas),
		"-n", c.Namespace)
	return err
}

// PodsByLabel lists pods in the client namespace matching a label selector.
func (c *Client) PodsByLabel(ctx context.Context, selector string) ([]corev1.Pod, error) {
	res, err := RunStrict(ctx, c.Runner,
		"get", "pods", "-n", c.Namespace, "-l", selector, "-o", "json")
	if err != nil {
		return nil, err
	}

	var list corev1.PodList
	if err := json.Unmarshal([]byte(res.Stdout), &list); err != nil {
		return nil, fmt.Errorf("parsing pod list: %w", err)
	}
	return list.Items, nil
}

// Endpoints fetches a service's endpoints object.
func (c *Client) Endpoints(ctx context.Context, service string) (*corev1.Endpoints, error) {
	res, err := RunStrict(ctx, c.Runner,
		"get", "endpoints", service, "-n", c.Namespace, "-o", "json")
	if err != nil {
		return nil, err
	}

	var eps corev1.Endpoints
	if err := json.Unmarshal([]byte(res.Stdout), &eps); err != nil {
		return nil, fmt.Errorf("parsing endpoints: %w", err)
	}
	return &eps, nil
}

// DeleteNamespace deletes the client's namespace. A NotFound response is
// normalized to ErrNothingToClean so repeated cleanup stays idempotent.
func (c *Client) DeleteNamespace(ctx context.Context) error {
	res, err := c.Runner.Run(ctx, "delete", "namespace", c.Namespace)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		if strings.Contains(res.Stderr, "NotFound") || strings.Contains(res.Stderr, "not found") {
			return ErrNothingToClean
		}
		return &CommandError{
			Args:     []string{"delete", "namespace", c.Namespace},
			ExitCode: res.ExitCode,
			Stderr:   res.Stderr,
		}
	}
	return nil
}

// ErrNothingToClean marks a cleanup that found no namespace to delete.
var ErrNothingToClean = fmt.Errorf("namespace already absent")

// StreamLogs follows logs for pods matching the selector, writing the
// stream to w until it ends or ctx is cancelled. Cancellation is not an
// error: the monitoring phase is allowed to interrupt the stream.
func (c *Client) StreamLogs(ctx context.Context, selector string, w io.Writer) error {
	bin := "kubectl"
	if cli, ok := c.Runner.(*CLI); ok && cli.Binary != "" {
		bin = cli.Binary
	}

	// #nosec G204 -- fixed argument pattern
	cmd := exec.CommandContext(ctx, bin, "logs", "-f", "-n", c.Namespace, "-l", selector)
	cmd.Stdout = w
	cmd.Stderr = w

	err := cmd.Run()
	if ctx.Err() != nil {
		return nil
	}
	return err
}
