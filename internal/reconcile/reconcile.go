// Package reconcile applies the fixed set of declarative resources that
// make up a grid deployment. Application is idempotent: a resource that
// already exists is success, and re-running the full sequence against an
// applied cluster is a no-op.
package reconcile

import (
	"context"
	"fmt"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/qaops/gridctl/internal/kubectl"
	"github.com/qaops/gridctl/internal/ui"
)

// Kind enumerates the deployable resources. The set is closed: steps are
// looked up in a fixed table and an unknown kind is a construction-time
// error, never a silent default.
type Kind int

const (
	KindNamespace Kind = iota
	KindConfig
	KindWorkers
	KindService
	KindController
)

func (k Kind) String() string {
	switch k {
	case KindNamespace:
		return "namespace"
	case KindConfig:
		return "config"
	case KindWorkers:
		return "workers"
	case KindService:
		return "service"
	case KindController:
		return "controller"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// step describes how one resource kind is applied and pre-checked.
type step struct {
	manifest string // file name under the manifests dir
	// existence pre-check; empty resourceKind means no pre-check.
	resourceKind string
	resourceName string
	namespaced   bool
}

var steps = map[Kind]step{
	KindNamespace: {
		manifest:     "01-namespace.yaml",
		resourceKind: "namespace",
		// resourceName left empty: the pre-check substitutes the client's
		// configured namespace.
	},
	KindConfig: {
		manifest: "02-configmap.yaml",
	},
	KindWorkers: {
		manifest: "03-chrome-node-deployment.yaml",
	},
	KindService: {
		manifest: "04-chrome-node-service.yaml",
	},
	KindController: {
		manifest: "05-test-controller-deployment.yaml",
	},
}

// Reconciler applies manifests through the kubectl client.
type Reconciler struct {
	Client       *kubectl.Client
	ManifestsDir string
	Log          *ui.Logger

	// WorkerDeployment is the name scale operations target.
	WorkerDeployment string
}

// New returns a Reconciler over the given client and manifests directory.
func New(client *kubectl.Client, manifestsDir string, log *ui.Logger) *Reconciler {
	return &Reconciler{
		Client:           client,
		ManifestsDir:     manifestsDir,
		Log:              log,
		WorkerDeployment: "chrome-node",
	}
}

// Apply applies one resource kind. A pre-check hit ("already exists") is
// success without reapplying.
func (r *Reconciler) Apply(ctx context.Context, kind Kind) error {
	st, ok := steps[kind]
	if !ok {
		return fmt.Errorf("unknown resource kind %v", kind)
	}

	if st.resourceKind != "" {
		name := st.resourceName
		if name == "" {
			name = r.Client.Namespace
		}
		ns := ""
		if st.namespaced {
			ns = r.Client.Namespace
		}
		if r.Client.ResourceExists(ctx, st.resourceKind, name, ns) {
			r.Log.Warningf("%s %s already exists", st.resourceKind, name)
			return nil
		}
	}

	path := filepath.Join(r.ManifestsDir, st.manifest)
	if err := r.Client.ApplyFile(ctx, path); err != nil {
		return fmt.Errorf("applying %s: %w", kind, err)
	}
	r.Log.Successf("%s applied", kind)
	return nil
}

// configMapManifest is the generated ConfigMap carrying deployment
// parameters into the controller pod.
type configMapManifest struct {
	APIVersion string            `yaml:"apiVersion"`
	Kind       string            `yaml:"kind"`
	Metadata   configMapMetadata `yaml:"metadata"`
	Data       map[string]string `yaml:"data"`
}

type configMapMetadata struct {
	Name      string `yaml:"name"`
	Namespace string `yaml:"namespace"`
}

// ApplyConfig deploys the test-automation ConfigMap. The imperative path
// renders the manifest from the live node count and applies it via stdin;
// if generation or application fails it falls back to the static file.
func (r *Reconciler) ApplyConfig(ctx context.Context, nodeCount int) error {
	manifest := configMapManifest{
		APIVersion: "v1",
		Kind:       "ConfigMap",
		Metadata: configMapMetadata{
			Name:      "test-automation-config",
			Namespace: r.Client.Namespace,
		},
		Data: map[string]string{
			"node_count":          fmt.Sprintf("%d", nodeCount),
			"max_retries":         "5",
			"retry_delay":         "10",
			"chrome_node_service": "http://chrome-node-service:4444",
		},
	}

	rendered, err := yaml.Marshal(manifest)
	if err != nil {
		r.Log.Warningf("config generation failed: %v", err)
	} else if applyErr := r.Client.ApplyStdin(ctx, string(rendered)); applyErr != nil {
		r.Log.Warningf("generated config rejected: %v", applyErr)
	} else {
		r.Log.Successf("config deployed (node_count=%d)", nodeCount)
		return nil
	}

	// Fallback: static manifest file.
	r.Log.Warningf("using config from file")
	if err := r.Apply(ctx, KindConfig); err != nil {
		return fmt.Errorf("config fallback: %w", err)
	}
	return nil
}

// ScaleWorkers sets the worker pool's desired replica count. The base
// deployment must have been applied first.
func (r *Reconciler) ScaleWorkers(ctx context.Context, replicas int) error {
	if err := r.Client.ScaleDeployment(ctx, r.WorkerDeployment, replicas); err != nil {
		return fmt.Errorf("scaling %s to %d: %w", r.WorkerDeployment, replicas, err)
	}
	r.Log.Successf("%s scaled to %d", r.WorkerDeployment, replicas)
	return nil
}
