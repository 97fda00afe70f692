package handlers

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qaops/gridctl/internal/deploy"
	"github.com/qaops/gridctl/internal/ui"
)

type gridMock struct {
	runErr     error
	cleanupErr error
	runs       int
	cleanups   int
}

func (m *gridMock) Run(context.Context) error     { m.runs++; return m.runErr }
func (m *gridMock) Cleanup(context.Context) error { m.cleanups++; return m.cleanupErr }

func withMock(t *testing.T, mock *gridMock) {
	t.Helper()
	origDeployer := newDeployer
	origLogger := newLogger
	t.Cleanup(func() {
		newDeployer = origDeployer
		newLogger = origLogger
	})
	newDeployer = func(spec deploy.Spec, log *ui.Logger) (Grid, error) {
		return mock, nil
	}
	newLogger = func() *ui.Logger { return ui.New(io.Discard) }
}

func TestDeploy(t *testing.T) {
	mock := &gridMock{}
	withMock(t, mock)

	err := Deploy(context.Background(), 3, "k8s/manifests")
	require.NoError(t, err)
	assert.Equal(t, 1, mock.runs)
	assert.Equal(t, 0, mock.cleanups)
}

func TestDeployPropagatesFailure(t *testing.T) {
	mock := &gridMock{runErr: errors.New("workers never became ready")}
	withMock(t, mock)

	err := Deploy(context.Background(), 2, "k8s/manifests")
	assert.ErrorContains(t, err, "workers never became ready")
}

func TestDeployInvalidNodeCount(t *testing.T) {
	origLogger := newLogger
	t.Cleanup(func() { newLogger = origLogger })
	newLogger = func() *ui.Logger { return ui.New(io.Discard) }

	// Real constructor: validation fires before any cluster call.
	err := Deploy(context.Background(), 9, "k8s/manifests")
	assert.ErrorIs(t, err, deploy.ErrInvalidNodeCount)
}

func TestCleanup(t *testing.T) {
	mock := &gridMock{}
	withMock(t, mock)

	err := Cleanup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, mock.cleanups)
}
