// Package suite runs the browser test scenarios through one remote
// session. The session is the only live browser handle for the whole run
// and is released on every exit path.
package suite

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/qaops/gridctl/internal/testconf"
	"github.com/qaops/gridctl/internal/webdriver"
)

// Scenario is one named test case executed against a live session.
type Scenario struct {
	Name string
	Run  func(ctx context.Context, session *webdriver.Session, cfg *testconf.Config) error
}

// Scenarios returns the suite in execution order.
func Scenarios() []Scenario {
	return []Scenario{
		{
			Name: "navigate to careers page",
			Run: func(ctx context.Context, session *webdriver.Session, cfg *testconf.Config) error {
				home := NewHomePage(session)
				if err := home.Visit(ctx, cfg.URL); err != nil {
					return fmt.Errorf("visiting %s: %w", cfg.URL, err)
				}
				if err := home.OpenCompanyMenu(ctx); err != nil {
					return fmt.Errorf("opening company menu: %w", err)
				}
				if err := home.OpenCareers(ctx); err != nil {
					return fmt.Errorf("opening careers: %w", err)
				}
				return nil
			},
		},
	}
}

// Runner executes scenarios sequentially over a single session.
type Runner struct {
	RemoteURL string
	Config    *testconf.Config
	Log       zerolog.Logger

	// openSession is swapped in tests.
	openSession func(ctx context.Context, remoteURL string, browser testconf.Browser) (*webdriver.Session, error)
}

// NewRunner builds a Runner for the grid at remoteURL (the /wd/hub base).
func NewRunner(remoteURL string, cfg *testconf.Config, log zerolog.Logger) *Runner {
	return &Runner{
		RemoteURL:   remoteURL,
		Config:      cfg,
		Log:         log,
		openSession: webdriver.Open,
	}
}

// Run executes the whole suite. It returns an error if any scenario
// failed; the session is closed regardless of outcome.
func (r *Runner) Run(ctx context.Context) error {
	session, err := r.openSession(ctx, r.RemoteURL, r.Config.Browser)
	if err != nil {
		return fmt.Errorf("opening remote session: %w", err)
	}
	defer func() {
		if err := session.Close(context.WithoutCancel(ctx)); err != nil {
			r.Log.Warn().Err(err).Msg("releasing session")
		}
	}()

	failed := 0
	scenarios := Scenarios()
	for _, sc := range scenarios {
		r.Log.Info().Str("scenario", sc.Name).Msg("running")
		if err := sc.Run(ctx, session, r.Config); err != nil {
			failed++
			r.Log.Error().Err(err).Str("scenario", sc.Name).Msg("failed")
			continue
		}
		r.Log.Info().Str("scenario", sc.Name).Msg("passed")
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", failed, len(scenarios))
	}
	return nil
}
