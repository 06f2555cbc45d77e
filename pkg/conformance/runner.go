package conformance

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"typelab/pkg/registry"
	"typelab/pkg/typeexpr"
	"typelab/pkg/typeset"
)

// Options configure a conformance run.
type Options struct {
	// Dir is the fixture tree root.
	Dir string
	// Include/Exclude filter suites by name substring.
	Include []string
	Exclude []string
	// Parallelism bounds concurrent suites; cases inside a suite run
	// sequentially. Zero means one suite at a time.
	Parallelism int
	// FailFast cancels the run on the first failed case.
	FailFast bool
}

// Runner executes conformance suites against fresh checkers.
type Runner struct {
	opts Options
	log  *zap.Logger
}

// NewRunner builds a runner; a nil logger is replaced with a nop logger.
func NewRunner(opts Options, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Parallelism < 1 {
		opts.Parallelism = 1
	}
	return &Runner{opts: opts, log: log}
}

// Run discovers, loads, filters, and executes suites, delivering events to
// the reporter. The returned state tallies every executed case.
func (r *Runner) Run(ctx context.Context, reporter Reporter) (*EventState, error) {
	paths, err := Discover(r.opts.Dir)
	if err != nil {
		return nil, err
	}
	suites := make([]*Suite, 0, len(paths))
	for _, path := range paths {
		suite, err := LoadSuite(path)
		if errors.Is(err, ErrNotASuite) {
			r.log.Debug("skipping non-suite file", zap.String("path", path))
			continue
		}
		if err != nil {
			return nil, err
		}
		suites = append(suites, suite)
	}
	suites = filterSuites(suites, r.opts.Include, r.opts.Exclude)

	runID := uuid.NewString()
	r.log.Info("conformance run starting",
		zap.String("run_id", runID), zap.Int("suites", len(suites)),
		zap.Int("parallelism", r.opts.Parallelism), zap.Bool("fail_fast", r.opts.FailFast))
	reporter.RunStart(runID, len(suites))

	state := &EventState{}
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(r.opts.Parallelism)
	for _, suite := range suites {
		suite := suite
		group.Go(func() error {
			return r.runSuite(groupCtx, runID, suite, reporter, state)
		})
	}
	err = group.Wait()
	reporter.RunEnd(state)
	if err != nil && err != errFailFast {
		return state, err
	}
	r.log.Info("conformance run finished",
		zap.String("run_id", runID), zap.Int("total", state.Total),
		zap.Int("failed", state.Failed), zap.Int("skipped", state.Skipped))
	return state, nil
}

// errFailFast aborts the errgroup without reporting a runner error.
var errFailFast = fmt.Errorf("conformance: fail fast")

func (r *Runner) runSuite(ctx context.Context, runID string, suite *Suite, reporter Reporter, state *EventState) error {
	checker, err := r.suiteChecker(suite)
	if err != nil {
		return err
	}
	reporter.SuiteStart(suite)
	for _, c := range suite.Cases {
		if err := ctx.Err(); err != nil {
			return err
		}
		ev := r.runCase(runID, suite, c, checker)
		state.record(ev)
		reporter.Case(ev)
		if r.opts.FailFast && !ev.Passed && !ev.Skipped {
			return errFailFast
		}
	}
	return nil
}

// suiteChecker builds a fresh registry (plus the suite's extra manifest,
// resolved relative to the suite file) and a checker bound to it.
func (r *Runner) suiteChecker(suite *Suite) (*typeset.Checker, error) {
	reg := registry.New(registry.WithLogger(r.log))
	if suite.Registry != "" {
		manifestPath := suite.Registry
		if !filepath.IsAbs(manifestPath) {
			manifestPath = filepath.Join(filepath.Dir(suite.Path), manifestPath)
		}
		manifest, err := registry.LoadManifest(manifestPath)
		if err != nil {
			return nil, fmt.Errorf("conformance: suite %s: %w", suite.Name, err)
		}
		if err := reg.Merge(manifest); err != nil {
			return nil, fmt.Errorf("conformance: suite %s: %w", suite.Name, err)
		}
	}
	return typeset.New(reg, typeset.WithLogger(r.log)), nil
}

func (r *Runner) runCase(runID string, suite *Suite, c Case, checker *typeset.Checker) Event {
	ev := Event{
		RunID:    runID,
		Suite:    suite.Name,
		Case:     c.Name,
		Relation: c.Relation,
		Left:     c.Left,
		Right:    c.Right,
		Expected: c.Expect,
	}
	if c.Skip != "" {
		ev.Skipped = true
		ev.Reason = c.Skip
		return ev
	}
	start := time.Now()
	defer func() { ev.Duration = time.Since(start) }()

	left, err := typeexpr.Parse(checker, c.Left)
	if err != nil {
		ev.Error = fmt.Sprintf("left: %v", err)
		return ev
	}
	right, err := typeexpr.Parse(checker, c.Right)
	if err != nil {
		ev.Error = fmt.Sprintf("right: %v", err)
		return ev
	}

	switch c.Relation {
	case RelationSubtype:
		ev.Actual = checker.IsSubtypeOf(left, right)
	case RelationAssignable:
		ev.Actual = checker.IsAssignableTo(left, right)
	case RelationDisjoint:
		ev.Actual = checker.IsDisjointFrom(left, right)
	case RelationEquivalent:
		ev.Actual = checker.IsEquivalentTo(left, right)
	}
	ev.Passed = ev.Actual == ev.Expected
	return ev
}
