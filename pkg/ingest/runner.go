// Copyright 2025 The Srcdex Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package ingest

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/srcdex/srcdex/pkg/index"
)

// Task is one package event to process: add when Remove is false,
// removal otherwise. Dir is the package version's extracted tree.
type Task struct {
	Pkg    PackageMeta
	Dir    string
	Remove bool
}

// Failure attributes one failed task to its error. The error already
// names the plugin stage that raised it.
type Failure struct {
	Task Task
	Err  error
}

// Runner processes a batch of package events with a bounded worker pool.
//
// The parallelism unit is one package version: versions share no mutable
// state, so distinct versions proceed concurrently, while the steps
// inside one version stay sequential. The runner never schedules two
// tasks for the same (package, version) in one batch, which is what keeps
// concurrent ingestion safe without cross-version locks; the core has no
// internal mutual exclusion for same-version re-runs.
//
// A failed task does not stop the batch: failures are collected and
// returned so the caller decides whether the run as a whole succeeded.
type Runner struct {
	orch    *Orchestrator
	store   index.Store
	workers int
	logger  *slog.Logger
	runID   string

	// OnDone, when set, is called after each task completes, from worker
	// goroutines. Used by the CLI to advance its progress display.
	OnDone func(Task, error)
}

// NewRunner creates a runner over an orchestrator and a store handle.
// workers < 1 means a single worker.
func NewRunner(orch *Orchestrator, store index.Store, workers int) *Runner {
	if workers < 1 {
		workers = 1
	}
	logger := orch.Config().Logger
	if logger == nil {
		logger = slog.Default()
	}
	runID := uuid.NewString()
	return &Runner{
		orch:    orch,
		store:   store,
		workers: workers,
		logger:  logger.With("run_id", runID),
		runID:   runID,
	}
}

// RunID identifies this ingestion run in logs.
func (r *Runner) RunID() string { return r.runID }

// Run processes the batch and returns the failures, in no particular
// order. Duplicate (package, version) tasks are dropped with a warning so
// at most one pass per version is ever active. Run returns early when ctx
// is cancelled; tasks not yet started are counted as failures with the
// context's error.
func (r *Runner) Run(ctx context.Context, tasks []Task) []Failure {
	seen := make(map[string]bool, len(tasks))
	queue := make([]Task, 0, len(tasks))
	for _, task := range tasks {
		key := task.Pkg.String()
		if seen[key] {
			r.logger.Warn("ingest.task.duplicate", "package", task.Pkg.Name, "version", task.Pkg.Version)
			continue
		}
		seen[key] = true
		queue = append(queue, task)
	}

	r.logger.Info("ingest.run.start", "tasks", len(queue), "workers", r.workers)

	var (
		mu       sync.Mutex
		failures []Failure
		wg       sync.WaitGroup
	)
	ch := make(chan Task)

	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range ch {
				err := r.process(ctx, task)
				if err != nil {
					mu.Lock()
					failures = append(failures, Failure{Task: task, Err: err})
					mu.Unlock()
				}
				if r.OnDone != nil {
					r.OnDone(task, err)
				}
			}
		}()
	}

feed:
	for i := range queue {
		select {
		case ch <- queue[i]:
		case <-ctx.Done():
			// Every task not yet handed to a worker is a failure.
			mu.Lock()
			for _, rest := range queue[i:] {
				failures = append(failures, Failure{Task: rest, Err: ctx.Err()})
			}
			mu.Unlock()
			break feed
		}
	}
	close(ch)
	wg.Wait()

	r.logger.Info("ingest.run.done", "tasks", len(queue), "failed", len(failures))
	return failures
}

// process handles one task: metadata rows first for additions, then the
// plugin passes; removal fires the plugins first so they can still look
// the version up, then drops the version row itself.
func (r *Runner) process(ctx context.Context, task Task) error {
	start := time.Now()
	cfg := r.orch.Config()

	var err error
	if task.Remove {
		err = r.orch.FireRemovePackage(ctx, r.store, task.Pkg, task.Dir)
		if err == nil && cfg.PassEnabled(PassDB) {
			err = r.store.DeleteVersion(ctx, task.Pkg.Name, task.Pkg.Version)
		}
	} else {
		if cfg.PassEnabled(PassDB) {
			err = r.indexMetadata(ctx, task)
		}
		if err == nil {
			err = r.orch.FireAddPackage(ctx, r.store, task.Pkg, task.Dir)
		}
	}

	ingMetrics.observePackage(time.Since(start), err != nil)
	if err != nil {
		r.logger.Error("ingest.package.failed",
			"package", task.Pkg.Name, "version", task.Pkg.Version, "err", err)
	}
	return err
}

// indexMetadata creates the package, version, file and suite rows for an
// added version. Already-present rows are left as they are.
func (r *Runner) indexMetadata(ctx context.Context, task Task) error {
	v, err := r.store.CreateVersion(ctx, task.Pkg.Name, index.Version{
		VNumber: task.Pkg.Version,
		Area:    task.Pkg.Area,
	})
	if err != nil {
		return err
	}

	files, err := WalkPackageFiles(task.Dir, r.orch.Config().Excludes)
	if err != nil {
		return err
	}
	paths := make([][]byte, len(files))
	for i, f := range files {
		paths[i] = []byte(f)
	}
	if err := r.store.CreateFiles(ctx, v.ID, paths); err != nil {
		return err
	}

	for _, suite := range task.Pkg.Suites {
		if err := r.store.AddSuite(ctx, v.ID, suite); err != nil {
			return err
		}
	}
	return nil
}
