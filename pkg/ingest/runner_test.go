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
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/srcdex/srcdex/pkg/index"
)

// makePackageDir writes a tiny package tree and returns its path.
func makePackageDir(t *testing.T, root, name, version string) string {
	t.Helper()
	dir := filepath.Join(root, name+"_"+version)
	if err := os.MkdirAll(filepath.Join(dir, "src"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for _, f := range []string{"README", "src/main.c"} {
		if err := os.WriteFile(filepath.Join(dir, f), []byte(name+" "+version+" "+f+"\n"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	return dir
}

func newTestRunner(t *testing.T, store index.Store, workers int) (*Runner, *Orchestrator) {
	t.Helper()
	orch := NewOrchestrator(Config{})
	if err := orch.Register(NewChecksumPlugin(orch.Config())); err != nil {
		t.Fatalf("register: %v", err)
	}
	return NewRunner(orch, store, workers), orch
}

func TestRunner_IngestsBatchConcurrently(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	root := t.TempDir()

	var tasks []Task
	for _, spec := range []struct{ name, version string }{
		{"zlib", "1.2.8"}, {"zlib", "1.2.11"}, {"sed", "4.2-1"}, {"tar", "1.29"},
	} {
		dir := makePackageDir(t, root, spec.name, spec.version)
		tasks = append(tasks, Task{
			Pkg: PackageMeta{Name: spec.name, Version: spec.version, Area: "main", Suites: []string{"stable"}},
			Dir: dir,
		})
	}

	runner, _ := newTestRunner(t, store, 4)
	if failures := runner.Run(ctx, tasks); len(failures) != 0 {
		t.Fatalf("failures: %v", failures)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Packages != 3 || stats.Versions != 4 {
		t.Errorf("stats = %+v, want 3 packages / 4 versions", stats)
	}
	if stats.Files != 8 || stats.Checksums != 8 {
		t.Errorf("stats = %+v, want 8 files / 8 checksums", stats)
	}

	// Suite mappings landed too.
	v, err := store.GetVersion(ctx, "sed", "4.2-1")
	if err != nil {
		t.Fatalf("get version: %v", err)
	}
	suites, err := store.SuitesFor(ctx, v.ID)
	if err != nil || len(suites) != 1 || suites[0] != "stable" {
		t.Errorf("suites = %v err=%v", suites, err)
	}
}

func TestRunner_DropsDuplicateVersionTasks(t *testing.T) {
	store := openTestStore(t)
	root := t.TempDir()
	dir := makePackageDir(t, root, "zlib", "1.2.8")

	task := Task{Pkg: PackageMeta{Name: "zlib", Version: "1.2.8", Area: "main"}, Dir: dir}

	var done int32
	runner, _ := newTestRunner(t, store, 4)
	runner.OnDone = func(Task, error) { atomic.AddInt32(&done, 1) }

	if failures := runner.Run(context.Background(), []Task{task, task, task}); len(failures) != 0 {
		t.Fatalf("failures: %v", failures)
	}
	// At most one pass per (package, version) may be active; duplicates
	// in a batch are dropped, not serialized.
	if done != 1 {
		t.Errorf("processed %d tasks, want 1", done)
	}
}

func TestRunner_RemoveTask(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	root := t.TempDir()
	dir := makePackageDir(t, root, "zlib", "1.2.8")

	pkg := PackageMeta{Name: "zlib", Version: "1.2.8", Area: "main"}
	runner, _ := newTestRunner(t, store, 1)
	if failures := runner.Run(ctx, []Task{{Pkg: pkg, Dir: dir}}); len(failures) != 0 {
		t.Fatalf("ingest failures: %v", failures)
	}

	if failures := runner.Run(ctx, []Task{{Pkg: pkg, Dir: dir, Remove: true}}); len(failures) != 0 {
		t.Fatalf("remove failures: %v", failures)
	}

	if _, err := store.GetVersion(ctx, "zlib", "1.2.8"); err == nil {
		t.Error("version still indexed after removal")
	}
	if _, err := os.Stat(SumsPath(dir)); !os.IsNotExist(err) {
		t.Error("sidecar still present after removal")
	}
}

func TestRunner_CollectsFailuresAndContinues(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	root := t.TempDir()

	good := Task{
		Pkg: PackageMeta{Name: "sed", Version: "4.2-1", Area: "main"},
		Dir: makePackageDir(t, root, "sed", "4.2-1"),
	}
	// Missing directory: the walk fails and the failure is attributed,
	// but the rest of the batch still runs.
	bad := Task{
		Pkg: PackageMeta{Name: "ghost", Version: "0.1", Area: "main"},
		Dir: filepath.Join(root, "ghost_0.1"),
	}

	runner, _ := newTestRunner(t, store, 2)
	failures := runner.Run(ctx, []Task{bad, good})
	if len(failures) != 1 {
		t.Fatalf("failures = %d, want 1", len(failures))
	}
	if failures[0].Task.Pkg.Name != "ghost" {
		t.Errorf("failure attributed to %q", failures[0].Task.Pkg.Name)
	}

	if _, err := store.GetVersion(ctx, "sed", "4.2-1"); err != nil {
		t.Errorf("surviving task not ingested: %v", err)
	}
}

func TestRunner_CancelledRunFailsUnstartedTasks(t *testing.T) {
	store := openTestStore(t)
	root := t.TempDir()

	var tasks []Task
	for _, spec := range []struct{ name, version string }{
		{"zlib", "1.2.8"}, {"sed", "4.2-1"}, {"tar", "1.29"},
	} {
		tasks = append(tasks, Task{
			Pkg: PackageMeta{Name: spec.name, Version: spec.version, Area: "main"},
			Dir: makePackageDir(t, root, spec.name, spec.version),
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner, _ := newTestRunner(t, store, 1)
	failures := runner.Run(ctx, tasks)

	// Tasks never handed to a worker count as failures too, with the
	// context's error, so "N of M" reporting stays honest.
	if len(failures) != len(tasks) {
		t.Fatalf("failures = %d, want %d", len(failures), len(tasks))
	}
	seen := map[string]bool{}
	for _, f := range failures {
		if !errors.Is(f.Err, context.Canceled) {
			t.Errorf("%s failed with %v, want context.Canceled", f.Task.Pkg, f.Err)
		}
		seen[f.Task.Pkg.String()] = true
	}
	if len(seen) != len(tasks) {
		t.Errorf("failures cover %d distinct tasks, want %d", len(seen), len(tasks))
	}
}
