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
	"reflect"
	"strings"
	"testing"

	"github.com/srcdex/srcdex/pkg/index"
)

// recordPlugin appends "<title>:<event>" to a shared log on every call.
type recordPlugin struct {
	title string
	ext   string
	calls *[]string
	fail  error
}

func (p *recordPlugin) Title() string { return p.title }
func (p *recordPlugin) Ext() string   { return p.ext }

func (p *recordPlugin) AddPackage(ctx context.Context, store index.Store, pkg PackageMeta, pkgdir string) error {
	*p.calls = append(*p.calls, p.title+":add")
	return p.fail
}

func (p *recordPlugin) RemovePackage(ctx context.Context, store index.Store, pkg PackageMeta, pkgdir string) error {
	*p.calls = append(*p.calls, p.title+":remove")
	return p.fail
}

func TestOrchestrator_FiresInRegistrationOrder(t *testing.T) {
	orch := NewOrchestrator(Config{})
	var calls []string
	for _, title := range []string{"first", "second", "third"} {
		if err := orch.Register(&recordPlugin{title: title, calls: &calls}); err != nil {
			t.Fatalf("register %s: %v", title, err)
		}
	}

	pkg := PackageMeta{Name: "zlib", Version: "1.2.8"}
	if err := orch.FireAddPackage(context.Background(), nil, pkg, "/tmp/zlib"); err != nil {
		t.Fatalf("fire: %v", err)
	}
	want := []string{"first:add", "second:add", "third:add"}
	if !reflect.DeepEqual(calls, want) {
		t.Errorf("calls = %v, want %v", calls, want)
	}

	calls = nil
	if err := orch.FireRemovePackage(context.Background(), nil, pkg, "/tmp/zlib"); err != nil {
		t.Fatalf("fire remove: %v", err)
	}
	want = []string{"first:remove", "second:remove", "third:remove"}
	if !reflect.DeepEqual(calls, want) {
		t.Errorf("remove calls = %v, want %v", calls, want)
	}
}

func TestOrchestrator_FailureNamesStage(t *testing.T) {
	orch := NewOrchestrator(Config{})
	var calls []string
	boom := errors.New("walk failed")
	if err := orch.Register(&recordPlugin{title: "checksums", calls: &calls, fail: boom}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := orch.Register(&recordPlugin{title: "after", calls: &calls}); err != nil {
		t.Fatalf("register: %v", err)
	}

	err := orch.FireAddPackage(context.Background(), nil,
		PackageMeta{Name: "zlib", Version: "1.2.8"}, "/tmp/zlib")
	if err == nil {
		t.Fatal("expected failure")
	}
	if !errors.Is(err, boom) {
		t.Errorf("error chain lost the cause: %v", err)
	}
	if !strings.Contains(err.Error(), "checksums") {
		t.Errorf("error does not name the failing stage: %v", err)
	}
	// The failing handler aborts the event for this package.
	if len(calls) != 1 {
		t.Errorf("handlers after the failure must not run: %v", calls)
	}
}

func TestOrchestrator_ExtCollision(t *testing.T) {
	orch := NewOrchestrator(Config{})
	var calls []string
	if err := orch.Register(&recordPlugin{title: "checksums", ext: ".checksums", calls: &calls}); err != nil {
		t.Fatalf("register: %v", err)
	}
	err := orch.Register(&recordPlugin{title: "other", ext: ".checksums", calls: &calls})
	if err == nil {
		t.Fatal("expected collision error for an already-owned extension")
	}
	if orch.ExtOwner(".checksums") != "checksums" {
		t.Errorf("ext owner = %q", orch.ExtOwner(".checksums"))
	}
}

func TestConfig_PassEnabled(t *testing.T) {
	all := Config{}
	if !all.PassEnabled(PassFS) || !all.PassEnabled(PassDB) {
		t.Error("empty pass set must enable everything")
	}

	fsOnly := Config{Passes: []string{PassFS}}
	if !fsOnly.PassEnabled(PassFS) {
		t.Error("fs pass should be enabled")
	}
	if fsOnly.PassEnabled(PassDB) {
		t.Error("db pass should be disabled")
	}
}
