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
	"fmt"
	"log/slog"

	"github.com/srcdex/srcdex/pkg/index"
)

// Event names a package lifecycle event plugins can subscribe to.
type Event string

const (
	// EventAddPackage fires when a package version enters the archive.
	EventAddPackage Event = "add-package"

	// EventRemovePackage fires when a package version leaves the archive.
	EventRemovePackage Event = "rm-package"
)

// Processing pass tags. A run enables some subset; plugins consult the
// set to decide whether to do filesystem work, index work, or both.
const (
	// PassFS enables filesystem work: walking trees and writing sidecar
	// artifacts next to package directories.
	PassFS = "fs"

	// PassDB enables index work: reading and writing store rows.
	PassDB = "db"
)

// PackageMeta identifies one package version in an event payload.
type PackageMeta struct {
	Name    string
	Version string

	// Area and Suites feed the metadata rows created when the version is
	// first indexed; plugins normally only need Name and Version.
	Area   string
	Suites []string
}

func (p PackageMeta) String() string {
	return p.Name + "/" + p.Version
}

// Config is the per-run configuration handed to the orchestrator at
// construction and exposed to plugins. One Config exists per ingestion
// run; there is no ambient global.
type Config struct {
	// Passes enables processing passes by tag (PassFS, PassDB). Empty
	// enables both.
	Passes []string

	// Excludes are doublestar globs matched against relative paths during
	// tree walks; matching files and directories are not processed.
	Excludes []string

	// Logger is optional; nil uses slog.Default().
	Logger *slog.Logger
}

// PassEnabled reports whether the run enables the given pass tag.
func (c Config) PassEnabled(tag string) bool {
	if len(c.Passes) == 0 {
		return true
	}
	for _, p := range c.Passes {
		if p == tag {
			return true
		}
	}
	return false
}

// Handler is one plugin's reaction to one event. The store handle belongs
// to the current run; the pkgdir is the package version's extracted tree.
type Handler func(ctx context.Context, store index.Store, pkg PackageMeta, pkgdir string) error

// Plugin is the capability a processing plugin exposes: a stable title
// for failure attribution, an optional sidecar extension it owns, and the
// two event reactions.
type Plugin interface {
	Title() string

	// Ext returns the sidecar file extension the plugin owns, or "" when
	// it writes no sidecar artifacts. Extensions are claimed exclusively
	// so two plugins never collide on the same sidecar name.
	Ext() string

	AddPackage(ctx context.Context, store index.Store, pkg PackageMeta, pkgdir string) error
	RemovePackage(ctx context.Context, store index.Store, pkg PackageMeta, pkgdir string) error
}

type subscription struct {
	title   string
	handler Handler
}

// Orchestrator is the named-event bus driving per-package processing
// passes. It is constructed once per ingestion run, populated with
// subscriptions at startup, and treated as immutable once events start
// firing. It holds no state beyond the registration table.
type Orchestrator struct {
	cfg    Config
	logger *slog.Logger
	subs   map[Event][]subscription
	exts   map[string]string // extension -> owner title
}

// NewOrchestrator creates an event bus for one ingestion run.
func NewOrchestrator(cfg Config) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		cfg:    cfg,
		logger: logger,
		subs:   make(map[Event][]subscription),
		exts:   make(map[string]string),
	}
}

// Config returns the run configuration.
func (o *Orchestrator) Config() Config {
	return o.cfg
}

// Subscribe appends a handler for an event. Handlers fire in subscription
// order; the title attributes failures to the plugin that raised them.
func (o *Orchestrator) Subscribe(event Event, handler Handler, title string) {
	o.subs[event] = append(o.subs[event], subscription{title: title, handler: handler})
	o.logger.Debug("hooks.subscribe", "event", string(event), "title", title)
}

// DeclareExt claims a sidecar extension for a plugin. Claiming an
// extension another plugin already owns is an error.
func (o *Orchestrator) DeclareExt(ext, title string) error {
	if owner, taken := o.exts[ext]; taken && owner != title {
		return fmt.Errorf("sidecar extension %q already owned by %q", ext, owner)
	}
	o.exts[ext] = title
	return nil
}

// ExtOwner returns the title owning an extension, or "".
func (o *Orchestrator) ExtOwner(ext string) string {
	return o.exts[ext]
}

// Register wires a plugin onto both package events and claims its sidecar
// extension, if it declares one.
func (o *Orchestrator) Register(p Plugin) error {
	if ext := p.Ext(); ext != "" {
		if err := o.DeclareExt(ext, p.Title()); err != nil {
			return err
		}
	}
	o.Subscribe(EventAddPackage, p.AddPackage, p.Title())
	o.Subscribe(EventRemovePackage, p.RemovePackage, p.Title())
	return nil
}

// Fire invokes every handler subscribed to event, in subscription order.
// The first failing handler aborts the event for this package; the error
// is wrapped with the handler's title and the event name so the caller
// can attribute the failure to its stage.
func (o *Orchestrator) Fire(ctx context.Context, event Event, store index.Store, pkg PackageMeta, pkgdir string) error {
	for _, sub := range o.subs[event] {
		if err := sub.handler(ctx, store, pkg, pkgdir); err != nil {
			return fmt.Errorf("%s: %s %s: %w", sub.title, event, pkg, err)
		}
	}
	return nil
}

// FireAddPackage fires the add-package event for one package version.
func (o *Orchestrator) FireAddPackage(ctx context.Context, store index.Store, pkg PackageMeta, pkgdir string) error {
	return o.Fire(ctx, EventAddPackage, store, pkg, pkgdir)
}

// FireRemovePackage fires the rm-package event for one package version.
func (o *Orchestrator) FireRemovePackage(ctx context.Context, store index.Store, pkg PackageMeta, pkgdir string) error {
	return o.Fire(ctx, EventRemovePackage, store, pkg, pkgdir)
}
