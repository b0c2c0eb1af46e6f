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

package main

import (
	"bytes"
	"os"
	"testing"
)

func TestNewProgressConfig(t *testing.T) {
	tests := []struct {
		name            string
		globals         GlobalFlags
		expectedEnabled bool
		expectedNoColor bool
	}{
		{
			name:            "default flags - progress disabled in test (not a TTY)",
			globals:         GlobalFlags{},
			expectedEnabled: false, // stderr is not a TTY in test environment
			expectedNoColor: false,
		},
		{
			name:            "quiet mode - progress disabled",
			globals:         GlobalFlags{Quiet: true},
			expectedEnabled: false,
			expectedNoColor: false,
		},
		{
			name:            "noColor flag propagates to config",
			globals:         GlobalFlags{NoColor: true},
			expectedEnabled: false, // stderr not a TTY in test
			expectedNoColor: true,
		},
		{
			name:            "quiet and noColor combined",
			globals:         GlobalFlags{Quiet: true, NoColor: true},
			expectedEnabled: false,
			expectedNoColor: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewProgressConfig(tt.globals)
			if cfg.Enabled != tt.expectedEnabled {
				t.Errorf("NewProgressConfig().Enabled = %v, want %v", cfg.Enabled, tt.expectedEnabled)
			}
			if cfg.NoColor != tt.expectedNoColor {
				t.Errorf("NewProgressConfig().NoColor = %v, want %v", cfg.NoColor, tt.expectedNoColor)
			}
			if cfg.Writer != os.Stderr {
				t.Error("NewProgressConfig().Writer should be os.Stderr")
			}
		})
	}
}

func TestNewProgressBar(t *testing.T) {
	t.Run("disabled config returns nil", func(t *testing.T) {
		cfg := ProgressConfig{Enabled: false}
		bar := NewProgressBar(cfg, 100, "Ingesting")
		if bar != nil {
			t.Error("NewProgressBar() should return nil when disabled")
		}
	})

	t.Run("enabled config returns non-nil with correct properties", func(t *testing.T) {
		var buf bytes.Buffer
		cfg := ProgressConfig{Enabled: true, Writer: &buf, NoColor: false}
		bar := NewProgressBar(cfg, 100, "Ingesting")
		if bar == nil {
			t.Fatal("NewProgressBar() should return non-nil when enabled")
		}
		// Verify bar can be used without panic
		_ = bar.Set(50)
		_ = bar.Finish()
	})

	t.Run("zero total creates valid bar", func(t *testing.T) {
		var buf bytes.Buffer
		cfg := ProgressConfig{Enabled: true, Writer: &buf}
		bar := NewProgressBar(cfg, 0, "Nothing to do")
		if bar == nil {
			t.Fatal("NewProgressBar() should handle zero total")
		}
		_ = bar.Finish()
	})

	t.Run("noColor option is respected", func(t *testing.T) {
		var buf bytes.Buffer
		cfg := ProgressConfig{Enabled: true, Writer: &buf, NoColor: true}
		bar := NewProgressBar(cfg, 10, "Removing")
		if bar == nil {
			t.Fatal("NewProgressBar() should return non-nil")
		}
		_ = bar.Set(5)
		_ = bar.Finish()
	})
}

func TestParseSpec(t *testing.T) {
	tests := []struct {
		arg     string
		name    string
		version string
		wantErr bool
	}{
		{"zlib/1.2.8.dfsg-2", "zlib", "1.2.8.dfsg-2", false},
		{"sed/4.9-2", "sed", "4.9-2", false},
		// Epoch and revision separators stay in the version part.
		{"bash/1:5.2.15-2", "bash", "1:5.2.15-2", false},
		{"gnubg/1.02.000-2/doc", "gnubg", "1.02.000-2/doc", false},
		{"zlib", "", "", true},
		{"zlib/", "", "", true},
		{"/1.2.8", "", "", true},
		{"", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			name, version, err := parseSpec(tt.arg)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseSpec(%q) expected error, got %q/%q", tt.arg, name, version)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseSpec(%q) unexpected error: %v", tt.arg, err)
			}
			if name != tt.name || version != tt.version {
				t.Errorf("parseSpec(%q) = %q, %q, want %q, %q", tt.arg, name, version, tt.name, tt.version)
			}
		})
	}
}

func TestMergePasses(t *testing.T) {
	tests := []struct {
		name       string
		configured []string
		flags      []string
		want       []string
	}{
		{"flags override configured", []string{"fs", "db"}, []string{"db"}, []string{"db"}},
		{"empty flags keep configured", []string{"fs"}, nil, []string{"fs"}},
		{"both empty means all passes", nil, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mergePasses(tt.configured, tt.flags)
			if len(got) != len(tt.want) {
				t.Fatalf("mergePasses() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("mergePasses()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
