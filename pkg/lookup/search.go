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

package lookup

import (
	"context"
	"fmt"
	"strings"

	"github.com/srcdex/srcdex/pkg/index"
)

// Search answers "which packages contain a file with this content hash",
// irrespective of where in each package the file sits.
type Search struct {
	store index.Store
}

// NewSearch creates a search engine over an index store.
func NewSearch(store index.Store) *Search {
	return &Search{store: store}
}

// normalizeDigest lowercases a hex digest and verifies its shape, so
// lookups are insensitive to the case a caller typed the hash in.
func normalizeDigest(digest string) (string, error) {
	digest = strings.ToLower(strings.TrimSpace(digest))
	if len(digest) != 64 {
		return "", fmt.Errorf("digest must be 64 hex characters, got %d", len(digest))
	}
	for _, c := range digest {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return "", fmt.Errorf("digest contains non-hex character %q", c)
		}
	}
	return digest, nil
}

// Find returns the ordered (package, version, path) triples whose file
// content hashes to digest. opts narrows by exact package name and
// selects a pagination window; the full join is re-executed per call.
func (s *Search) Find(ctx context.Context, digest string, opts index.FindOpts) ([]index.Result, error) {
	digest, err := normalizeDigest(digest)
	if err != nil {
		return nil, err
	}
	return s.store.FindChecksum(ctx, digest, opts)
}

// Count returns the number of matches Find would return before slicing.
func (s *Search) Count(ctx context.Context, digest, pkg string) (int, error) {
	digest, err := normalizeDigest(digest)
	if err != nil {
		return 0, err
	}
	return s.store.CountChecksum(ctx, digest, pkg)
}

// DigestOf returns the recorded content hash of one file of one package
// version, or "" when the file carries no checksum.
func (s *Search) DigestOf(ctx context.Context, pkg, version, path string) (string, error) {
	// Paths are stored as raw bytes; the string key arriving from a
	// request boundary is compared byte-wise, no encoding applied.
	return s.store.DigestOf(ctx, pkg, version, []byte(path))
}
