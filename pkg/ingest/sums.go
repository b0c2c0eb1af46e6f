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
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/srcdex/srcdex/pkg/index"
)

// ChecksumExt is the sidecar extension owned by the checksums plugin.
const ChecksumExt = ".checksums"

// SumsPath returns the sidecar digest listing location for a package
// directory: a sibling file, never inside the tree itself.
func SumsPath(pkgdir string) string {
	return pkgdir + ChecksumExt
}

// WriteSumsFile writes a sidecar digest listing in SHA256SUM(1) layout:
// one "<64-hex-digest>  <relative-path>\n" line per file. External
// consumers parse the fields positionally, so the digest occupies bytes
// [0,64) and the separator is exactly two spaces.
//
// The listing is written to a temporary sibling and renamed into place,
// so a crash mid-write never leaves a partial file under the final name.
func WriteSumsFile(path string, sums []index.FileSum) error {
	tmp := path + ".new"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create sums file: %w", err)
	}

	w := bufio.NewWriter(f)
	for _, sum := range sums {
		if len(sum.SHA256) != DigestLen {
			f.Close()
			os.Remove(tmp)
			return fmt.Errorf("bad digest length %d for %q", len(sum.SHA256), sum.Path)
		}
		w.WriteString(sum.SHA256)
		w.WriteString("  ")
		w.Write(sum.Path)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write sums file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close sums file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename sums file: %w", err)
	}
	return nil
}

// ParseSumsFile reads a sidecar digest listing back into (digest, path)
// pairs. Fields are taken by offset, not by splitting: paths may contain
// any byte except newline, including spaces and invalid UTF-8.
func ParseSumsFile(path string) ([]index.FileSum, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sums file: %w", err)
	}
	defer f.Close()

	var sums []index.FileSum
	r := bufio.NewReader(f)
	for {
		line, err := r.ReadBytes('\n')
		if len(line) > 0 {
			line = bytes.TrimRight(line, "\n")
			if len(line) < DigestLen+2 {
				return nil, fmt.Errorf("short line in %s: %q", path, line)
			}
			sums = append(sums, index.FileSum{
				SHA256: string(line[:DigestLen]),
				Path:   append([]byte(nil), line[DigestLen+2:]...),
			})
		}
		if err == io.EOF {
			return sums, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read sums file: %w", err)
		}
	}
}
