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
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/srcdex/srcdex/pkg/index"
)

// Entry is one member of a directory listing.
type Entry struct {
	Name    string `json:"name"`
	Type    string `json:"type"` // "file", "dir" or "symlink"
	Size    int64  `json:"size"`
	Perms   string `json:"perms"`
	Symlink string `json:"symlink,omitempty"`
}

// Listing reads the directory behind loc and returns its entries sorted
// by name. At the top level of an extracted package the quilt metadata
// directory ".pc" is hidden, matching how the archive presents sources.
func Listing(loc Location) ([]Entry, error) {
	dir := loc.SourcesPath
	members, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &index.NotFoundError{Path: loc.Path}
		}
		return nil, err
	}

	toplevel := loc.Path == "" || loc.Path == "."
	entries := make([]Entry, 0, len(members))
	for _, m := range members {
		if toplevel && m.Name() == ".pc" {
			continue
		}
		info, err := m.Info()
		if err != nil {
			// Entry vanished between ReadDir and Lstat.
			continue
		}
		e := Entry{
			Name:  m.Name(),
			Size:  info.Size(),
			Perms: PermString(info.Mode()),
		}
		switch {
		case info.Mode()&fs.ModeSymlink != 0:
			e.Type = "symlink"
			if target, err := os.Readlink(filepath.Join(dir, m.Name())); err == nil {
				e.Symlink = target
			}
		case info.IsDir():
			e.Type = "dir"
		default:
			e.Type = "file"
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// PermString renders mode the way ls -l does: a type rune followed by
// three rwx triplets.
func PermString(mode fs.FileMode) string {
	var buf [10]byte
	switch {
	case mode.IsDir():
		buf[0] = 'd'
	case mode&fs.ModeSymlink != 0:
		buf[0] = 'l'
	default:
		buf[0] = '-'
	}
	perm := mode.Perm()
	rwx := "rwxrwxrwx"
	for i := 0; i < 9; i++ {
		if perm&(1<<uint(8-i)) != 0 {
			buf[i+1] = rwx[i]
		} else {
			buf[i+1] = '-'
		}
	}
	return string(buf[:])
}
