// Copyright (c) 2014-2015 The Notify Authors. All rights reserved.
// Use of this source code is governed by the MIT license that can be
// found in the LICENSE file.

package watchtree

import "time"

// Kind identifies the semantic meaning of an Event. Kind is the fixed
// vocabulary the Interpreter emits; nothing outside this package
// constructs one directly.
type Kind int

const (
	// CreatedFile reports a new file, or a file renamed/moved into the
	// watched tree.
	CreatedFile Kind = iota
	// DeletedFile reports a file removed from the watched tree.
	DeletedFile
	// ModifiedFile reports a file's contents changing.
	ModifiedFile
	// CreatedDirectory reports a new directory, or one renamed/moved
	// into the watched tree. Its subtree is installed as a side effect.
	CreatedDirectory
	// DeletedDirectory reports a directory removed from the watched tree.
	DeletedDirectory
	// RenamedFile reports a file renamed within the same directory.
	RenamedFile
	// RenamedDirectory reports a directory renamed within the same
	// parent directory.
	RenamedDirectory
	// MovedFile reports a file moved between two watched directories.
	MovedFile
	// MovedDirectory reports a directory moved between two watched
	// directories.
	MovedDirectory
	// MovedFileOutOfWatch reports a file moved out of the watched tree,
	// or a rename whose matching half never arrived.
	MovedFileOutOfWatch
	// MovedOutOfWatch reports a directory moved out of the watched
	// tree, or a rename whose matching half never arrived.
	MovedOutOfWatch
	// NothingToWatch reports that the root directory itself was deleted
	// or moved; the observer has nothing left to watch and stops.
	NothingToWatch
)

var kindNames = map[Kind]string{
	CreatedFile:         "Created file",
	DeletedFile:         "Deleted file",
	ModifiedFile:        "Modified file",
	CreatedDirectory:    "Created directory",
	DeletedDirectory:    "Deleted directory",
	RenamedFile:         "Renamed file",
	RenamedDirectory:    "Renamed directory",
	MovedFile:           "Moved file",
	MovedDirectory:      "Moved directory",
	MovedFileOutOfWatch: "Moved file out of watch directory",
	MovedOutOfWatch:     "Moved out of watch directory",
	NothingToWatch:      "Nothing to watch",
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown event"
}

// Event is a single semantic change reported by the Interpreter. Path
// is set for every Kind except NothingToWatch, where it is empty;
// NewPath is set only for a rename or move, and is empty otherwise.
type Event struct {
	Kind    Kind
	Path    string
	NewPath string
	Time    time.Time
}

// String implements fmt.Stringer.
func (e Event) String() string {
	if e.NewPath != "" {
		return e.Kind.String() + ": " + e.Path + " -> " + e.NewPath
	}
	if e.Path == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Path
}
