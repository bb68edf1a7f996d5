package model

import "time"

// ImageFile is one accessible image file discovered by a resolve pass.
// Identity is the absolute path; instances are rebuilt on every scan and
// carry no state across scans.
type ImageFile struct {
	Path      string
	Name      string
	Ext       string // lowercased, includes the dot
	Size      int64
	CreatedAt time.Time
}

// RenameStep is one entry of a rename plan: the file currently at Path
// moves to TempName in phase 1 and to FinalName in phase 2. Names are
// relative to the watched directory.
type RenameStep struct {
	Path      string
	TempName  string
	FinalName string
}

// RenamePlan is the ordered set of renames needed to bring a directory
// to its contiguous chronological numbering. Computed fresh per pass.
type RenamePlan []RenameStep
