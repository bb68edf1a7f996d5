package engine

import (
	"path/filepath"

	"github.com/BBlackMMan/Renamer/internal/events"
	"github.com/BBlackMMan/Renamer/internal/model"
)

// ComputePlan maps the creation-ordered file list onto the contiguous
// canonical numbering and returns a step for every file whose current
// name differs from its target. Extensions are preserved per file
// (lowercased); a directory may legally mix png, jpg, and jpeg.
//
// Already-correctly-named files still move when their position shifted:
// global contiguity wins over leaving a lucky name untouched.
func ComputePlan(files []model.ImageFile, prefix string) model.RenamePlan {
	var plan model.RenamePlan
	for i, f := range files {
		final := model.FinalName(prefix, i, f.Ext)
		if f.Name == final {
			continue
		}
		plan = append(plan, model.RenameStep{
			Path:      f.Path,
			TempName:  model.TempName(prefix, i, f.Ext),
			FinalName: final,
		})
	}
	return plan
}

// applyPlan executes the plan in two phases and returns the number of
// files that reached their final name.
//
// Direct current-to-final renames would collide whenever the desired
// permutation is not a pure shift (the file at _02 moving to _01 while
// another takes _02). Going through temporaries first makes every
// permutation safe: temp names cannot collide with final names (the
// marker prefix) nor with each other (the per-pass index).
//
// Both phases are best-effort. A phase-1 failure drops that entry from
// phase 2; a phase-2 failure leaves the file under its temporary name
// with its registry entry kept as a diagnostic. Either way the next
// pass resolves the directory fresh and self-heals what it can.
func (e *Engine) applyPlan(plan model.RenamePlan) int {
	var survivors model.RenamePlan
	for _, step := range plan {
		tempPath := filepath.Join(e.dir, step.TempName)
		// Register before renaming so the event handler never sees the
		// temp name as foreign content.
		e.registerTemp(step.TempName)
		if err := e.fs.Rename(step.Path, tempPath); err != nil {
			e.logger.Warnf("phase 1: %s -> %s: %v", filepath.Base(step.Path), step.TempName, err)
			e.unregisterTemp(step.TempName)
			continue
		}
		survivors = append(survivors, step)
	}

	renamed := 0
	for _, step := range survivors {
		tempPath := filepath.Join(e.dir, step.TempName)
		finalPath := filepath.Join(e.dir, step.FinalName)
		if err := e.fs.Rename(tempPath, finalPath); err != nil {
			// Keep the pending entry: the file stays the engine's
			// property until somebody recovers it.
			e.logger.Errorf("phase 2: %s -> %s: %v; file left under temporary name",
				step.TempName, step.FinalName, err)
			continue
		}
		e.unregisterTemp(step.TempName)
		renamed++

		e.logger.Infof("%s -> %s", filepath.Base(step.Path), step.FinalName)
		e.publish(events.TypeRenameApplied, map[string]any{
			"from": filepath.Base(step.Path),
			"to":   step.FinalName,
		})
		e.record(events.JournalEntry{
			Event:     string(events.TypeRenameApplied),
			Directory: e.dir,
			From:      filepath.Base(step.Path),
			To:        step.FinalName,
		})
	}
	return renamed
}
