package csvfile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lpizzi13/DM-project/internal/core/domain"
)

// Prepare creates every directory of the layout and empties the reports and
// plots directories. Backend directories are emptied only when purgeBackends
// is set, i.e. when this run is about to regenerate them.
func Prepare(l domain.Layout, purgeBackends bool) error {
	if err := makeDirs(l); err != nil {
		return err
	}

	purge := []string{l.Reports, l.Plots}
	if purgeBackends {
		purge = append(purge, l.Relational, l.Graph)
	}
	for _, dir := range purge {
		if err := Purge(dir); err != nil {
			return err
		}
	}
	return nil
}

// PreparePlots creates every directory of the layout and empties only the
// plots directory, leaving the comparison reports in place.
func PreparePlots(l domain.Layout) error {
	if err := makeDirs(l); err != nil {
		return err
	}
	return Purge(l.Plots)
}

func makeDirs(l domain.Layout) error {
	for _, dir := range l.Dirs() {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}

// Purge removes everything inside dir, keeping dir itself.
func Purge(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", dir, err)
	}
	for _, e := range entries {
		p := filepath.Join(dir, e.Name())
		if err := os.RemoveAll(p); err != nil {
			return fmt.Errorf("removing %s: %w", p, err)
		}
	}
	return nil
}
