package discovery

import (
	"fmt"
	"slices"
	"time"

	"github.com/spf13/afero"
)

// SortByCreationTime returns paths ordered oldest first. The order is
// stable, so files with equal timestamps keep their relative order.
//
// Portable filesystems expose no birth time, so the modification time
// stands in for it. A path that cannot be stat'ed sorts first and is
// reported in the returned warnings.
func SortByCreationTime(fs afero.Fs, paths []string) ([]string, []error) {
	type stamped struct {
		path string
		t    time.Time
	}

	var warnings []error
	items := make([]stamped, len(paths))
	for i, p := range paths {
		items[i].path = p
		info, err := fs.Stat(p)
		if err != nil {
			warnings = append(warnings, fmt.Errorf("stat %s: %w", p, err))
			continue
		}
		items[i].t = info.ModTime()
	}

	slices.SortStableFunc(items, func(a, b stamped) int {
		return a.t.Compare(b.t)
	})

	sorted := make([]string, len(items))
	for i, it := range items {
		sorted[i] = it.path
	}
	return sorted, warnings
}
