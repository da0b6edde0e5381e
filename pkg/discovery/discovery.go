package discovery

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/matzehuels/ophysqc/pkg/errors"
)

// Match is the result of a pattern scan. Labels holds one entry per plane
// that contributed files; Files is ordered plane by plane, pattern by
// pattern. Planes[i] is the label of the plane Files[i] came from.
type Match struct {
	Labels []string
	Files  []string
	Planes []string
}

// RowLabels labels each row of a grid holding columns files per row with
// the planes its files came from, joined by ", " when a row spans planes.
func (m *Match) RowLabels(columns int) []string {
	if columns < 1 {
		return nil
	}
	var labels []string
	for start := 0; start < len(m.Planes); start += columns {
		var row []string
		for _, p := range m.Planes[start:min(start+columns, len(m.Planes))] {
			if !slices.Contains(row, p) {
				row = append(row, p)
			}
		}
		labels = append(labels, strings.Join(row, ", "))
	}
	return labels
}

// Scanner discovers plane directories and artifact files.
type Scanner struct {
	Fs     afero.Fs
	Logger *log.Logger
}

// NewScanner returns a Scanner over fs. A nil fs means the OS filesystem;
// a nil logger means log.Default().
func NewScanner(fs afero.Fs, logger *log.Logger) *Scanner {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Scanner{Fs: fs, Logger: logger}
}

// Directories returns the plane directories below root, sorted by name.
// When root holds a single directory and nothing else, that directory is
// treated as the session folder and its subdirectories are the planes.
func (s *Scanner) Directories(root string) ([]string, error) {
	entries, err := afero.ReadDir(s.Fs, root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeNoDirectories, "input directory %s does not exist", root)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read input directory %s", root)
	}

	base := root
	if len(entries) == 1 && entries[0].IsDir() {
		base = filepath.Join(root, entries[0].Name())
		if entries, err = afero.ReadDir(s.Fs, base); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read session directory %s", base)
		}
	}

	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(base, e.Name()))
		}
	}
	if len(dirs) == 0 {
		return nil, errors.New(errors.ErrCodeNoDirectories, "no directories found in %s", root)
	}
	slices.Sort(dirs)
	return dirs, nil
}

// Collect gathers the files matching patterns below every plane directory
// of root. If folder is non-empty, only files beneath a path component
// named folder are considered.
func (s *Scanner) Collect(root, folder string, patterns []string) (*Match, error) {
	if len(patterns) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no pattern provided")
	}
	dirs, err := s.Directories(root)
	if err != nil {
		return nil, err
	}
	planes := singlePlane(dirs, folder)

	m := &Match{}
	for _, plane := range planes {
		files, err := s.planeFiles(plane, folder)
		if err != nil {
			return nil, err
		}

		label := filepath.Base(plane)
		matched := false
		for _, pattern := range patterns {
			var group []string
			for _, rel := range files {
				if strings.Contains(rel, pattern) {
					group = append(group, filepath.Join(plane, rel))
				}
			}
			if len(group) == 0 {
				continue
			}
			m.Files = append(m.Files, s.sort(group)...)
			for range group {
				m.Planes = append(m.Planes, label)
			}
			matched = true
		}
		if matched {
			m.Labels = append(m.Labels, label)
		} else {
			s.Logger.Debug("no matches in plane", "plane", plane, "patterns", patterns)
		}
	}

	if len(m.Files) == 0 {
		return nil, errors.New(errors.ErrCodeNoMatches, "no files matching %v found in %s", patterns, root)
	}
	return m, nil
}

// singlePlane detects a directory listing that reached inside a plane: if
// one of dirs is folder itself, their common parent is the only plane.
func singlePlane(dirs []string, folder string) []string {
	if folder == "" {
		return dirs
	}
	for _, d := range dirs {
		if filepath.Base(d) == folder {
			return []string{filepath.Dir(d)}
		}
	}
	return dirs
}

// planeFiles lists regular files below plane as plane-relative paths.
func (s *Scanner) planeFiles(plane, folder string) ([]string, error) {
	var files []string
	err := afero.Walk(s.Fs, plane, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(plane, path)
		if err != nil {
			return err
		}
		if folder != "" && !inFolder(rel, folder) {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "scan plane %s", plane)
	}
	return files, nil
}

// inFolder reports whether any directory component of rel equals folder.
func inFolder(rel, folder string) bool {
	parts := strings.Split(filepath.ToSlash(filepath.Dir(rel)), "/")
	return slices.Contains(parts, folder)
}

func (s *Scanner) sort(paths []string) []string {
	sorted, warnings := SortByCreationTime(s.Fs, paths)
	for _, w := range warnings {
		s.Logger.Warn("could not read creation time", "err", w)
	}
	return sorted
}
