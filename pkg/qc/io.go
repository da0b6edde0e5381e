package qc

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/matzehuels/ophysqc/pkg/errors"
)

// Standard file names.
const (
	EvaluationFile = "quality_evaluation.json"
	ReportFile     = "quality_control.json"
)

// WriteEvaluation writes e to dir/quality_evaluation.json and returns the
// path. dir is created if needed.
func WriteEvaluation(dir string, e Evaluation) (string, error) {
	path := filepath.Join(dir, EvaluationFile)
	return path, writeJSON(path, e)
}

// ReadEvaluation decodes an evaluation file.
func ReadEvaluation(path string) (Evaluation, error) {
	var e Evaluation
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return e, errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s", path)
		}
		return e, fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &e); err != nil {
		return e, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode %s", path)
	}
	return e, nil
}

// WriteQualityControl writes the report to dir/quality_control.json and
// returns the path.
func WriteQualityControl(dir string, q *QualityControl) (string, error) {
	path := filepath.Join(dir, ReportFile)
	return path, writeJSON(path, q)
}

// ReadQualityControl decodes a report file.
func ReadQualityControl(path string) (*QualityControl, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var q QualityControl
	if err := json.Unmarshal(data, &q); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode %s", path)
	}
	return &q, nil
}

// FindEvaluations returns every file below the roots whose name ends in
// quality_evaluation.json. Paths are sorted within each root and reported
// once even when roots overlap. Missing roots are skipped.
func FindEvaluations(roots ...string) ([]string, error) {
	seen := make(map[string]bool)
	var found []string

	for _, root := range roots {
		if _, err := os.Stat(root); os.IsNotExist(err) {
			continue
		}
		var paths []string
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(d.Name(), EvaluationFile) {
				return nil
			}
			abs, err := filepath.Abs(path)
			if err != nil {
				return err
			}
			if !seen[abs] {
				seen[abs] = true
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", root, err)
		}
		sort.Strings(paths)
		found = append(found, paths...)
	}
	return found, nil
}

// Aggregate reads every evaluation below the roots into one report.
func Aggregate(roots ...string) (*QualityControl, error) {
	paths, err := FindEvaluations(roots...)
	if err != nil {
		return nil, err
	}
	q := &QualityControl{Evaluations: make([]Evaluation, 0, len(paths))}
	for _, p := range paths {
		e, err := ReadEvaluation(p)
		if err != nil {
			return nil, err
		}
		q.Evaluations = append(q.Evaluations, e)
	}
	return q, nil
}

// osFs backs record writes.
var osFs = afero.NewOsFs()

// writeJSON writes v with four-space indentation.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return writeAtomic(osFs, path, append(data, '\n'))
}

// writeAtomic writes data to a sibling temp file and renames it into
// place. The temp file never outlives a failed write.
func writeAtomic(afs afero.Fs, path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := afs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp := filepath.Join(dir, "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")
	if err := afero.WriteFile(afs, tmp, data, 0644); err != nil {
		_ = afs.Remove(tmp)
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := afs.Rename(tmp, path); err != nil {
		_ = afs.Remove(tmp)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
