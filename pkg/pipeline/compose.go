package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/spf13/afero"

	"github.com/matzehuels/ophysqc/pkg/cache"
	"github.com/matzehuels/ophysqc/pkg/composite"
	"github.com/matzehuels/ophysqc/pkg/discovery"
	"github.com/matzehuels/ophysqc/pkg/errors"
	"github.com/matzehuels/ophysqc/pkg/observability"
	"github.com/matzehuels/ophysqc/pkg/qc"
)

// compositeKeyOpts is everything besides the input files that changes the
// rendered composite.
type compositeKeyOpts struct {
	Columns    int      `json:"columns"`
	Spacing    int      `json:"spacing"`
	LabelWidth int      `json:"label_width"`
	Labels     []string `json:"labels"`
	FontPath   string   `json:"font_path"`
}

// composeSummary writes the composite PNG for s and returns a checkbox
// metric pending review that references it.
func (r *Runner) composeSummary(ctx context.Context, opts Options, s Summary, match *discovery.Match, outDir string, sr *SummaryResult) (qc.Metric, error) {
	box, err := s.checkbox()
	if err != nil {
		return qc.Metric{}, err
	}

	columns, err := r.columns(s, match)
	if err != nil {
		return qc.Metric{}, err
	}
	labels := match.RowLabels(columns)

	out := filepath.Join(outDir, s.Image)
	hit, err := r.composeCached(ctx, opts, s, match, columns, labels, out)
	if err != nil {
		return qc.Metric{}, err
	}
	sr.ImagePath = out
	sr.RowLabels = labels
	sr.CacheHit = hit

	m := qc.Metric{
		Name:          s.MetricName,
		Value:         box,
		Reference:     []string{filepath.ToSlash(filepath.Join(s.Output, s.Image))},
		StatusHistory: qc.PendingReview(r.now()),
	}
	if s.Description != "" {
		m.Description = &s.Description
	}
	return m, nil
}

// columns returns the grid width for s. Columns == 0 picks the count whose
// grid comes closest to TargetAspect, sized by the first image's header.
func (r *Runner) columns(s Summary, match *discovery.Match) (int, error) {
	if s.Columns > 0 {
		return s.Columns, nil
	}
	size, err := imageSize(r.Fs, match.Files[0])
	if err != nil {
		return 0, err
	}
	sizes := make([]image.Point, len(match.Files))
	for i := range sizes {
		sizes[i] = size
	}
	n := composite.ChooseColumnCount(sizes, s.TargetAspect)
	r.Logger.Debug("chose column count", "summary", s.Name, "columns", n, "aspect", s.TargetAspect)
	return n, nil
}

// composeCached writes the composite to out, reusing a cached rendering
// when the inputs and layout are unchanged. Cache failures are logged and
// the composite is rendered instead.
func (r *Runner) composeCached(ctx context.Context, opts Options, s Summary, match *discovery.Match, columns int, labels []string, out string) (bool, error) {
	logger := r.Logger.With("summary", s.Name)

	var key string
	if !opts.NoCache {
		var err error
		key, err = cache.CompositeKey(r.Fs.Stat, match.Files, compositeKeyOpts{
			Columns:    columns,
			Spacing:    *s.Spacing,
			LabelWidth: *s.LabelWidth,
			Labels:     labels,
			FontPath:   s.FontPath,
		})
		if err != nil {
			logger.Warn("cannot derive cache key", "err", err)
		}
	}

	if key != "" {
		data, hit, err := r.Cache.Get(ctx, key)
		switch {
		case err != nil:
			logger.Warn("cache lookup failed", "err", err)
		case hit:
			observability.Cache().OnCacheHit(ctx, "composite")
			if err := writeFile(out, data); err != nil {
				return false, err
			}
			logger.Info("reused cached composite", "path", out)
			return true, nil
		default:
			observability.Cache().OnCacheMiss(ctx, "composite")
		}
	}

	data, err := r.compose(ctx, s, match, columns, labels)
	if err != nil {
		return false, err
	}
	if err := writeFile(out, data); err != nil {
		return false, err
	}
	logger.Info("composed images", "images", len(match.Files), "rows", len(labels), "path", out)

	if key != "" {
		if err := r.Cache.Set(ctx, key, data, cache.DefaultTTL); err != nil {
			logger.Warn("cache write failed", "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "composite", len(data))
		}
	}
	return false, nil
}

// compose renders the composite for match and returns it PNG-encoded.
func (r *Runner) compose(ctx context.Context, s Summary, match *discovery.Match, columns int, labels []string) (data []byte, err error) {
	hooks := observability.Compose()
	hooks.OnComposeStart(ctx, s.Name, len(match.Files))
	start := time.Now()
	defer func() {
		hooks.OnComposeComplete(ctx, s.Name, time.Since(start), err)
	}()

	images, err := decodeImages(r.Fs, match.Files)
	if err != nil {
		return nil, err
	}

	copts := s.compositeOptions(labels, columns)
	copts.Logger = r.Logger
	img, err := composite.Compose(images, copts)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := composite.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeImages reads every image at paths from fs.
func decodeImages(fs afero.Fs, paths []string) ([]image.Image, error) {
	images := make([]image.Image, 0, len(paths))
	for _, p := range paths {
		img, err := decodeImage(fs, p)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, nil
}

// imageSize reads the dimensions from the header of the image at path.
func imageSize(fs afero.Fs, path string) (image.Point, error) {
	f, err := fs.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return image.Point{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return image.Point{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return image.Point{}, errors.Wrap(errors.ErrCodeDecodeFailed, err, "decode header of %s", path)
	}
	return image.Pt(cfg.Width, cfg.Height), nil
}

func decodeImage(fs afero.Fs, path string) (image.Image, error) {
	f, err := fs.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	img, err := imaging.Decode(f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDecodeFailed, err, "decode %s", path)
	}
	return img, nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
