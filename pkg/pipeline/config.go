package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/ophysqc/pkg/errors"
)

// LoadOptions reads a run configuration from a TOML, YAML or JSON file,
// chosen by extension. Top-level fields the file leaves out keep their
// DefaultOptions values; a file that lists summaries replaces the default
// summaries entirely.
func LoadOptions(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Options{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return Options{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	return ParseOptions(data, filepath.Ext(path))
}

// ParseOptions decodes a configuration in the format named by ext
// (".toml", ".yaml", ".yml" or ".json").
func ParseOptions(data []byte, ext string) (Options, error) {
	var file Options
	var err error
	switch strings.ToLower(ext) {
	case ".toml":
		var md toml.MetaData
		md, err = toml.NewDecoder(bytes.NewReader(data)).Decode(&file)
		if undecoded := md.Undecoded(); err == nil && len(undecoded) > 0 {
			err = fmt.Errorf("unknown key %q", undecoded[0].String())
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err = dec.Decode(&file); err == io.EOF {
			err = nil
		}
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&file)
	default:
		return Options{}, errors.New(errors.ErrCodeInvalidConfig,
			"unsupported config format %q (want .toml, .yaml, .yml or .json)", ext)
	}
	if err != nil {
		return Options{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode config")
	}

	opts := DefaultOptions()
	if file.InputDir != "" {
		opts.InputDir = file.InputDir
	}
	if file.OutputDir != "" {
		opts.OutputDir = file.OutputDir
	}
	if len(file.Summaries) > 0 {
		opts.Summaries = file.Summaries
	}
	return opts, nil
}
