package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Key generates a cache key by hashing the components.
// The key format is: prefix:hash(parts...)
func Key(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// fileStamp identifies one version of an input file.
type fileStamp struct {
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// StatFunc reports file metadata; os.Stat and afero.Fs.Stat both fit.
type StatFunc func(name string) (os.FileInfo, error)

// CompositeKey derives the key for a composite of the files at paths with
// the given layout options. Any change to an input file's size or
// modification time, or to opts, yields a different key.
func CompositeKey(stat StatFunc, paths []string, opts any) (string, error) {
	stamps := make([]fileStamp, len(paths))
	for i, p := range paths {
		info, err := stat(p)
		if err != nil {
			return "", err
		}
		stamps[i] = fileStamp{Path: p, Size: info.Size(), ModTime: info.ModTime().UTC()}
	}
	return Key("composite", stamps, opts), nil
}
