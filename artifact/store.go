// Package artifact stores the gob-encoded artifacts of one prediction task
// as flat files in a task directory.
//
//	<model_dir>/<task>/
//	    production-Model
//	    production-Scaler
//	    info.yaml
package artifact

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/peterbourgon/diskv"
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/espsel/core/model"
	"github.com/YuminosukeSato/espsel/pkg/errors"
)

// InfoKey is the file name of the ModelInfo document.
const InfoKey = "info.yaml"

// FlatTransform stores every key directly under the base path.
func FlatTransform(string) []string { return []string{} }

// Store is a diskv backed model.ArtifactStore rooted at one task directory.
type Store struct {
	dir string
	dv  *diskv.Diskv
}

var _ model.ArtifactStore = (*Store)(nil)

// Open returns a store for <modelDir>/<task>. The directory is created on
// the first write.
func Open(modelDir, task string) *Store {
	return New(filepath.Join(modelDir, task))
}

// New returns a store rooted at dir.
func New(dir string) *Store {
	return &Store{
		dir: dir,
		dv: diskv.New(diskv.Options{
			BasePath:  dir,
			Transform: FlatTransform,
			PathPerm:  0o755,
			FilePerm:  0o644,
		}),
	}
}

// Dir returns the task directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the file path of key.
func (s *Store) Path(key string) string { return filepath.Join(s.dir, key) }

// Has reports whether key exists.
func (s *Store) Has(key string) bool { return s.dv.Has(key) }

// Put gob-encodes v and writes it under key.
func (s *Store) Put(key string, v any) error {
	data, err := model.EncodeGob(v)
	if err != nil {
		return errors.Wrapf(err, "artifact: encode %s", key)
	}
	return s.write(key, data)
}

// Get reads key and gob-decodes it into v.
func (s *Store) Get(key string, v any) error {
	data, err := s.read(key)
	if err != nil {
		return err
	}
	if err := model.DecodeGob(data, v); err != nil {
		return errors.NewModelLoadError(s.Path(key), errors.ErrCorruptArtifact, err)
	}
	return nil
}

// PutInfo writes info as YAML under InfoKey.
func (s *Store) PutInfo(info model.ModelInfo) error {
	if err := info.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(info)
	if err != nil {
		return errors.Wrap(err, "artifact: encode info")
	}
	return s.write(InfoKey, data)
}

// Info reads the ModelInfo document.
func (s *Store) Info() (model.ModelInfo, error) {
	var info model.ModelInfo
	data, err := s.read(InfoKey)
	if err != nil {
		return info, err
	}
	if err := yaml.Unmarshal(data, &info); err != nil {
		return info, errors.NewModelLoadError(s.Path(InfoKey), errors.ErrCorruptArtifact, err)
	}
	if err := info.Validate(); err != nil {
		return info, errors.NewModelLoadError(s.Path(InfoKey), errors.ErrCorruptArtifact, err)
	}
	return info, nil
}

// Keys lists the stored keys in lexical order.
func (s *Store) Keys() []string {
	if _, err := os.Stat(s.dir); err != nil {
		return nil
	}
	var keys []string
	for k := range s.dv.Keys(nil) {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Erase removes key. Erasing a missing key is not an error.
func (s *Store) Erase(key string) error {
	if !s.dv.Has(key) {
		return nil
	}
	return errors.Wrapf(s.dv.Erase(key), "artifact: erase %s", key)
}

func (s *Store) write(key string, data []byte) error {
	if err := s.dv.Write(key, data); err != nil {
		return errors.Wrapf(err, "artifact: write %s", s.Path(key))
	}
	return nil
}

func (s *Store) read(key string) ([]byte, error) {
	if !s.dv.Has(key) {
		return nil, errors.NewModelLoadError(s.Path(key), errors.ErrMissingArtifact, nil)
	}
	data, err := s.dv.Read(key)
	if err != nil {
		return nil, errors.NewModelLoadError(s.Path(key), errors.ErrCorruptArtifact, err)
	}
	return data, nil
}
