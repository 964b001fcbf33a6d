/* Copyright © 2023-2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this package for license terms
 */

// Package store persists generated artifacts under an output root, one
// subdirectory per category.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/mikeb26/policygen/internal/types"
)

var (
	ErrPersistenceFailure = errors.New("failed to persist artifact")
	ErrInvalidName        = errors.New("invalid artifact name")
)

// Store writes artifacts verbatim with overwrite semantics. There is no
// locking: two writers of the same category/filename race and the last one
// wins.
type Store struct {
	fs   billy.Filesystem
	root string
}

// New returns a store rooted at the on-disk directory root. The directory
// is created lazily on first write.
func New(root string) *Store {
	return NewWithFS(osfs.New(root), root)
}

// NewWithFS returns a store backed by fs. root is only used to build the
// paths reported back to callers.
func NewWithFS(fs billy.Filesystem, root string) *Store {
	return &Store{
		fs:   fs,
		root: root,
	}
}

// Root is the directory every category lives under.
func (s *Store) Root() string {
	return s.root
}

// Path returns the path an artifact is (or would be) written to.
func (s *Store) Path(category, filename string) string {
	return filepath.Join(s.root, category, filename)
}

// Ensure creates each category directory. It is idempotent.
func (s *Store) Ensure(categories ...string) error {
	for _, c := range categories {
		if err := checkSegment(c); err != nil {
			return err
		}
		if err := s.fs.MkdirAll(c, 0o755); err != nil {
			return fmt.Errorf("%w: mkdir %q: %v", ErrPersistenceFailure,
				s.Path(c, ""), err)
		}
	}
	return nil
}

// Persist writes content to category/filename, creating the category
// directory if needed, and returns the resulting path.
func (s *Store) Persist(category, filename, content string) (string, error) {
	a, err := s.Save(category, filename, content)
	return a.Path, err
}

// Save is Persist but returns a record of the write.
func (s *Store) Save(category, filename,
	content string) (types.PersistedArtifact, error) {

	if err := checkSegment(category); err != nil {
		return types.PersistedArtifact{}, err
	}
	if err := checkSegment(filename); err != nil {
		return types.PersistedArtifact{}, err
	}
	if err := s.Ensure(category); err != nil {
		return types.PersistedArtifact{}, err
	}

	rel := s.fs.Join(category, filename)
	if err := util.WriteFile(s.fs, rel, []byte(content), 0o644); err != nil {
		return types.PersistedArtifact{}, fmt.Errorf("%w: write %q: %v",
			ErrPersistenceFailure, s.Path(category, filename), err)
	}

	return types.PersistedArtifact{
		Category: category,
		Path:     s.Path(category, filename),
		Content:  content,
	}, nil
}

// PersistJSON writes v as indented JSON.
func (s *Store) PersistJSON(category, filename string, v any) (string, error) {
	a, err := s.SaveJSON(category, filename, v)
	return a.Path, err
}

func (s *Store) SaveJSON(category, filename string,
	v any) (types.PersistedArtifact, error) {

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return types.PersistedArtifact{}, fmt.Errorf("%w: marshal %q: %v",
			ErrPersistenceFailure, filename, err)
	}
	return s.Save(category, filename, string(data))
}

// Read returns the current content of category/filename.
func (s *Store) Read(category, filename string) (string, error) {
	data, err := util.ReadFile(s.fs, s.fs.Join(category, filename))
	if err != nil {
		return "", fmt.Errorf("read %q: %w", s.Path(category, filename), err)
	}
	return string(data), nil
}

// checkSegment rejects names that would escape their category directory.
func checkSegment(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
