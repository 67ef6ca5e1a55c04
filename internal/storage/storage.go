// Package storage manages the working directory that holds uploads, rendered
// outputs and per-request scratch space.
//
// Stored names are derived from the sanitized upload name plus a random
// suffix, so concurrent requests uploading the same file never share paths.
// Scratch space lives under jobs/<request id> and is removed when the request
// finishes.
package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/forPelevin/capburn/internal/types"
)

const (
	jobsDir  = "jobs"
	lockName = ".capburn.lock"

	// OutputSuffix is appended to the stored base name of rendered videos.
	OutputSuffix = "_subtitled.mp4"
)

var (
	VideoExtensions   = []string{"mp4", "mov", "avi", "mkv"}
	CaptionExtensions = []string{"srt"}
)

type Store struct {
	dir  string
	lock *flock.Flock
}

// Open prepares dir for use, creating it when missing.
func Open(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("storage dir is empty")
	}
	if err := os.MkdirAll(filepath.Join(dir, jobsDir), 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Store{dir: dir, lock: flock.New(filepath.Join(dir, lockName))}, nil
}

func (s *Store) Dir() string { return s.dir }

// Lock takes an exclusive lock on the storage directory so that two capburn
// processes (server or burn) never share one working directory.
func (s *Store) Lock() error {
	ok, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire storage lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("storage dir %s is in use by another capburn instance", s.dir)
	}
	return nil
}

func (s *Store) Unlock() error {
	if !s.lock.Locked() {
		return nil
	}
	return s.lock.Unlock()
}

// AllowedExt reports whether name has one of the given extensions (without dot),
// compared case-insensitively.
func AllowedExt(name string, allowed []string) bool {
	i := strings.LastIndexByte(name, '.')
	if i < 0 || i == len(name)-1 {
		return false
	}
	ext := strings.ToLower(name[i+1:])
	for _, a := range allowed {
		if ext == a {
			return true
		}
	}
	return false
}

// Save stores r under a unique name derived from original. Nothing is
// written under the returned name unless the whole body was copied.
func (s *Store) Save(original string, r io.Reader, allowed []string) (types.MediaAsset, error) {
	if strings.TrimSpace(original) == "" {
		return types.MediaAsset{}, &types.ValidationError{Field: "file", Reason: "no selected file"}
	}
	if !AllowedExt(original, allowed) {
		return types.MediaAsset{}, &types.ValidationError{Field: "file", Reason: "file type not allowed"}
	}

	name := storedName(original, uuid.NewString())
	dst := filepath.Join(s.dir, name)

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return types.MediaAsset{}, fmt.Errorf("create upload: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return types.MediaAsset{}, fmt.Errorf("write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return types.MediaAsset{}, fmt.Errorf("write upload: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return types.MediaAsset{}, fmt.Errorf("write upload: %w", err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return types.MediaAsset{}, fmt.Errorf("store upload: %w", err)
	}
	return types.MediaAsset{Name: name, Path: dst}, nil
}

// Resolve looks up a stored file by its served name.
func (s *Store) Resolve(name string) (types.MediaAsset, error) {
	if !servable(name) {
		return types.MediaAsset{}, &types.NotFoundError{Name: name}
	}
	p := filepath.Join(s.dir, name)
	fi, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return types.MediaAsset{}, &types.NotFoundError{Name: name}
		}
		return types.MediaAsset{}, fmt.Errorf("stat %s: %w", name, err)
	}
	if !fi.Mode().IsRegular() {
		return types.MediaAsset{}, &types.NotFoundError{Name: name}
	}
	return types.MediaAsset{Name: name, Path: p}, nil
}

// Outputs returns the caption and video assets derived from a stored video.
func (s *Store) Outputs(video types.MediaAsset) (srt, out types.MediaAsset) {
	base := strings.TrimSuffix(video.Name, filepath.Ext(video.Name))
	srt = types.MediaAsset{Name: base + ".srt"}
	srt.Path = filepath.Join(s.dir, srt.Name)
	out = types.MediaAsset{Name: base + OutputSuffix}
	out.Path = filepath.Join(s.dir, out.Name)
	return srt, out
}

// Publish moves a finished file from a workspace to its served location,
// replacing any earlier output of the same name.
func (s *Store) Publish(src string, dst types.MediaAsset) error {
	if filepath.Dir(dst.Path) != filepath.Clean(s.dir) || !servable(dst.Name) {
		return fmt.Errorf("publish %s: outside storage dir", dst.Name)
	}
	if err := os.Rename(src, dst.Path); err != nil {
		return fmt.Errorf("publish %s: %w", dst.Name, err)
	}
	return nil
}

// Workspace is per-request scratch space.
type Workspace struct {
	ID  string
	Dir string
}

// NewWorkspace creates jobs/<id> for a single request.
func (s *Store) NewWorkspace(id string) (Workspace, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if !servable(id) {
		return Workspace{}, fmt.Errorf("invalid workspace id %q", id)
	}
	dir := filepath.Join(s.dir, jobsDir, id)
	if err := os.Mkdir(dir, 0o755); err != nil {
		return Workspace{}, fmt.Errorf("create workspace: %w", err)
	}
	return Workspace{ID: id, Dir: dir}, nil
}

// Cleanup removes the workspace and everything in it.
func (w Workspace) Cleanup() error {
	if w.Dir == "" {
		return nil
	}
	return os.RemoveAll(w.Dir)
}

func servable(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	if strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return false
	}
	return true
}

func storedName(original, id string) string {
	original = filepath.Base(strings.ReplaceAll(original, `\`, "/"))
	ext := strings.ToLower(filepath.Ext(original))
	name := normalizePathSegment(strings.TrimSuffix(original, filepath.Ext(original)))
	if name == "" {
		name = "upload"
	}
	suffix := strings.ReplaceAll(id, "-", "")
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return fmt.Sprintf("%s-%s%s", name, suffix, ext)
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
