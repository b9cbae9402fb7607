package contact

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// maxIDAttempts bounds id regeneration when a fresh id collides with a stored one.
const maxIDAttempts = 3

// FileStore persists the contact list as a JSON array in a single file.
// Every operation is a self-contained load, optional in-memory mutation, and
// at most one save. FileStore holds no state besides its configuration.
//
// Concurrent invocations against the same file are not coordinated: two
// processes that interleave load and save can lose one another's update.
type FileStore struct {
	path   string
	logger *zap.Logger
	newID  func() (string, error)
}

// Option configures a FileStore.
type Option func(*FileStore)

// WithLogger sets the logger used for operation tracing.
func WithLogger(l *zap.Logger) Option {
	return func(s *FileStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithIDFunc replaces the id generator used by Add.
func WithIDFunc(fn func() (string, error)) Option {
	return func(s *FileStore) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewFileStore creates a FileStore backed by the JSON file at path.
func NewFileStore(path string, opts ...Option) *FileStore {
	s := &FileStore{
		path:   path,
		logger: zap.NewNop(),
		newID:  NewID,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("path", path))
	return s
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads and parses the whole backing file.
// A missing, unreadable, or malformed file yields a *ReadError.
// On success the returned slice is never nil.
func (s *FileStore) Load(ctx context.Context) ([]Contact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, s.readFailure(err)
	}

	list, err := decode(data)
	if err != nil {
		return nil, s.readFailure(err)
	}

	s.logger.Debug("loaded contacts", zap.Int("count", len(list)))
	return list, nil
}

// record mirrors Contact with pointer fields so absent and null keys can be
// told apart from empty strings.
type record struct {
	ID    *string `json:"id"`
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
}

// decode parses a JSON array of contacts. Unknown keys, absent or null
// fields, a null document, and trailing data are rejected.
func decode(data []byte) ([]Contact, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var raw []record
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parsing: %w", err)
	}
	if raw == nil {
		return nil, errors.New("parsing: expected a JSON array, got null")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("parsing: unexpected data after contact list")
	}

	list := make([]Contact, 0, len(raw))
	for i, r := range raw {
		for _, f := range []struct {
			key string
			val *string
		}{{"id", r.ID}, {"name", r.Name}, {"email", r.Email}, {"phone", r.Phone}} {
			if f.val == nil {
				return nil, fmt.Errorf("parsing: contact %d: missing or null %q", i, f.key)
			}
		}
		list = append(list, Contact{ID: *r.ID, Name: *r.Name, Email: *r.Email, Phone: *r.Phone})
	}
	return list, nil
}

// Save replaces the backing file with list. The new content is written to a
// temporary file in the same directory and renamed over the target, so the
// file is either fully replaced or left as it was. Failures yield a *WriteError.
func (s *FileStore) Save(ctx context.Context, list []Contact) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if list == nil {
		list = []Contact{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(list); err != nil {
		return s.writeFailure(fmt.Errorf("marshaling: %w", err))
	}

	if err := writeAtomic(s.path, buf.Bytes(), 0o644); err != nil {
		return s.writeFailure(err)
	}

	s.logger.Debug("saved contacts", zap.Int("count", len(list)))
	return nil
}

// writeAtomic writes data to a temp file next to path, syncs it, and renames
// it into place. The temp file is removed if any step fails.
func writeAtomic(path string, data []byte, perm os.FileMode) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err = tmp.Chmod(perm); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing file: %w", err)
	}
	return nil
}

// Add creates a contact with a freshly generated id, appends it to the
// stored list, and saves the list once. The list on disk is unchanged if
// any step fails.
func (s *FileStore) Add(ctx context.Context, name, email, phone string) (Contact, error) {
	list, err := s.Load(ctx)
	if err != nil {
		return Contact{}, err
	}

	id, err := s.uniqueID(list)
	if err != nil {
		return Contact{}, err
	}

	c := Contact{ID: id, Name: name, Email: email, Phone: phone}
	if err := s.Save(ctx, append(list, c)); err != nil {
		return Contact{}, err
	}

	s.logger.Debug("added contact", zap.String("id", id))
	return c, nil
}

// uniqueID draws ids until one is not already present in list.
func (s *FileStore) uniqueID(list []Contact) (string, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id, err := s.newID()
		if err != nil {
			return "", err
		}
		if index(list, id) < 0 {
			return id, nil
		}
		s.logger.Warn("generated id collides with stored contact", zap.String("id", id))
	}
	return "", fmt.Errorf("contact: no unique id after %d attempts", maxIDAttempts)
}

// Find returns the contact with the given id.
// Returns (contact, true, nil) if found, (zero, false, nil) if not found.
func (s *FileStore) Find(ctx context.Context, id string) (Contact, bool, error) {
	list, err := s.Load(ctx)
	if err != nil {
		return Contact{}, false, err
	}

	i := index(list, id)
	if i < 0 {
		s.logger.Debug("contact not found", zap.String("id", id))
		return Contact{}, false, nil
	}
	return list[i], true, nil
}

// Remove deletes every contact with the given id and saves the result.
// Returns false without writing when no contact matches.
func (s *FileStore) Remove(ctx context.Context, id string) (bool, error) {
	list, err := s.Load(ctx)
	if err != nil {
		return false, err
	}

	kept := make([]Contact, 0, len(list))
	for _, c := range list {
		if c.ID != id {
			kept = append(kept, c)
		}
	}

	if len(kept) == len(list) {
		s.logger.Debug("contact not found", zap.String("id", id))
		return false, nil
	}

	if err := s.Save(ctx, kept); err != nil {
		return false, err
	}

	s.logger.Debug("removed contact", zap.String("id", id))
	return true, nil
}

// List returns the full stored list. An empty list is a valid result.
func (s *FileStore) List(ctx context.Context) ([]Contact, error) {
	return s.Load(ctx)
}

// Init creates the backing file holding an empty list if it does not exist.
// It reports whether the file was created; an existing file is left untouched.
func (s *FileStore) Init(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err := os.Stat(s.path)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return false, s.readFailure(err)
	}

	if err := s.Save(ctx, nil); err != nil {
		return false, err
	}
	s.logger.Info("created contact file")
	return true, nil
}

func (s *FileStore) readFailure(err error) error {
	s.logger.Warn("read failure", zap.Error(err))
	return &ReadError{Path: s.path, Err: err}
}

func (s *FileStore) writeFailure(err error) error {
	s.logger.Warn("write failure", zap.Error(err))
	return &WriteError{Path: s.path, Err: err}
}
