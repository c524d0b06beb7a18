package filestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	todoerrors "github.com/jrsteele09/go-todo-client/internal/errors"
	"github.com/jrsteele09/go-todo-client/token"
	"github.com/rs/zerolog/log"
)

const documentVersion = 1

var (
	errTokenFileIsDir = errors.New("token file is dir")
)

// document is the on-disk representation. Exactly one of Credentials and
// Sealed is set.
type document struct {
	Version     int                `json:"version"`
	Credentials *token.Credentials `json:"credentials,omitempty"`
	Sealed      *sealedBox         `json:"sealed,omitempty"`
}

var _ token.Store = (*Store)(nil)

// Store persists credentials as a single JSON document. Every write
// replaces the whole document through a rename, so the three entries can
// never be observed half written.
type Store struct {
	path   string
	cipher *boxCipher

	mu      sync.Mutex
	cached  token.Credentials
	modTime time.Time
	size    int64
	loaded  bool
}

type Option func(*Store)

// WithPassphrase encrypts the document at rest with a key derived from
// passphrase. An empty passphrase leaves the document in plain text.
func WithPassphrase(passphrase string) Option {
	return func(s *Store) {
		if passphrase != "" {
			s.cipher = newBoxCipher(passphrase)
		}
	}
}

// New opens the token file at path, creating its directory if needed. The
// file itself is only created by the first write.
func New(path string, options ...Option) (*Store, error) {
	if path == "" {
		return nil, errors.New("[filestore New] path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("[filestore New] create dir: %w", err)
	}

	s := &Store{path: path}
	for _, opt := range options {
		opt(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked()
	return s, nil
}

// Path returns the file backing the store.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Get(key token.Key) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refreshLocked()
	v := s.cached.Value(key)
	return v, v != ""
}

func (s *Store) Set(key token.Key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refreshLocked()
	return s.writeLocked(s.cached.With(key, value))
}

func (s *Store) Clear(key token.Key) error {
	return s.Set(key, "")
}

func (s *Store) Credentials() (token.Credentials, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refreshLocked()
	return s.cached, !s.cached.Empty()
}

func (s *Store) SetCredentials(creds token.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(creds)
}

func (s *Store) ClearCredentials() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(token.Credentials{})
}

// refreshLocked reloads the document when the file changed on disk, which
// happens when another process (e.g. the CLI) logs in or out.
func (s *Store) refreshLocked() {
	info, err := os.Stat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.cached = token.Credentials{}
		s.loaded = true
		s.modTime, s.size = time.Time{}, 0
		return
	}
	if err != nil {
		log.Warn().Err(err).Str("path", s.path).Msg("token store: stat failed")
		s.cached = token.Credentials{}
		return
	}
	if s.loaded && info.ModTime().Equal(s.modTime) && info.Size() == s.size {
		return
	}

	creds, err := s.readfile(info)
	if err != nil {
		// Unreadable state is treated as logged out.
		log.Warn().Err(err).Str("path", s.path).Msg("token store: ignoring unreadable token file")
		creds = token.Credentials{}
	}
	s.cached = creds
	s.modTime, s.size = info.ModTime(), info.Size()
	s.loaded = true
}

func (s *Store) readfile(info fs.FileInfo) (token.Credentials, error) {
	if info.IsDir() {
		return token.Credentials{}, errTokenFileIsDir
	}

	content, err := os.ReadFile(s.path)
	if err != nil {
		return token.Credentials{}, err
	}
	if len(content) == 0 {
		return token.Credentials{}, nil
	}

	var doc document
	if err := json.Unmarshal(content, &doc); err != nil {
		return token.Credentials{}, todoerrors.Wrapf(todoerrors.ErrStoreCorrupt, "decode: %s", err.Error())
	}

	switch {
	case doc.Sealed != nil:
		if s.cipher == nil {
			return token.Credentials{}, todoerrors.Wrapf(todoerrors.ErrStoreCorrupt, "token file is encrypted but no passphrase is configured")
		}
		return s.cipher.open(doc.Sealed)
	case doc.Credentials != nil:
		return *doc.Credentials, nil
	}
	return token.Credentials{}, nil
}

func (s *Store) writeLocked(creds token.Credentials) error {
	doc := document{Version: documentVersion}
	if s.cipher != nil {
		box, err := s.cipher.seal(creds)
		if err != nil {
			return fmt.Errorf("[filestore] seal: %w", err)
		}
		doc.Sealed = box
	} else {
		doc.Credentials = &creds
	}

	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("[filestore] encode: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".tokens-*.tmp")
	if err != nil {
		return fmt.Errorf("[filestore] create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("[filestore] chmod: %w", err)
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("[filestore] write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("[filestore] sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("[filestore] close: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("[filestore] rename: %w", err)
	}

	s.cached = creds
	if info, err := os.Stat(s.path); err == nil {
		s.modTime, s.size = info.ModTime(), info.Size()
	}
	s.loaded = true
	return nil
}
