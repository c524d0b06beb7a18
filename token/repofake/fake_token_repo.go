package tokenfakerepo

import (
	"errors"
	"sync"

	"github.com/jrsteele09/go-todo-client/token"
)

var _ token.Store = (*FakeTokenStore)(nil)

// ErrWriteFailed is returned by every write once FailWrites is set.
var ErrWriteFailed = errors.New("fake store write failed")

type FakeTokenStore struct {
	creds      token.Credentials
	writes     int
	failWrites bool
	lock       sync.RWMutex
}

func NewFakeTokenStore() *FakeTokenStore {
	return &FakeTokenStore{}
}

// NewFakeTokenStoreWith returns a store pre-populated with creds. The
// initial population does not count as a write.
func NewFakeTokenStoreWith(creds token.Credentials) *FakeTokenStore {
	return &FakeTokenStore{creds: creds}
}

func (ts *FakeTokenStore) Get(key token.Key) (string, bool) {
	ts.lock.RLock()
	defer ts.lock.RUnlock()

	v := ts.creds.Value(key)
	return v, v != ""
}

func (ts *FakeTokenStore) Set(key token.Key, value string) error {
	ts.lock.Lock()
	defer ts.lock.Unlock()

	if ts.failWrites {
		return ErrWriteFailed
	}
	ts.creds = ts.creds.With(key, value)
	ts.writes++
	return nil
}

func (ts *FakeTokenStore) Clear(key token.Key) error {
	return ts.Set(key, "")
}

func (ts *FakeTokenStore) Credentials() (token.Credentials, bool) {
	ts.lock.RLock()
	defer ts.lock.RUnlock()
	return ts.creds, !ts.creds.Empty()
}

func (ts *FakeTokenStore) SetCredentials(creds token.Credentials) error {
	ts.lock.Lock()
	defer ts.lock.Unlock()

	if ts.failWrites {
		return ErrWriteFailed
	}
	ts.creds = creds
	ts.writes++
	return nil
}

func (ts *FakeTokenStore) ClearCredentials() error {
	return ts.SetCredentials(token.Credentials{})
}

// Writes counts successful mutations since construction.
func (ts *FakeTokenStore) Writes() int {
	ts.lock.RLock()
	defer ts.lock.RUnlock()
	return ts.writes
}

// FailWrites makes every subsequent write return ErrWriteFailed.
func (ts *FakeTokenStore) FailWrites(fail bool) {
	ts.lock.Lock()
	defer ts.lock.Unlock()
	ts.failWrites = fail
}
