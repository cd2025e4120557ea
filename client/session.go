package client

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/user"
)

// Session is the locally cached session: an opaque token plus a denormalized
// snapshot of the authenticated user. The snapshot is never authoritative.
type Session struct {
	Token string    `json:"token"`
	User  user.User `json:"user"`
}

// SessionCache persists the Session between runs.
type SessionCache interface {
	Load() (*Session, error)
	Save(sess Session) error
	Clear() error
}

// fileSessionCache stores the session as JSON in the user config dir.
type fileSessionCache struct {
	path string
}

var _ SessionCache = (*fileSessionCache)(nil)

func NewFileSessionCache(appName string) (SessionCache, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, errors.Wrap(err, "finding user config dir")
	}
	return &fileSessionCache{path: filepath.Join(dir, appName, "session.json")}, nil
}

// NewFileSessionCacheAt stores the session at an explicit path; for tests.
func NewFileSessionCacheAt(path string) SessionCache {
	return &fileSessionCache{path: path}
}

// Load returns (nil, nil) when no session is cached.
func (c *fileSessionCache) Load() (*Session, error) {
	data, err := ioutil.ReadFile(c.path)
	if os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, errors.Wrap(err, "reading session cache")
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		// a corrupt cache is the same as no session
		_ = c.Clear()
		return nil, nil
	}
	if sess.Token == "" {
		return nil, nil
	}
	return &sess, nil
}

func (c *fileSessionCache) Save(sess Session) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return errors.Wrap(err, "creating session cache dir")
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return errors.Wrap(err, "marshalling session")
	}
	return errors.Wrap(ioutil.WriteFile(c.path, data, 0o600), "writing session cache")
}

func (c *fileSessionCache) Clear() error {
	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "clearing session cache")
	}
	return nil
}
