// Package dummydb provides in-memory repositories for tests and local dev.
package dummydb

import (
	"sync"

	"github.com/trezcool/darasa/core/token"
	"github.com/trezcool/darasa/core/user"
)

type (
	DB struct {
		user  *userTable
		token *tokenTable
	}

	userTable struct {
		sync.RWMutex
		users    map[string]*user.User    // by ID
		sessions map[string]*user.Session // by ID
	}

	tokenTable struct {
		sync.RWMutex
		resets      map[string]*token.ResetToken // by token value
		invitations map[string]*token.Invitation
	}
)

func Open() *DB {
	return &DB{
		user: &userTable{
			users:    make(map[string]*user.User),
			sessions: make(map[string]*user.Session),
		},
		token: &tokenTable{
			resets:      make(map[string]*token.ResetToken),
			invitations: make(map[string]*token.Invitation),
		},
	}
}
