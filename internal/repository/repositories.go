package repository

import (
	"github.com/deppfellow/expenses-api/internal/database"
	"github.com/deppfellow/expenses-api/internal/server"
)

// Repositories is a container for the repository entry points.
type Repositories struct {
	Sessions Sessions
}

// NewRepositories picks the session source matching the open database.
func NewRepositories(s *server.Server) *Repositories {
	var sessions Sessions
	switch s.DB.Driver {
	case database.DriverPostgres:
		sessions = NewPostgresSessions(s.DB.Pool)
	default:
		sessions = NewSQLiteSessions(s.DB.SQL)
	}

	return &Repositories{Sessions: sessions}
}
