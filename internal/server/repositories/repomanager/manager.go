package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/cyberguard/internal/dbx"
	"github.com/dmitrijs2005/cyberguard/internal/server/repositories/progress"
	"github.com/dmitrijs2005/cyberguard/internal/server/repositories/revokedtokens"
	"github.com/dmitrijs2005/cyberguard/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Progress(db dbx.DBTX) progress.Repository
	RevokedTokens(db dbx.DBTX) revokedtokens.Repository
}
