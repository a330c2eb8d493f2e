package app

import (
	"fmt"
	"strings"

	"github.com/ZidanAK22/RateYourGroupMates/internal/store"
	"github.com/ZidanAK22/RateYourGroupMates/internal/store/postgres"
	"github.com/ZidanAK22/RateYourGroupMates/internal/store/sqlite"
)

func NewStore(dsn string) (store.RatingStore, error) {
	dbType := store.DBTypeSQLite
	if strings.HasPrefix(dsn, "postgres") {
		dbType = store.DBTypePostgres
	}

	switch dbType {
	case store.DBTypePostgres:
		return postgres.NewPostgresStore(dsn)
	case store.DBTypeSQLite:
		return sqlite.NewSQLiteStore(dsn)
	default:
		return nil, fmt.Errorf("unable to determine database type from DSN: %s", dsn)
	}
}
