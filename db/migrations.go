package db

import (
	"fmt"
	"strings"

	"github.com/0xPolygon/posexit/db/types"
	"github.com/0xPolygon/posexit/log"
	migrate "github.com/rubenv/sql-migrate"
)

const (
	upDownSeparator  = "-- +migrate Up"
	dbPrefixReplacer = "/*dbprefix*/"
)

// RunMigrations will execute pending migrations if needed to keep
// the database updated with the latest changes
func RunMigrations(dbPath string, migrations []types.Migration) error {
	return RunMigrationsWithPrefix(dbPath, "", migrations)
}

// RunMigrationsWithPrefix replaces /*dbprefix*/ in the scripts by prefix, so
// the same scripts can serve several instances sharing a database file
func RunMigrationsWithPrefix(dbPath, prefix string, migrations []types.Migration) error {
	migs := &migrate.MemoryMigrationSource{Migrations: []*migrate.Migration{}}
	for _, m := range migrations {
		script := strings.ReplaceAll(m.SQL, dbPrefixReplacer, prefix)
		parts := strings.Split(script, upDownSeparator)
		if len(parts) != 2 { //nolint:mnd
			return fmt.Errorf("migration %s must contain exactly one %q", m.ID, upDownSeparator)
		}
		migs.Migrations = append(migs.Migrations, &migrate.Migration{
			Id:   prefix + m.ID,
			Up:   []string{parts[1]},
			Down: []string{parts[0]},
		})
	}

	db, err := NewSQLiteDB(dbPath)
	if err != nil {
		return fmt.Errorf("error creating DB %w", err)
	}
	defer db.Close()

	nMigrations, err := migrate.Exec(db, "sqlite3", migs, migrate.Up)
	if err != nil {
		return fmt.Errorf("error executing migration %w", err)
	}

	log.Infof("successfully ran %d migrations on %s", nMigrations, dbPath)
	return nil
}
