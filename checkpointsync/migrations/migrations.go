package migrations

import (
	_ "embed"

	"github.com/0xPolygon/posexit/db"
	"github.com/0xPolygon/posexit/db/types"
)

//go:embed checkpointsync0001.sql
var mig001 string

func RunMigrations(dbPath string) error {
	migrations := []types.Migration{
		{
			ID:  "checkpointsync0001",
			SQL: mig001,
		},
	}
	return db.RunMigrations(dbPath, migrations)
}
