package types

// Migration is a single SQL script. The script uses the sql-migrate
// separators: "-- +migrate Up" and "-- +migrate Down"
type Migration struct {
	ID  string
	SQL string
}
