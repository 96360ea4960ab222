package checkpointsync

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"

	"github.com/0xPolygon/posexit/checkpoint"
	"github.com/0xPolygon/posexit/checkpointsync/migrations"
	"github.com/0xPolygon/posexit/db"
	"github.com/0xPolygon/posexit/log"
	"github.com/0xPolygon/posexit/sync"
	"github.com/ethereum/go-ethereum/common"
	"github.com/russross/meddler"
)

// Event is a NewHeaderBlock log as stored in the local index
type Event struct {
	BlockNum      uint64         `meddler:"block_num"`
	BlockPos      uint64         `meddler:"block_pos"`
	HeaderBlockID *big.Int       `meddler:"header_block_id,bigint"`
	Start         uint64         `meddler:"start_block"`
	End           uint64         `meddler:"end_block"`
	Root          common.Hash    `meddler:"root,hash"`
	Proposer      common.Address `meddler:"proposer,address"`
}

func (e *Event) toCheckpoint() checkpoint.Checkpoint {
	return checkpoint.Checkpoint{
		ID:    e.HeaderBlockID,
		Start: new(big.Int).SetUint64(e.Start),
		End:   new(big.Int).SetUint64(e.End),
		Root:  e.Root,
	}
}

type processor struct {
	db  *sql.DB
	log *log.Logger
}

func newProcessor(dbPath string) (*processor, error) {
	if err := migrations.RunMigrations(dbPath); err != nil {
		return nil, err
	}
	database, err := db.NewSQLiteDB(dbPath)
	if err != nil {
		return nil, err
	}
	return &processor{
		db:  database,
		log: log.WithFields("module", syncerID),
	}, nil
}

// GetLastProcessedBlock returns the last processed block, including blocks
// without events
func (p *processor) GetLastProcessedBlock(ctx context.Context) (uint64, error) {
	var lastProcessedBlock uint64
	row := p.db.QueryRowContext(ctx, "SELECT num FROM block ORDER BY num DESC LIMIT 1;")
	err := row.Scan(&lastProcessedBlock)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return lastProcessedBlock, err
}

func (p *processor) ProcessBlock(ctx context.Context, block sync.Block) error {
	tx, err := db.NewTx(ctx, p.db)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if errRllbck := tx.Rollback(); errRllbck != nil {
				p.log.Errorf("error while rolling back tx %v", errRllbck)
			}
		}
	}()

	if _, err = tx.Exec(`INSERT INTO block (num) VALUES ($1)`, block.Num); err != nil {
		return err
	}
	for _, e := range block.Events {
		event, ok := e.(Event)
		if !ok {
			err = fmt.Errorf("unexpected event type %T", e)
			return err
		}
		if err = meddler.Insert(tx, "checkpoint", &event); err != nil {
			return fmt.Errorf("storing checkpoint %s: %w", event.HeaderBlockID, err)
		}
		tx.AddCommitCallback(func() {
			p.log.Infof("checkpoint %s [%d, %d] indexed", event.HeaderBlockID, event.Start, event.End)
		})
	}

	err = tx.Commit()
	return err
}

// GetCheckpointForBlock returns the stored checkpoint whose range contains blockNum
func (p *processor) GetCheckpointForBlock(ctx context.Context, blockNum uint64) (*Event, error) {
	event := &Event{}
	err := meddler.QueryRow(p.db, event, `
		SELECT * FROM checkpoint
		WHERE start_block <= $1 AND end_block >= $1
		ORDER BY end_block ASC
		LIMIT 1;
	`, blockNum)
	if err != nil {
		return nil, db.ReturnErrNotFound(err)
	}
	return event, nil
}

// GetLastCheckpoint returns the stored checkpoint covering the highest blocks
func (p *processor) GetLastCheckpoint(ctx context.Context) (*Event, error) {
	event := &Event{}
	err := meddler.QueryRow(p.db, event, `SELECT * FROM checkpoint ORDER BY end_block DESC LIMIT 1;`)
	if err != nil {
		return nil, db.ReturnErrNotFound(err)
	}
	return event, nil
}
