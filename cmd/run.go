package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"

	jRPC "github.com/0xPolygon/cdk-rpc/rpc"
	posexit "github.com/0xPolygon/posexit"
	"github.com/0xPolygon/posexit/checkpoint"
	"github.com/0xPolygon/posexit/checkpointsync"
	posexitcommon "github.com/0xPolygon/posexit/common"
	"github.com/0xPolygon/posexit/config"
	"github.com/0xPolygon/posexit/etherman"
	"github.com/0xPolygon/posexit/exitproof"
	"github.com/0xPolygon/posexit/log"
	"github.com/0xPolygon/posexit/rpc"
	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"
)

// node holds the clients and components shared by every command
type node struct {
	cfg        *config.Config
	childChain *etherman.ChildChainClient
	rootChain  *etherman.RootChainClient
	localIndex *checkpointsync.CheckpointSync
	locator    *checkpoint.Locator
	builder    *exitproof.Builder
}

func (n *node) close() {
	if n.childChain != nil {
		n.childChain.Close()
	}
	if n.rootChain != nil && n.rootChain.EthClient != nil {
		n.rootChain.EthClient.Close()
	}
}

func loadConfig(cliCtx *cli.Context) (*config.Config, error) {
	c, err := config.Load(cliCtx)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	log.Init(c.Log)
	return c, nil
}

func newNode(ctx context.Context, c *config.Config, withLocalIndex bool) (*node, error) {
	n := &node{cfg: c}
	var err error
	n.childChain, err = etherman.DialChildChain(ctx, c.ChildChain)
	if err != nil {
		return nil, fmt.Errorf("child chain: %w", err)
	}
	n.rootChain, err = etherman.DialRootChain(ctx, c.RootChain)
	if err != nil {
		n.close()
		return nil, fmt.Errorf("root chain: %w", err)
	}

	var indexers []checkpoint.Indexer
	if withLocalIndex {
		n.localIndex, err = checkpointsync.New(ctx, c.CheckpointSync, n.rootChain.EthClient, n.rootChain.CheckpointManager())
		if err != nil {
			n.close()
			return nil, fmt.Errorf("checkpoint sync: %w", err)
		}
		indexers = append(indexers, n.localIndex)
	}
	if c.Checkpoint.IndexerURL != "" {
		subgraph, err := checkpoint.NewSubgraphIndexer(c.Checkpoint.IndexerURL, c.Checkpoint.IndexerTimeout.Duration)
		if err != nil {
			n.close()
			return nil, err
		}
		indexers = append(indexers, subgraph)
	}

	n.locator = checkpoint.NewLocator(
		c.Network, n.rootChain, c.Checkpoint.CacheSize,
		log.WithFields("module", posexitcommon.CHECKPOINT_LOCATOR), indexers...,
	)
	n.builder = exitproof.NewBuilder(
		c.ExitProof, c.Network, n.childChain, n.locator, n.rootChain,
		log.WithFields("module", posexitcommon.PROOF_BUILDER),
	)
	return n, nil
}

func start(cliCtx *cli.Context) error {
	c, err := loadConfig(cliCtx)
	if err != nil {
		return err
	}

	if c.Log.Environment == log.EnvironmentDevelopment {
		posexit.PrintVersion(os.Stdout)
		log.Info("Starting application")
	} else if c.Log.Environment == log.EnvironmentProduction {
		log.Infow("Starting application", posexit.GetVersion().KeyValues()...)
	}

	components := cliCtx.StringSlice(config.FlagComponents)
	withLocalIndex := c.Checkpoint.UseLocalIndex || isNeeded([]string{posexitcommon.CHECKPOINT_SYNC}, components)

	ctx, cancel := context.WithCancel(cliCtx.Context)
	n, err := newNode(ctx, c, withLocalIndex)
	if err != nil {
		cancel()
		return err
	}
	defer n.close()

	if n.localIndex != nil {
		go n.localIndex.Start(ctx)
	}
	for _, component := range components {
		switch component {
		case posexitcommon.RPC:
			server := createRPC(c.RPC, n.builder, n.locator)
			go func() {
				if err := server.Start(); err != nil {
					log.Fatal(err)
				}
			}()
		case posexitcommon.CHECKPOINT_SYNC:
			// started above
		default:
			log.Warnf("unknown component %s", component)
		}
	}

	waitSignal([]context.CancelFunc{cancel})
	return nil
}

func payloadCmd(cliCtx *cli.Context) error {
	c, err := loadConfig(cliCtx)
	if err != nil {
		return err
	}
	txHash := common.HexToHash(cliCtx.String(flagTx))
	event, err := exitproof.ParseBurnEvent(cliCtx.String(flagEvent))
	if err != nil {
		return err
	}

	ctx := cliCtx.Context
	n, err := newNode(ctx, c, false)
	if err != nil {
		return err
	}
	defer n.close()

	payload, err := n.builder.BuildExitProof(ctx, txHash, event, cliCtx.Uint(flagOccurrence))
	if err != nil {
		if stage, ok := exitproof.FailedStage(err); ok {
			log.Errorw("exit proof failed", "tx", txHash, "stage", stage, "error", err)
		}
		return err
	}
	encoded, err := payload.EncodeHex()
	if err != nil {
		return err
	}
	exitHash := exitproof.ExitHash(payload.BurnTxBlockNumber, payload.ReceiptProofPath, payload.LogIndex)
	log.Infow("exit payload built",
		"tx", txHash,
		"checkpoint", payload.HeaderBlockNumber,
		"block", payload.BurnTxBlockNumber,
		"logIndex", payload.LogIndex,
		"exitHash", exitHash,
	)
	return writeOutput(cliCtx.String(config.FlagOutputFile), []byte(encoded+"\n"))
}

func locateCmd(cliCtx *cli.Context) error {
	c, err := loadConfig(cliCtx)
	if err != nil {
		return err
	}
	ctx := cliCtx.Context
	n, err := newNode(ctx, c, false)
	if err != nil {
		return err
	}
	defer n.close()

	cp, err := n.locator.Locate(ctx, cliCtx.Uint64(flagBlock))
	if err != nil {
		if errors.Is(err, posexitcommon.ErrNotFound) {
			log.Warnf("block %d is not checkpointed yet", cliCtx.Uint64(flagBlock))
		}
		return err
	}
	out, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return err
	}
	return writeOutput("", append(out, '\n'))
}

func createRPC(cfg jRPC.Config, builder *exitproof.Builder, locator *checkpoint.Locator) *jRPC.Server {
	logger := log.WithFields("module", posexitcommon.RPC)
	services := []jRPC.Service{
		{
			Name: rpc.EXITPROOF,
			Service: rpc.NewExitProofEndpoints(
				logger,
				cfg.ReadTimeout.Duration,
				builder,
				locator,
			),
		},
	}
	return jRPC.NewServer(cfg, services, jRPC.WithLogger(logger.GetSugaredLogger()))
}

func waitSignal(cancelFuncs []context.CancelFunc) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt)

	for sig := range signals {
		switch sig {
		case os.Interrupt, os.Kill:
			log.Info("terminating application gracefully...")

			exitStatus := 0
			for _, cancel := range cancelFuncs {
				cancel()
			}
			os.Exit(exitStatus)
		}
	}
}

func isNeeded(casesWhereNeeded, actualCases []string) bool {
	for _, actualCase := range actualCases {
		for _, caseWhereNeeded := range casesWhereNeeded {
			if actualCase == caseWhereNeeded {
				return true
			}
		}
	}
	return false
}
