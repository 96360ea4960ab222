package main

import (
	"os"

	posexit "github.com/0xPolygon/posexit"
	"github.com/0xPolygon/posexit/common"
	"github.com/0xPolygon/posexit/config"
	"github.com/0xPolygon/posexit/log"
	"github.com/urfave/cli/v2"
)

const appName = "posexit"

const (
	flagTx         = "tx"
	flagEvent      = "event"
	flagOccurrence = "occurrence"
	flagBlock      = "block"
)

var (
	configFileFlag = cli.StringSliceFlag{
		Name:     config.FlagCfg,
		Aliases:  []string{"c"},
		Usage:    "Configuration file(s)",
		Required: true,
	}
	componentsFlag = cli.StringSliceFlag{
		Name:     config.FlagComponents,
		Aliases:  []string{"co"},
		Usage:    "List of components to run",
		Required: false,
		Value:    cli.NewStringSlice(common.RPC),
	}
	saveConfigFlag = cli.StringFlag{
		Name:     config.FlagSaveConfigPath,
		Aliases:  []string{"s"},
		Usage:    "Save final configuration into to the indicated path (name: posexit_config.toml)",
		Required: false,
	}
	outputFileFlag = cli.StringFlag{
		Name:     config.FlagOutputFile,
		Aliases:  []string{"o"},
		Usage:    "Write the result into `FILE` instead of stdout",
		Required: false,
	}
	txFlag = cli.StringFlag{
		Name:     flagTx,
		Usage:    "Hash of the burn transaction on the child chain",
		Required: true,
	}
	eventFlag = cli.StringFlag{
		Name:  flagEvent,
		Usage: "Burn event: erc20, erc721, erc1155-single, erc1155-batch, message or a 32 byte hex signature",
		Value: "erc20",
	}
	occurrenceFlag = cli.UintFlag{
		Name:  flagOccurrence,
		Usage: "Which burn log of the receipt to exit, zero based",
	}
	blockFlag = cli.Uint64Flag{
		Name:     flagBlock,
		Usage:    "Child chain block number",
		Required: true,
	}
)

func main() {
	app := cli.NewApp()
	app.Name = appName
	app.Usage = "Builds the payloads that exit burns of the Polygon PoS chain on the root chain"
	app.Version = posexit.Version
	flags := []cli.Flag{
		&configFileFlag,
		&saveConfigFlag,
	}
	app.Commands = []*cli.Command{
		{
			Name:    "version",
			Aliases: []string{},
			Usage:   "Application version and build",
			Action:  versionCmd,
		},
		{
			Name:    "run",
			Aliases: []string{},
			Usage:   "Run the exit proof JSON-RPC server",
			Action:  start,
			Flags:   append(flags, &componentsFlag),
		},
		{
			Name:    "payload",
			Aliases: []string{},
			Usage:   "Build the exit payload of a burn transaction",
			Action:  payloadCmd,
			Flags:   append(flags, &txFlag, &eventFlag, &occurrenceFlag, &outputFileFlag),
		},
		{
			Name:    "locate",
			Aliases: []string{},
			Usage:   "Print the checkpoint that includes a child chain block",
			Action:  locateCmd,
			Flags:   append(flags, &blockFlag),
		},
		{
			Name:    "config",
			Aliases: []string{},
			Usage:   "Print the default configuration",
			Action:  configCmd,
		},
		{
			Name:    "config-schema",
			Aliases: []string{},
			Usage:   "Print the JSON schema of the configuration file",
			Action:  configSchemaCmd,
			Flags:   []cli.Flag{&outputFileFlag},
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
		os.Exit(1)
	}
}

func versionCmd(*cli.Context) error {
	posexit.PrintVersion(os.Stdout)
	return nil
}
