package main

import (
	"os"
	"strings"

	"github.com/0xPolygon/posexit/config"
	"github.com/urfave/cli/v2"
)

func configCmd(*cli.Context) error {
	// String buffer to concatenate all the default config vars
	defaultConfig := strings.Builder{}
	defaultConfig.WriteString(config.DefaultVars)
	defaultConfig.WriteString(config.DefaultValues)

	_, err := os.Stdout.WriteString(defaultConfig.String())
	return err
}

func configSchemaCmd(cliCtx *cli.Context) error {
	schema, err := config.GenerateJSONSchema()
	if err != nil {
		return err
	}
	return writeOutput(cliCtx.String(config.FlagOutputFile), append(schema, '\n'))
}

func writeOutput(file string, data []byte) error {
	if file == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(file, data, config.DefaultCreationFilePermissions)
}
