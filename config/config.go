package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"reflect"
	"strings"

	jRPC "github.com/0xPolygon/cdk-rpc/rpc"
	"github.com/0xPolygon/posexit/checkpoint"
	"github.com/0xPolygon/posexit/checkpointsync"
	"github.com/0xPolygon/posexit/common"
	"github.com/0xPolygon/posexit/etherman"
	"github.com/0xPolygon/posexit/exitproof"
	"github.com/0xPolygon/posexit/log"
	"github.com/invopop/jsonschema"
	"github.com/mitchellh/mapstructure"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"
)

const (
	// FlagCfg is the flag for cfg.
	FlagCfg = "cfg"
	// FlagComponents is the flag for components.
	FlagComponents = "components"
	// FlagSaveConfigPath is the flag to save the final configuration file
	FlagSaveConfigPath = "save-config-path"
	// FlagOutputFile is the flag for the output file
	FlagOutputFile = "output"

	EnvVarPrefix       = "POSEXIT"
	ConfigType         = "toml"
	SaveConfigFileName = "posexit_config.toml"

	DefaultCreationFilePermissions = os.FileMode(0600)
)

var (
	// ErrInvalidConfig is returned when a loaded config can't be used to start the node
	ErrInvalidConfig = errors.New("invalid config")
)

/*
Config represents the configuration of the exit proof node
The file is [TOML format]

[TOML format]: https://en.wikipedia.org/wiki/TOML
*/
type Config struct {
	// Configure Log level for all the services, allow also to store the logs in a file
	Log log.Config
	// Chain constants shared by every component
	Network common.NetworkConfig
	// Client of the child chain (block producer) node
	ChildChain etherman.ChildChainConfig
	// Client of the root chain and the addresses of the PoS contracts
	RootChain etherman.RootChainConfig
	// Configuration of the checkpoint locator
	Checkpoint checkpoint.Config
	// Configuration of the local index of checkpoints submitted to the root chain
	CheckpointSync checkpointsync.Config
	// Configuration of the exit payload builder
	ExitProof exitproof.Config
	// RPC is the config for the RPC server
	RPC jRPC.Config
}

// Validate checks the values that have no sensible default
func (c *Config) Validate() error {
	if c.Network.CheckpointIDStride == 0 {
		return fmt.Errorf("%w: Network.CheckpointIDStride must be greater than 0", ErrInvalidConfig)
	}
	if c.Network.MaxTreeDepth == 0 {
		return fmt.Errorf("%w: Network.MaxTreeDepth must be greater than 0", ErrInvalidConfig)
	}
	if c.ChildChain.URL == "" {
		return fmt.Errorf("%w: ChildChain.URL is empty", ErrInvalidConfig)
	}
	if c.ExitProof.MaxConcurrentFetches <= 0 {
		return fmt.Errorf("%w: ExitProof.MaxConcurrentFetches must be greater than 0", ErrInvalidConfig)
	}
	return nil
}

// Load loads the configuration
func Load(ctx *cli.Context) (*Config, error) {
	configFilePath := ctx.StringSlice(FlagCfg)
	filesData, err := readFiles(configFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading files:  Err:%w", err)
	}
	saveConfigPath := ctx.String(FlagSaveConfigPath)
	return LoadFile(filesData, saveConfigPath)
}

func readFiles(files []string) ([]FileData, error) {
	result := make([]FileData, 0, len(files))
	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("error reading file content: %s. Err:%w", file, err)
		}
		fileContent := string(content)
		if ext := strings.TrimPrefix(filepath.Ext(file), "."); ext != ConfigType {
			fileContent, err = convertFileToToml(fileContent, ext)
			if err != nil {
				return nil, fmt.Errorf("error converting file: %s from %s to TOML. Err:%w", file, ext, err)
			}
		}
		result = append(result, FileData{Name: file, Content: fileContent})
	}
	return result, nil
}

// LoadFile merges the default values with the given files, resolves the vars
// and decodes the result
func LoadFile(files []FileData, saveConfigPath string) (*Config, error) {
	fileData := make([]FileData, 0, len(files)+2) //nolint:mnd
	fileData = append(fileData, FileData{Name: "default_vars", Content: DefaultVars})
	fileData = append(fileData, FileData{Name: "default_values", Content: DefaultValues})
	fileData = append(fileData, files...)

	renderedCfg, err := NewConfigRender(fileData, EnvVarPrefix).Render()
	if err != nil {
		return nil, err
	}
	if saveConfigPath != "" {
		fullPath := filepath.Join(saveConfigPath, SaveConfigFileName)
		if err := os.WriteFile(fullPath, []byte(renderedCfg), DefaultCreationFilePermissions); err != nil {
			err = fmt.Errorf("error writing config file: %s. Err: %w", fullPath, err)
			log.Error(err)
			return nil, err
		}
	}
	return LoadFileFromString(renderedCfg, ConfigType)
}

// LoadFileFromString decodes an already rendered configuration
func LoadFileFromString(configFileData string, configType string) (*Config, error) {
	cfg := &Config{}
	if err := loadString(cfg, configFileData, configType, EnvVarPrefix); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveConfigToString renders the configuration as TOML
func SaveConfigToString(cfg Config) (string, error) {
	b, err := toml.Marshal(cfg)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// GenerateJSONSchema returns the JSON schema of the configuration file
func GenerateJSONSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		ExpandedStruct:             true,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
		// most sections are a type named Config, qualify them so they don't collide
		Namer: func(t reflect.Type) string {
			if t.PkgPath() == "" {
				return t.Name()
			}
			return path.Base(t.PkgPath()) + "." + t.Name()
		},
	}
	schema := r.Reflect(&Config{})
	schema.Title = "posexit config file"
	return schema.MarshalJSON()
}

func loadString(cfg *Config, configData string, configType string, envPrefix string) error {
	v := viper.New()
	v.SetConfigType(configType)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	if err := v.ReadConfig(bytes.NewBufferString(configData)); err != nil {
		return err
	}
	decodeHooks := []viper.DecoderConfigOption{
		// this allows arrays to be decoded from env var separated by ",", example: MY_VAR="value1,value2,value3"
		viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(), mapstructure.StringToSliceHookFunc(","))),
	}
	return v.Unmarshal(cfg, decodeHooks...)
}
