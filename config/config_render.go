package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/0xPolygon/posexit/log"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/valyala/fasttemplate"
)

const (
	startTag = "{{"
	endTag   = "}}"
	// bare vars (A = {{B}}) are not valid TOML, they are quoted with this mark while parsing
	bareVarMark = ":raw"
)

var (
	ErrCycleVars                 = errors.New("cycle vars")
	ErrMissingVars               = errors.New("missing vars")
	ErrUnsupportedConfigFileType = errors.New("unsupported config file type")

	bareVarRegexp   = regexp.MustCompile(`=\s*\{\{([^}:]+)\}\}`)
	quotedVarRegexp = regexp.MustCompile(`=\s*"\{\{([^}:]+)` + bareVarMark + `\}\}"`)
	markedVarRegexp = regexp.MustCompile(`\{\{([^}:]+)` + bareVarMark + `\}\}`)
)

// FileData is the content of a config file, Name is only used for logging
type FileData struct {
	Name    string
	Content string
}

// ConfigRender merges a list of TOML files (later files override former ones)
// and resolves the {{var}} references using the merged values or the environment
type ConfigRender struct {
	FilesData []FileData
	// LookupEnvFunc resolves environment variables, typically os.LookupEnv
	LookupEnvFunc     func(key string) (string, bool)
	EnvironmentPrefix string
}

// NewConfigRender creates a render that looks vars up in the process environment
func NewConfigRender(filesData []FileData, environmentPrefix string) *ConfigRender {
	return &ConfigRender{
		FilesData:         filesData,
		LookupEnvFunc:     os.LookupEnv,
		EnvironmentPrefix: environmentPrefix,
	}
}

// Render merges all files and resolves the vars
func (c *ConfigRender) Render() (string, error) {
	merged, err := c.Merge()
	if err != nil {
		return "", fmt.Errorf("fail to merge files. Err: %w", err)
	}
	return c.ResolveVars(merged)
}

// Merge loads every file over the previous ones and returns the TOML result.
// Vars are kept unresolved
func (c *ConfigRender) Merge() (string, error) {
	k := koanf.New(".")
	for _, data := range c.FilesData {
		if err := k.Load(rawbytes.Provider([]byte(quoteBareVars(data.Content))), toml.Parser()); err != nil {
			log.Errorf("error loading file %s. Err:%v", data.Name, err)
			return "", fmt.Errorf("fail to load %s as toml. Err: %w", data.Name, err)
		}
	}
	marshaled, err := k.Marshal(toml.Parser())
	if err != nil {
		return "", fmt.Errorf("fail to marshal to toml. Err: %w", err)
	}
	return unquoteBareVars(string(marshaled)), nil
}

// ResolveVars replaces the vars until none is left. Each pass must reduce the
// number of pending vars, otherwise the remaining ones are either undefined
// (ErrMissingVars) or depend on each other (ErrCycleVars)
func (c *ConfigRender) ResolveVars(configData string) (string, error) {
	current := configData
	pending := c.GetVars(current)
	for len(pending) > 0 {
		tpl, values, err := c.readTemplateAndValues(current)
		if err != nil {
			return configData, err
		}
		if missing := c.undefinedVars(pending, values); len(missing) > 0 {
			return current, fmt.Errorf("missing vars: %v. Err: %w", missing, ErrMissingVars)
		}
		next := c.executeTemplate(tpl, values)
		nextPending := c.GetVars(next)
		// every pass replaces vars by values that only reference known vars, so
		// the pending set can only shrink
		if len(nextPending) > 0 && sameVars(pending, nextPending) {
			return configData, fmt.Errorf("not resolved cycle vars: %v. Err: %w", nextPending, ErrCycleVars)
		}
		current, pending = next, nextPending
	}
	return current, nil
}

// GetVars returns the distinct vars referenced in configData
func (c *ConfigRender) GetVars(configData string) []string {
	tpl, err := fasttemplate.NewTemplate(configData, startTag, endTag)
	if err != nil {
		return nil
	}
	var vars []string
	tpl.ExecuteFuncString(func(w io.Writer, tag string) (int, error) {
		if !contains(vars, tag) {
			vars = append(vars, tag)
		}
		return 0, nil
	})
	return vars
}

func (c *ConfigRender) readTemplateAndValues(data string) (*fasttemplate.Template, map[string]interface{}, error) {
	tpl, err := fasttemplate.NewTemplate(data, startTag, endTag)
	if err != nil {
		return nil, nil, fmt.Errorf("fail to parse template. Err:%w", err)
	}
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider([]byte(quoteBareVars(data))), toml.Parser()); err != nil {
		return nil, nil, fmt.Errorf("fail to parse config values. Err: %w", err)
	}
	return tpl, k.All(), nil
}

func (c *ConfigRender) executeTemplate(tpl *fasttemplate.Template, values map[string]interface{}) string {
	return tpl.ExecuteFuncString(func(w io.Writer, tag string) (int, error) {
		if v, ok := c.lookupEnv(tag); ok {
			return w.Write([]byte(v))
		}
		if v, ok := values[tag]; ok {
			return w.Write([]byte(unquoteBareVars(fmt.Sprintf("%v", v))))
		}
		return w.Write([]byte(startTag + tag + endTag))
	})
}

func (c *ConfigRender) undefinedVars(vars []string, values map[string]interface{}) []string {
	var missing []string
	for _, v := range vars {
		if _, ok := values[v]; ok {
			continue
		}
		if _, ok := c.lookupEnv(v); ok {
			continue
		}
		missing = append(missing, v)
	}
	return missing
}

func (c *ConfigRender) lookupEnv(tag string) (string, bool) {
	if c.LookupEnvFunc == nil {
		return "", false
	}
	return c.LookupEnvFunc(c.EnvironmentPrefix + "_" + strings.ReplaceAll(tag, ".", "_"))
}

func quoteBareVars(data string) string {
	return bareVarRegexp.ReplaceAllString(data, `= "{{${1}`+bareVarMark+`}}"`)
}

func unquoteBareVars(data string) string {
	data = quotedVarRegexp.ReplaceAllString(data, `= {{${1}}}`)
	return markedVarRegexp.ReplaceAllString(data, `{{${1}}}`)
}

func sameVars(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for _, v := range a {
		if !contains(b, v) {
			return false
		}
	}
	return true
}

func contains(vars []string, search string) bool {
	for _, v := range vars {
		if v == search {
			return true
		}
	}
	return false
}

func convertFileToToml(fileData string, fileType string) (string, error) {
	switch strings.ToLower(fileType) {
	case "json":
		k := koanf.New(".")
		if err := k.Load(rawbytes.Provider([]byte(fileData)), json.Parser()); err != nil {
			return fileData, fmt.Errorf("error loading json file. Err: %w", err)
		}
		tomlData, err := toml.Parser().Marshal(k.Raw())
		if err != nil {
			return fileData, fmt.Errorf("error converting json to toml. Err: %w", err)
		}
		return string(tomlData), nil
	case "yml", "yaml", "ini":
		return fileData, fmt.Errorf("cant convert from %s to TOML. Err: %w", fileType, ErrUnsupportedConfigFileType)
	default:
		log.Warnf("filetype %s unknown, assuming is a TOML file", fileType)
		return fileData, nil
	}
}
