package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/i94dw/pkg/errors"
)

// EnvPrefix prefixes the environment variables that override file values,
// e.g. I94DW_CLUSTER_HOST.
const EnvPrefix = "I94DW"

// DefaultPath is the configuration file read when none is given.
const DefaultPath = "dwh.cfg"

// defaults registers every key so environment overrides apply even when the
// file omits a key.
var defaults = map[string]interface{}{
	"cluster.host":                 "",
	"cluster.db_name":              "",
	"cluster.db_user":              "",
	"cluster.db_password":          "",
	"cluster.db_port":              5439,
	"cluster.sslmode":              "require",
	"iam.arn":                      "",
	"aws.key":                      "",
	"aws.secret":                   "",
	"aws.region":                   "us-west-2",
	"gcp.credentials_file":         "",
	"input.immigration":            "sas_data",
	"input.demographics":           "us-cities-demographics.csv",
	"input.demographics_delimiter": ";",
	"input.ports":                  "port.csv",
	"input.visas":                  "visatype.csv",
	"input.modes":                  "mode_of_arrival.csv",
	"input.countries":              "countries_and_cities.csv",
	"input.strict":                 false,
	"output.staging_dir":           "staging",
	"output.root":                  "output",
	"output.compression":           "none",
	"log.level":                    "info",
	"log.format":                   "json",
	"metrics.push_gateway":         "",
	"metrics.job":                  "i94dw",
	"tracing.enabled":              false,
	"tracing.service_name":         "i94dw",
	"validate.mode_linkage":        false,
}

// Options tune Load.
type Options struct {
	// DotEnv is a .env file whose I94DW_ entries act as environment
	// overrides. A missing file is ignored.
	DotEnv string
	// Getenv looks up environment variables; nil means os.Getenv.
	Getenv func(string) string
}

// Load reads the configuration file at path, which may be INI (.cfg, .ini)
// or YAML, then applies environment overrides. An empty path uses defaults
// and the environment only. ${VAR} references in the file are expanded
// before parsing.
func Load(path string, opts Options) (*Config, error) {
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the operator
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to read config file")
		}
		v.SetConfigType(configType(path))
		content := substituteEnvVars(string(data), getenv)
		if err := v.ReadConfig(bytes.NewBufferString(content)); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse config file").
				WithDetail("path", path)
		}
	}

	dotenv := map[string]string{}
	if opts.DotEnv != "" {
		if m, err := godotenv.Read(opts.DotEnv); err == nil {
			dotenv = m
		} else if !os.IsNotExist(err) {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to read "+opts.DotEnv)
		}
	}

	// The process environment wins over .env, which wins over the file.
	for _, key := range v.AllKeys() {
		name := EnvName(key)
		if val := getenv(name); val != "" {
			v.Set(key, val)
		} else if val, ok := dotenv[name]; ok && val != "" {
			v.Set(key, val)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to decode configuration")
	}
	cfg.Sources = normalizeSources(v.GetStringMapString("sources"))
	return &cfg, nil
}

// EnvName returns the environment variable overriding key.
func EnvName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Dump renders the redacted configuration as YAML.
func Dump(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg.Redacted())
}

func configType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "ini"
	}
}

// normalizeSources lower-cases table names; INI keys arrive lower-cased but
// YAML keys keep their spelling.
func normalizeSources(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, val := range in {
		out[strings.ToLower(k)] = strings.TrimSpace(val)
	}
	return out
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values
func substituteEnvVars(content string, getenv func(string) string) string {
	var b strings.Builder
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		b.WriteString(content[:start])
		b.WriteString(getenv(content[start+2 : end]))
		content = content[end+1:]
	}
	b.WriteString(content)
	return b.String()
}
