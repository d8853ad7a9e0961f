package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/ajitpratap0/i94dw/pkg/compression"
	"github.com/ajitpratap0/i94dw/pkg/errors"
)

// Config is the complete run configuration. Sections mirror the sections of
// the INI file; keys are matched case-insensitively.
type Config struct {
	// Cluster holds the warehouse connection parameters
	Cluster ClusterConfig `mapstructure:"cluster" yaml:"cluster"`
	// IAM holds the role the warehouse assumes to read object storage
	IAM IAMConfig `mapstructure:"iam" yaml:"iam"`
	// AWS holds the credentials used to write to S3
	AWS AWSConfig `mapstructure:"aws" yaml:"aws"`
	// GCP holds the credentials used to write to GCS
	GCP GCPConfig `mapstructure:"gcp" yaml:"gcp"`

	Input  InputConfig  `mapstructure:"input" yaml:"input"`
	Output OutputConfig `mapstructure:"output" yaml:"output"`

	// Sources overrides the COPY location per warehouse table
	Sources map[string]string `mapstructure:"sources" yaml:"sources,omitempty"`

	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
	Tracing TracingConfig `mapstructure:"tracing" yaml:"tracing"`
	// Checks is the VALIDATE section
	Checks ChecksConfig `mapstructure:"validate" yaml:"validate"`
}

// ClusterConfig contains the warehouse connection settings.
type ClusterConfig struct {
	Host       string `mapstructure:"host" yaml:"host"`
	DBName     string `mapstructure:"db_name" yaml:"db_name"`
	DBUser     string `mapstructure:"db_user" yaml:"db_user"`
	DBPassword string `mapstructure:"db_password" yaml:"db_password"`
	DBPort     int    `mapstructure:"db_port" yaml:"db_port"`
	SSLMode    string `mapstructure:"sslmode" yaml:"sslmode"`
}

// IAMConfig contains the role ARN named in COPY statements.
type IAMConfig struct {
	ARN string `mapstructure:"arn" yaml:"arn"`
}

// AWSConfig contains static S3 credentials. Empty keys fall back to the
// default AWS credential chain.
type AWSConfig struct {
	Key    string `mapstructure:"key" yaml:"key"`
	Secret string `mapstructure:"secret" yaml:"secret"`
	Region string `mapstructure:"region" yaml:"region"`
}

// GCPConfig contains the service account file for GCS.
type GCPConfig struct {
	CredentialsFile string `mapstructure:"credentials_file" yaml:"credentials_file"`
}

// InputConfig names the raw datasets. Values are local paths or storage
// URLs.
type InputConfig struct {
	Immigration           string `mapstructure:"immigration" yaml:"immigration"`
	Demographics          string `mapstructure:"demographics" yaml:"demographics"`
	DemographicsDelimiter string `mapstructure:"demographics_delimiter" yaml:"demographics_delimiter"`
	Ports                 string `mapstructure:"ports" yaml:"ports"`
	Visas                 string `mapstructure:"visas" yaml:"visas"`
	Modes                 string `mapstructure:"modes" yaml:"modes"`
	Countries             string `mapstructure:"countries" yaml:"countries"`
	// Strict fails on reference cells that do not parse
	Strict bool `mapstructure:"strict" yaml:"strict"`
}

// OutputConfig contains where extracted tables are written.
type OutputConfig struct {
	// StagingDir receives a copy of every table with a header row; empty
	// disables staging
	StagingDir string `mapstructure:"staging_dir" yaml:"staging_dir"`
	// Root receives the headerless files the warehouse loads
	Root        string `mapstructure:"root" yaml:"root"`
	Compression string `mapstructure:"compression" yaml:"compression"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig contains the optional Pushgateway target.
type MetricsConfig struct {
	PushGateway string `mapstructure:"push_gateway" yaml:"push_gateway"`
	Job         string `mapstructure:"job" yaml:"job"`
}

// TracingConfig toggles span export.
type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
}

// ChecksConfig toggles optional data checks.
type ChecksConfig struct {
	// ModeLinkage reports fact mode codes missing from the mode dimension
	ModeLinkage bool `mapstructure:"mode_linkage" yaml:"mode_linkage"`
}

// Command selects the keys Validate requires.
type Command string

const (
	CommandTransform Command = "transform"
	CommandWarehouse Command = "warehouse"
)

// Validate reports every required key that is missing for cmd, plus any
// malformed value.
func (c *Config) Validate(cmd Command) error {
	var missing []string
	require := func(key, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, key)
		}
	}

	switch cmd {
	case CommandTransform:
		require("INPUT.IMMIGRATION", c.Input.Immigration)
		require("INPUT.DEMOGRAPHICS", c.Input.Demographics)
		require("INPUT.PORTS", c.Input.Ports)
		require("INPUT.VISAS", c.Input.Visas)
		require("INPUT.MODES", c.Input.Modes)
		require("INPUT.COUNTRIES", c.Input.Countries)
		require("OUTPUT.ROOT", c.Output.Root)
	case CommandWarehouse:
		require("CLUSTER.HOST", c.Cluster.Host)
		require("CLUSTER.DB_NAME", c.Cluster.DBName)
		require("CLUSTER.DB_USER", c.Cluster.DBUser)
		require("IAM.ARN", c.IAM.ARN)
		require("AWS.REGION", c.AWS.Region)
		require("OUTPUT.ROOT", c.Output.Root)
	default:
		return errors.Newf(errors.ErrorTypeConfig, "unknown command %q", cmd)
	}

	if len(missing) > 0 {
		return errors.Newf(errors.ErrorTypeConfig, "missing required configuration: %s",
			strings.Join(missing, ", ")).WithDetail("keys", missing)
	}

	if cmd == CommandWarehouse && (c.Cluster.DBPort <= 0 || c.Cluster.DBPort > 65535) {
		return errors.Newf(errors.ErrorTypeConfig, "CLUSTER.DB_PORT %d is out of range", c.Cluster.DBPort)
	}
	if _, err := c.DemographicsDelimiter(); err != nil {
		return err
	}
	if _, err := compression.ParseAlgorithm(c.Output.Compression); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "invalid OUTPUT.COMPRESSION")
	}
	return nil
}

// DemographicsDelimiter returns the single-character delimiter of the
// demographics file.
func (c *Config) DemographicsDelimiter() (rune, error) {
	d := []rune(c.Input.DemographicsDelimiter)
	if len(d) != 1 {
		return 0, errors.Newf(errors.ErrorTypeConfig,
			"INPUT.DEMOGRAPHICS_DELIMITER must be one character, got %q", c.Input.DemographicsDelimiter)
	}
	return d[0], nil
}

// Compression returns the parsed output compression.
func (c *Config) Compression() compression.Algorithm {
	algo, err := compression.ParseAlgorithm(c.Output.Compression)
	if err != nil {
		return compression.None
	}
	return algo
}

// DSN renders the warehouse connection string.
func (c *Config) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.Cluster.DBUser, c.Cluster.DBPassword),
		Host:   net.JoinHostPort(c.Cluster.Host, strconv.Itoa(c.Cluster.DBPort)),
		Path:   "/" + c.Cluster.DBName,
	}
	if c.Cluster.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {c.Cluster.SSLMode}}.Encode()
	}
	return u.String()
}

const redacted = "********"

// Redacted returns a copy safe to print.
func (c *Config) Redacted() *Config {
	out := *c
	if out.Cluster.DBPassword != "" {
		out.Cluster.DBPassword = redacted
	}
	if out.AWS.Secret != "" {
		out.AWS.Secret = redacted
	}
	if len(out.AWS.Key) > 4 {
		out.AWS.Key = out.AWS.Key[:4] + redacted
	}
	if out.Sources != nil {
		out.Sources = make(map[string]string, len(c.Sources))
		for k, v := range c.Sources {
			out.Sources[k] = v
		}
	}
	return &out
}

// String implements fmt.Stringer without leaking secrets.
func (c *Config) String() string {
	r := c.Redacted()
	return fmt.Sprintf("cluster=%s:%d/%s input=%s output=%s",
		r.Cluster.Host, r.Cluster.DBPort, r.Cluster.DBName, r.Input.Immigration, r.Output.Root)
}
