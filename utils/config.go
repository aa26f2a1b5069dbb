package utils

import (
	"os"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/voxelsplace/quadstack/heightfield"
	"github.com/voxelsplace/quadstack/pack"
	"github.com/voxelsplace/quadstack/quadstack"
	"sigs.k8s.io/yaml"
)

const (
	configEnv   = "QSTOOL_CONFIG"
	logLevelEnv = "QSTOOL_LOG_LEVEL"
)

// Config holds the settings shared by every command. It is read from the
// YAML file named by QSTOOL_CONFIG.
type Config struct {
	BlockSize   int    `json:"block_size"`
	Policy      string `json:"policy"`
	Compression string `json:"compression"`
	Strategy    string `json:"strategy"`
	Workers     int    `json:"workers"`
	LogLevel    string `json:"log_level"`
	LogIndent   bool   `json:"log_indent"`
}

func DefaultConfig() Config {
	return Config{
		BlockSize:   heightfield.DefaultBlockSize,
		Policy:      heightfield.Dense.String(),
		Compression: pack.Zstd.String(),
		Strategy:    quadstack.Promote.String(),
		Workers:     4,
		LogLevel:    "info",
	}
}

// LoadConfig returns the defaults overridden by the config file, if any, and
// by QSTOOL_LOG_LEVEL.
func LoadConfig() (Config, error) {
	conf := DefaultConfig()
	if path := os.Getenv(configEnv); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return conf, errors.New("reading config failed").
				WithTag("path", path).
				Wrap(err)
		}
		if conf, err = ParseConfig(data); err != nil {
			return conf, errors.New("parsing config failed").
				WithTag("path", path).
				Wrap(err)
		}
	}
	if level := os.Getenv(logLevelEnv); level != "" {
		conf.LogLevel = level
	}
	return conf, nil
}

// ParseConfig reads YAML on top of the defaults.
func ParseConfig(data []byte) (Config, error) {
	conf := DefaultConfig()
	if err := yaml.Unmarshal(data, &conf); err != nil {
		return DefaultConfig(), err
	}
	return conf, nil
}

// BuildOptions converts the config into quadstack build options.
func (c Config) BuildOptions() (quadstack.Options, error) {
	opts := quadstack.DefaultOptions()
	strategy, err := quadstack.ParseStrategy(c.Strategy)
	if err != nil {
		return opts, err
	}
	policy, err := heightfield.ParsePolicy(c.Policy)
	if err != nil {
		return opts, err
	}
	opts.Strategy = strategy
	opts.Codec = heightfield.Options{
		BlockCols: c.BlockSize,
		BlockRows: c.BlockSize,
		Policy:    policy,
	}
	return opts, nil
}

func (c Config) PackCompression() (pack.Compression, error) {
	return pack.ParseCompression(c.Compression)
}
