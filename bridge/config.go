package bridge

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	// FormatYAML writes decoded documents as YAML.
	FormatYAML = "yaml"
	// FormatJSON writes decoded documents as indented JSON.
	FormatJSON = "json"
)

const (
	defaultBenchMessages   = 100000
	defaultBenchBodySize   = 256
	defaultBenchProperties = 4
)

// MessageConfig contains defaults applied to documents before they are
// encoded.
type MessageConfig struct {
	AutoID          bool
	ContentType     string
	ContentEncoding string
}

// DecodeConfig contains settings for decoding AMQP messages.
type DecodeConfig struct {
	ContentProperties bool
}

// BenchConfig contains settings for the codec benchmark.
type BenchConfig struct {
	Messages   int
	BodySize   int
	Properties int
}

// Config contains all settings for a Bridge.
type Config struct {
	LogLevel     uint32
	LogSilent    bool
	OutputFormat string
	Message      MessageConfig
	Decode       DecodeConfig
	Bench        BenchConfig
}

// NewDefaultConfig creates a new Config with default settings.
func NewDefaultConfig() *Config {
	config := &Config{OutputFormat: FormatYAML}
	config.LogLevel = uint32(log.InfoLevel)
	config.Bench.Messages = defaultBenchMessages
	config.Bench.BodySize = defaultBenchBodySize
	config.Bench.Properties = defaultBenchProperties
	return config
}

// GetLogLevel converts the level string to its corresponding int value. It
// returns an error if the level is invalid.
func GetLogLevel(level string) (uint32, error) {
	var l uint32
	switch strings.ToLower(level) {
	case "debug":
		l = uint32(log.DebugLevel)
	case "info":
		l = uint32(log.InfoLevel)
	case "warn":
		l = uint32(log.WarnLevel)
	case "error":
		l = uint32(log.ErrorLevel)
	default:
		return 0, fmt.Errorf("Invalid log.level setting %q", level)
	}
	return l, nil
}

// NewConfig creates a new Config with default settings and applies any
// settings from the given configuration file. An empty path yields the
// defaults.
func NewConfig(configFile string) (*Config, error) {
	config := NewDefaultConfig()
	if configFile == "" {
		return config, nil
	}

	v := viper.New()
	v.SetConfigFile(configFile)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	if v.IsSet("log.level") {
		level, err := GetLogLevel(v.GetString("log.level"))
		if err != nil {
			return nil, err
		}
		config.LogLevel = level
	}

	if v.IsSet("log.silent") {
		config.LogSilent = v.GetBool("log.silent")
	}

	if v.IsSet("output.format") {
		config.OutputFormat = strings.ToLower(v.GetString("output.format"))
	}

	parseMessageConfig(config, v)

	if v.IsSet("decode.content.properties") {
		config.Decode.ContentProperties = v.GetBool("decode.content.properties")
	}

	parseBenchConfig(config, v)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// parseMessageConfig parses the `message` section of a config file and
// populates the given Config.
func parseMessageConfig(config *Config, v *viper.Viper) {
	if v.IsSet("message.auto.id") {
		config.Message.AutoID = v.GetBool("message.auto.id")
	}
	if v.IsSet("message.content.type") {
		config.Message.ContentType = v.GetString("message.content.type")
	}
	if v.IsSet("message.content.encoding") {
		config.Message.ContentEncoding = v.GetString("message.content.encoding")
	}
}

// parseBenchConfig parses the `bench` section of a config file and populates
// the given Config.
func parseBenchConfig(config *Config, v *viper.Viper) {
	if v.IsSet("bench.messages") {
		config.Bench.Messages = v.GetInt("bench.messages")
	}
	if v.IsSet("bench.body.size") {
		config.Bench.BodySize = v.GetInt("bench.body.size")
	}
	if v.IsSet("bench.properties") {
		config.Bench.Properties = v.GetInt("bench.properties")
	}
}

// Validate checks the settings that cannot be checked while parsing.
func (c *Config) Validate() error {
	switch c.OutputFormat {
	case FormatYAML, FormatJSON:
	default:
		return fmt.Errorf("Invalid output.format setting %q", c.OutputFormat)
	}
	if c.Bench.Messages <= 0 {
		return fmt.Errorf("Invalid bench.messages setting %d", c.Bench.Messages)
	}
	if c.Bench.BodySize < 0 {
		return fmt.Errorf("Invalid bench.body.size setting %d", c.Bench.BodySize)
	}
	if c.Bench.Properties < 0 {
		return fmt.Errorf("Invalid bench.properties setting %d", c.Bench.Properties)
	}
	return nil
}
