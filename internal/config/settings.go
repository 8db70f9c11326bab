package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const EnvPrefix = "ORBITSIM"

// Settings are application-level options, as opposed to a Scenario.
type Settings struct {
	DataDir   string `mapstructure:"dataDir"`
	LogLevel  string `mapstructure:"logLevel"`
	LogFormat string `mapstructure:"logFormat"`
	Params    string `mapstructure:"params"`
	Output    string `mapstructure:"output"`
}

// NewViper returns a viper instance carrying the default settings and
// reading ORBITSIM_* environment variables.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("dataDir", ".orbitsim")
	v.SetDefault("logLevel", "info")
	v.SetDefault("logFormat", "console")
	v.SetDefault("params", "parameters.txt")
	v.SetDefault("output", "output.txt")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadSettings merges the optional settings file into v. An empty path
// looks for orbitsim.yaml in the working directory and the user config
// directory; a missing file there is not an error.
func LoadSettings(v *viper.Viper, path string) (*Settings, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("orbitsim")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/orbitsim")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	s := &Settings{}
	if err := v.Unmarshal(s); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	return s, nil
}
