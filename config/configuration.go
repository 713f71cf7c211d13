package config

import (
	"github.com/spf13/viper"
)

type PipelineConfiguration struct {
	// PrimaryBase is the directory or URL prefix the primary case/death
	// series files are read from. Empty means the builtin default.
	PrimaryBase string `json:"primary_base" mapstructure:"primary_base" default:""`
	Output      string `json:"output" mapstructure:"output" default:"data.csv"`
	// Sources points at an optional YAML manifest overriding builtin
	// dataset locations and filters.
	Sources       string   `json:"sources" mapstructure:"sources" default:""`
	FetchTimeoutS int      `json:"fetch_timeout_s" mapstructure:"fetch_timeout_s" default:"120"`
	Prefetch      int      `json:"prefetch" mapstructure:"prefetch" default:"4"`
	DropCountries []string `json:"drop_countries" mapstructure:"drop_countries"`
}

type LoggingConfiguration struct {
	Level  string `json:"level" mapstructure:"level" default:"info"`
	Format string `json:"format" mapstructure:"format" default:"text"`
}

type Configuration struct {
	Pipeline PipelineConfiguration `json:"pipeline" mapstructure:"pipeline"`
	Logging  LoggingConfiguration  `json:"logging" mapstructure:"logging"`
}

var Config *Configuration

// InitConfig loads the optional configuration file and the environment into
// the global Config. An empty file name loads environment and defaults only.
func InitConfig(file string) {
	viper.AutomaticEnv()
	viper.SetDefault("pipeline.output", "data.csv")
	viper.SetDefault("pipeline.fetch_timeout_s", 120)
	viper.SetDefault("pipeline.prefetch", 4)
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
	if file != "" {
		viper.SetConfigFile(file)
		err := viper.ReadInConfig()
		if err != nil {
			panic(err)
		}
	}
	Config = &Configuration{}
	err := viper.Unmarshal(Config)
	if err != nil {
		panic(err)
	}
}
