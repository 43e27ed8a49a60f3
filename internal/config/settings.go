package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvVarPort is the HTTP Control Surface bind port override.
const EnvVarPort = "NURVUS_PORT"

// DefaultPort is the HTTP Control Surface's default bind port.
const DefaultPort = 4001

// Settings are the agent's own ambient settings, distinct from the
// process-definition file: where to bind the control surface and where to
// write the agent's own rotating log. Bound through viper so the same
// precedence rules (explicit set > env > default) the rest of the corpus
// relies on apply here too.
type Settings struct {
	Port       int      `mapstructure:"port"`
	ConfigFile string   `mapstructure:"config_file"`
	LogDir     string   `mapstructure:"log_dir"`
	NodeID     string   `mapstructure:"node_id"`
	Peers      []string `mapstructure:"peers"`
}

// LoadSettings binds NURVUS_PORT / NURVUS_CONFIG_FILE and returns the
// resolved Settings. It never errors: every field has a usable default.
func LoadSettings() Settings {
	v := viper.New()
	v.SetEnvPrefix("nurvus")
	v.AutomaticEnv()
	v.SetDefault("port", DefaultPort)
	v.SetDefault("config_file", DefaultPath())
	v.SetDefault("log_dir", "")
	v.SetDefault("node_id", hostnameOr("node"))
	v.SetDefault("peers", "")

	var peers []string
	if raw := v.GetString("peers"); raw != "" {
		peers = strings.Split(raw, ",")
	}

	return Settings{
		Port:       v.GetInt("port"),
		ConfigFile: v.GetString("config_file"),
		LogDir:     v.GetString("log_dir"),
		NodeID:     v.GetString("node_id"),
		Peers:      peers,
	}
}

func hostnameOr(fallback string) string {
	name, err := os.Hostname()
	if err != nil || name == "" {
		return fallback
	}
	return name
}
