package app

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/burakseven/takip/internal/cloud"
)

// Config is the application-level configuration, resolved from (highest
// precedence first) command-line flags, TAKIP_* environment variables, and
// an optional takip.yaml config file.
type Config struct {
	// DBPath is the local database file.
	DBPath string

	// Mode selects the online or offline cloud adapter.
	Mode cloud.Mode

	// CredentialsDir holds credentials.json and token.json.
	CredentialsDir string

	// SheetMapPath is the optional JSON override of the table-to-sheet map.
	SheetMapPath string

	// TableConfigPath is the optional TOML overlay of table declarations.
	TableConfigPath string

	// AttachmentsDir is where the offline adapter stores uploads.
	AttachmentsDir string

	// LogFile, when set, routes logs to a rotating file instead of stderr.
	LogFile string

	// PushInterval is the period of the push daemon loop.
	PushInterval time.Duration
}

// LoadConfig resolves configuration through viper. A missing config file is
// fine; defaults and the environment cover everything.
func LoadConfig() (Config, error) {
	v := viper.New()
	v.SetConfigName("takip")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.takip")
	v.SetEnvPrefix("TAKIP")
	v.AutomaticEnv()

	v.SetDefault("db_path", "takip.db")
	v.SetDefault("mode", string(cloud.ModeOffline))
	v.SetDefault("credentials_dir", ".")
	v.SetDefault("sheet_map_path", "")
	v.SetDefault("table_config_path", "")
	v.SetDefault("attachments_dir", "ekler")
	v.SetDefault("log_file", "")
	v.SetDefault("push_interval", "5m")

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	interval, err := time.ParseDuration(v.GetString("push_interval"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid push_interval: %w", err)
	}

	return Config{
		DBPath:          v.GetString("db_path"),
		Mode:            cloud.Mode(v.GetString("mode")),
		CredentialsDir:  v.GetString("credentials_dir"),
		SheetMapPath:    v.GetString("sheet_map_path"),
		TableConfigPath: v.GetString("table_config_path"),
		AttachmentsDir:  v.GetString("attachments_dir"),
		LogFile:         v.GetString("log_file"),
		PushInterval:    interval,
	}, nil
}
