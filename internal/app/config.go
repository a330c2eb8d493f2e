package app

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type HeaderConfig struct {
	Name  string `toml:"name"`
	Value string `toml:"value"`
}

// SheetExportConfig describes one scheduled recap dump into a spreadsheet.
type SheetExportConfig struct {
	CredentialsPath string `toml:"credentials_path"`
	SpreadsheetID   string `toml:"spreadsheet_id"`
	SheetName       string `toml:"sheet_name"`
	Schedule        string `toml:"schedule"`
}

type Config struct {
	Server struct {
		Port       string `toml:"port"`
		EnableAuth bool   `toml:"enable_auth"`
	} `toml:"server"`

	Auth struct {
		RedisURL         string `toml:"redis_url"`
		TokenHeader      string `toml:"token_header"`
		TokenKeyTemplate string `toml:"token_key_template"`
	} `toml:"auth"`

	API struct {
		ParticipantIDHeader string         `toml:"participant_id_header"`
		RequiredHeaders     []HeaderConfig `toml:"required_headers"`
	} `toml:"api"`

	Database struct {
		DSN           string `toml:"dsn"`
		MigrationsDir string `toml:"migrations_dir"`
	} `toml:"database"`

	Display struct {
		TimestampFormat string `toml:"timestamp_format"`
	} `toml:"display"`

	Export struct {
		Sheets []SheetExportConfig `toml:"sheets"`
	} `toml:"export"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf(
			"error reading config file %s\n> Error: %w\n> Content:\n%s",
			path,
			err,
			string(data),
		)
	}

	if config.Server.Port == "" {
		return nil, fmt.Errorf("Server port is not specified in config, use a value like :9999")
	}

	return &config, nil
}
