package seeder

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds demo-data seeder settings.
type Config struct {
	OrgName          string `yaml:"org_name"           env:"SEEDER_ORG_NAME"           env-default:"Pinville Arcade"`
	OrgSubdomain     string `yaml:"org_subdomain"      env:"SEEDER_ORG_SUBDOMAIN"      env-default:"pinville"`
	AdminEmail       string `yaml:"admin_email"        env:"SEEDER_ADMIN_EMAIL"        env-default:"admin@pinville.test"`
	AdminPassword    string `yaml:"admin_password"     env:"SEEDER_ADMIN_PASSWORD"     env-default:"changeme-now"`
	TechCount        int    `yaml:"tech_count"         env:"SEEDER_TECH_COUNT"         env-default:"3"`
	IssuesPerMachine int    `yaml:"issues_per_machine" env:"SEEDER_ISSUES_PER_MACHINE" env-default:"4"`
	DryRun           bool   `yaml:"dry_run"            env:"SEEDER_DRY_RUN"`
}

// LoadConfig reads seeder configuration from a YAML file and environment variables.
// Priority: ENV > YAML > defaults (via env-default tags).
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, &cfg); err != nil {
				return nil, fmt.Errorf("seeder config: read %s: %w", path, err)
			}
			return &cfg, nil
		}
		return nil, fmt.Errorf("seeder config: file %s not found", path)
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("seeder config: read env: %w", err)
	}

	return &cfg, nil
}
