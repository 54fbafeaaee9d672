package harness

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/obsrig/ccsbridge/internal/interp"
)

// JobConfig describes one harnessed acquisition job.
type JobConfig struct {
	Name        string   `toml:"name"` // remote interpreter session name
	Host        string   `toml:"host"`
	Port        int      `toml:"port"`
	Script      string   `toml:"script"`
	SetupConfig string   `toml:"setup_config"`
	SysPaths    []string `toml:"sys_paths"`
	Verbose     bool     `toml:"verbose"`
}

func LoadJobConfig(path string) (JobConfig, error) {
	var cfg JobConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return JobConfig{}, fmt.Errorf("harness: config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return JobConfig{}, fmt.Errorf("harness: config parse failed (%s): %w", path, err)
	}
	if cfg.Name == "" {
		cfg.Name = "ts"
	}
	if cfg.Port == 0 {
		cfg.Port = interp.DefaultPort
	}
	if err := ValidateJobConfig(cfg); err != nil {
		return JobConfig{}, err
	}
	return cfg, nil
}

func ValidateJobConfig(cfg JobConfig) error {
	if strings.TrimSpace(cfg.Script) == "" {
		return fmt.Errorf("harness: job config missing script")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("harness: job config port out of range: %d", cfg.Port)
	}
	return nil
}

// SubsystemMapping reads the abstract-to-concrete CCS subsystem names from
// the [ccs_subsystems] table of the given TOML file, or of the file named
// by LCATR_CCS_SUBSYSTEM_CONFIG when path is empty. A nil map with no
// error means no mapping is configured.
func SubsystemMapping(path string) (map[string]string, error) {
	if path == "" {
		var ok bool
		if path, ok = os.LookupEnv(EnvSubsystemConfig); !ok {
			return nil, nil
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("harness: subsystem mapping load failed (%s): %w", path, err)
	}
	var doc struct {
		Subsystems map[string]string `toml:"ccs_subsystems"`
	}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("harness: subsystem mapping parse failed (%s): %w", path, err)
	}
	return doc.Subsystems, nil
}
