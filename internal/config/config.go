// Package config loads the rollcall configuration file: the two on-time
// windows, the penalty amount, the administrator IDs, and the store file
// locations. The engine consumes these as externally supplied constants;
// nothing here is mutated after load.
//
// Files are YAML, validated against an embedded CUE schema before the
// values are trusted. Absent fields keep their defaults, which match the
// original deployment's constants.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/rollcall/internal/policy"
)

//go:embed schema.cue
var schemaSrc string

// Config is the full configuration surface.
type Config struct {
	Windows  Windows  `yaml:"windows"`
	Penalty  int      `yaml:"penalty"`
	Currency string   `yaml:"currency"`
	Admins   []string `yaml:"admins"`
	Data     Data     `yaml:"data"`
}

// Windows holds the two on-time windows.
type Windows struct {
	Morning policy.Window `yaml:"morning"`
	Evening policy.Window `yaml:"evening"`
}

// Data locates the two persisted documents.
type Data struct {
	Dir            string `yaml:"dir"`
	AttendanceFile string `yaml:"attendance_file"`
	SalaryFile     string `yaml:"salary_file"`
}

// AttendancePath joins Dir and AttendanceFile.
func (d Data) AttendancePath() string { return filepath.Join(d.Dir, d.AttendanceFile) }

// SalaryPath joins Dir and SalaryFile.
func (d Data) SalaryPath() string { return filepath.Join(d.Dir, d.SalaryFile) }

// Default returns the stock configuration: the original windows, a
// penalty of 50 rendered as PKR, no admins, data files in the working
// directory.
func Default() Config {
	stock := policy.DefaultWindowPolicy()
	return Config{
		Windows:  Windows{Morning: stock.Morning, Evening: stock.Evening},
		Penalty:  50,
		Currency: "PKR",
		Data: Data{
			Dir:            ".",
			AttendanceFile: "attendance_records.json",
			SalaryFile:     "salary_records.json",
		},
	}
}

// WindowPolicy converts the configured windows.
func (c Config) WindowPolicy() policy.WindowPolicy {
	return policy.WindowPolicy{Morning: c.Windows.Morning, Evening: c.Windows.Evening}
}

// Load reads and validates a config file. A missing file (or empty path)
// yields the defaults; a present file is schema-checked, layered over the
// defaults, and semantically validated.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := validateSchema(data); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// validateSchema unifies the raw document with the embedded CUE schema.
// Runs on the untyped YAML so unknown or ill-typed fields are caught
// before the struct decode quietly drops them.
func validateSchema(data []byte) error {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	if raw == nil {
		return nil
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSrc, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	value := ctx.Encode(raw)
	if err := value.Err(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := schema.Unify(value).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("schema violation: %w", err)
	}
	return nil
}

// Validate checks the semantic constraints the schema cannot express.
func (c Config) Validate() error {
	if err := c.WindowPolicy().Validate(); err != nil {
		return err
	}
	if c.Penalty < 0 {
		return fmt.Errorf("penalty must be non-negative, got %d", c.Penalty)
	}
	if c.Currency == "" {
		return fmt.Errorf("currency must not be empty")
	}
	if c.Data.AttendanceFile == "" || c.Data.SalaryFile == "" {
		return fmt.Errorf("data file names must not be empty")
	}
	return nil
}
