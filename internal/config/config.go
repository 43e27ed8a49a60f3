// Package config implements the config loader: it parses the
// process-definition file into validated process.Definition values.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-viper/mapstructure/v2"

	"github.com/nurvus/nurvus/internal/process"
)

// EnvVarConfigFile is the override for the default config file location.
const EnvVarConfigFile = "NURVUS_CONFIG_FILE"

// FieldError names the offending field and reason (missing_required_field,
// wrong_field_type, unknown_platform, duplicate_id).
type FieldError struct {
	Index  int
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("element %d: %s: %s", e.Index, e.Field, e.Reason)
}

// DefaultPath resolves to NURVUS_CONFIG_FILE if set, else ~/.nurvus/processes.json.
func DefaultPath() string {
	if p := os.Getenv(EnvVarConfigFile); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "processes.json"
	}
	return filepath.Join(home, ".nurvus", "processes.json")
}

// Load reads the process-definition file at path (a JSON array) and
// decodes it into validated definitions. A missing file is reported as an
// error but is not itself fatal to the caller: the agent does not exit on
// a bad config, but that decision belongs to the caller, not Load; Load
// simply returns the error.
//
// The file's top-level JSON value is an array, which viper's map-rooted
// config model cannot represent; per-entry decoding instead goes straight
// through mapstructure, the same weakly-typed decoder viper itself uses
// internally (viper is used for the agent's own settings, see settings.go).
func Load(path string) ([]process.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("file_read_error: %w", err)
	}
	var raw []map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid_config_format: %w", err)
	}
	return decodeEntries(raw)
}

func decodeEntries(raw []map[string]interface{}) ([]process.Definition, error) {
	seen := make(map[string]bool, len(raw))
	defs := make([]process.Definition, 0, len(raw))
	for i, entry := range raw {
		def, err := decodeOne(i, entry)
		if err != nil {
			return nil, err
		}
		if seen[def.ID] {
			return nil, &FieldError{Index: i, Field: "id", Reason: fmt.Sprintf("duplicate_id(%s)", def.ID)}
		}
		seen[def.ID] = true
		defs = append(defs, def)
	}
	return defs, nil
}

func decodeOne(index int, entry map[string]interface{}) (process.Definition, error) {
	var def process.Definition
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &def,
		WeaklyTypedInput: true,
		ErrorUnused:      false,
	})
	if err != nil {
		return def, err
	}
	if err := dec.Decode(entry); err != nil {
		return def, &FieldError{Index: index, Field: "(decode)", Reason: "wrong_field_type: " + err.Error()}
	}
	if def.ID == "" {
		return def, &FieldError{Index: index, Field: "id", Reason: "missing_required_field"}
	}
	if def.Command == "" {
		return def, &FieldError{Index: index, Field: "command", Reason: "missing_required_field"}
	}
	switch def.Platform {
	case "", process.PlatformWin32, process.PlatformDarwin, process.PlatformLinux:
	default:
		return def, &FieldError{Index: index, Field: "platform", Reason: fmt.Sprintf("unknown_platform(%s)", def.Platform)}
	}
	return def.WithDefaults(), nil
}
