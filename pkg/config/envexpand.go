package config

import "os"

// ExpandEnv expands ${VAR} / $VAR references in raw YAML bytes. Missing
// variables expand to empty string; Validate catches required fields left
// empty this way.
func ExpandEnv(data []byte) []byte {
	return []byte(os.ExpandEnv(string(data)))
}
