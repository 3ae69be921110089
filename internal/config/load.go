package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// PathEnv overrides the config file location when set.
const PathEnv = "SIGNALSEARCH_CONFIG"

// Load reads config/<env>.yaml, or the file named by PathEnv.
func Load(env string) (Config, error) {
	path := os.Getenv(PathEnv)
	if path == "" {
		path = locate(env + ".yaml")
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse expands ${VAR} and ${VAR:-default} references, decodes the YAML, applies
// defaults and validates.
func Parse(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(expandEnv(data), &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// GetEnv returns $ENV, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// locate looks in ./config first, then in config/ at the module root.
func locate(name string) string {
	local := filepath.Join("config", name)
	if fileExists(local) {
		return local
	}
	_, self, _, _ := runtime.Caller(0)
	root := filepath.Dir(filepath.Dir(filepath.Dir(self)))
	if p := filepath.Join(root, "config", name); fileExists(p) {
		return p
	}
	return local
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

var envRef = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnv(data []byte) []byte {
	return envRef.ReplaceAllFunc(data, func(m []byte) []byte {
		name, def, hasDef := strings.Cut(string(m[2:len(m)-1]), ":-")
		if v := os.Getenv(name); v != "" || !hasDef {
			return []byte(v)
		}
		return []byte(def)
	})
}
