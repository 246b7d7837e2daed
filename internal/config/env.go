package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/myvite-dev/myvite/internal/errors"
)

// EnvFiles returns the env files read for mode, lowest precedence first.
func EnvFiles(mode string) []string {
	return []string{".env", ".env.local", ".env." + mode, ".env." + mode + ".local"}
}

// LoadEnv reads the project's env files for the configured mode and returns
// the variables whose names carry EnvPrefix. Later files override earlier
// ones, and variables already set in the process environment win over all files.
func (c *Config) LoadEnv() (map[string]string, error) {
	env := make(map[string]string)
	for _, name := range EnvFiles(c.Mode) {
		path := filepath.Join(c.RootPath(), name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		values, err := godotenv.Read(path)
		if err != nil {
			return nil, errors.New("E103").
				WithDetail("Failed to parse " + name + ": " + err.Error())
		}
		for k, v := range values {
			if strings.HasPrefix(k, c.EnvPrefix) {
				env[k] = v
			}
		}
	}
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok && strings.HasPrefix(k, c.EnvPrefix) {
			env[k] = v
		}
	}
	return env, nil
}

// Defines returns the global replacements for client code: the user's define
// table plus import.meta.env.* for every exposed env variable and for MODE,
// DEV and PROD. Values are JavaScript expressions.
func (c *Config) Defines(env map[string]string) map[string]string {
	defines := make(map[string]string, len(c.Define)+len(env)+3)
	for k, v := range c.Define {
		defines[k] = v
	}

	for k, v := range env {
		defines["import.meta.env."+k] = jsString(v)
	}

	prod := c.Mode == "production"
	defines["import.meta.env.MODE"] = jsString(c.Mode)
	defines["import.meta.env.DEV"] = boolString(!prod)
	defines["import.meta.env.PROD"] = boolString(prod)
	return defines
}

func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
