package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeEnvFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadEnv(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := New()
	cfg.SetDir(tmpDir)

	writeEnvFile(t, tmpDir, ".env", "MYVITE_TITLE=base\nMYVITE_API=/api\nSECRET=hidden\n")
	writeEnvFile(t, tmpDir, ".env.development", "MYVITE_TITLE=dev\n")
	writeEnvFile(t, tmpDir, ".env.production", "MYVITE_TITLE=prod\n")
	t.Setenv("MYVITE_FROM_SHELL", "shell")

	env, err := cfg.LoadEnv()
	if err != nil {
		t.Fatalf("LoadEnv error: %v", err)
	}

	if env["MYVITE_TITLE"] != "dev" {
		t.Errorf("MYVITE_TITLE = %q, want mode file to override .env", env["MYVITE_TITLE"])
	}
	if env["MYVITE_API"] != "/api" {
		t.Errorf("MYVITE_API = %q", env["MYVITE_API"])
	}
	if _, ok := env["SECRET"]; ok {
		t.Error("unprefixed variables must not be exposed")
	}
	if env["MYVITE_FROM_SHELL"] != "shell" {
		t.Errorf("process env not merged: %v", env)
	}
}

func TestLoadEnv_LocalOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := New()
	cfg.SetDir(tmpDir)
	cfg.Mode = "production"

	writeEnvFile(t, tmpDir, ".env.production", "MYVITE_URL=a\n")
	writeEnvFile(t, tmpDir, ".env.production.local", "MYVITE_URL=b\n")

	env, err := cfg.LoadEnv()
	if err != nil {
		t.Fatalf("LoadEnv error: %v", err)
	}
	if env["MYVITE_URL"] != "b" {
		t.Errorf("MYVITE_URL = %q, want b", env["MYVITE_URL"])
	}
}

func TestDefines(t *testing.T) {
	cfg := New()
	cfg.Define = map[string]string{"__APP_VERSION__": `"1.2.3"`}

	defines := cfg.Defines(map[string]string{"MYVITE_TITLE": `say "hi"`})

	want := map[string]string{
		"__APP_VERSION__":              `"1.2.3"`,
		"import.meta.env.MYVITE_TITLE": `"say \"hi\""`,
		"import.meta.env.MODE":         `"development"`,
		"import.meta.env.DEV":          "true",
		"import.meta.env.PROD":         "false",
	}
	for k, v := range want {
		if defines[k] != v {
			t.Errorf("defines[%q] = %q, want %q", k, defines[k], v)
		}
	}
}
