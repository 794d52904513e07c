package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDotEnv_NotExist(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	m, err := LoadDotEnv()
	if err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if len(m) != 0 {
		t.Fatalf("expected empty map, got %v", m)
	}
}

func TestLoadDotEnv_ParsesKeyValue(t *testing.T) {
	dir := cinerecHome(t)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("# comment\nA=1\nB = \"two\"\nC='x y'\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	m, err := LoadDotEnv()
	if err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if m["A"] != "1" || m["B"] != "two" || m["C"] != "x y" {
		t.Fatalf("unexpected map: %v", m)
	}
}

func TestParseDotEnv_ExportAndInlineComments(t *testing.T) {
	in := "export TMDB_API_KEY=abc # personal key\nURL=\"http://x/#frag\"\n=orphan\nnoequals\n"
	env, err := parseDotEnv(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if env["TMDB_API_KEY"] != "abc" {
		t.Fatalf("TMDB_API_KEY = %q", env["TMDB_API_KEY"])
	}
	if env["URL"] != "http://x/#frag" {
		t.Fatalf("URL = %q", env["URL"])
	}
	if len(env) != 2 {
		t.Fatalf("unexpected keys: %v", env)
	}
}

func TestGetConfigValue_EnvOverridesDotEnv(t *testing.T) {
	dir := cinerecHome(t)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("K=fromdotenv\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("K", "fromenv")

	v, err := GetConfigValue("K")
	if err != nil {
		t.Fatalf("GetConfigValue: %v", err)
	}
	if v != "fromenv" {
		t.Fatalf("expected env override, got %q", v)
	}
}

func TestEnsureDotEnvTemplate_DoesNotOverwrite(t *testing.T) {
	dir := cinerecHome(t)
	p := filepath.Join(dir, ".env")
	if err := os.WriteFile(p, []byte("TMDB_API_KEY=keep\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := EnsureDotEnvTemplate(); err != nil {
		t.Fatalf("EnsureDotEnvTemplate: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "TMDB_API_KEY=keep\n" {
		t.Fatalf("template overwrote existing file: %q", string(b))
	}
}

func TestEnsureDotEnvTemplate_CreatesWhenMissing(t *testing.T) {
	dir := cinerecHome(t)
	p := filepath.Join(dir, ".env")

	if err := EnsureDotEnvTemplate(); err != nil {
		t.Fatalf("EnsureDotEnvTemplate: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range secrets {
		if !strings.Contains(string(b), s.Key+"=\n") {
			t.Fatalf("template missing %s: %q", s.Key, b)
		}
	}
}

func TestAPIKey_FallsBackToPrefixedName(t *testing.T) {
	dir := cinerecHome(t)
	t.Setenv("TMDB_API_KEY", "")
	t.Setenv("CINEREC_TMDB_API_KEY", "")
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("CINEREC_TMDB_API_KEY= abcdefghijklmnopqrstuvwxyz \n"), 0o600); err != nil {
		t.Fatal(err)
	}

	key, err := APIKey()
	if err != nil {
		t.Fatalf("APIKey: %v", err)
	}
	if key != "abcdefghijklmnopqrstuvwxyz" {
		t.Fatalf("unexpected key %q", key)
	}
}

// cinerecHome points HOME at a temp dir and creates ~/.cinerec inside it.
func cinerecHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := filepath.Join(home, ".cinerec")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	return dir
}
