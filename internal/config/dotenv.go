package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// secret is a key that belongs in .env rather than config.yaml.
type secret struct {
	Key  string
	Hint string
}

var secrets = []secret{
	{Key: "TMDB_API_KEY", Hint: "Get a free key at https://www.themoviedb.org/settings/api"},
	{Key: "CINEREC_REDIS_PASSWORD", Hint: "Only needed when cache.backend is redis"},
}

// DotEnvPath returns ~/.cinerec/.env.
func DotEnvPath() (string, error) {
	dir, err := CinerecDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ".env"), nil
}

// LoadDotEnv reads ~/.cinerec/.env. A missing file yields an empty map.
func LoadDotEnv() (map[string]string, error) {
	p, err := DotEnvPath()
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", p, err)
	}
	defer f.Close()

	env, err := parseDotEnv(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p, err)
	}
	return env, nil
}

// parseDotEnv accepts KEY=VALUE lines, optionally prefixed by "export ".
// Quoted values are taken literally; unquoted values end at " #".
func parseDotEnv(r io.Reader) (map[string]string, error) {
	env := make(map[string]string)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		key, val, ok := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			continue
		}
		env[key] = dotEnvValue(strings.TrimSpace(val))
	}
	return env, sc.Err()
}

func dotEnvValue(v string) string {
	if n := len(v); n >= 2 && (v[0] == '"' || v[0] == '\'') && v[n-1] == v[0] {
		return v[1 : n-1]
	}
	if i := strings.Index(v, " #"); i >= 0 {
		v = strings.TrimSpace(v[:i])
	}
	return v
}

// GetConfigValue returns key from the process environment, falling back to
// ~/.cinerec/.env.
func GetConfigValue(key string) (string, error) {
	return lookupFirst(key)
}

// APIKey returns the TMDb API key from TMDB_API_KEY or CINEREC_TMDB_API_KEY.
func APIKey() (string, error) {
	return lookupFirst("TMDB_API_KEY", "CINEREC_TMDB_API_KEY")
}

// lookupFirst returns the first non-blank value among keys. The process
// environment wins over .env for every key, and .env is read at most once.
func lookupFirst(keys ...string) (string, error) {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v, nil
		}
	}
	env, err := LoadDotEnv()
	if err != nil {
		return "", err
	}
	for _, k := range keys {
		if v := strings.TrimSpace(env[k]); v != "" {
			return v, nil
		}
	}
	return "", nil
}

// EnsureDotEnvTemplate writes a .env listing the secret keys with empty
// values. An existing file is left alone.
func EnsureDotEnvTemplate() error {
	p, err := DotEnvPath()
	if err != nil {
		return err
	}
	switch _, err := os.Stat(p); {
	case err == nil:
		return nil
	case !os.IsNotExist(err):
		return fmt.Errorf("stat %s: %w", p, err)
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(p), err)
	}

	var b strings.Builder
	for _, s := range secrets {
		fmt.Fprintf(&b, "# %s\n%s=\n", s.Hint, s.Key)
	}
	if err := os.WriteFile(p, []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", p, err)
	}
	return nil
}
