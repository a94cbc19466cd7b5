package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
)

// loadDotEnv loads .env without overriding variables already set, then
// .env.local with override.
func loadDotEnv(fs afero.Fs) error {
	if err := applyEnvFile(fs, ".env", false); err != nil {
		return err
	}
	return applyEnvFile(fs, ".env.local", true)
}

func applyEnvFile(fs afero.Fs, name string, override bool) error {
	if _, err := fs.Stat(name); err != nil {
		return nil
	}

	f, err := fs.Open(name)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	vars, err := godotenv.Parse(f)
	if err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}

	for key, value := range vars {
		if _, set := os.LookupEnv(key); set && !override {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("set %s from %s: %w", key, name, err)
		}
	}
	return nil
}
