/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package config handles the user-scope application configuration, persisted
// as YAML in the platform config directory. Project-scoped settings live in
// the project database instead (internal/storage options).
package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// MRUCapacity bounds the most-recently-used project list.
const MRUCapacity = 5

type GeneralConfig struct {
	Theme string `yaml:"theme"` // "system" | "light" | "dark"
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type ProjectsConfig struct {
	LastProjectDir string   `yaml:"last_project_dir"`
	MRU            []string `yaml:"mru"`
}

type AppConfig struct {
	ConfigVersion int            `yaml:"config_version"`
	General       GeneralConfig  `yaml:"general"`
	Logging       LoggingConfig  `yaml:"logging"`
	Projects      ProjectsConfig `yaml:"projects"`
}

// fileLoggingConfig mirrors LoggingConfig for decoding the config file.
// Source is a pointer so an omitted key can be told apart from an explicit
// false and leaves the default untouched.
type fileLoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source *bool  `yaml:"source"`
	File   string `yaml:"file"`
}

type fileConfig struct {
	ConfigVersion int               `yaml:"config_version"`
	General       GeneralConfig     `yaml:"general"`
	Logging       fileLoggingConfig `yaml:"logging"`
	Projects      ProjectsConfig    `yaml:"projects"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{Theme: "system"},
		Logging:       LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
		Projects:      ProjectsConfig{},
	}
}

// Env var names used as overrides.
const (
	EnvTheme     = "PREWB_THEME"
	EnvLogLevel  = "PREWB_LOG_LEVEL"
	EnvLogFormat = "PREWB_LOG_FORMAT"
	EnvLogSource = "PREWB_LOG_SOURCE"
	EnvLogFile   = "PREWB_LOG_FILE"
)

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "PREWorkbench")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "PREWorkbench")
	default: // linux and others
		base = filepath.Join(os.Getenv("HOME"), ".config", "preworkbench")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and merges
// environment overrides.
func Load() (AppConfig, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg fileConfig
		if err := yaml.Unmarshal(data, &fileCfg); err == nil {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// Save writes the user config YAML.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// RememberProject records dir as the last opened project and moves it to the
// front of the MRU list, deduplicating and capping at MRUCapacity.
func (c *AppConfig) RememberProject(dir string) {
	c.Projects.LastProjectDir = dir
	mru := make([]string, 0, MRUCapacity)
	mru = append(mru, dir)
	for _, p := range c.Projects.MRU {
		if p == dir {
			continue
		}
		mru = append(mru, p)
		if len(mru) == MRUCapacity {
			break
		}
	}
	c.Projects.MRU = mru
}

func mergeInto(dst *AppConfig, src *fileConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if src.General.Theme != "" {
		dst.General.Theme = src.General.Theme
	}
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	if src.Logging.Source != nil {
		dst.Logging.Source = *src.Logging.Source
	}
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
	if src.Projects.LastProjectDir != "" {
		dst.Projects.LastProjectDir = src.Projects.LastProjectDir
	}
	if len(src.Projects.MRU) > 0 {
		dst.Projects.MRU = append([]string(nil), src.Projects.MRU...)
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvTheme)); v != "" {
		cfg.General.Theme = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		lv := strings.ToLower(v)
		cfg.Logging.Source = lv == "1" || lv == "true" || lv == "on" || lv == "yes"
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}
