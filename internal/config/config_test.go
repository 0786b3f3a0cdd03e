/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"reflect"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestEnvOverridesLogging(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvLogSource, "1")
	t.Setenv(EnvLogFile, "/tmp/prewb.log")
	t.Setenv("HOME", t.TempDir())
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Logging.Level != "error" || cfg.Logging.Format != "json" || !cfg.Logging.Source || cfg.Logging.File != "/tmp/prewb.log" {
		t.Fatalf("env overrides not applied to logging: %#v", cfg.Logging)
	}
}

func TestEnvOverridesTheme(t *testing.T) {
	t.Setenv(EnvTheme, "Dark")
	t.Setenv("HOME", t.TempDir())
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.General.Theme != "dark" {
		t.Fatalf("theme override not applied: %q", cfg.General.Theme)
	}
}

func TestMergeIncludesLoggingAndProjects(t *testing.T) {
	dst := Defaults()
	withSource := true
	src := fileConfig{
		Logging: fileLoggingConfig{
			Level:  "debug",
			Format: "json",
			Source: &withSource,
			File:   "/var/log/prewb.log",
		},
		Projects: ProjectsConfig{
			LastProjectDir: "/data/captures",
			MRU:            []string{"/data/captures", "/data/old"},
		},
	}
	mergeInto(&dst, &src)
	if dst.Logging.Level != "debug" || dst.Logging.Format != "json" || !dst.Logging.Source || dst.Logging.File != "/var/log/prewb.log" {
		t.Fatalf("logging fields not merged correctly: %#v", dst.Logging)
	}
	if dst.Projects.LastProjectDir != "/data/captures" || len(dst.Projects.MRU) != 2 {
		t.Fatalf("project fields not merged correctly: %#v", dst.Projects)
	}
}

func TestMergeOmittedSourceKeepsDefault(t *testing.T) {
	dst := Defaults()
	dst.Logging.Source = true

	var src fileConfig
	if err := yaml.Unmarshal([]byte("logging:\n  level: warn\n"), &src); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	mergeInto(&dst, &src)
	if !dst.Logging.Source {
		t.Fatalf("omitted source key must not override the default")
	}
	if dst.Logging.Level != "warn" {
		t.Fatalf("level not merged: %#v", dst.Logging)
	}

	if err := yaml.Unmarshal([]byte("logging:\n  source: false\n"), &src); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	mergeInto(&dst, &src)
	if dst.Logging.Source {
		t.Fatalf("explicit source: false must override the default")
	}
}

func TestRememberProjectMRUSemantics(t *testing.T) {
	cfg := Defaults()
	for _, dir := range []string{"/p1", "/p2", "/p3", "/p2"} {
		cfg.RememberProject(dir)
	}
	if cfg.Projects.LastProjectDir != "/p2" {
		t.Fatalf("LastProjectDir = %q, want /p2", cfg.Projects.LastProjectDir)
	}
	want := []string{"/p2", "/p3", "/p1"}
	if !reflect.DeepEqual(cfg.Projects.MRU, want) {
		t.Fatalf("MRU = %v, want %v", cfg.Projects.MRU, want)
	}
}

func TestRememberProjectCapsList(t *testing.T) {
	cfg := Defaults()
	for _, dir := range []string{"/a", "/b", "/c", "/d", "/e", "/f", "/g"} {
		cfg.RememberProject(dir)
	}
	if len(cfg.Projects.MRU) != MRUCapacity {
		t.Fatalf("MRU length = %d, want %d", len(cfg.Projects.MRU), MRUCapacity)
	}
	if cfg.Projects.MRU[0] != "/g" {
		t.Fatalf("most recent entry should be first: %v", cfg.Projects.MRU)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg := Defaults()
	cfg.Logging.Level = "debug"
	cfg.RememberProject("/data/captures")
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Logging.Level != "debug" {
		t.Fatalf("logging level not persisted: %#v", got.Logging)
	}
	if got.Projects.LastProjectDir != "/data/captures" {
		t.Fatalf("last project dir not persisted: %#v", got.Projects)
	}
}
