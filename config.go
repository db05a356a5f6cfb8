// Copyright 2026 by the Isaac Physics authors
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not
// use this file except in compliance with the License. You may obtain a copy
// of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations
// under the License.

package runbook

import (
	"fmt"
	"os"
	"strings"

	"github.com/isaacphysics/runbook/interpolate"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config describes where things are located on the deployment host and in
// the outside world.
type Config struct {
	APISourceDir string          `yaml:"apiSourceDir"` // API checkout used for diffs
	APIWorkDir   string          `yaml:"apiWorkDir"`   // API checkout next to the app checkout
	ConfigDir    string          `yaml:"configDir"`
	MonitorDir   string          `yaml:"monitorDir"`
	RouterReload string          `yaml:"routerReload"`
	DBUser       string          `yaml:"dbUser"`
	Domains      map[Site]string `yaml:"domains"`
	ChangelogURL string          `yaml:"changelogURL"`
	GitHub       GitHubConfig    `yaml:"github"`
	Images       ImagesConfig    `yaml:"images"`
	VRT          VRTConfig       `yaml:"vrt"`
}

// GitHubConfig locates the app and API repositories and their CI workflows.
type GitHubConfig struct {
	API         string `yaml:"apiURL"`
	Owner       string `yaml:"owner"`
	Token       string `yaml:"token"`
	AppRepo     string `yaml:"appRepo"`
	AppWorkflow string `yaml:"appWorkflow"`
	APIRepo     string `yaml:"apiRepo"`
	APIWorkflow string `yaml:"apiWorkflow"`
}

// ImagesConfig names the image repositories the build publishes to. Empty
// repositories are not verified.
type ImagesConfig struct {
	App string `yaml:"app"`
	API string `yaml:"api"`
}

// VRTConfig configures visual regression testing in a container.
type VRTConfig struct {
	Image       string `yaml:"image"`
	Browser     string `yaml:"browser"`
	SnapshotDir string `yaml:"snapshotDir"`
	ResultsDir  string `yaml:"resultsDir"`
}

// DefaultConfig returns the configuration matching the production deployment
// host layout.
func DefaultConfig() Config {
	return Config{
		APISourceDir: "/local/src/isaac-api",
		APIWorkDir:   "../isaac-api",
		ConfigDir:    "/local/data/isaac-config",
		MonitorDir:   "/local/src/isaac-monitor",
		RouterReload: "../isaac-router/reload-router-config",
		DBUser:       "rutherford",
		Domains: map[Site]string{
			SiteAda: "isaaccomputerscience.org",
			SitePhy: "isaacphysics.org",
		},
		ChangelogURL: "https://github.com/isaacphysics/isaac-react-app/releases",
		GitHub: GitHubConfig{
			API:         "https://api.github.com",
			Owner:       "isaacphysics",
			AppRepo:     "isaac-react-app",
			AppWorkflow: "node.js.yml",
			APIRepo:     "isaac-api",
			APIWorkflow: "maven.yml",
		},
		VRT: VRTConfig{
			Image:       "cypress/included:13.6.0",
			Browser:     "chrome",
			SnapshotDir: "src/test/pages/__image_snapshots__",
			ResultsDir:  "vrt-results",
		},
	}
}

// LoadConfig reads the YAML configuration file at path, interpolating all
// string values from the process environment. Settings missing from the file
// keep their defaults. An empty path returns the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	log.Info(fmt.Sprintf("📜  loading configuration %q", path))
	yamltext, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("cannot read configuration, reason: %w", err)
	}
	if err := ParseConfig(yamltext, environment(), &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseConfig parses YAML configuration text, interpolates its string values
// using the specified variables, and updates the passed configuration.
func ParseConfig(yamltext []byte, vars map[string]string, cfg *Config) error {
	var raw map[string]any
	if err := yaml.Unmarshal(yamltext, &raw); err != nil {
		return fmt.Errorf("malformed configuration, reason: %w", err)
	}
	if raw == nil {
		return nil
	}
	interpolated, err := interpolate.Variables(raw, vars)
	if err != nil {
		return fmt.Errorf("cannot interpolate configuration, reason: %w", err)
	}
	// Round-trip through YAML so that the typed configuration gets only
	// updated, but not reset.
	yamltext, err = yaml.Marshal(interpolated)
	if err != nil {
		return fmt.Errorf("cannot process configuration, reason: %w", err)
	}
	if err := yaml.Unmarshal(yamltext, cfg); err != nil {
		return fmt.Errorf("invalid configuration, reason: %w", err)
	}
	return nil
}

// Domain returns the public domain of the specified site.
func (c Config) Domain(site Site) string {
	if domain, ok := c.Domains[site]; ok {
		return domain
	}
	return DefaultConfig().Domains[site]
}

func environment() map[string]string {
	vars := map[string]string{}
	for _, env := range os.Environ() {
		name, value, _ := strings.Cut(env, "=")
		vars[name] = value
	}
	return vars
}
