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
	"strings"
)

// The command lines below are shown to operators and run as-is in exec mode,
// so they stay plain shell.

const (
	configTemplatePath = "config-templates/linux-local-dev-segue-config.properties"
	migrationsPath     = "src/main/resources/db_scripts/migrations"

	expectedSegueEnvironment = `'{"segueEnvironment":"PROD"}'`
)

// UpdateReposCommand pulls the latest deployment scripts and DB schema.
func UpdateReposCommand(cfg Config) string {
	return fmt.Sprintf("git pull && cd %s && git pull && cd -", cfg.APIWorkDir)
}

// BuildCommand builds the app and, if specified, api images.
func BuildCommand(app, api string) string {
	if api == "" {
		return "./build-in-docker.sh " + app
	}
	return fmt.Sprintf("./build-in-docker.sh %s %s", app, api)
}

// ConfigDiffCommand shows how the configuration template changed between two
// api versions.
func ConfigDiffCommand(cfg Config, oldAPI, api string) string {
	return fmt.Sprintf("cd %s && git diff %s %s -- %s",
		cfg.APISourceDir, oldAPI, api, configTemplatePath)
}

// EditConfigCommand opens the site's environment configuration in an editor.
func EditConfigCommand(cfg Config, site Site, env Env) string {
	return fmt.Sprintf("sudo nano %s/%s/segue-config.%s.properties",
		cfg.ConfigDir, site, env)
}

// MigrationsCommand lists the DB migration scripts added between two api
// versions or, with showSQL, prints their contents.
func MigrationsCommand(cfg Config, oldAPI, api string, showSQL bool) string {
	cmd := fmt.Sprintf("cd %s && git diff --name-only %s %s -- %s",
		cfg.APISourceDir, oldAPI, api, migrationsPath)
	if showSQL {
		cmd += " | xargs cat"
	}
	return cmd
}

// PsqlCommand opens an interactive SQL session on the site's environment
// database.
func PsqlCommand(cfg Config, site Site, env Env) string {
	return fmt.Sprintf("docker exec -it %s-pg-%s psql -U %s", site, env, cfg.DBUser)
}

// AppContainerPrefix returns the name prefix of app containers; the remainder
// of a container name is the app version.
func AppContainerPrefix(site Site, env Env) string {
	return fmt.Sprintf("%s-app-%s-", site, env)
}

// RunningAppsCommand lists the versions of the running app containers.
func RunningAppsCommand(site Site, env Env) string {
	prefix := AppContainerPrefix(site, env)
	return fmt.Sprintf("docker ps --format '{{.Names}}' | grep %s | cut -c%d-",
		prefix, len(prefix)+1)
}

// BringDownCommand brings down all running app versions and their services.
func BringDownCommand(site Site, env Env) string {
	return RunningAppsCommand(site, env) +
		fmt.Sprintf(" | xargs -- bash -c './compose %s %s $0 down -v'", site, env)
}

// BringUpCommand brings up the app version and its services.
func BringUpCommand(site Site, env Env, app string) string {
	return fmt.Sprintf("./compose %s %s %s up -d", site, env, app)
}

// CleanTestDBCommand resets the site's test database.
func CleanTestDBCommand(site Site) string {
	return "./clean-test-db.sh " + string(site)
}

// InspectAPIVersionCommand prints the api version an app container was built
// for.
func InspectAPIVersionCommand(site Site, oldApp string) string {
	return fmt.Sprintf(`docker inspect --format '{{ index .Config.Labels "apiVersion"}}' %s%s`,
		AppContainerPrefix(site, EnvLive), oldApp)
}

// UnusedAPIsCommand lists the live api containers other than the one serving
// the previous app or, with remove, stops and removes them.
func UnusedAPIsCommand(site Site, oldAPI string, remove bool) string {
	cmd := fmt.Sprintf("docker ps --format '{{ .Names }}' --filter name=%s-api-live-* | grep -v %s",
		site, oldAPI)
	if remove {
		cmd += " | xargs -- bash -c 'docker stop $0 && docker rm $0'"
	}
	return cmd
}

// LiveAPIUpCommand brings up a new live api next to the existing ones.
func LiveAPIUpCommand(site Site, app, api string) string {
	return fmt.Sprintf("./compose-live %s %s up -d %s-api-live-%s", site, app, site, api)
}

// APIEndpoint returns the URL an api version reports its environment at.
func APIEndpoint(cfg Config, site Site, api string) string {
	return fmt.Sprintf("https://%s/api/%s/api/info/segue_environment", cfg.Domain(site), api)
}

// WaitForAPICommand polls the api until it reports the production
// environment.
func WaitForAPICommand(cfg Config, site Site, api string) string {
	return fmt.Sprintf(`while [ "$(curl --silent %s)" != %s ]; do echo "Waiting for API..."; sleep 1; done && echo "The API is up!"`,
		APIEndpoint(cfg, site, api), expectedSegueEnvironment)
}

// MonitorCommand regenerates and reloads the services monitoring.
func MonitorCommand(cfg Config) string {
	return fmt.Sprintf("cd %s && ./monitor_services.py --generate --no-prompt && ./monitor_services.py --reload --no-prompt && cd -",
		cfg.MonitorDir)
}

// SwapLiveAppCommand brings up the new live app, stops the previous one, and
// reloads the router.
func SwapLiveAppCommand(cfg Config, site Site, app, oldApp string) string {
	return strings.Join([]string{
		fmt.Sprintf("./compose-live %s %s up -d %s-app-live-%s", site, app, site, app),
		"sleep 3",
		fmt.Sprintf("docker stop %s-app-live-%s", site, oldApp),
		cfg.RouterReload,
	}, " && ")
}

// RendererCommand replaces the preview renderer with the app version's one.
func RendererCommand(site Site, app string) string {
	return fmt.Sprintf("docker stop %s-renderer && docker rm %s-renderer && ./compose-live %s %s up -d %s-renderer",
		site, site, site, app, site)
}

// ETLDownCommand brings down the ETL service of the specified app version.
func ETLDownCommand(site Site, app string) string {
	return fmt.Sprintf("./compose-etl %s %s down -v", site, app)
}

// ETLUpCommand brings up the ETL service of the specified app version.
func ETLUpCommand(site Site, app string) string {
	return fmt.Sprintf("./compose-etl %s %s up -d", site, app)
}
