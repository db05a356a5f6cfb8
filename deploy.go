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
	"context"
	"fmt"
	"strings"

	"github.com/google/go-containerregistry/pkg/v1/remote"
	log "github.com/sirupsen/logrus"
)

// Deployment walks the operator through deploying an app and api version to
// a site's environment.
type Deployment struct {
	Context  *DeployContext
	Config   Config
	Prompter *Prompter
	Runner   *Runner
	Console  *Console
	// Discoverer, if non-nil, proposes the previous live versions.
	Discoverer Discoverer
	// RegistryOptions are passed on when verifying published images.
	RegistryOptions []remote.Option
}

// NewDeployment returns a Deployment for the specified context, with commands
// executed by the executor in exec mode.
func NewDeployment(dctx *DeployContext, cfg Config, p *Prompter, executor Executor) *Deployment {
	return &Deployment{
		Context:  dctx,
		Config:   cfg,
		Prompter: p,
		Runner: &Runner{
			Prompter: p,
			Executor: executor,
			Exec:     dctx.Exec,
		},
		Console: NewConsole(p.Out()),
	}
}

// Run the deployment procedure from start to end.
func (d *Deployment) Run(ctx context.Context) error {
	dctx := d.Context
	log.Info(fmt.Sprintf("🚀  deploying app %q, api %q to %s %s",
		dctx.App, dctx.API, dctx.Site, dctx.Env))
	d.Console.Println()
	d.Console.Warning("# ! THIS SCRIPT IS STILL EXPERIMENTAL SO CHECK EACH COMMAND BEFORE EXECUTING IT !")
	d.Console.Println()
	if err := d.CheckReposAreUpToDate(ctx); err != nil {
		return err
	}
	if err := d.Build(ctx); err != nil {
		return err
	}
	if err := d.VerifyImages(ctx, dctx.App, dctx.API); err != nil {
		return err
	}
	for _, site := range dctx.Sites() {
		sctx := dctx.forSite(site)
		if err := d.deploySite(ctx, sctx); err != nil {
			return err
		}
		// an api version asked for on the first site applies to all sites.
		dctx.API = sctx.API
	}
	d.Console.Println()
	d.Console.Println("Done!")
	return nil
}

func (d *Deployment) deploySite(ctx context.Context, sctx *DeployContext) error {
	switch sctx.Env {
	case EnvTest:
		return d.DeployTest(ctx, sctx)
	case EnvStaging, EnvDev:
		return d.DeployStagingOrDev(ctx, sctx)
	case EnvLive:
		sctx.Env = EnvStaging
		if err := d.DeployStagingOrDev(ctx, sctx); err != nil {
			return err
		}
		sctx.Env = EnvLive
		if err := d.DeployLive(ctx, sctx); err != nil {
			return err
		}
		sctx.Env = EnvETL
		if err := d.DeployETL(ctx, sctx); err != nil {
			return err
		}
		return d.WriteChangelog()
	case EnvETL:
		return d.DeployETL(ctx, sctx)
	}
	return fmt.Errorf("invalid environment %q", sctx.Env)
}

// CheckReposAreUpToDate offers pulling the latest deployment scripts and DB
// schema.
func (d *Deployment) CheckReposAreUpToDate(ctx context.Context) error {
	d.Console.Step("Git pull for the latest version of the deploy script and db schema:")
	_, err := d.Runner.Offer(ctx, UpdateReposCommand(d.Config), false)
	return err
}

// Build offers building the app and api images.
func (d *Deployment) Build(ctx context.Context) error {
	d.Console.Println()
	d.Console.Step("BUILD THE APP AND API")
	_, err := d.Runner.Offer(ctx, BuildCommand(d.Context.App, d.Context.API), false)
	return err
}

// DeployTest deploys to the test environment, resetting its database.
func (d *Deployment) DeployTest(ctx context.Context, sctx *DeployContext) error {
	d.Console.Heading("[DEPLOY %s TEST]", sctx.Site.Upper())
	if err := d.bringDownExisting(ctx, sctx); err != nil {
		return err
	}
	d.Console.Println("Note: If there is a database schema change, you might need to alter the default data - usually through a migration followed by a snapshot.")
	d.Console.Step("Reset the test database.")
	if _, err := d.Runner.Offer(ctx, CleanTestDBCommand(sctx.Site), false); err != nil {
		return err
	}
	if err := d.updateConfig(ctx, sctx); err != nil {
		return err
	}
	return d.bringUpNew(ctx, sctx)
}

// DeployStagingOrDev deploys to the staging or dev environment, migrating its
// database.
func (d *Deployment) DeployStagingOrDev(ctx context.Context, sctx *DeployContext) error {
	d.Console.Heading("[DEPLOY %s %s]", sctx.Site.Upper(), sctx.Env.Upper())
	if err := d.updateConfig(ctx, sctx); err != nil {
		return err
	}
	if err := d.runMigrations(ctx, sctx); err != nil {
		return err
	}
	if err := d.bringDownExisting(ctx, sctx); err != nil {
		return err
	}
	return d.bringUpNew(ctx, sctx)
}

// DeployLive deploys to the live environment. Unless this is a front-end-only
// release, a new api gets deployed next to the api of the previous app first.
// Only then the previous app gets swapped for the new app.
func (d *Deployment) DeployLive(ctx context.Context, sctx *DeployContext) error {
	d.Console.Heading("[DEPLOY %s LIVE]", sctx.Site.Upper())
	oldApp, err := d.previousLiveApp(ctx, sctx)
	if err != nil {
		return err
	}
	sctx.OldApp = oldApp
	oldAPI, err := d.previousLiveAPI(ctx, sctx)
	if err != nil {
		return err
	}
	sctx.OldAPI = oldAPI

	frontEndOnly, err := d.Prompter.YesNo("Is this a front-end-only release? [y/n] ")
	if err != nil {
		return err
	}
	if !frontEndOnly {
		if err := d.deployLiveAPI(ctx, sctx); err != nil {
			return err
		}
	}

	d.Console.Step("Bring up the new app and take down the old one:")
	if _, err := d.Runner.Offer(ctx,
		SwapLiveAppCommand(d.Config, sctx.Site, sctx.App, sctx.OldApp), false); err != nil {
		return err
	}
	d.Console.Step("Bring down the old preview renderer and bring up the new one")
	_, err = d.Runner.Offer(ctx, RendererCommand(sctx.Site, sctx.App), false)
	return err
}

func (d *Deployment) deployLiveAPI(ctx context.Context, sctx *DeployContext) error {
	d.Console.Step("List possibly-unused live apis:")
	if _, err := d.Runner.Offer(ctx, UnusedAPIsCommand(sctx.Site, sctx.OldAPI, false), false); err != nil {
		return err
	}
	d.Console.Step("Bring down and remove the penultimate live api(s), if that is sensible, using something like:")
	if _, err := d.Runner.Offer(ctx, UnusedAPIsCommand(sctx.Site, sctx.OldAPI, true), false); err != nil {
		return err
	}
	if err := d.updateConfig(ctx, sctx); err != nil {
		return err
	}
	if err := d.runMigrations(ctx, sctx); err != nil {
		return err
	}
	if sctx.API == "" {
		api, err := d.Prompter.Ask("What is the new api version? [v1.3.4 | master | some-branch] ")
		if err != nil {
			return err
		}
		sctx.API = api
	}
	d.Console.Step("Bring up the new api ready for the new app:")
	if _, err := d.Runner.Offer(ctx, LiveAPIUpCommand(sctx.Site, sctx.App, sctx.API), false); err != nil {
		return err
	}
	d.Console.Step("Wait until the api is up:")
	if _, err := d.Runner.Offer(ctx, WaitForAPICommand(d.Config, sctx.Site, sctx.API), false); err != nil {
		return err
	}
	d.Console.Step("Let the monitoring service know there is a new api service to track:")
	_, err := d.Runner.Offer(ctx, MonitorCommand(d.Config), false)
	return err
}

// previousLiveApp determines the version of the currently running live app,
// insisting on an answer.
func (d *Deployment) previousLiveApp(ctx context.Context, sctx *DeployContext) (string, error) {
	if d.Discoverer != nil {
		versions, err := d.Discoverer.RunningAppVersions(ctx, sctx.Site, EnvLive)
		if err != nil {
			log.Warn(fmt.Sprintf("⚠  cannot discover running app versions: %s", err.Error()))
		} else if len(versions) == 1 {
			use, err := d.Prompter.YesNo(fmt.Sprintf(
				"The running live app version is %s, is this the previous app version? [y/n] ", versions[0]))
			if err != nil {
				return "", err
			}
			if use {
				return versions[0], nil
			}
		} else if len(versions) > 1 {
			d.Console.Warning("Multiple live app versions are running: %s", strings.Join(versions, ", "))
		}
	}
	for {
		d.Console.Println("What is the previous app version? (i.e. v1.2.3)")
		version, err := d.Runner.Offer(ctx, RunningAppsCommand(sctx.Site, EnvLive), false)
		if err != nil {
			return "", err
		}
		if version = strings.TrimSpace(version); version != "" {
			return version, nil
		}
	}
}

// previousLiveAPI determines the api version the previous live app was built
// for.
func (d *Deployment) previousLiveAPI(ctx context.Context, sctx *DeployContext) (string, error) {
	if d.Discoverer != nil {
		container := AppContainerPrefix(sctx.Site, EnvLive) + sctx.OldApp
		version, err := d.Discoverer.APIVersion(ctx, container)
		if err != nil {
			log.Warn(fmt.Sprintf("⚠  cannot discover api version: %s", err.Error()))
		} else if version != "" {
			d.Console.Println(fmt.Sprintf("The previous api version is %s", version))
			return version, nil
		}
	}
	d.Console.Println("What is the previous api version? (i.e. v1.2.3)")
	version, err := d.Runner.Offer(ctx, InspectAPIVersionCommand(sctx.Site, sctx.OldApp), false)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(version), nil
}

// DeployETL replaces the ETL service of the previous app with the new one,
// if the operator agrees to do so now.
func (d *Deployment) DeployETL(ctx context.Context, sctx *DeployContext) error {
	d.Console.Heading("[DEPLOY %s ETL]", sctx.Site.Upper())
	deployNow, err := d.Prompter.YesNo("If there are changes to the content model you might want to delay deploying ETL until any old APIs are down.\nDeploy now? [y/n] ")
	if err != nil || !deployNow {
		return err
	}
	d.Console.Step("Bring down the old ETL service")
	oldApp := sctx.OldApp
	if oldApp == "" {
		oldApp, err = d.Prompter.Ask("What was the previous app version? [v1.2.3] ")
		if err != nil {
			return err
		}
	}
	if _, err := d.Runner.Offer(ctx, ETLDownCommand(sctx.Site, oldApp), false); err != nil {
		return err
	}
	d.Console.Step("Bring up the new ETL service")
	_, err = d.Runner.Offer(ctx, ETLUpCommand(sctx.Site, sctx.App), false)
	return err
}

// WriteChangelog waits for the operator to write the release's changelog.
func (d *Deployment) WriteChangelog() error {
	d.Console.Println()
	_, err := d.Prompter.Ask(fmt.Sprintf("Write the changelog at %s", d.Config.ChangelogURL))
	return err
}

func (d *Deployment) askForOldAPI(sctx *DeployContext) error {
	if sctx.OldAPI != "" {
		return nil
	}
	oldAPI, err := d.Prompter.Ask(fmt.Sprintf(
		"Please enter old API version for %s %s: ", sctx.Site, sctx.Env))
	if err != nil {
		return err
	}
	sctx.OldAPI = oldAPI
	d.Console.Println()
	return nil
}

func (d *Deployment) updateConfig(ctx context.Context, sctx *DeployContext) error {
	if err := d.askForOldAPI(sctx); err != nil {
		return err
	}
	d.Console.Step("Config diff from previous release (please make sure that the template is updated):")
	if _, err := d.Runner.Offer(ctx, ConfigDiffCommand(d.Config, sctx.OldAPI, sctx.API), true); err != nil {
		return err
	}
	d.Console.Step("If necessary, update config:")
	if _, err := d.Runner.Offer(ctx, EditConfigCommand(d.Config, sctx.Site, sctx.Env), false); err != nil {
		return err
	}
	d.Console.Step("Remember to also update isaac-3 so that it remains in-sync!")
	d.Console.Println()
	return nil
}

func (d *Deployment) runMigrations(ctx context.Context, sctx *DeployContext) error {
	if err := d.askForOldAPI(sctx); err != nil {
		return err
	}
	d.Console.Step("New migrations from last release (please make sure that these have been updated):")
	if _, err := d.Runner.Offer(ctx, MigrationsCommand(d.Config, sctx.OldAPI, sctx.API, false), true); err != nil {
		return err
	}
	d.Console.Step("Print migration SQL to terminal (to copy)?")
	if _, err := d.Runner.Offer(ctx, MigrationsCommand(d.Config, sctx.OldAPI, sctx.API, true), true); err != nil {
		return err
	}
	d.Console.Step("If there are any DB migrations, run them (in a transaction with a BEGIN; ROLLBACK; or COMMIT;):")
	_, err := d.Runner.Offer(ctx, PsqlCommand(d.Config, sctx.Site, sctx.Env), false)
	return err
}

func (d *Deployment) bringDownExisting(ctx context.Context, sctx *DeployContext) error {
	d.Console.Step("Find running %s %s versions:", sctx.Site, sctx.Env)
	if _, err := d.Runner.Offer(ctx, RunningAppsCommand(sctx.Site, sctx.Env), false); err != nil {
		return err
	}
	d.Console.Step("Bring them down using:")
	_, err := d.Runner.Offer(ctx, BringDownCommand(sctx.Site, sctx.Env), false)
	return err
}

func (d *Deployment) bringUpNew(ctx context.Context, sctx *DeployContext) error {
	d.Console.Step("Bring up the new %s %s containers:", sctx.Site, sctx.Env)
	_, err := d.Runner.Offer(ctx, BringUpCommand(sctx.Site, sctx.Env, sctx.App), false)
	return err
}
