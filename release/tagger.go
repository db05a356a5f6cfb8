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

package release

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gosuri/uitable"
	"github.com/isaacphysics/runbook"
	"github.com/isaacphysics/runbook/github"
	"github.com/kballard/go-shellquote"
	log "github.com/sirupsen/logrus"
)

// ReleaseBranch is the branch releases are tagged on.
const ReleaseBranch = "master"

// Repository describes where a service's code lives, locally and on GitHub.
type Repository struct {
	Dir      string // local working directory; empty for the current directory
	Repo     string // GitHub repository name
	Workflow string // CI workflow file name
}

// GitHub is the part of the GitHub client the Tagger needs.
type GitHub interface {
	LatestTag(ctx context.Context, repo string) (string, error)
	LatestWorkflowRun(ctx context.Context, repo, workflow, branch string) (*github.WorkflowRun, error)
}

var _ GitHub = (*github.Client)(nil)

// Tagger walks the operator through tagging a release of the app and, unless
// front-end-only, the api. Afterwards, both get bumped to the next snapshot
// version.
type Tagger struct {
	Prompter     *runbook.Prompter
	Executor     runbook.Executor
	GitHub       GitHub
	Repositories map[Service]Repository
	// DryRun leaves files untouched; use together with an executor that
	// only shows the commands.
	DryRun bool
}

// The files recording a service's version, when releasing and when bumping
// to the next snapshot.
var (
	releaseFiles  = map[Service][]string{App: {"package.json", ".env"}, API: {"pom.xml"}}
	snapshotFiles = map[Service][]string{App: {"package.json"}, API: {"pom.xml"}}
)

// Run the release procedure for the specified updates. Missing update types
// are asked for.
func (t *Tagger) Run(ctx context.Context, updates Updates) error {
	if err := t.CompleteUpdates(updates); err != nil {
		return err
	}
	if err := t.CheckClean(ctx, updates); err != nil {
		return err
	}
	latest, err := t.LatestVersions(ctx)
	if err != nil {
		return err
	}
	target := Target(latest, updates, false)
	if err := t.ConfirmReady(latest, target, updates); err != nil {
		return err
	}
	if err := t.SetVersions(ctx, target, updates); err != nil {
		return err
	}
	if err := t.CommitAndTag(ctx, target, updates); err != nil {
		return err
	}
	bumped := Target(target, updates.SnapshotBump(), true)
	log.Info(fmt.Sprintf("⏭  bumping to %s, %s", bumped[App], bumped[API]))
	if err := t.SetVersions(ctx, bumped, updates); err != nil {
		return err
	}
	if err := t.CommitAndPush(ctx, target, updates); err != nil {
		return err
	}
	t.Prompter.Println("Done!")
	return nil
}

// CompleteUpdates asks for the update types not yet known.
func (t *Tagger) CompleteUpdates(updates Updates) error {
	for _, svc := range Services {
		if updates[svc] != "" {
			continue
		}
		update, err := t.AskUpdateType(svc)
		if err != nil {
			return err
		}
		updates[svc] = update
	}
	return nil
}

// AskUpdateType asks for the update type of the service until getting a valid
// answer. The app can't be left unchanged.
func (t *Tagger) AskUpdateType(svc Service) (UpdateType, error) {
	answers := map[string]UpdateType{"0": None, "1": Patch, "2": Minor, "3": Major}
	for {
		answer, err := t.Prompter.Ask(fmt.Sprintf(
			"Are the changes to the %s: [0] NONE, [1] PATCH, [2] MINOR, or [3] MAJOR?\n", svc))
		if err != nil {
			return "", err
		}
		update, ok := answers[strings.TrimSpace(answer)]
		switch {
		case !ok:
			t.Prompter.Println("Please respond either '0', '1', '2' or '3'")
		case svc == App && update == None:
			t.Prompter.Println("Our release procedure does not allow a new API to be released without an App update.")
		default:
			return update, nil
		}
	}
}

// CheckClean warns about every updated service whose local repository isn't a
// clean and current checkout of the release branch, or whose last CI run
// didn't succeed. The operator can continue anyway after each warning.
func (t *Tagger) CheckClean(ctx context.Context, updates Updates) error {
	for _, svc := range Services {
		if !updates.Updated(svc) {
			continue
		}
		repo := t.Repositories[svc]
		branch, err := t.git(ctx, svc, "rev-parse", "--abbrev-ref", "HEAD")
		if err != nil {
			return err
		}
		if branch != ReleaseBranch {
			if err := t.warn(fmt.Sprintf("The %s repo is not on the %q branch.", svc, ReleaseBranch)); err != nil {
				return err
			}
		}

		conclusion, link := "unknown", ""
		run, err := t.GitHub.LatestWorkflowRun(ctx, repo.Repo, repo.Workflow, branch)
		if err != nil {
			t.Prompter.Printf("Failed to fetch build results from GitHub: %s\n", err.Error())
		} else {
			conclusion, link = run.Conclusion, run.HTMLURL
			if !run.UpdatedAt.IsZero() {
				link += " (" + humanize.Time(run.UpdatedAt) + ")"
			}
		}
		if conclusion != "success" {
			if err := t.warn(fmt.Sprintf("The last remote build for branch %q of %s finished with status %q!: %s",
				branch, svc, conclusion, link)); err != nil {
				return err
			}
		}

		if _, err := t.git(ctx, svc, "fetch"); err != nil {
			return err
		}
		diff, err := t.git(ctx, svc, "diff", "origin/"+ReleaseBranch, "--name-only")
		if err != nil {
			return err
		}
		if diff != "" {
			if err := t.warn(fmt.Sprintf("The %s repo does not have the latest changes from the remote branch (i.e. you are not on %s or you need to `git pull`).",
				svc, ReleaseBranch)); err != nil {
				return err
			}
		}
		status, err := t.git(ctx, svc, "status", "--short")
		if err != nil {
			return err
		}
		if status != "" {
			if err := t.warn(fmt.Sprintf("The %s repo is reporting the following uncommitted changes or untracked files:\n%s",
				svc, status)); err != nil {
				return err
			}
		}
	}
	return nil
}

// LatestVersions returns the most recent release tags of the app and api.
func (t *Tagger) LatestVersions(ctx context.Context) (Versions, error) {
	versions := Versions{}
	for _, svc := range Services {
		tag, err := t.GitHub.LatestTag(ctx, t.Repositories[svc].Repo)
		if err != nil {
			return nil, err
		}
		log.Info(fmt.Sprintf("🏷  latest %s release: %s", svc, tag))
		versions[svc] = tag
	}
	return versions, nil
}

// ConfirmReady shows what is going to be released and asks to continue.
func (t *Tagger) ConfirmReady(latest, target Versions, updates Updates) error {
	kind := "full"
	if updates.FrontEndOnly() {
		kind = "front-end-only"
	}
	table := uitable.New()
	for _, svc := range Services {
		if !updates.Updated(svc) {
			continue
		}
		table.AddRow(strings.ToUpper(string(svc)), "("+string(updates[svc])+")",
			target[svc], "from "+latest[svc])
	}
	return t.Prompter.Acknowledge(
		fmt.Sprintf("Ready to tag a %s release:\n%s", kind, table.String()),
		false, "Continue?")
}

// SetVersions records the versions in the app's package.json and, when the
// api gets updated, in the app's .env and the api's pom.xml. Snapshot
// versions are never recorded in the .env.
func (t *Tagger) SetVersions(ctx context.Context, versions Versions, updates Updates) error {
	if _, err := t.run(ctx, App, "npm", "--no-git-tag-version", "version", versions[App]); err != nil {
		return err
	}
	if !updates.Updated(API) {
		return nil
	}
	if !strings.HasSuffix(versions[API], SnapshotSuffix) {
		dotenv := filepath.Join(t.Repositories[App].Dir, ".env")
		if t.DryRun {
			t.Prompter.Printf("(set %s=%s in %s)\n", APIVersionEnvVar, versions[API], dotenv)
		} else if err := SetDotEnvAPIVersion(dotenv, versions[API]); err != nil {
			return err
		}
	}
	_, err := t.run(ctx, API, "mvn", "versions:set-property",
		"-Dproperty=segue.version",
		"-DnewVersion="+versions[API],
		"-DgenerateBackupPoms=false")
	return err
}

// CommitAndTag commits the recorded versions of the updated services and tags
// the commits with annotated release tags.
func (t *Tagger) CommitAndTag(ctx context.Context, versions Versions, updates Updates) error {
	for _, svc := range Services {
		if !updates.Updated(svc) {
			continue
		}
		message := "Release " + versions[svc]
		if _, err := t.git(ctx, svc, append([]string{"add"}, releaseFiles[svc]...)...); err != nil {
			return err
		}
		if _, err := t.git(ctx, svc, "commit", "-m", message); err != nil {
			return err
		}
		if _, err := t.git(ctx, svc, "tag", "-a", versions[svc], "-m", message); err != nil {
			return err
		}
	}
	return nil
}

// CommitAndPush commits the snapshot versions of the updated services and
// pushes both the release branch and the release tags.
func (t *Tagger) CommitAndPush(ctx context.Context, versions Versions, updates Updates) error {
	for _, svc := range Services {
		if !updates.Updated(svc) {
			continue
		}
		if _, err := t.git(ctx, svc, append([]string{"add"}, snapshotFiles[svc]...)...); err != nil {
			return err
		}
		if _, err := t.git(ctx, svc, "commit", "-m", "Increment version"); err != nil {
			return err
		}
		if _, err := t.git(ctx, svc, "push", "origin", ReleaseBranch); err != nil {
			return err
		}
		if _, err := t.git(ctx, svc, "push", "origin", versions[svc]); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tagger) warn(prompt string) error {
	return t.Prompter.Acknowledge(prompt, true, "Continue anyway?")
}

func (t *Tagger) git(ctx context.Context, svc Service, args ...string) (string, error) {
	return t.run(ctx, svc, "git", args...)
}

// run the command inside the service's working directory, returning its
// trimmed output.
func (t *Tagger) run(ctx context.Context, svc Service, name string, args ...string) (string, error) {
	command := shellquote.Join(append([]string{name}, args...)...)
	output, err := t.Executor.Execute(ctx, t.Repositories[svc].Dir, command)
	if err != nil {
		return "", fmt.Errorf("cannot %s %s, reason: %w", name, args[0], err)
	}
	return strings.TrimSpace(output), nil
}
