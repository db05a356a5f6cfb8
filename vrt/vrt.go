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

package vrt

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/isaacphysics/runbook"
	"github.com/kballard/go-shellquote"
	"github.com/otiai10/copy"
	log "github.com/sirupsen/logrus"
)

// DiffOutputDir is the name of the directories the image snapshot plugin
// writes its diff images to.
const DiffOutputDir = "__diff_output__"

// Options of a visual regression test run.
type Options struct {
	Sites           []runbook.Site
	RepoDir         string // app checkout to test
	Spec            string // optional spec (glob) to run instead of all specs
	UpdateSnapshots bool   // accept the current rendering as the new baseline
	Config          runbook.VRTConfig
}

// VRT walks the operator through running visual regression tests.
type VRT struct {
	Runner  *runbook.Runner
	Console *runbook.Console
	Options Options
}

// PullCommand pulls the Cypress image.
func PullCommand(image string) string {
	return shellquote.Join("docker", "pull", image)
}

// RunCommand runs the visual regression tests of the site in a throw-away
// container, with the app checkout mounted into it.
func RunCommand(opts Options, site runbook.Site) string {
	env := "SITE=" + string(site)
	if opts.UpdateSnapshots {
		env += ",updateSnapshots=true"
	}
	args := []string{
		"docker", "run", "-it", "--rm", "--ipc=host",
		"-v", opts.RepoDir + ":/e2e", "-w", "/e2e",
		opts.Config.Image,
		"--browser", opts.Config.Browser,
		"--env", env,
	}
	if opts.Spec != "" {
		args = append(args, "--spec", opts.Spec)
	}
	return shellquote.Join(args...)
}

// Run the visual regression tests for all sites.
func (v *VRT) Run(ctx context.Context) error {
	opts := v.Options
	if opts.RepoDir == "" {
		opts.RepoDir = "."
	}
	repoDir, err := filepath.Abs(opts.RepoDir)
	if err != nil {
		return fmt.Errorf("cannot determine app checkout, reason: %w", err)
	}
	opts.RepoDir = repoDir

	v.Console.Heading("[VISUAL REGRESSION TESTS]")
	v.Console.Step("Pull the Cypress image:")
	if _, err := v.Runner.Offer(ctx, PullCommand(opts.Config.Image), false); err != nil {
		return err
	}
	snapshotDir := filepath.Join(repoDir, opts.Config.SnapshotDir)
	for _, site := range opts.Sites {
		if err := ClearDiffs(snapshotDir); err != nil {
			return err
		}
		v.Console.Step("Run the visual regression tests for %s:", site)
		_, outcome, err := v.Runner.Run(ctx, RunCommand(opts, site), true)
		if err != nil {
			return err
		}
		results := filepath.Join(opts.Config.ResultsDir, string(site))
		if !filepath.IsAbs(results) {
			results = filepath.Join(repoDir, results)
		}
		if outcome == runbook.Skipped {
			v.Console.Println(fmt.Sprintf("Keeping previous results for %s.", site))
			continue
		}
		n, err := CollectDiffs(snapshotDir, results)
		if err != nil {
			return err
		}
		if n == 0 {
			v.Console.Println(fmt.Sprintf("No snapshot differences for %s.", site))
			continue
		}
		v.Console.Warning("%d snapshot difference(s) for %s collected in %s", n, site, results)
	}
	v.Console.Println()
	v.Console.Println("Done!")
	return nil
}

// ClearDiffs removes all diff output directories found below the snapshot
// directory, so that they only show the differences of the next run.
func ClearDiffs(snapshotDir string) error {
	var diffs []string
	err := walkDiffs(snapshotDir, func(path string) error {
		diffs = append(diffs, path)
		return nil
	})
	if err != nil {
		return fmt.Errorf("cannot clear snapshot diffs, reason: %w", err)
	}
	for _, path := range diffs {
		log.Debug(fmt.Sprintf("   🧹  removing %s", path))
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("cannot clear snapshot diffs, reason: %w", err)
		}
	}
	return nil
}

// CollectDiffs copies all diff output directories found below the snapshot
// directory into the (emptied) results directory, keeping their relative
// locations. It returns the number of diff images collected. A missing
// snapshot directory has no diffs.
func CollectDiffs(snapshotDir string, resultsDir string) (int, error) {
	if err := os.RemoveAll(resultsDir); err != nil {
		return 0, fmt.Errorf("cannot clear results, reason: %w", err)
	}
	images := 0
	err := walkDiffs(snapshotDir, func(path string) error {
		rel, err := filepath.Rel(snapshotDir, path)
		if err != nil {
			return err
		}
		dest := filepath.Join(resultsDir, rel)
		log.Info(fmt.Sprintf("   🖼  collecting %s", rel))
		if err := copy.Copy(path, dest, copy.Options{PreserveTimes: true}); err != nil {
			return err
		}
		entries, err := os.ReadDir(path)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				images++
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("cannot collect snapshot diffs, reason: %w", err)
	}
	return images, nil
}

// walkDiffs calls fn for each diff output directory below the snapshot
// directory. A missing snapshot directory has no diffs.
func walkDiffs(snapshotDir string, fn func(path string) error) error {
	if _, err := os.Stat(snapshotDir); os.IsNotExist(err) {
		return nil
	}
	return filepath.WalkDir(snapshotDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() || d.Name() != DiffOutputDir {
			return nil
		}
		if err := fn(path); err != nil {
			return err
		}
		return filepath.SkipDir
	})
}
