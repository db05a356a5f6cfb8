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
	"os"
	"path/filepath"
	"strings"

	"github.com/isaacphysics/runbook"
	"github.com/isaacphysics/runbook/test/grab"
	"github.com/sirupsen/logrus"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/thediveo/success"
)

// recorder records the commands it is asked to execute, optionally acting on
// them.
type recorder struct {
	commands []string
	onRun    func(command string) error
}

func (r *recorder) Execute(_ context.Context, _ string, command string) (string, error) {
	r.commands = append(r.commands, command)
	if r.onRun != nil {
		return "", r.onRun(command)
	}
	return "", nil
}

func writeDiff(snapshots, rel string) {
	dir := filepath.Join(snapshots, rel, DiffOutputDir)
	Expect(os.MkdirAll(dir, 0755)).To(Succeed())
	Expect(os.WriteFile(filepath.Join(dir, "shot.diff.png"), []byte(rel), 0644)).To(Succeed())
}

var _ = Describe("visual regression tests", func() {

	BeforeEach(func() {
		DeferCleanup(grab.Log(GinkgoWriter, logrus.InfoLevel))
	})

	cfg := runbook.DefaultConfig().VRT

	Context("commands", func() {

		It("pulls the image", func() {
			Expect(PullCommand("cypress/included:13.6.0")).To(
				Equal("docker pull cypress/included:13.6.0"))
		})

		It("runs the tests", func() {
			Expect(RunCommand(Options{RepoDir: "/src/app", Config: cfg}, runbook.SiteAda)).To(Equal(
				"docker run -it --rm --ipc=host -v /src/app:/e2e -w /e2e cypress/included:13.6.0 --browser chrome --env SITE=ada"))
		})

		It("updates snapshots of a single spec", func() {
			Expect(RunCommand(Options{
				RepoDir:         "/src/my app",
				Spec:            "src/test/pages/Home.cy.tsx",
				UpdateSnapshots: true,
				Config:          cfg,
			}, runbook.SitePhy)).To(Equal(
				"docker run -it --rm --ipc=host -v '/src/my app:/e2e' -w /e2e cypress/included:13.6.0 --browser chrome --env SITE=phy,updateSnapshots=true --spec src/test/pages/Home.cy.tsx"))
		})

	})

	Context("collecting diffs", func() {

		It("copies only diff outputs", func() {
			tmp := GinkgoT().TempDir()
			snapshots := filepath.Join(tmp, "snapshots")
			results := filepath.Join(tmp, "results")
			writeDiff(snapshots, "home")
			writeDiff(snapshots, filepath.Join("admin", "users"))
			Expect(os.WriteFile(filepath.Join(snapshots, "home", "baseline.png"), []byte("base"), 0644)).To(Succeed())
			Expect(os.MkdirAll(filepath.Join(results, "stale"), 0755)).To(Succeed())

			Expect(CollectDiffs(snapshots, results)).To(Equal(2))
			Expect(Successful(os.ReadFile(filepath.Join(results, "home", DiffOutputDir, "shot.diff.png")))).To(
				Equal([]byte("home")))
			Expect(filepath.Join(results, "admin", "users", DiffOutputDir, "shot.diff.png")).To(BeARegularFile())
			Expect(filepath.Join(results, "home", "baseline.png")).NotTo(BeAnExistingFile())
			Expect(filepath.Join(results, "stale")).NotTo(BeAnExistingFile())
		})

		It("has nothing to collect without snapshots", func() {
			tmp := GinkgoT().TempDir()
			Expect(CollectDiffs(filepath.Join(tmp, "nada"), filepath.Join(tmp, "results"))).To(BeZero())
		})

		It("clears diff outputs", func() {
			tmp := GinkgoT().TempDir()
			writeDiff(tmp, "home")
			writeDiff(tmp, filepath.Join("admin", "users"))
			Expect(os.WriteFile(filepath.Join(tmp, "home", "baseline.png"), []byte("base"), 0644)).To(Succeed())

			Expect(ClearDiffs(tmp)).To(Succeed())
			Expect(filepath.Join(tmp, "home", DiffOutputDir)).NotTo(BeAnExistingFile())
			Expect(filepath.Join(tmp, "admin", "users", DiffOutputDir)).NotTo(BeAnExistingFile())
			Expect(filepath.Join(tmp, "home", "baseline.png")).To(BeARegularFile())
			Expect(ClearDiffs(filepath.Join(tmp, "nada"))).To(Succeed())
		})

	})

	Context("running", func() {

		var (
			repo string
			rec  *recorder
			out  strings.Builder
		)

		newVRT := func(input string, opts Options) *VRT {
			out.Reset()
			p := runbook.NewPrompter(runbook.NewLineScanner(strings.NewReader(input), &out), &out)
			opts.RepoDir = repo
			opts.Config = cfg
			return &VRT{
				Runner:  &runbook.Runner{Prompter: p, Executor: rec, Exec: true},
				Console: runbook.NewConsole(&out),
				Options: opts,
			}
		}

		BeforeEach(func() {
			repo = GinkgoT().TempDir()
			rec = &recorder{}
		})

		It("runs the tests per site and collects only their own diffs", func(ctx context.Context) {
			snapshots := filepath.Join(repo, cfg.SnapshotDir)
			writeDiff(snapshots, "stale")
			rec.onRun = func(command string) error {
				if strings.HasSuffix(command, "SITE=ada") {
					writeDiff(snapshots, "home")
				}
				return nil
			}
			v := newVRT("y\ny\ny\n", Options{Sites: []runbook.Site{runbook.SiteAda, runbook.SitePhy}})
			Expect(v.Run(ctx)).To(Succeed())
			Expect(rec.commands).To(HaveLen(3))
			Expect(rec.commands[0]).To(Equal("docker pull " + cfg.Image))
			Expect(rec.commands[1]).To(HaveSuffix("--env SITE=ada"))
			Expect(rec.commands[2]).To(HaveSuffix("--env SITE=phy"))
			Expect(out.String()).To(ContainSubstring("[VISUAL REGRESSION TESTS]"))
			Expect(out.String()).To(ContainSubstring("1 snapshot difference(s) for ada"))
			Expect(out.String()).To(ContainSubstring("No snapshot differences for phy."))
			ada := filepath.Join(repo, cfg.ResultsDir, "ada")
			Expect(filepath.Join(ada, "home", DiffOutputDir, "shot.diff.png")).To(BeARegularFile())
			Expect(filepath.Join(ada, "stale")).NotTo(BeAnExistingFile())
			Expect(filepath.Join(repo, cfg.ResultsDir, "phy", "home")).NotTo(BeAnExistingFile())
		})

		It("keeps the previous results of a skipped run", func(ctx context.Context) {
			previous := filepath.Join(repo, cfg.ResultsDir, "ada", "home", DiffOutputDir, "old.png")
			Expect(os.MkdirAll(filepath.Dir(previous), 0755)).To(Succeed())
			Expect(os.WriteFile(previous, []byte("old"), 0644)).To(Succeed())
			v := newVRT("y\ns\n", Options{Sites: []runbook.Site{runbook.SiteAda}})
			Expect(v.Run(ctx)).To(Succeed())
			Expect(previous).To(BeARegularFile())
			Expect(out.String()).To(ContainSubstring("Keeping previous results for ada."))
			Expect(out.String()).NotTo(ContainSubstring("snapshot difference"))
		})

		It("collects the diffs of a failed run", func(ctx context.Context) {
			snapshots := filepath.Join(repo, cfg.SnapshotDir)
			rec.onRun = func(command string) error {
				if strings.HasPrefix(command, "docker run") {
					writeDiff(snapshots, "home")
					return &runbook.ExitError{Command: command, ExitCode: 1}
				}
				return nil
			}
			v := newVRT("y\ny\nc\n", Options{Sites: []runbook.Site{runbook.SitePhy}})
			Expect(v.Run(ctx)).To(Succeed())
			Expect(out.String()).To(ContainSubstring("1 snapshot difference(s) for phy"))
			Expect(filepath.Join(repo, cfg.ResultsDir, "phy", "home", DiffOutputDir, "shot.diff.png")).To(BeARegularFile())
		})

		It("skips and aborts", func(ctx context.Context) {
			v := newVRT("s\na\n", Options{Sites: []runbook.Site{runbook.SiteAda}})
			Expect(v.Run(ctx)).To(MatchError(runbook.ErrAborted))
			Expect(rec.commands).To(BeEmpty())
			Expect(out.String()).To(ContainSubstring("Skipping command..."))
		})

		It("reports no differences", func(ctx context.Context) {
			v := newVRT("y\ny\n", Options{Sites: []runbook.Site{runbook.SitePhy}})
			Expect(v.Run(ctx)).To(Succeed())
			Expect(out.String()).To(ContainSubstring("No snapshot differences for phy."))
			Expect(out.String()).To(ContainSubstring("Done!"))
		})

	})

})
