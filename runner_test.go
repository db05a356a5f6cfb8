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
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("running commands", func() {

	Context("shell executor", func() {

		It("returns the output", func(ctx context.Context) {
			GrabLog(logrus.DebugLevel)
			dir := GinkgoT().TempDir()
			Expect(ShellExecutor{}.Execute(ctx, dir, "pwd && echo $0")).To(
				Equal(dir + "\n" + Shell + "\n"))
		})

		It("passes on stdin and stderr", func(ctx context.Context) {
			var stderr strings.Builder
			e := ShellExecutor{Stdin: strings.NewReader("hellorld"), Stderr: &stderr}
			Expect(e.Execute(ctx, "", `cat && echo "D'OH" >&2`)).To(Equal("hellorld"))
			Expect(stderr.String()).To(Equal("D'OH\n"))
		})

		It("reports non-zero exit codes", func(ctx context.Context) {
			_, err := ShellExecutor{}.Execute(ctx, "", "echo nope >&2; exit 42")
			var exitErr *ExitError
			Expect(errors.As(err, &exitErr)).To(BeTrue())
			Expect(exitErr.ExitCode).To(Equal(42))
			Expect(err).To(MatchError("command 'echo nope >&2; exit 42' returned non-zero exit status 42: nope"))
			Expect((&ExitError{Command: "false", ExitCode: 1}).Error()).To(
				Equal("command 'false' returned non-zero exit status 1"))
		})

		It("reports failing to run", func(ctx context.Context) {
			_, err := ShellExecutor{}.Execute(ctx, "/nada-nothing-nil", "true")
			Expect(err).To(MatchError(ContainSubstring("cannot run command 'true'")))
		})

	})

	It("echoes commands", func(ctx context.Context) {
		var out strings.Builder
		e := EchoExecutor{Out: &out}
		Expect(e.Execute(ctx, "", "git status")).To(BeEmpty())
		Expect(e.Execute(ctx, "../isaac-api", "git status")).To(BeEmpty())
		Expect(out.String()).To(Equal("git status\n(../isaac-api) git status\n"))
	})

	Context("offering", func() {

		var ex *scriptedExecutor

		newRunner := func(input string, exec bool) (*Runner, *strings.Builder) {
			p, out := scriptedPrompter(input)
			return &Runner{Prompter: p, Executor: ex, Exec: exec}, out
		}

		BeforeEach(func() {
			ex = &scriptedExecutor{script: []scripted{
				{prefix: "docker ps", output: "v1.2.3\n"},
				{prefix: "false", err: &ExitError{Command: "false", ExitCode: 1}},
			}}
		})

		It("only shows commands and returns the pasted output", func(ctx context.Context) {
			r, out := newRunner("v1.2.3\n", false)
			Expect(r.Offer(ctx, "docker ps", false)).To(Equal("v1.2.3"))
			Expect(out.String()).To(Equal("docker ps\n"))
			Expect(ex.commands).To(BeEmpty())
		})

		It("executes commands", func(ctx context.Context) {
			r, out := newRunner("y\nYes\n", true)
			Expect(r.Offer(ctx, "docker ps", true)).To(Equal("v1.2.3\n"))
			Expect(r.Offer(ctx, "git pull", false)).To(BeEmpty())
			Expect(ex.commands).To(Equal([]string{"docker ps", "git pull"}))
			Expect(out.String()).To(Equal("Execute: docker ps?: v1.2.3\n\nExecute: git pull?: "))
		})

		It("re-prompts and skips", func(ctx context.Context) {
			r, out := newRunner("dunno\nS\n", true)
			Expect(r.Offer(ctx, "docker ps", true)).To(BeEmpty())
			Expect(ex.commands).To(BeEmpty())
			Expect(out.String()).To(ContainSubstring("Please respond with one of:\n - Yes (or y)\n - Skip (or s)\n - Abort (or a)\n"))
			Expect(out.String()).To(HaveSuffix("Skipping command...\n"))
		})

		It("aborts", func(ctx context.Context) {
			r, out := newRunner("abort\n", true)
			Expect(r.Offer(ctx, "docker ps", true)).Error().To(MatchError(ErrAborted))
			Expect(out.String()).To(ContainSubstring("! Aborting release process, please clean up after yourself !"))
		})

		It("continues after errors", func(ctx context.Context) {
			r, out := newRunner("y\nx\nc\n", true)
			Expect(r.Offer(ctx, "false", true)).To(BeEmpty())
			Expect(out.String()).To(ContainSubstring("command 'false' returned non-zero exit status 1\n! There was an unexpected error, please clean up after yourself !\n"))
			Expect(out.String()).To(ContainSubstring("Please respond with one of:\n - Continue (or c)\n - Abort (or a)\n"))
			Expect(out.String()).To(HaveSuffix("Continuing...\n"))
		})

		It("aborts after errors", func(ctx context.Context) {
			r, _ := newRunner("y\na\n", true)
			Expect(r.Offer(ctx, "false", true)).Error().To(MatchError(ErrAborted))
		})

		DescribeTable("reports outcomes",
			func(input string, exec bool, command string, expected Outcome) {
				r, _ := newRunner(input, exec)
				_, outcome, err := r.Run(context.Background(), command, false)
				Expect(err).NotTo(HaveOccurred())
				Expect(outcome).To(Equal(expected))
			},
			Entry("shown", "\n", false, "docker ps", Shown),
			Entry("succeeded", "y\n", true, "docker ps", Succeeded),
			Entry("failed", "y\nc\n", true, "false", Failed),
			Entry("skipped", "s\n", true, "docker ps", Skipped),
		)

		It("names outcomes", func() {
			Expect(Skipped.String()).To(Equal("skipped"))
			Expect(Outcome(42).String()).To(Equal("Outcome(42)"))
		})

	})

})
