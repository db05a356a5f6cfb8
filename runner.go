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
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Executor executes a shell command line inside the specified working
// directory (or the current directory if empty) and returns its standard
// output.
type Executor interface {
	Execute(ctx context.Context, dir string, command string) (string, error)
}

// ExitError reports a command that ran, but finished with a non-zero exit
// status.
type ExitError struct {
	Command  string
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("command '%s' returned non-zero exit status %d", e.Command, e.ExitCode)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

// Shell is the shell used for running command lines.
var Shell = "bash"

// ShellExecutor runs command lines using the Shell, so pipes and other shell
// constructs work as they would when the operator typed them.
type ShellExecutor struct {
	// Stdin, if non-nil, gets connected to the command, such as for
	// interactive commands like "psql".
	Stdin io.Reader
	// Stderr, if non-nil, additionally receives the command's error output.
	Stderr io.Writer
}

// Execute runs the command line and returns its standard output.
func (e ShellExecutor) Execute(ctx context.Context, dir string, command string) (string, error) {
	log.Debug(fmt.Sprintf("   🐚  %s", command))
	cmd := exec.CommandContext(ctx, Shell, "-c", command)
	cmd.Dir = dir
	cmd.Stdin = e.Stdin
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	if e.Stderr != nil {
		cmd.Stderr = io.MultiWriter(&stderr, e.Stderr)
	} else {
		cmd.Stderr = &stderr
	}
	err := cmd.Run()
	if err == nil {
		return stdout.String(), nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return stdout.String(), &ExitError{
			Command:  command,
			ExitCode: exitErr.ExitCode(),
			Stderr:   stderr.String(),
		}
	}
	return stdout.String(), fmt.Errorf("cannot run command '%s', reason: %w", command, err)
}

// EchoExecutor only prints the command lines it is asked to execute, together
// with their working directories, and then reports success with empty output.
type EchoExecutor struct {
	Out io.Writer
}

// Execute prints the command line.
func (e EchoExecutor) Execute(_ context.Context, dir string, command string) (string, error) {
	if dir != "" {
		fmt.Fprintf(e.Out, "(%s) %s\n", dir, command)
	} else {
		fmt.Fprintln(e.Out, command)
	}
	return "", nil
}

// Runner offers command lines to the operator, either for the operator to run
// them, or for running them itself after the operator agreed.
type Runner struct {
	Prompter *Prompter
	Executor Executor
	Exec     bool
}

// Outcome of offering a command line to the operator.
type Outcome int

const (
	Shown     Outcome = iota // only shown, for the operator to run it
	Succeeded                // executed successfully
	Failed                   // executed, but failed; the operator continued
	Skipped                  // skipped by the operator
)

func (o Outcome) String() string {
	switch o {
	case Shown:
		return "shown"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case Skipped:
		return "skipped"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Offer a command line to the operator. If not in exec mode, the command is
// just shown and the operator's reply gets returned: operators are expected to
// run the command themselves and to paste its output where asked for it.
//
// In exec mode, the operator is asked to run, skip, or abort. Running returns
// the command's output, optionally also showing it. Skipping returns an empty
// output. Aborting returns ErrAborted. If the command fails, the operator can
// continue (with an empty output) or abort.
func (r *Runner) Offer(ctx context.Context, command string, printOutput bool) (string, error) {
	output, _, err := r.Run(ctx, command, printOutput)
	return output, err
}

// Run offers the command line the same way as Offer does, additionally
// reporting the outcome.
func (r *Runner) Run(ctx context.Context, command string, printOutput bool) (string, Outcome, error) {
	p := r.Prompter
	if !r.Exec {
		reply, err := p.Ask(command + "\n")
		return reply, Shown, err
	}
	answer, err := p.Choose(
		fmt.Sprintf("Execute: %s?: ", command),
		"Please respond with one of:\n - Yes (or y)\n - Skip (or s)\n - Abort (or a)\n",
		"y", "yes", "s", "skip", "a", "abort")
	if err != nil {
		return "", Skipped, err
	}
	switch answer {
	case "a", "abort":
		p.Println("! Aborting release process, please clean up after yourself !")
		return "", Skipped, ErrAborted
	case "s", "skip":
		p.Println("Skipping command...")
		return "", Skipped, nil
	}
	output, err := r.Executor.Execute(ctx, "", command)
	if err == nil {
		if printOutput {
			p.Println(output)
		}
		return output, Succeeded, nil
	}
	p.Println(err.Error())
	p.Println("! There was an unexpected error, please clean up after yourself !")
	answer, err = p.Choose(
		"Continue, or Abort?: [c/a] ",
		"Please respond with one of:\n - Continue (or c)\n - Abort (or a)\n",
		"c", "continue", "a", "abort")
	if err != nil {
		return "", Failed, err
	}
	if answer == "a" || answer == "abort" {
		return "", Failed, ErrAborted
	}
	p.Println("Continuing...")
	return "", Failed, nil
}
