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

package command

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"time"

	"github.com/chzyer/readline"
	"github.com/docker/go-units"
	"github.com/isaacphysics/runbook"
	"github.com/mattn/go-isatty"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/exp/slices"
)

const (
	configFlag     = "config"
	debugFlag      = "debug"
	dockerHostFlag = "docker-host"
)

// osExit can be replaced in tests.
var osExit = os.Exit

// assertTTY rejects non-interactive operator sessions.
var assertTTY = func() error { return runbook.AssertTTY(os.Stdout, os.Args) }

// newLineReader returns the reader for operator input: a full line editor
// when talking to a terminal, otherwise plain lines from stdin.
var newLineReader = func(out io.Writer) (runbook.LineReader, func() error, error) {
	if fd := os.Stdin.Fd(); isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		rl, err := readline.NewEx(&readline.Config{
			Stdout:          out,
			InterruptPrompt: "^C",
		})
		if err != nil {
			return nil, nil, fmt.Errorf("cannot read from terminal, reason: %w", err)
		}
		return rl, rl.Close, nil
	}
	return runbook.NewLineScanner(os.Stdin, out), func() error { return nil }, nil
}

// successfully returns the value if there is no error, otherwise it panics.
// For errors that only happen when the command definitions are broken.
func successfully[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// unerringly returns the value if there is no error, otherwise it logs the
// error and exits.
func unerringly[T any](v T, err error) T {
	if err != nil {
		log.WithError(err).Error("fatal")
		osExit(1)
	}
	return v
}

func buildInfo(info *debug.BuildInfo, key string) string {
	idx := slices.IndexFunc(info.Settings,
		func(setting debug.BuildSetting) bool {
			return setting.Key == key
		})
	if idx < 0 {
		return ""
	}
	return info.Settings[idx].Value
}

// New returns the runbook root command with all its sub commands, logging to
// the specified writer.
func New(logw io.Writer) *cobra.Command {
	var start time.Time
	rootCmd := &cobra.Command{
		Use:          "runbook",
		Short:        "runbook walks operators through deploying and releasing the ada and phy sites",
		Version:      "(devel)",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetOutput(logw)
			if unerringly(cmd.Flags().GetBool(debugFlag)) {
				log.SetLevel(log.DebugLevel)
			}
			start = time.Now()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			log.Info(fmt.Sprintf("⏱  %s finished after %s",
				cmd.Name(), units.HumanDuration(time.Since(start))))
		},
	}
	rootCmd.PersistentFlags().String(configFlag, "",
		"YAML configuration file")
	rootCmd.PersistentFlags().Bool(debugFlag, false,
		"enable debug logging")
	rootCmd.PersistentFlags().StringP(dockerHostFlag, "H", "",
		"Docker daemon socket to connect to")

	rootCmd.AddCommand(newDeployCmd(), newTagCmd(), newVRTCmd())

	if info, biok := debug.ReadBuildInfo(); biok {
		commit := buildInfo(info, "vcs.revision")
		if commit != "" {
			modified := ""
			if buildInfo(info, "vcs.modified") == "true" {
				modified = " (modified)"
			}
			rootCmd.Version = fmt.Sprintf("commit %s%s", commit[:8], modified)
		} else if modver := info.Main.Version; modver != "" {
			rootCmd.Version = modver
		}
	}
	return rootCmd
}

// config loads the configuration named by the --config flag, or returns the
// default configuration.
func config(cmd *cobra.Command) (runbook.Config, error) {
	return runbook.LoadConfig(unerringly(cmd.Flags().GetString(configFlag)))
}

// prompter returns a prompter for operator input, together with a function
// to release the underlying line reader.
func prompter(cmd *cobra.Command) (*runbook.Prompter, func() error, error) {
	out := cmd.OutOrStdout()
	in, closer, err := newLineReader(out)
	if err != nil {
		return nil, nil, err
	}
	return runbook.NewPrompter(in, out), closer, nil
}
