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
	"strings"

	"github.com/isaacphysics/runbook"
	"github.com/isaacphysics/runbook/github"
	"github.com/isaacphysics/runbook/release"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const (
	appUpdateFlag = "app"
	apiUpdateFlag = "api"
	dryRunFlag    = "dry-run"
)

func newTagCmd() *cobra.Command {
	tagCmd := &cobra.Command{
		Use:   "tag",
		Short: "tag a release of the app and api",
		Long: `tag a release of the app and api.

Checks that the app and api repositories are clean and built successfully,
records the next release versions, tags and pushes them, and finally bumps to
the next snapshot versions. Missing update types are asked for.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := assertTTY(); err != nil {
				return err
			}
			updates := release.Updates{}
			if name := unerringly(cmd.Flags().GetString(appUpdateFlag)); name != "" {
				update, err := release.ParseUpdateType(name, release.AppUpdateTypes)
				if err != nil {
					return err
				}
				updates[release.App] = update
			}
			if name := unerringly(cmd.Flags().GetString(apiUpdateFlag)); name != "" {
				update, err := release.ParseUpdateType(name, release.APIUpdateTypes)
				if err != nil {
					return err
				}
				updates[release.API] = update
			}
			cfg, err := config(cmd)
			if err != nil {
				return err
			}
			p, closer, err := prompter(cmd)
			if err != nil {
				return err
			}
			defer closer()

			dryRun := unerringly(cmd.Flags().GetBool(dryRunFlag))
			var executor runbook.Executor = runbook.ShellExecutor{Stderr: cmd.ErrOrStderr()}
			if dryRun {
				log.Info("🧪  dry run, only showing commands")
				executor = runbook.EchoExecutor{Out: cmd.OutOrStdout()}
			}
			tagger := &release.Tagger{
				Prompter: p,
				Executor: executor,
				GitHub: github.New(cfg.GitHub.Owner,
					github.WithBaseURL(cfg.GitHub.API),
					github.WithToken(cfg.GitHub.Token)),
				Repositories: map[release.Service]release.Repository{
					release.App: {
						Repo:     cfg.GitHub.AppRepo,
						Workflow: cfg.GitHub.AppWorkflow,
					},
					release.API: {
						Dir:      cfg.APIWorkDir,
						Repo:     cfg.GitHub.APIRepo,
						Workflow: cfg.GitHub.APIWorkflow,
					},
				},
				DryRun: dryRun,
			}
			return tagger.Run(cmd.Context(), updates)
		},
	}
	tagCmd.Flags().String(appUpdateFlag, "",
		fmt.Sprintf("app update type, one of: %s", updateTypeNames(release.AppUpdateTypes)))
	tagCmd.Flags().String(apiUpdateFlag, "",
		fmt.Sprintf("api update type, one of: %s", updateTypeNames(release.APIUpdateTypes)))
	tagCmd.Flags().Bool(dryRunFlag, false,
		"only show the commands, without changing anything")
	return tagCmd
}

func updateTypeNames(updates []release.UpdateType) string {
	names := make([]string, 0, len(updates))
	for _, update := range updates {
		names = append(names, string(update))
	}
	return strings.Join(names, ", ")
}
