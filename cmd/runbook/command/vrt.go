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
	"os"

	"github.com/isaacphysics/runbook"
	"github.com/isaacphysics/runbook/vrt"
	"github.com/spf13/cobra"
)

const (
	updateSnapshotsFlag = "update-snapshots"
	specFlag            = "spec"
	repoDirFlag         = "repo-dir"
)

func newVRTCmd() *cobra.Command {
	vrtCmd := &cobra.Command{
		Use:   "vrt [SITE]",
		Short: "run the visual regression tests in a container",
		Long: `run the visual regression tests in a container.

SITE is one of ada, phy, or both (default).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			site := runbook.SiteBoth
			if len(args) == 1 {
				var err error
				if site, err = runbook.ParseSite(args[0]); err != nil {
					return err
				}
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

			exec := unerringly(cmd.Flags().GetBool(execFlag))
			v := &vrt.VRT{
				Runner: &runbook.Runner{
					Prompter: p,
					Executor: runbook.ShellExecutor{Stdin: os.Stdin, Stderr: cmd.ErrOrStderr()},
					Exec:     exec,
				},
				Console: runbook.NewConsole(cmd.OutOrStdout()),
				Options: vrt.Options{
					Sites:           (&runbook.DeployContext{Site: site}).Sites(),
					RepoDir:         unerringly(cmd.Flags().GetString(repoDirFlag)),
					Spec:            unerringly(cmd.Flags().GetString(specFlag)),
					UpdateSnapshots: unerringly(cmd.Flags().GetBool(updateSnapshotsFlag)),
					Config:          cfg.VRT,
				},
			}
			return v.Run(cmd.Context())
		},
	}
	vrtCmd.Flags().Bool(execFlag, false,
		"execute the commands after confirmation, instead of only showing them")
	vrtCmd.Flags().Bool(updateSnapshotsFlag, false,
		"accept the current rendering as the new snapshots")
	vrtCmd.Flags().String(specFlag, "",
		"only run the matching spec files")
	vrtCmd.Flags().String(repoDirFlag, ".",
		"app repository to test")
	return vrtCmd
}
