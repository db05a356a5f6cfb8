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
	"os"

	"github.com/isaacphysics/runbook"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const (
	execFlag        = "exec"
	noDiscoveryFlag = "no-discovery"
)

func newDeployCmd() *cobra.Command {
	deployCmd := &cobra.Command{
		Use:   "deploy SITE ENV APP [API]",
		Short: "deploy an app and api version to a site's environment",
		Long: `deploy an app and api version to a site's environment.

SITE is one of ada, phy, or both.
ENV is one of test, staging, dev, live, or etl.
APP is the app version to deploy, such as the release tag "v1.2.3".
API is the api version to deploy; if missing and APP isn't a release tag, it
is asked for.`,
		Args:              cobra.RangeArgs(3, 4),
		ValidArgsFunction: completeSiteEnv,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := assertTTY(); err != nil {
				return err
			}
			site, err := runbook.ParseSite(args[0])
			if err != nil {
				return err
			}
			env, err := runbook.ParseEnv(args[1])
			if err != nil {
				return err
			}
			dctx := &runbook.DeployContext{
				Site: site,
				Env:  env,
				App:  args[2],
				Exec: unerringly(cmd.Flags().GetBool(execFlag)),
			}
			if len(args) == 4 {
				dctx.API = args[3]
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
			if err := dctx.Validate(p); err != nil {
				return err
			}

			d := runbook.NewDeployment(dctx, cfg, p, runbook.ShellExecutor{
				Stdin:  os.Stdin,
				Stderr: cmd.ErrOrStderr(),
			})
			if !unerringly(cmd.Flags().GetBool(noDiscoveryFlag)) {
				host := unerringly(cmd.Flags().GetString(dockerHostFlag))
				discoverer, err := runbook.NewDockerDiscoverer(host)
				if err != nil {
					log.Warn(fmt.Sprintf("⚠  no container discovery: %s", err.Error()))
				} else {
					defer discoverer.Close()
					d.Discoverer = discoverer
				}
			}
			return d.Run(cmd.Context())
		},
	}
	deployCmd.Flags().Bool(execFlag, false,
		"execute the commands after confirmation, instead of only showing them")
	deployCmd.Flags().Bool(noDiscoveryFlag, false,
		"don't propose previous versions from the running containers")
	return deployCmd
}

// completeSiteEnv completes the SITE and ENV arguments.
func completeSiteEnv(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var choices []string
	switch len(args) {
	case 0:
		for _, site := range runbook.SiteChoices {
			choices = append(choices, string(site))
		}
	case 1:
		for _, env := range runbook.EnvChoices {
			choices = append(choices, string(env))
		}
	}
	return choices, cobra.ShellCompDirectiveNoFileComp
}
