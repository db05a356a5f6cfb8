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
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/exp/slices"
)

// Site identifies one of the deployable sites, or both of them.
type Site string

const (
	SitePhy  Site = "phy"
	SiteAda  Site = "ada"
	SiteBoth Site = "both"
)

// Env identifies a deployment environment.
type Env string

const (
	EnvTest    Env = "test"
	EnvStaging Env = "staging"
	EnvDev     Env = "dev"
	EnvLive    Env = "live"
	EnvETL     Env = "etl"
)

// SiteChoices lists the valid site arguments, in the order shown to users.
var SiteChoices = []Site{SiteAda, SitePhy, SiteBoth}

// EnvChoices lists the valid environment arguments.
var EnvChoices = []Env{EnvTest, EnvStaging, EnvDev, EnvLive, EnvETL}

// ParseSite returns the Site for the specified name, or an error if there is
// no such site.
func ParseSite(name string) (Site, error) {
	site := Site(name)
	if !slices.Contains(SiteChoices, site) {
		return "", fmt.Errorf("invalid site %q, choose from %s",
			name, joinChoices(SiteChoices))
	}
	return site, nil
}

// ParseEnv returns the Env for the specified name, or an error if there is no
// such environment.
func ParseEnv(name string) (Env, error) {
	env := Env(name)
	if !slices.Contains(EnvChoices, env) {
		return "", fmt.Errorf("invalid environment %q, choose from %s",
			name, joinChoices(EnvChoices))
	}
	return env, nil
}

func joinChoices[T ~string](choices []T) string {
	names := make([]string, 0, len(choices))
	for _, choice := range choices {
		names = append(names, string(choice))
	}
	return strings.Join(names, ", ")
}

// DeployContext is the deployment context handed from step to step. Steps update it
// in place as they learn facts, such as the version of the app that is
// currently running.
type DeployContext struct {
	Site   Site
	Env    Env
	App    string // app version target, such as "master" or "v1.2.3"
	API    string // api version target; might be empty until asked for
	OldApp string
	OldAPI string
	Exec   bool // execute commands after prompting, instead of only showing them
}

var (
	bareSemverRe   = regexp.MustCompile(`^\d+\.\d+\.\d+$`)
	taggedSemverRe = regexp.MustCompile(`^v\d+\.\d+\.\d+$`)
)

// IsReleaseTag returns true if the version is a release tag of the form
// vMAJOR.MINOR.PATCH.
func IsReleaseTag(version string) bool {
	return taggedSemverRe.MatchString(version)
}

// Validate checks the app version target and asks for the api version target
// when it is missing and cannot be derived later from a release tag.
func (c *DeployContext) Validate(p *Prompter) error {
	if bareSemverRe.MatchString(c.App) {
		return fmt.Errorf("the app param should be v%s not %s", c.App, c.App)
	}
	if c.API != "" || IsReleaseTag(c.App) {
		return nil
	}
	api, err := p.Ask("Please enter API version: ")
	if err != nil {
		return err
	}
	c.API = api
	return nil
}

// Sites returns the concrete sites to deploy to, in deployment order.
func (c *DeployContext) Sites() []Site {
	if c.Site == SiteBoth {
		return []Site{SiteAda, SitePhy}
	}
	return []Site{c.Site}
}

// forSite returns a copy of this context for the specified concrete site,
// without any previously discovered versions of another site.
func (c *DeployContext) forSite(site Site) *DeployContext {
	sc := *c
	sc.Site = site
	sc.OldApp = ""
	sc.OldAPI = ""
	return &sc
}

// Upper returns the site name in upper case, as used in headings.
func (s Site) Upper() string { return strings.ToUpper(string(s)) }

// Upper returns the environment name in upper case, as used in headings.
func (e Env) Upper() string { return strings.ToUpper(string(e)) }
