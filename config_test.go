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
	"os"

	"github.com/sirupsen/logrus"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/thediveo/once"
	. "github.com/thediveo/success"
)

var _ = Describe("configuration", func() {

	BeforeEach(func() {
		GrabLog(logrus.InfoLevel)
	})

	It("defaults without a configuration file", func() {
		Expect(LoadConfig("")).To(Equal(DefaultConfig()))
	})

	It("updates the defaults, interpolating values", func() {
		cfg := DefaultConfig()
		Expect(ParseConfig([]byte(`
dbUser: ${DB_USER:-postgres}
domains:
  phy: ${PHY_DOMAIN}
github:
  token: ${GITHUB_TOKEN}
images:
  app: ghcr.io/isaacphysics/isaac-react-app
vrt:
  browser: $${BROWSER}
`), map[string]string{
			"PHY_DOMAIN":   "staging.isaacphysics.org",
			"GITHUB_TOKEN": "ghp_deadbeef",
		}, &cfg)).To(Succeed())
		Expect(cfg.DBUser).To(Equal("postgres"))
		Expect(cfg.Domain(SitePhy)).To(Equal("staging.isaacphysics.org"))
		Expect(cfg.Domain(SiteAda)).To(Equal("isaaccomputerscience.org"))
		Expect(cfg.GitHub.Token).To(Equal("ghp_deadbeef"))
		Expect(cfg.GitHub.Owner).To(Equal("isaacphysics"))
		Expect(cfg.GitHub.AppRepo).To(Equal("isaac-react-app"))
		Expect(cfg.Images.App).To(Equal("ghcr.io/isaacphysics/isaac-react-app"))
		Expect(cfg.Images.API).To(BeEmpty())
		Expect(cfg.VRT.Browser).To(Equal("${BROWSER}"))
		Expect(cfg.VRT.Image).To(Equal(DefaultConfig().VRT.Image))
	})

	It("accepts an empty configuration", func() {
		cfg := DefaultConfig()
		Expect(ParseConfig([]byte(""), nil, &cfg)).To(Succeed())
		Expect(cfg).To(Equal(DefaultConfig()))
	})

	It("rejects broken configurations", func() {
		cfg := DefaultConfig()
		Expect(ParseConfig([]byte("dbUser: [\n"), nil, &cfg)).To(
			MatchError(ContainSubstring("malformed configuration")))
		Expect(ParseConfig([]byte("dbUser: ${DB_USER:?the database user}\n"), nil, &cfg)).To(
			MatchError(ContainSubstring("the database user")))
		Expect(ParseConfig([]byte("domains: 42\n"), nil, &cfg)).To(
			MatchError(ContainSubstring("invalid configuration")))
	})

	It("loads a configuration file", func() {
		f := Successful(os.CreateTemp("", "runbook-*.yaml"))
		closeOnce := Once(func() { f.Close() }).Do
		DeferCleanup(func() {
			closeOnce()
			Expect(os.Remove(f.Name())).To(Succeed())
		})
		Expect(f.WriteString("monitorDir: ${RUNBOOK_TEST_MONITOR}\n")).Error().NotTo(HaveOccurred())
		closeOnce()

		GinkgoT().Setenv("RUNBOOK_TEST_MONITOR", "/srv/monitor")
		cfg := Successful(LoadConfig(f.Name()))
		Expect(cfg.MonitorDir).To(Equal("/srv/monitor"))
		Expect(MonitorCommand(cfg)).To(HavePrefix("cd /srv/monitor && "))

		Expect(LoadConfig("/nada-nothing-nil.yaml")).Error().To(
			MatchError(ContainSubstring("cannot read configuration")))
	})

})
