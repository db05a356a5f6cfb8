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

package release

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("versions", func() {

	DescribeTable("incrementing",
		func(version string, update UpdateType, expected string) {
			Expect(Increment(version, update)).To(Equal(expected))
		},
		Entry(nil, "v1.2.3", Patch, "v1.2.4"),
		Entry(nil, "v1.2.3", Minor, "v1.3.0"),
		Entry(nil, "v1.2.3", Major, "v2.0.0"),
		Entry(nil, "v1.2.3", None, "v1.2.3"),
		Entry(nil, "v1.2.3", RC, "v1.2.4-rc1"),
		Entry(nil, "v1.2.4-rc1", RC, "v1.2.4-rc2"),
		Entry(nil, "v1.2.4-rc9", RC, "v1.2.4-rc10"),
		Entry(nil, "v1.2.4-rc2", Patch, "v1.2.4"),
		Entry(nil, "v1.2.4-rc2", Minor, "v1.3.0"),
		Entry(nil, "v1.2.4-rc2", Major, "v2.0.0"),
		Entry(nil, "1.2.3", Patch, "1.2.3"),
		Entry(nil, "master", Major, "master"),
		Entry(nil, "v1.2.3-SNAPSHOT", Patch, "v1.2.3-SNAPSHOT"),
	)

	It("parses update types", func() {
		Expect(ParseUpdateType("MINOR", AppUpdateTypes)).To(Equal(Minor))
		Expect(ParseUpdateType("none", APIUpdateTypes)).To(Equal(None))
		Expect(ParseUpdateType("none", AppUpdateTypes)).Error().To(
			MatchError(`invalid update type "none", choose from major, minor, patch, rc`))
	})

	It("describes all update types", func() {
		types := []UpdateType{}
		for _, d := range UpdateTypeDescriptions {
			types = append(types, d.Type)
		}
		Expect(types).To(ConsistOf(APIUpdateTypes))
	})

	Context("updates", func() {

		It("knows front-end-only releases", func() {
			Expect(Updates{App: Patch}.FrontEndOnly()).To(BeTrue())
			Expect(Updates{App: Patch, API: None}.FrontEndOnly()).To(BeTrue())
			Expect(Updates{App: Patch, API: Minor}.FrontEndOnly()).To(BeFalse())
			Expect(Updates{API: None}.Updated(API)).To(BeFalse())
			Expect(Updates{API: RC}.Updated(API)).To(BeTrue())
		})

		It("bumps released services by a patch", func() {
			Expect(Updates{App: Major, API: None}.SnapshotBump()).To(
				Equal(Updates{App: Patch, API: None}))
		})

		It("targets versions", func() {
			latest := Versions{App: "v1.2.3", API: "v2.0.0"}
			target := Target(latest, Updates{App: Minor, API: None}, false)
			Expect(target).To(Equal(Versions{App: "v1.3.0", API: "v2.0.0"}))
			Expect(Target(target, Updates{App: Patch, API: None}, true)).To(
				Equal(Versions{App: "v1.3.1-SNAPSHOT", API: "v2.0.0-SNAPSHOT"}))
		})

	})

})
