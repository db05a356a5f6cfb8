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

package interpolate

import (
	"gopkg.in/yaml.v3"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/thediveo/success"
)

var _ = Describe("interpolating configuration data", func() {

	It("interpolates nested YAML", func() {
		var yammel map[string]any
		Expect(yaml.Unmarshal([]byte(`
github:
  token: ${TOKEN:-none}
  retries: 42
  repos:
    - isaac-$REPO
`), &yammel)).To(Succeed())
		interpolated := Successful(Variables(yammel, map[string]string{
			"REPO": "api",
		}))
		Expect(interpolated).To(
			HaveKeyWithValue("github", And(
				HaveKeyWithValue("token", "none"),
				HaveKeyWithValue("retries", 42),
				HaveKeyWithValue("repos", ConsistOf("isaac-api")))))
	})

	It("doesn't modify the original data", func() {
		data := map[string]any{"foo": "$FOO"}
		Expect(Variables(data, map[string]string{"FOO": "bar"})).To(
			HaveKeyWithValue("foo", "bar"))
		Expect(data).To(HaveKeyWithValue("foo", "$FOO"))
	})

	It("reports where interpolation failed", func() {
		Expect(Variables(map[string]any{
			"foo": map[string]any{
				"bar": []any{"", "${BAZ"},
			},
		}, nil)).Error().To(MatchError("error in 'foo.bar[1]': unterminated ${"))
	})

	It("handles empty data", func() {
		Expect(Variables(nil, nil)).To(BeEmpty())
	})

})
