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
	"fmt"
	"os"
	"regexp"
)

// APIVersionEnvVar is the app build variable that pins the api version the
// app talks to.
const APIVersionEnvVar = "REACT_APP_API_VERSION"

var apiVersionEnvRe = regexp.MustCompile(`(?m)` + APIVersionEnvVar + `=.*$`)

// SetDotEnvAPIVersion rewrites the api version assignment in the app's .env
// file, leaving everything else as it is.
func SetDotEnvAPIVersion(path string, version string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot read %s, reason: %w", path, err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read %s, reason: %w", path, err)
	}
	content = apiVersionEnvRe.ReplaceAllLiteral(content,
		[]byte(APIVersionEnvVar+"="+version))
	if err := os.WriteFile(path, content, info.Mode().Perm()); err != nil {
		return fmt.Errorf("cannot write %s, reason: %w", path, err)
	}
	return nil
}
