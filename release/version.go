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
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"golang.org/x/exp/slices"
)

// UpdateType describes how a service changed since its last release.
type UpdateType string

const (
	None  UpdateType = "none"  // Don't update this service
	Patch UpdateType = "patch" // Makes (backwards-compatible) bug fixes
	Minor UpdateType = "minor" // Adds (backwards-compatible) functionality
	Major UpdateType = "major" // Makes incompatible API changes
	RC    UpdateType = "rc"    // Release candidate of the next patch release
)

// UpdateTypeDescriptions describes the update types, in the order shown to
// users.
var UpdateTypeDescriptions = []struct {
	Type        UpdateType
	Description string
}{
	{Major, "Makes incompatible API changes"},
	{Minor, "Adds (backwards-compatible) functionality"},
	{Patch, "Makes (backwards-compatible) bug fixes"},
	{RC, "Tags a release candidate"},
	{None, "Don't update this service"},
}

// AppUpdateTypes are the valid update types of the app: the app always gets
// updated.
var AppUpdateTypes = []UpdateType{Major, Minor, Patch, RC}

// APIUpdateTypes are the valid update types of the api.
var APIUpdateTypes = []UpdateType{None, Patch, Minor, Major, RC}

// ParseUpdateType returns the update type of the specified name, if it is one
// of the allowed types.
func ParseUpdateType(name string, allowed []UpdateType) (UpdateType, error) {
	update := UpdateType(strings.ToLower(name))
	if !slices.Contains(allowed, update) {
		names := make([]string, 0, len(allowed))
		for _, u := range allowed {
			names = append(names, string(u))
		}
		return "", fmt.Errorf("invalid update type %q, choose from %s",
			name, strings.Join(names, ", "))
	}
	return update, nil
}

// Service identifies one of the two separately versioned services.
type Service string

const (
	App Service = "app"
	API Service = "api"
)

// Services lists the services in release order.
var Services = []Service{App, API}

// Versions of the app and api.
type Versions map[Service]string

// Updates of the app and api.
type Updates map[Service]UpdateType

// FrontEndOnly returns true if the api doesn't get updated.
func (u Updates) FrontEndOnly() bool {
	return u[API] == None || u[API] == ""
}

// Updated returns true if the service gets updated.
func (u Updates) Updated(svc Service) bool {
	return u[svc] != None && u[svc] != ""
}

// SnapshotBump returns the updates to apply after a release: a patch update
// for every released service.
func (u Updates) SnapshotBump() Updates {
	bump := Updates{}
	for svc, update := range u {
		if update == None {
			bump[svc] = None
			continue
		}
		bump[svc] = Patch
	}
	return bump
}

// SnapshotSuffix marks development versions following a release.
const SnapshotSuffix = "-SNAPSHOT"

var releaseRe = regexp.MustCompile(`^v\d+\.\d+\.\d+(-rc\d+)?$`)

// Increment the version according to the update type. Versions that aren't
// release versions of the form vMAJOR.MINOR.PATCH (optionally with an “-rcN”
// suffix) are returned unchanged, as are versions with an update type of
// None.
//
// Incrementing a release candidate with anything but RC finalises the
// release candidate, where patch is the candidate's own release and minor as
// well as major bump as usual.
func Increment(version string, update UpdateType) string {
	if update == None || !releaseRe.MatchString(version) {
		return version
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return version
	}
	var next semver.Version
	switch update {
	case Major:
		next = v.IncMajor()
	case Minor:
		next = v.IncMinor()
	case Patch:
		next = v.IncPatch()
	case RC:
		next = incRC(v)
	default:
		return version
	}
	return "v" + next.String()
}

// incRC returns the next release candidate: rc1 of the next patch release for
// a release, or the next rcN of the same release for a release candidate.
func incRC(v *semver.Version) semver.Version {
	if pre := v.Prerelease(); pre != "" {
		n, _ := strconv.Atoi(strings.TrimPrefix(pre, "rc"))
		next, _ := v.SetPrerelease("rc" + strconv.Itoa(n+1))
		return next
	}
	next, _ := v.IncPatch().SetPrerelease("rc1")
	return next
}

// Target returns the versions resulting from applying the updates to the
// specified versions, optionally marking them as snapshots.
func Target(versions Versions, updates Updates, snapshot bool) Versions {
	target := Versions{}
	for _, svc := range Services {
		version := Increment(versions[svc], updates[svc])
		if snapshot {
			version += SnapshotSuffix
		}
		target[svc] = version
	}
	return target
}
