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
	"context"
	"errors"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/sirupsen/logrus"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/thediveo/success"
)

// fakeDocker serves containers from memory.
type fakeDocker struct {
	containers []types.Container
	labels     map[string]map[string]string
	err        error
	filter     string
	closed     bool
}

var _ dockerAPI = (*fakeDocker)(nil)

func (f *fakeDocker) ContainerList(_ context.Context, options types.ContainerListOptions) ([]types.Container, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.filter = options.Filters.Get("name")[0]
	return f.containers, nil
}

func (f *fakeDocker) ContainerInspect(_ context.Context, name string) (types.ContainerJSON, error) {
	if f.err != nil {
		return types.ContainerJSON{}, f.err
	}
	labels, ok := f.labels[name]
	if !ok {
		return types.ContainerJSON{}, errors.New("No such container: " + name)
	}
	if labels == nil {
		return types.ContainerJSON{}, nil
	}
	return types.ContainerJSON{Config: &container.Config{Labels: labels}}, nil
}

func (f *fakeDocker) Close() error {
	f.closed = true
	return nil
}

var _ = Describe("discovering running versions", func() {

	BeforeEach(func() {
		GrabLog(logrus.InfoLevel)
	})

	It("creates a Docker client", func() {
		d := Successful(NewDockerDiscoverer("unix:///nada-nothing-nil.sock"))
		Expect(d.Close()).To(Succeed())
	})

	It("lists running app versions", func(ctx context.Context) {
		created := time.Now().Add(-2 * time.Hour).Unix()
		moby := &fakeDocker{containers: []types.Container{
			{Names: []string{"/phy-app-live-v1.2.3"}, Created: created},
			{Names: []string{"/phy-app-live-v1.2.2"}, Created: created},
			{Names: []string{"/staging-phy-app-live-v0.0.1"}, Created: created},
			{Names: []string{"/phy-app-live-"}, Created: created},
		}}
		d := &DockerDiscoverer{moby: moby}
		Expect(d.RunningAppVersions(ctx, SitePhy, EnvLive)).To(
			Equal([]string{"v1.2.2", "v1.2.3"}))
		Expect(moby.filter).To(Equal("phy-app-live-"))
		Expect(d.Close()).To(Succeed())
		Expect(moby.closed).To(BeTrue())
	})

	It("reports listing errors", func(ctx context.Context) {
		d := &DockerDiscoverer{moby: &fakeDocker{err: errors.New("D'OH")}}
		Expect(d.RunningAppVersions(ctx, SiteAda, EnvLive)).Error().To(
			MatchError("cannot list containers, reason: D'OH"))
		Expect(d.APIVersion(ctx, "ada-app-live-v1.2.3")).Error().To(
			MatchError(ContainSubstring("cannot inspect container ada-app-live-v1.2.3")))
	})

	It("reads the api version label", func(ctx context.Context) {
		d := &DockerDiscoverer{moby: &fakeDocker{labels: map[string]map[string]string{
			"ada-app-live-v1.2.3": {APIVersionLabel: "v2.0.0"},
			"ada-app-live-v1.2.2": {},
			"ada-app-live-v1.2.1": nil,
		}}}
		Expect(d.APIVersion(ctx, "ada-app-live-v1.2.3")).To(Equal("v2.0.0"))
		Expect(d.APIVersion(ctx, "ada-app-live-v1.2.2")).To(BeEmpty())
		Expect(d.APIVersion(ctx, "ada-app-live-v1.2.1")).To(BeEmpty())
	})

})
