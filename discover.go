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
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
	"github.com/docker/go-units"
	log "github.com/sirupsen/logrus"
)

// APIVersionLabel is the app image label carrying the api version the app was
// built for.
const APIVersionLabel = "apiVersion"

// Discoverer finds out which versions are currently deployed.
type Discoverer interface {
	// RunningAppVersions returns the versions of the running app containers
	// of the site's environment.
	RunningAppVersions(ctx context.Context, site Site, env Env) ([]string, error)
	// APIVersion returns the api version the named container was built for,
	// or "" if unknown.
	APIVersion(ctx context.Context, container string) (string, error)
}

// dockerAPI is the part of the Docker Engine API client we need.
type dockerAPI interface {
	ContainerList(ctx context.Context, options types.ContainerListOptions) ([]types.Container, error)
	ContainerInspect(ctx context.Context, container string) (types.ContainerJSON, error)
	Close() error
}

// DockerDiscoverer discovers deployed versions by asking the Docker engine
// about its containers.
type DockerDiscoverer struct {
	moby dockerAPI
}

var _ Discoverer = (*DockerDiscoverer)(nil)

// NewDockerDiscoverer returns a discoverer talking to the Docker engine at the
// specified host, or as configured by the DOCKER_HOST et al. environment
// variables when host is empty.
func NewDockerDiscoverer(host string) (*DockerDiscoverer, error) {
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if host != "" {
		opts = append(opts, client.WithHost(host))
	}
	moby, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("cannot create Docker client, reason: %w", err)
	}
	return &DockerDiscoverer{moby: moby}, nil
}

// Close the connection to the Docker engine.
func (d *DockerDiscoverer) Close() error {
	return d.moby.Close()
}

// RunningAppVersions returns the sorted versions of the running app containers
// of the specified site and environment.
func (d *DockerDiscoverer) RunningAppVersions(ctx context.Context, site Site, env Env) ([]string, error) {
	prefix := AppContainerPrefix(site, env)
	containers, err := d.moby.ContainerList(ctx, types.ContainerListOptions{
		Filters: filters.NewArgs(filters.Arg("name", prefix)),
	})
	if err != nil {
		return nil, fmt.Errorf("cannot list containers, reason: %w", err)
	}
	versions := []string{}
	for _, cntr := range containers {
		for _, name := range cntr.Names {
			// The name filter matches substrings, so check for a proper
			// prefix.
			name = strings.TrimPrefix(name, "/")
			version, ok := strings.CutPrefix(name, prefix)
			if !ok || version == "" {
				continue
			}
			log.Info(fmt.Sprintf("   🐳  %s running for %s", name,
				units.HumanDuration(time.Since(time.Unix(cntr.Created, 0)))))
			versions = append(versions, version)
		}
	}
	sort.Strings(versions)
	return versions, nil
}

// APIVersion returns the value of the api version label of the specified
// container.
func (d *DockerDiscoverer) APIVersion(ctx context.Context, container string) (string, error) {
	details, err := d.moby.ContainerInspect(ctx, container)
	if err != nil {
		return "", fmt.Errorf("cannot inspect container %s, reason: %w", container, err)
	}
	if details.Config == nil {
		return "", nil
	}
	return details.Config.Labels[APIVersionLabel], nil
}
