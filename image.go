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

	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/name"
	"github.com/google/go-containerregistry/pkg/v1/remote"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	log "github.com/sirupsen/logrus"
)

// DefaultRegistry points to the Docker registry.
var DefaultRegistry = name.DefaultRegistry

// PublishedImage describes an image found in its registry.
type PublishedImage struct {
	Ref     string
	Digest  string
	Version string // OCI version label of the image, if any
}

// LookupImage checks that the image repository contains the specified tag and
// returns the image's digest and version label. Registry credentials are taken
// from the Docker configuration, as for “docker pull”.
func LookupImage(ctx context.Context, repository string, tag string, opts ...remote.Option) (*PublishedImage, error) {
	imgRef, err := name.ParseReference(repository+":"+tag,
		name.WithDefaultRegistry(DefaultRegistry))
	if err != nil {
		return nil, fmt.Errorf("invalid image reference %q, reason: %w",
			repository+":"+tag, err)
	}
	opts = append([]remote.Option{
		remote.WithContext(ctx),
		remote.WithAuthFromKeychain(authn.DefaultKeychain),
	}, opts...)
	image, err := remote.Image(imgRef, opts...)
	if err != nil {
		return nil, fmt.Errorf("cannot find image %s, reason: %w",
			imgRef.String(), err)
	}
	digest, err := image.Digest()
	if err != nil {
		return nil, fmt.Errorf("cannot determine digest of image %s, reason: %w",
			imgRef.String(), err)
	}
	config, err := image.ConfigFile()
	if err != nil {
		return nil, fmt.Errorf("cannot determine configuration of image %s, reason: %w",
			imgRef.String(), err)
	}
	return &PublishedImage{
		Ref:     imgRef.String(),
		Digest:  digest.String(),
		Version: config.Config.Labels[ocispec.AnnotationVersion],
	}, nil
}

// VerifyImages checks that the configured app and api images have been
// published for the specified versions. Problems are reported as warnings
// the operator must acknowledge, as the images might come from elsewhere.
func (d *Deployment) VerifyImages(ctx context.Context, app, api string) error {
	checks := []struct{ repo, tag string }{
		{d.Config.Images.App, app},
		{d.Config.Images.API, api},
	}
	for _, check := range checks {
		if check.repo == "" || check.tag == "" {
			continue
		}
		log.Info(fmt.Sprintf("🔎  looking for image %s:%s", check.repo, check.tag))
		img, err := LookupImage(ctx, check.repo, check.tag, d.RegistryOptions...)
		if err != nil {
			if err := d.Prompter.Acknowledge(err.Error(), true, ""); err != nil {
				return err
			}
			continue
		}
		d.Console.Println(fmt.Sprintf("Found %s (%s)", img.Ref, img.Digest))
		if img.Version != "" && img.Version != check.tag {
			err := d.Prompter.Acknowledge(
				fmt.Sprintf("image %s is labelled with version %q", img.Ref, img.Version),
				true, "")
			if err != nil {
				return err
			}
		}
	}
	return nil
}
