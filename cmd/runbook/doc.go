/*
runbook walks operators through deploying, tagging, and visually testing the
ada and phy sites.

# Usage

	runbook [command]

# Commands

	deploy SITE ENV APP [API]   deploy an app and api version to a site's environment
	tag                         tag a release of the app and api
	vrt [SITE]                  run the visual regression tests in a container

# Flags

	    --config string        YAML configuration file
	    --debug                enable debug logging
	-H, --docker-host string   Docker daemon socket to connect to
	-h, --help                 help for runbook
	-v, --version              version for runbook
*/
package main
