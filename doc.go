/*
Package runbook walks operators through deploying the app and api of the ada
and phy sites.

“Check each command before executing it.” A runbook is a linear procedure:
it shows an instruction together with the shell command line to carry it out,
and then waits for the operator. Unless in exec mode, operators run the command
lines themselves and paste any output asked for. In exec mode the runbook runs
the command lines itself after the operator agreed, but operators can still
skip individual steps or abort the whole procedure at any time.

The deployment context ([DeployContext]) is threaded through the steps of a
[Deployment] and updated along the way, such as with the versions of the app
and api that are currently deployed. Where a Docker engine is reachable, a
[DockerDiscoverer] proposes these versions instead of asking the operator.

The command lines themselves are built by plain functions, such as
[BringUpCommand], and assume the usual deployment host layout described by
[Config].
*/
package runbook
