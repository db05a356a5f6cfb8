/*
Package release tags releases of the app and api.

Versions are semantic versions of the form vMAJOR.MINOR.PATCH, optionally
followed by an “-rcN” release candidate suffix. A release:

  - checks that the local app and api repositories are clean checkouts of the
    master branch that passed CI,
  - increments the most recent release tags on GitHub according to the kind of
    changes made, see [Increment],
  - records the new versions in package.json, .env, and pom.xml, commits, and
    tags,
  - bumps both to the next “-SNAPSHOT” development version and pushes.

The api can stay unchanged in front-end-only releases, but the app never.
*/
package release
