/*
Package vrt runs the app's Cypress visual regression tests inside a
container, so that screenshots get rendered identically on every developer
machine and in CI.

After each site's run, the image snapshot diff outputs get collected into a
per-site results directory, so they survive the next run that would otherwise
overwrite them.
*/
package vrt
