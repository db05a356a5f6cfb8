/*
Package github is a tiny client for the few GitHub REST API resources needed
when tagging releases: the tags of a repository and the runs of its CI
workflows.

Requests are rate limited on the client side and transient failures (rate
limiting and server errors) are retried with an exponential back-off.
*/
package github
