/*
Package interpolate expands environment variable references in configuration
values, following the interpolation rules of the Compose specification.

Both unbraced and braced references are supported:

	$FOO
	${FOO}

Braced references may carry an operation with an alternative text, which in
turn may contain further references:

	${FOO:-default}      default if FOO is unset or empty
	${FOO-default}       default if FOO is unset
	${FOO:?message}      error with message if FOO is unset or empty
	${FOO?message}       error with message if FOO is unset
	${FOO:+replacement}  replacement if FOO is set and non-empty, else empty
	${FOO+replacement}   replacement if FOO is set, else empty

A doubled “$$” stands for a literal “$”. As configuration values often contain
shell command fragments, a “$” that is neither followed by a variable name nor
by a brace is kept literally, so “$0” and “$(pwd)” pass through unchanged.
*/
package interpolate
