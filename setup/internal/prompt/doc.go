// Package prompt collects setup input interactively from a terminal.
package prompt
