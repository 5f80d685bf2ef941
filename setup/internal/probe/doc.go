// Package probe checks that a deployed hostpager-relay answers on its health
// endpoint.
package probe
