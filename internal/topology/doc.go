// Package topology generates the initial particles and connectors of a cloth:
// regular grids, triangle meshes, and YAML mesh files.
package topology
