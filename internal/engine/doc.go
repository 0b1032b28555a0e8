// Package engine runs build tasks by invoking the seedling-engine executable
// with a resolved project configuration. The engine is either vendored in
// the project (<root>/<which_tool>/bin/seedling-engine) or found on PATH.
package engine
