// Package pipeline runs the fixed stage sequence behind "seedling exec",
// "dumpconfig", "tasks", and "help": resolve configuration, derive the
// per-invocation run context, set verbosity, load the build engine, and then
// run tasks, dump configuration, or list the engine's tasks.
//
// Each stage returns an updated runctx.Context; no stage mutates the project
// configuration.
package pipeline
