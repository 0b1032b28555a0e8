// Package scaffold creates and upgrades seedling projects on disk. It powers
// the "seedling new", "upgrade", "example", and "examples" commands: laying
// out the project skeleton, vendoring tooling, copying documentation, and
// rendering the project file from its embedded template.
package scaffold
