// Package cli defines the Cobra command tree for the seedling CLI. Each file
// in this package registers one top-level command (new, exec, dumpconfig,
// etc.) with the root command. Commands parse flags into option structs and
// delegate to the scaffold and pipeline packages.
package cli
