// Package projectconfig loads a project's configuration file, merges mixin
// overlays on top of it, and validates the result against the project schema.
//
// Project files may be YAML, JSON, JSONC, or HCL. Keys are case-insensitive
// and are stored lowercased. Mixins are applied in order: those enabled in the
// project file, then SEEDLING_MIXIN_<n> environment variables (by n), then
// mixins named on the command line. Maps merge recursively, lists append, and
// scalars from later mixins replace earlier values.
package projectconfig
