// Package preflight provides readiness checks for the filesystem paths and
// external tools that stemstrip depends on.
//
// These checks run in two contexts:
//   - The run command calls RunAll before dispatching any archives. If a
//     required check fails, the run aborts instead of failing every item the
//     same way.
//   - The CLI "stemstrip deps" command displays the same information as a
//     table for troubleshooting.
package preflight
