// Package tasks runs player commands and keeps the displayed playback fresh.
//
// # Commands
//
// [Controller.Do] sends one [Action] to a [services.Service] and then re-reads the player so every caller
// (CLI, terminal widget, web widget) ends with the state the command produced. Playing a specific URI
// waits briefly before the re-read because the provider reports the old item for a moment.
//
// # Refresh Ordering
//
// [Refresher] guards the re-reads:
//   - concurrent refreshes share one request (singleflight)
//   - each refresh takes a ticket from a [Sequencer]; a response older than the last applied one is
//     discarded and the newer state is returned with stale=true
//
// A command calls [Refresher.Invalidate] so the refresh that follows it never joins a request that
// started before the command.
//
// # Progress Reporting
//
// [Controller.Do] emits [Update] values on an optional channel. Sends never block.
package tasks
