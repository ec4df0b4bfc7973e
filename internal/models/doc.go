// Package models defines the provider-neutral playback types shared by the CLI, terminal widget, and web widget.
//
//   - [Track] : a playable item with its display metadata
//   - [Playback] : the state of the user's player at one point in time
//   - [Device] : the device a [Playback] is happening on
//
// Services map provider JSON into these types so the formatter and UIs never see wire formats.
package models
