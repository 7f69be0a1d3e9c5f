// Package viz renders coupled runs in the terminal.
//
//   - [Model]: live Bubble Tea view that steps a coupling.Stepper on a timer
//   - [Plot]: asciigraph line chart of one series
//   - [RenderSummary]: lipgloss panel with the end state of a run
//
// # Key Bindings
//
//	Space - Pause/Resume
//	Tab   - Cycle the charted series
//	+/-   - More/fewer coupled steps per frame
//	T     - Cycle color themes
//	?     - Show help overlay
//	Q     - Quit
package viz
