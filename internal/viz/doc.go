// Package viz provides a terminal view of a running orbit.System.
//
// Bodies are drawn on a braille [Canvas] with fading trails, next to a
// stats panel and an energy chart. The view follows the center of mass.
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	R     - Reset to initial bodies
//	+/-   - Zoom in/out
//	>/<   - More/fewer steps per frame
//	F     - Refit the view to the bodies
//	T     - Cycle color themes
//	Q     - Quit
package viz
