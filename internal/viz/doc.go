// Package viz draws slope animations in the terminal.
//
// [Plot] is a render.Renderer that keeps the latest scene and draws it on
// Braille [Canvas] layers: axes, the shaded confidence band, and the line.
// [Model] is the Bubble Tea program around a session.
//
// # Key Bindings
//
//	Space/Enter - Start animation
//	R           - Reset to defaults
//	B           - Toggle confidence band
//	Tab         - Next parameter
//	Up/Down     - Adjust parameter
//	E           - Type a parameter value
//	G           - Toggle GIF recording
//	T           - Cycle color themes
//	?           - Show help overlay
//
// # Recording
//
// While recording, every redraw is captured as a render.Frame. Stopping the
// recording hands the frames to Model.OnRecord.
package viz
