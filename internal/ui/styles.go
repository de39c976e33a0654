package ui

import "fmt"

// ANSI256 color codes for door-side output.
const (
	colorSuccess = 78  // green: guest admitted
	colorWarn    = 214 // orange: duplicate scan
	colorDenied  = 203 // red: unknown token / wrong door
	colorAccent  = 74  // blue
	colorMuted   = 245 // medium gray
)

var noColor bool

// RenderSuccess returns s in green, used for an admitted guest.
func RenderSuccess(s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", colorSuccess, s)
}

// RenderWarn returns s in orange, used for a duplicate scan.
func RenderWarn(s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", colorWarn, s)
}

// RenderDenied returns s in red, used for a turned-away scan.
func RenderDenied(s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", colorDenied, s)
}

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", colorAccent, s)
}

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", colorMuted, s)
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}
