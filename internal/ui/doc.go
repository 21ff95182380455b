// Package ui styles command line output with lipgloss.
//
// [Palette] holds the named styles used by the commands in cmd. [ProgressPrinter] drains a
// [tasks.ProgressUpdate] channel and prints one styled line per update while a bulk operation runs.
package ui
