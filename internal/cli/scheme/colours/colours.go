package colours

import "github.com/fatih/color"

// Color scheme for the CLI
var (
	Provider = color.New(color.FgMagenta)
	URL      = color.New(color.FgBlue, color.Underline)
	Error    = color.New(color.FgRed, color.Bold)
	Success  = color.New(color.FgGreen)
	Warning  = color.New(color.FgYellow)
)
