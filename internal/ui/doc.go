// Package ui provides terminal output for the lookaround CLI.
//
// This package uses Lipgloss to render discovery reports, command headers
// and result boxes, and Bubble Tea for the interactive scan screen. Output
// written to something other than a terminal is plain text so scripts can
// parse it; a Printer decides which form to use.
//
// # Components
//
//   - Report: the "Found N peers:" listing, plain or colored per field
//   - Header: command banner showing operation name and parameters
//   - Result: success, failure and warning boxes
//   - ScanModel: live peer list with spinner, progress bar and rescan
//
// # Usage Pattern
//
//	p := ui.NewPrinter(os.Stdout)
//	reports, err := c.Discover(ctx)
//	if err != nil {
//	    p.PrintError("Discovery failed", err, nil)
//	    return err
//	}
//	p.PrintReport(reports)
//
// # Logging Integration
//
// Logging is controlled via the LOOKAROUND_LOG_LEVEL environment variable
// or --log-level and goes to stderr. When unset, zap logging is silent so the
// report on stdout stays clean.
package ui
