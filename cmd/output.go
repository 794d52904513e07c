package cmd

import (
	"fmt"
	"io"
	"os"
)

// Status glyphs shared by every command's human-readable output.
//
//	✓ ok    ✗ failed (stderr)    ⚠ degraded    ○ skipped    - missing    ~ info
const (
	glyphOK   = "✓"
	glyphErr  = "✗"
	glyphWarn = "⚠"
	glyphSkip = "○"
	glyphMiss = "-"
	glyphInfo = "~"
)

// stdout and stderr are swapped out by tests.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// printSection prints a header such as "=== Doctor ===".
func printSection(title string) { fmt.Fprintf(stdout, "\n=== %s ===\n", title) }

// printBullet prints a group heading such as "● Main Cast".
func printBullet(title string) { fmt.Fprintf(stdout, "\n● %s\n", title) }

// statusLine writes "  <glyph>  [name] msg", dropping the bracket when name is empty.
func statusLine(w io.Writer, glyph, name, msg string) {
	if name != "" {
		msg = "[" + name + "] " + msg
	}
	fmt.Fprintf(w, "  %s  %s\n", glyph, msg)
}

func printOK(name, msg string)   { statusLine(stdout, glyphOK, name, msg) }
func printErr(name, msg string)  { statusLine(stderr, glyphErr, name, msg) }
func printWarn(name, msg string) { statusLine(stdout, glyphWarn, name, msg) }
func printSkip(name, msg string) { statusLine(stdout, glyphSkip, name, msg) }
func printMiss(name, msg string) { statusLine(stdout, glyphMiss, name, msg) }
func printInfo(name, msg string) { statusLine(stdout, glyphInfo, name, msg) }
