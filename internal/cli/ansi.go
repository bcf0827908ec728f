// pattern: Functional Core
package cli

import "regexp"

// ansiPattern matches CSI sequences, OSC sequences and charset escapes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]|\x1b\][^\x07]*\x07|\x1b[()][0-9A-B]`)

// StripANSI removes terminal escape sequences. Display names come from
// README and manifest files, so they pass through here before rendering.
func StripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}
