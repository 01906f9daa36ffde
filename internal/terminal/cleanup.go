package terminal

import (
	"io"
	"strings"
)

// hostResetSequences return the host terminal to its normal state: mouse
// and focus reporting off, bracketed paste off, cursor shown, main screen,
// default attributes.
var hostResetSequences = []string{
	"\x1b[?1000l",
	"\x1b[?1002l",
	"\x1b[?1003l",
	"\x1b[?1004l",
	"\x1b[?1006l",
	"\x1b[?2004l",
	"\x1b[?25h",
	"\x1b[?1049l",
	"\x1b[0m",
}

// RestoreHost writes the reset sequences to w. It is used when the program
// exits without restoring the screen itself.
func RestoreHost(w io.Writer) error {
	_, err := io.WriteString(w, strings.Join(hostResetSequences, "")+"\r\n")
	return err
}
