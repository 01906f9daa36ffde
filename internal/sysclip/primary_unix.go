//go:build freebsd || linux || netbsd || openbsd || solaris || dragonfly

package sysclip

import "github.com/atotto/clipboard"

func usePrimary(on bool) (restore func()) {
	prev := clipboard.Primary
	clipboard.Primary = on
	return func() { clipboard.Primary = prev }
}
