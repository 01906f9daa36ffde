//go:build !(freebsd || linux || netbsd || openbsd || solaris || dragonfly)

package sysclip

// No PRIMARY selection here; the selection channel reads the clipboard.
func usePrimary(bool) (restore func()) {
	return func() {}
}
