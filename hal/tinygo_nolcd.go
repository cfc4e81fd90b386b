//go:build tinygo && baremetal && !lcd

package hal

func openPanel() panel { return nil }
