//go:build !unix

package dumpinfo

import "runtime"

func unameString() string {
	return runtime.GOOS + " " + runtime.GOARCH
}
