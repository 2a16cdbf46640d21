//go:build !unix

package local

func writable(path string) bool {
	return true
}

func freeBytes(path string) (int64, error) {
	return -1, nil
}
