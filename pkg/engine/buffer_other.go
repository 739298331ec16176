//go:build !unix

package engine

func allocBuffer(size int) ([]byte, func() error, error) {
	return make([]byte, size), func() error { return nil }, nil
}
