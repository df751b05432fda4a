//go:build !linux

package rfcomm

func newNativeSocket() (NativeSocket, error) {
	return nil, ErrUnsupported
}
