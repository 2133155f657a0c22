//go:build !linux

package link

import "errors"

func openRawSocket(ifaceName string) (rawSocket, error) {
	return nil, errors.New("raw packet sockets require linux")
}
