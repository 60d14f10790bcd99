//go:build unix

// Package pipe moves clipboard payloads between the compositor and this
// process over anonymous pipes.
package pipe

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

var (
	ErrNilPipe      = fmt.Errorf("pipe: nil pipe provided")
	ErrFailedCreate = fmt.Errorf("pipe: failed to create pipe")
)

const readChunkSize = 64 * 1024

// Pipe is a read/write pair. The write end is lent to the compositor for a
// single transfer, the read end stays with us.
type Pipe struct {
	rfd *os.File
	wfd *os.File
}

func New() (*Pipe, error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_CLOEXEC); err != nil {
		return nil, errors.Join(ErrFailedCreate, err)
	}

	return &Pipe{
		rfd: os.NewFile(uintptr(fds[0]), "pipe-r"),
		wfd: os.NewFile(uintptr(fds[1]), "pipe-w"),
	}, nil
}

// Fd returns the write end to pass along with a receive request.
func (p *Pipe) Fd() *os.File {
	return p.wfd
}

func (p *Pipe) ReadFd() *os.File {
	return p.rfd
}

// CloseWrite drops our copy of the write end so that EOF arrives once the
// other side is done.
func (p *Pipe) CloseWrite() error {
	return p.wfd.Close()
}

// Close releases both ends. Closing an already closed end is not an error.
func (p *Pipe) Close() error {
	err := p.rfd.Close()
	if werr := p.wfd.Close(); werr != nil && !errors.Is(werr, os.ErrClosed) {
		err = errors.Join(err, werr)
	}
	return err
}

// ReadAll blocks until the write end is closed by every holder.
func (p *Pipe) ReadAll() ([]byte, error) {
	if p == nil || p.rfd == nil {
		return nil, ErrNilPipe
	}
	return FromPipe(p.rfd.Fd())
}

// FromPipe reads fd until a zero-length read. There is no timeout: a writer
// that never closes its end blocks the caller for good.
func FromPipe(fd uintptr) ([]byte, error) {
	if fd == 0 {
		return nil, ErrNilPipe
	}

	var dest bytes.Buffer
	readBuf := make([]byte, readChunkSize)

	for {
		n, err := unix.Read(int(fd), readBuf)
		if err != nil {
			if errors.Is(err, unix.EINTR) || errors.Is(err, unix.EAGAIN) {
				continue
			}
			return nil, fmt.Errorf("pipe read: %w", err)
		}
		if n <= 0 {
			break
		}
		dest.Write(readBuf[:n])
	}

	return dest.Bytes(), nil
}

// WriteOnce issues a single write of data to f. A short count is returned
// as is.
func WriteOnce(f *os.File, data []byte) (int, error) {
	if len(data) == 0 {
		return 0, nil
	}
	for {
		n, err := unix.Write(int(f.Fd()), data)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if n < 0 {
			n = 0
		}
		return n, err
	}
}

// IsExpectedWriteError reports errors caused by the reader going away.
func IsExpectedWriteError(err error) bool {
	return errors.Is(err, unix.EPIPE) ||
		errors.Is(err, unix.ECONNRESET) ||
		errors.Is(err, unix.EBADF) ||
		errors.Is(err, os.ErrClosed)
}
