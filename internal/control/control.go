package control

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	ControlSize = 4096       // 1 page
	Magic       = 0x54524C53 // 'TRLS'
)

// Block is the memory-mapped control page. Other processes map the same
// file, so the field layout and offsets are fixed.
type Block struct {
	Magic      uint32
	Version    uint32
	Generation uint64 // Atomic
	DocBytes   uint64 // Length of the canonical document text
	Padding    [ControlSize - 24]byte
}

// Controller publishes the current document generation through a
// memory-mapped file. Observers poll Generation and reload when it moves.
type Controller struct {
	path string
	file *os.File
	data []byte
	ptr  *Block
}

// OpenOrCreate opens or creates a control file at the given path.
func OpenOrCreate(path string) (*Controller, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open control file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat: %w", err)
	}

	if info.Size() < ControlSize {
		if err := f.Truncate(ControlSize); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("truncate: %w", err)
		}
	}

	data, err := unix.Mmap(int(f.Fd()), 0, ControlSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("mmap: %w", err)
	}

	ptr := (*Block)(unsafe.Pointer(&data[0]))

	if ptr.Magic == 0 {
		ptr.Magic = Magic
		ptr.Version = 1
	} else if ptr.Magic != Magic {
		_ = unix.Munmap(data)
		_ = f.Close()
		return nil, fmt.Errorf("invalid magic: %x", ptr.Magic)
	}

	return &Controller{
		path: path,
		file: f,
		data: data,
		ptr:  ptr,
	}, nil
}

// Generation returns the published generation atomically.
func (c *Controller) Generation() uint64 {
	return atomic.LoadUint64(&c.ptr.Generation)
}

// DocBytes returns the published document length atomically.
func (c *Controller) DocBytes() uint64 {
	return atomic.LoadUint64(&c.ptr.DocBytes)
}

// Publish records a new generation and the matching document length.
// Generation is stored last, so a reader that observes the new generation
// also observes the DocBytes that belongs to it.
func (c *Controller) Publish(generation, docBytes uint64) {
	atomic.StoreUint64(&c.ptr.DocBytes, docBytes)
	atomic.StoreUint64(&c.ptr.Generation, generation)
}

// Close unmaps and closes the control file.
func (c *Controller) Close() error {
	if err := unix.Munmap(c.data); err != nil {
		return err
	}
	return c.file.Close()
}
