package fs

import (
	"fmt"
	"sync"

	db "cfsos/debug"
	"cfsos/serr"
)

type Ttype int

const (
	FD_NONE Ttype = iota
	FD_DEVICE
)

func (t Ttype) String() string {
	switch t {
	case FD_DEVICE:
		return "device"
	default:
		return "none"
	}
}

// Dev is a character device a file can be attached to.
type Dev interface {
	Write(pid int, b []byte) (int, error)
}

type File struct {
	Type     Ttype
	ref      int
	Writable bool
	dev      Dev
}

func (f *File) String() string {
	return fmt.Sprintf("{%v ref %d}", f.Type, f.ref)
}

// Ftable tracks open files.
type Ftable struct {
	sync.Mutex
	nfile int
}

func (fs *Fs) Filealloc(dev Dev) *File {
	fs.ft.Lock()
	defer fs.ft.Unlock()
	fs.ft.nfile += 1
	return &File{Type: FD_DEVICE, ref: 1, Writable: true, dev: dev}
}

// Filedup increments f's reference count.
func (fs *Fs) Filedup(f *File) *File {
	fs.ft.Lock()
	defer fs.ft.Unlock()
	if f.ref < 1 {
		db.DFatalf("filedup %v", f)
	}
	f.ref += 1
	return f
}

// Fileclose drops a reference to f, releasing it on the last close.
func (fs *Fs) Fileclose(f *File) {
	fs.ft.Lock()
	defer fs.ft.Unlock()
	if f.ref < 1 {
		db.DFatalf("fileclose %v", f)
	}
	f.ref -= 1
	if f.ref > 0 {
		return
	}
	fs.ft.nfile -= 1
	f.Type = FD_NONE
	f.dev = nil
}

func (fs *Fs) Filewrite(f *File, pid int, b []byte) (int, error) {
	if !f.Writable {
		return -1, serr.NewErr(serr.TErrBadfd, "not writable")
	}
	switch f.Type {
	case FD_DEVICE:
		return f.dev.Write(pid, b)
	default:
		return -1, serr.NewErr(serr.TErrBadfd, f.Type.String())
	}
}

func (fs *Fs) Nfile() int {
	fs.ft.Lock()
	defer fs.ft.Unlock()
	return fs.ft.nfile
}

func (f *File) Ref() int {
	return f.ref
}
