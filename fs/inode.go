package fs

import (
	"fmt"
	"sync"

	db "cfsos/debug"
	"cfsos/serr"
)

type Tinum uint64

const (
	NullInum Tinum = 0
	RootInum Tinum = 1
)

// Inode is an in-memory directory inode. Only directories exist; a
// process's working directory is the one use the kernel has for them.
type Inode struct {
	Inum  Tinum
	ref   int
	name  string
	ents  map[string]*Inode
	paren *Inode
}

func (ip *Inode) String() string {
	return fmt.Sprintf("{inum %d name %q}", ip.Inum, ip.name)
}

// Itable holds all inodes and their reference counts.
type Itable struct {
	sync.Mutex
	log  *Log
	root *Inode
	next Tinum
}

func newItable(log *Log) *Itable {
	it := &Itable{log: log, next: RootInum}
	it.root = it.mkinode("/", nil)
	it.root.paren = it.root
	// the root is pinned
	it.root.ref = 1
	return it
}

func (it *Itable) mkinode(name string, paren *Inode) *Inode {
	ip := &Inode{Inum: it.next, name: name, ents: make(map[string]*Inode), paren: paren}
	it.next += 1
	return ip
}

// Idup increments ip's reference count.
func (it *Itable) Idup(ip *Inode) *Inode {
	it.Lock()
	defer it.Unlock()
	ip.ref += 1
	return ip
}

// Iput drops a reference to ip. It must be called inside a transaction.
func (it *Itable) Iput(ip *Inode) {
	if !it.log.InOp() {
		db.DFatalf("iput %v outside transaction", ip)
	}
	it.Lock()
	defer it.Unlock()
	if ip.ref < 1 {
		db.DFatalf("iput %v: ref %d", ip, ip.ref)
	}
	ip.ref -= 1
}

func (it *Itable) Ref(ip *Inode) int {
	it.Lock()
	defer it.Unlock()
	return ip.ref
}

func (it *Itable) lookup(dp *Inode, name string) (*Inode, error) {
	switch name {
	case "", ".":
		return dp, nil
	case "..":
		return dp.paren, nil
	}
	ip, ok := dp.ents[name]
	if !ok {
		return nil, serr.NewErr(serr.TErrNotfound, name)
	}
	return ip, nil
}

func (it *Itable) create(dp *Inode, name string) (*Inode, error) {
	if name == "" || name == "." || name == ".." {
		return nil, serr.NewErr(serr.TErrInval, name)
	}
	if _, ok := dp.ents[name]; ok {
		return nil, serr.NewErr(serr.TErrInval, "exists "+name)
	}
	ip := it.mkinode(name, dp)
	dp.ents[name] = ip
	return ip, nil
}
