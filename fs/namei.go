package fs

import (
	"path"
	"strings"

	"github.com/hashicorp/golang-lru/v2"

	db "cfsos/debug"
)

const NCACHE = 128

// Dcache caches resolved absolute paths. Directories are never removed,
// so entries never go stale.
type Dcache struct {
	c *lru.Cache[string, *Inode]
}

func newDcache(n int) *Dcache {
	c, err := lru.New[string, *Inode](n)
	if err != nil {
		db.DFatalf("newDcache err %v\n", err)
	}
	return &Dcache{c: c}
}

func (dc *Dcache) lookup(pn string) (*Inode, bool) {
	ip, ok := dc.c.Get(pn)
	if ok {
		db.DPrintf(db.FS, "dcache hit %v %v", pn, ip)
	}
	return ip, ok
}

func (dc *Dcache) insert(pn string, ip *Inode) {
	if evict := dc.c.Add(pn, ip); evict {
		db.DPrintf(db.FS, "dcache eviction")
	}
}

func clean(pn string) string {
	return path.Clean("/" + pn)
}

// walk resolves pn from the root. Caller holds it.
func (fs *Fs) walk(pn string) (*Inode, error) {
	pn = clean(pn)
	if ip, ok := fs.dc.lookup(pn); ok {
		return ip, nil
	}
	ip := fs.it.root
	for _, name := range strings.Split(pn, "/") {
		var err error
		if ip, err = fs.it.lookup(ip, name); err != nil {
			db.DPrintf(db.FS, "namei %v: %v", pn, err)
			return nil, err
		}
	}
	fs.dc.insert(pn, ip)
	return ip, nil
}

// Namei resolves pn to a directory inode with an extra reference.
func (fs *Fs) Namei(pn string) (*Inode, error) {
	fs.it.Lock()
	defer fs.it.Unlock()
	ip, err := fs.walk(pn)
	if err != nil {
		return nil, err
	}
	ip.ref += 1
	return ip, nil
}

// Mkdir creates the directory pn; its parent must exist.
func (fs *Fs) Mkdir(pn string) error {
	fs.it.Lock()
	defer fs.it.Unlock()
	pn = clean(pn)
	dp, err := fs.walk(path.Dir(pn))
	if err != nil {
		return err
	}
	ip, err := fs.it.create(dp, path.Base(pn))
	if err != nil {
		return err
	}
	fs.dc.insert(pn, ip)
	return nil
}
