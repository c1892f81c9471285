// Package fs is the storage collaborator of the kernel: reference
// counted directory inodes, path lookup, transactions, and open files.
package fs

type Fs struct {
	log *Log
	it  *Itable
	dc  *Dcache
	ft  *Ftable
}

func NewFs() *Fs {
	fs := &Fs{log: &Log{}, ft: &Ftable{}, dc: newDcache(NCACHE)}
	fs.it = newItable(fs.log)
	return fs
}

func (fs *Fs) BeginOp() {
	fs.log.BeginOp()
}

func (fs *Fs) EndOp() {
	fs.log.EndOp()
}

func (fs *Fs) Idup(ip *Inode) *Inode {
	return fs.it.Idup(ip)
}

func (fs *Fs) Iput(ip *Inode) {
	fs.it.Iput(ip)
}

func (fs *Fs) Ref(ip *Inode) int {
	return fs.it.Ref(ip)
}

func (fs *Fs) Ncommit() uint64 {
	return fs.log.Ncommit()
}
