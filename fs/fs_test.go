package fs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cfsos/fs"
	"cfsos/serr"
)

func TestNamei(t *testing.T) {
	fsys := fs.NewFs()
	root, err := fsys.Namei("/")
	assert.Nil(t, err)
	assert.Equal(t, fs.RootInum, root.Inum)
	assert.Equal(t, 2, fsys.Ref(root))

	assert.Nil(t, fsys.Mkdir("/a"))
	assert.Nil(t, fsys.Mkdir("/a/b"))
	ip, err := fsys.Namei("/a/b/../b")
	assert.Nil(t, err)
	ip1, err := fsys.Namei("a/b")
	assert.Nil(t, err)
	assert.Equal(t, ip, ip1)
	assert.Equal(t, 2, fsys.Ref(ip))

	_, err = fsys.Namei("/x")
	assert.True(t, serr.IsErrCode(err, serr.TErrNotfound))
	err = fsys.Mkdir("/x/y")
	assert.True(t, serr.IsErrCode(err, serr.TErrNotfound))
	err = fsys.Mkdir("/a")
	assert.True(t, serr.IsErrCode(err, serr.TErrInval))
}

func TestIput(t *testing.T) {
	fsys := fs.NewFs()
	ip, err := fsys.Namei("/")
	assert.Nil(t, err)
	fsys.Idup(ip)
	assert.Equal(t, 3, fsys.Ref(ip))
	n := fsys.Ncommit()
	fsys.BeginOp()
	fsys.Iput(ip)
	fsys.Iput(ip)
	fsys.EndOp()
	assert.Equal(t, 1, fsys.Ref(ip))
	assert.Equal(t, n+1, fsys.Ncommit())
}

func TestFiles(t *testing.T) {
	fsys := fs.NewFs()
	cons := fs.NewConsole()
	f := fsys.Filealloc(cons)
	assert.Equal(t, 1, fsys.Nfile())
	fsys.Filedup(f)
	assert.Equal(t, 2, f.Ref())

	n, err := fsys.Filewrite(f, 3, []byte{1, 0, 0, 0, 0, 0, 0, 0})
	assert.Nil(t, err)
	assert.Equal(t, 8, n)
	_, err = fsys.Filewrite(f, 4, []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff})
	assert.Nil(t, err)
	assert.Equal(t, []int64{1}, cons.Ints(3))
	assert.Equal(t, []int64{1, -1}, cons.AllInts())

	fsys.Fileclose(f)
	assert.Equal(t, 1, fsys.Nfile())
	fsys.Fileclose(f)
	assert.Equal(t, 0, fsys.Nfile())
	assert.Equal(t, fs.FD_NONE, f.Type)
	_, err = fsys.Filewrite(f, 3, []byte{0})
	assert.True(t, serr.IsErrCode(err, serr.TErrBadfd))
}
