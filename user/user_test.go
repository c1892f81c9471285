package user_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cfsos/defs"
	"cfsos/isa"
	"cfsos/user"
)

func TestImages(t *testing.T) {
	for name, f := range user.Programs {
		b, err := f()
		assert.Nil(t, err, name)
		assert.True(t, len(b) > 0 && len(b) <= defs.TEXTMAX, name)
		assert.Equal(t, 0, len(b)%isa.INSTSZ, name)
		for _, s := range isa.Disassemble(b) {
			assert.NotContains(t, s, "illegal", name)
		}
	}
}

func TestTooLarge(t *testing.T) {
	pr := user.NewProg()
	for i := 0; i < defs.TEXTMAX/isa.INSTSZ+1; i++ {
		pr.Nop()
	}
	_, err := pr.Image()
	assert.NotNil(t, err)
}

func TestGensym(t *testing.T) {
	pr := user.NewProg()
	assert.NotEqual(t, pr.Gensym("l"), pr.Gensym("l"))
}
