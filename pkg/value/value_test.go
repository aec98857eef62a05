package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsFalsey(t *testing.T) {
	assert.True(t, Nil.IsFalsey())
	assert.True(t, Bool(false).IsFalsey())
	assert.False(t, Bool(true).IsFalsey())
	assert.False(t, Number(0).IsFalsey())
	assert.False(t, Number(-1).IsFalsey())
	assert.False(t, FromObj(&ObjString{Chars: ""}).IsFalsey())
}

func TestEqualIsStructuralPerVariant(t *testing.T) {
	assert.True(t, Number(1).Equal(Number(1)))
	assert.False(t, Number(1).Equal(Number(2)))
	assert.False(t, Number(0).Equal(Bool(false)))
	assert.True(t, Nil.Equal(Nil))
	assert.True(t, FromObj(&ObjString{Chars: "hi"}).Equal(FromObj(&ObjString{Chars: "hi"})))
	assert.False(t, FromObj(&ObjString{Chars: "hi"}).Equal(FromObj(&ObjString{Chars: "bye"})))
}

func TestDoubleNegationIsNotFalsey(t *testing.T) {
	for _, v := range []Value{Nil, Bool(true), Bool(false), Number(0), Number(42)} {
		notNot := !v.IsFalsey()
		notV := Bool(v.IsFalsey())
		assert.Equal(t, Bool(notNot), Bool(!notV.AsBool()))
	}
}

func TestValueStringFormatsNumbersWithoutTrailingZero(t *testing.T) {
	assert.Equal(t, "7", Number(7).String())
	assert.Equal(t, "3.5", Number(3.5).String())
	assert.Equal(t, "nil", Nil.String())
	assert.Equal(t, "true", Bool(true).String())
}
