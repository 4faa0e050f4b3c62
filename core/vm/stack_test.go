package vm

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"
)

func TestStackPushPop(t *testing.T) {
	st := NewStack()
	if _, err := st.Pop(); !errors.Is(err, ErrStackUnderflow) {
		t.Fatalf("pop on empty stack: %v", err)
	}
	for i := uint64(1); i <= 3; i++ {
		if err := st.Push(uint256.NewInt(i)); err != nil {
			t.Fatal(err)
		}
	}
	if st.Len() != 3 || st.Peek().Uint64() != 3 || st.Back(2).Uint64() != 1 {
		t.Fatalf("stack = %v", st.Data())
	}
	v, err := st.Pop()
	if err != nil || v.Uint64() != 3 || st.Len() != 2 {
		t.Fatalf("pop = %v, %v", v, err)
	}
}

func TestStackLimit(t *testing.T) {
	st := NewStack()
	one := uint256.NewInt(1)
	for i := 0; i < StackLimit; i++ {
		if err := st.Push(one); err != nil {
			t.Fatalf("push %d: %v", i, err)
		}
	}
	if err := st.Push(one); !errors.Is(err, ErrStackOverflow) {
		t.Fatalf("push beyond limit: %v", err)
	}
	if st.Len() != StackLimit {
		t.Fatalf("len = %d", st.Len())
	}
}

func TestStackPushCopies(t *testing.T) {
	st := NewStack()
	v := uint256.NewInt(7)
	st.Push(v)
	v.SetUint64(8)
	if st.Peek().Uint64() != 7 {
		t.Fatal("stack aliases the pushed word")
	}
}

func TestStackDupSwap(t *testing.T) {
	st := NewStack()
	for i := uint64(1); i <= 4; i++ {
		st.push(uint256.NewInt(i))
	}
	st.Dup(4) // copies the bottom word
	if st.Len() != 5 || st.Peek().Uint64() != 1 {
		t.Fatalf("after DUP4: %v", st.Data())
	}
	st.Swap(4) // top <-> bottom
	if st.Peek().Uint64() != 1 || st.Back(4).Uint64() != 1 {
		t.Fatalf("after SWAP4: %v", st.Data())
	}
	st.Swap(1)
	if st.Peek().Uint64() != 4 || st.Back(1).Uint64() != 1 {
		t.Fatalf("after SWAP1: %v", st.Data())
	}
}
