package vm

import (
	"github.com/holiman/uint256"
)

// Stack is the operand stack: at most StackLimit 256-bit words, held by
// value.
type Stack struct {
	data []uint256.Int
}

// NewStack returns a new empty stack.
func NewStack() *Stack {
	return &Stack{data: make([]uint256.Int, 0, 16)}
}

// Push pushes a copy of val. It fails with ErrStackOverflow at the limit.
func (st *Stack) Push(val *uint256.Int) error {
	if len(st.data) >= StackLimit {
		return ErrStackOverflow
	}
	st.data = append(st.data, *val)
	return nil
}

// push appends without a bound check; the dispatch loop has already
// verified the operation's arity.
func (st *Stack) push(val *uint256.Int) {
	st.data = append(st.data, *val)
}

// Pop removes and returns the top word. It fails with ErrStackUnderflow on
// an empty stack.
func (st *Stack) Pop() (uint256.Int, error) {
	if len(st.data) == 0 {
		return uint256.Int{}, ErrStackUnderflow
	}
	return st.pop(), nil
}

func (st *Stack) pop() (ret uint256.Int) {
	ret = st.data[len(st.data)-1]
	st.data = st.data[:len(st.data)-1]
	return
}

// Peek returns a pointer to the top word, valid until the next push.
func (st *Stack) Peek() *uint256.Int {
	return &st.data[len(st.data)-1]
}

// Back returns the nth word from the top (0 = top).
func (st *Stack) Back(n int) *uint256.Int {
	return &st.data[len(st.data)-n-1]
}

// Swap exchanges the top word with the nth word below it.
func (st *Stack) Swap(n int) {
	top := len(st.data) - 1
	st.data[top], st.data[top-n] = st.data[top-n], st.data[top]
}

// Dup pushes a copy of the nth word from the top (1 = top).
func (st *Stack) Dup(n int) {
	st.push(&st.data[len(st.data)-n])
}

// Len returns the number of words on the stack.
func (st *Stack) Len() int {
	return len(st.data)
}

// Data returns the stack contents, bottom first.
func (st *Stack) Data() []uint256.Int {
	return st.data
}
