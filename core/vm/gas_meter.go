package vm

// GasMeter tracks the gas left to a frame. It never goes negative: a
// charge that cannot be paid in full leaves the meter untouched and fails.
type GasMeter struct {
	remaining uint64
}

// NewGasMeter returns a meter holding limit gas.
func NewGasMeter(limit uint64) GasMeter {
	return GasMeter{remaining: limit}
}

// Spend deducts n, or returns ErrOutOfGas without deducting anything.
func (g *GasMeter) Spend(n uint64) error {
	if g.remaining < n {
		return ErrOutOfGas
	}
	g.remaining -= n
	return nil
}

// Remaining returns the unspent gas.
func (g *GasMeter) Remaining() uint64 { return g.remaining }

// Return credits gas handed back by a finished sub-call.
func (g *GasMeter) Return(n uint64) { g.remaining += n }

// Exhaust forfeits everything that is left.
func (g *GasMeter) Exhaust() { g.remaining = 0 }
