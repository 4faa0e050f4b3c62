package types

// MaxTopicsPerLog is the number of topics LOG4 can attach.
const MaxTopicsPerLog = 4

// Log is an event emitted by a LOG0..LOG4 instruction.
type Log struct {
	Address     Address
	Topics      []Hash
	Data        []byte
	BlockNumber uint64
	TxHash      Hash
	Index       uint
}

// Copy returns a deep copy of the log so callers can retain it after the
// emitting frame's memory is reused.
func (l *Log) Copy() *Log {
	cpy := &Log{
		Address:     l.Address,
		BlockNumber: l.BlockNumber,
		TxHash:      l.TxHash,
		Index:       l.Index,
	}
	if l.Topics != nil {
		cpy.Topics = append([]Hash(nil), l.Topics...)
	}
	if l.Data != nil {
		cpy.Data = append([]byte(nil), l.Data...)
	}
	return cpy
}
