package cellsync

// PeerState is one row of the peer-state table (§3.5): the local engine's
// view of what a remote source_id has acknowledged. acked_gen is monotone
// non-decreasing; an ack carrying a smaller generation is ignored.
type PeerState struct {
	ackedGen         uint64
	sentGen          uint64
	retransmitBudget int
}

// AckedGen is the highest generation this peer has acknowledged.
func (p PeerState) AckedGen() uint64 { return p.ackedGen }

// SentGen is the highest generation this engine has sent to this peer.
func (p PeerState) SentGen() uint64 { return p.sentGen }

// RetransmitBudget is the remaining retransmission allowance for this
// peer, initialized to 3 on first sight (§4.6.6).
func (p PeerState) RetransmitBudget() int { return p.retransmitBudget }
