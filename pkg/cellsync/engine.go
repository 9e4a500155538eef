package cellsync

import "github.com/tty-sync/cellsync/pkg/cell"

// Snapshot is the per-commit result (§3.3): an owned diff sequence plus the
// packed bytes produced for it. packed is eagerly copied rather than
// borrowed from the retransmission ring (§9 "borrowed packed cache in
// snapshot" design note picks the safe default), so a Snapshot remains
// valid after further commits evict its ring entry.
type Snapshot struct {
	Generation uint64
	Cols, Rows uint16
	SourceID   uint64
	CursorX    uint16
	CursorY    uint16
	Diffs      []cell.Diff
	IsFull     bool

	packed []byte
}

// Packed returns the packed cell-diff payload for this snapshot.
func (s Snapshot) Packed() []byte { return s.packed }

// Engine is a single node's sync-engine instance (§4.6): it owns a damage
// grid, a peer-ack table, a bounded retransmission log, and a monotonic
// generation counter. An Engine is not safe for concurrent use - one
// instance per node, one node per goroutine (§5).
type Engine struct {
	nodeID     uint64
	grid       DamageGrid
	generation uint64
	ring       logRing
	peers      map[uint64]*PeerState
}

// NewEngine constructs an engine for nodeID, backed by grid.
func NewEngine(nodeID uint64, grid DamageGrid) *Engine {
	return &Engine{
		nodeID: nodeID,
		grid:   grid,
		peers:  make(map[uint64]*PeerState),
	}
}

// NodeID returns this engine's local node identity.
func (e *Engine) NodeID() uint64 { return e.nodeID }

// Generation returns the generation stamped on the most recent commit (0
// before the first commit).
func (e *Engine) Generation() uint64 { return e.generation }

// WriteCell forwards a local write to the damage grid. Non-allocating.
// Out-of-bounds writes are silently ignored (§4.6.2).
func (e *Engine) WriteCell(x, y uint16, c cell.Cell) {
	if x >= e.grid.Cols() || y >= e.grid.Rows() {
		return
	}

	e.grid.SetCell(x, y, c)
}

// Commit advances the generation counter, collects the grid's dirty
// regions, packs the resulting diffs, and inserts the packed bytes into
// the retransmission log (§4.6.3).
func (e *Engine) Commit() (Snapshot, error) {
	e.generation++ // wrapping is tolerated; see PeerState/Ack

	regions := e.grid.Commit()

	total := 0
	for _, r := range regions {
		total += (int(r.MaxX-r.MinX) + 1) * (int(r.MaxY-r.MinY) + 1)
	}

	diffs := make([]cell.Diff, 0, total)

	for _, r := range regions {
		for y := int(r.MinY); y <= int(r.MaxY); y++ {
			for x := int(r.MinX); x <= int(r.MaxX); x++ {
				c, ok := e.grid.GetCell(uint16(x), uint16(y))
				if !ok {
					continue
				}

				diffs = append(diffs, cell.Diff{X: uint16(x), Y: uint16(y), Cell: c})
			}
		}
	}

	packed, err := Pack(diffs)
	if err != nil {
		return Snapshot{}, err
	}

	e.ring.push(e.generation, packed)

	return Snapshot{
		Generation: e.generation,
		Cols:       e.grid.Cols(),
		Rows:       e.grid.Rows(),
		SourceID:   e.nodeID,
		CursorX:    e.grid.CursorX(),
		CursorY:    e.grid.CursorY(),
		Diffs:      diffs,
		packed:     append([]byte(nil), packed...),
	}, nil
}

// ApplyRemote writes every diff in snap into the grid's front and back
// buffers (§4.6.4). Coordinates outside cols x rows are silently dropped;
// applies are idempotent.
func (e *Engine) ApplyRemote(snap Snapshot) {
	for _, d := range snap.Diffs {
		if d.X >= e.grid.Cols() || d.Y >= e.grid.Rows() {
			continue
		}

		e.grid.ApplyCell(d.X, d.Y, d.Cell)
	}
}

// ApplyPacked decodes and applies a packed cell stream directly against
// the grid, without building an intermediate diff slice (§4.6.5).
func (e *Engine) ApplyPacked(data []byte) error {
	return ApplyPacked(data, e.grid)
}

// Ack records that peerID has acknowledged generation gen. acked_gen only
// ever advances; an ack with a smaller or equal generation is a no-op
// (§4.6.6). retransmit_budget is seeded to 3 the first time a peer is
// seen.
func (e *Engine) Ack(peerID, gen uint64) {
	p, ok := e.peers[peerID]
	if !ok {
		p = &PeerState{retransmitBudget: 3}
		e.peers[peerID] = p
	}

	if gen > p.ackedGen {
		p.ackedGen = gen
	}
}

// MarkSent records that generation gen has been transmitted to peerID,
// advancing sent_gen. Used by callers pacing retransmission via
// packed_since against what a peer has already been sent.
func (e *Engine) MarkSent(peerID, gen uint64) {
	p, ok := e.peers[peerID]
	if !ok {
		p = &PeerState{retransmitBudget: 3}
		e.peers[peerID] = p
	}

	if gen > p.sentGen {
		p.sentGen = gen
	}
}

// PeerState returns the current table entry for peerID, if one exists.
func (e *Engine) PeerState(peerID uint64) (PeerState, bool) {
	p, ok := e.peers[peerID]
	if !ok {
		return PeerState{}, false
	}

	return *p, true
}

// PackedSince scans the retransmission log oldest-first and returns the
// packed bytes of the first entry with generation strictly greater than
// gen (§4.6.7, §6.4) - the smallest qualifying generation, not the latest.
func (e *Engine) PackedSince(gen uint64) ([]byte, bool) {
	return e.ring.since(gen)
}

// FullSnapshot emits every cell in row-major order with IsFull set. It
// does not touch the retransmission log or advance the generation counter
// (§4.6.8).
func (e *Engine) FullSnapshot() (Snapshot, error) {
	cols, rows := e.grid.Cols(), e.grid.Rows()
	diffs := make([]cell.Diff, 0, int(cols)*int(rows))

	for y := 0; y < int(rows); y++ {
		for x := 0; x < int(cols); x++ {
			c, _ := e.grid.GetCell(uint16(x), uint16(y))
			diffs = append(diffs, cell.Diff{X: uint16(x), Y: uint16(y), Cell: c})
		}
	}

	packed, err := Pack(diffs)
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		Generation: e.generation,
		Cols:       cols,
		Rows:       rows,
		SourceID:   e.nodeID,
		CursorX:    e.grid.CursorX(),
		CursorY:    e.grid.CursorY(),
		Diffs:      diffs,
		IsFull:     true,
		packed:     packed,
	}, nil
}
