// Package radio implements a range-gated broadcast primitive for agents.
package radio

import (
	"math"
	"math/rand/v2"
	"slices"
)

// Config is the construction record of a Radio.
type Config struct {
	TransmitRange float64
	ReceiveRange  float64
	Disabled      bool
	Seed          uint64
}

// Radio broadcasts one message and receives the messages of peers in range.
// A message is received when the distance is within both the receiver's
// range and the sender's transmit range.
type Radio struct {
	cfg Config

	x, y          float64
	enabled       bool
	transmitRange float64
	receiveRange  float64
	message       []float64
	received      [][]float64
	peers         []*Radio
	rng           *rand.Rand
}

// New creates a radio at (x, y).
func New(x, y float64, cfg Config) *Radio {
	r := &Radio{cfg: cfg, x: x, y: y}
	r.Reset()
	return r
}

// Connect makes every radio a peer of every other.
func Connect(radios ...*Radio) {
	for _, r := range radios {
		for _, p := range radios {
			if p != r {
				r.AddPeer(p)
			}
		}
	}
}

// AddPeer adds a radio this one listens to.
func (r *Radio) AddPeer(p *Radio) { r.peers = append(r.peers, p) }

// Peers returns the peers in their current order.
func (r *Radio) Peers() []*Radio { return r.peers }

// SetPosition moves the radio. Owners call it from their pose hook.
func (r *Radio) SetPosition(x, y float64) { r.x, r.y = x, y }

// Position returns the radio's location.
func (r *Radio) Position() (x, y float64) { return r.x, r.y }

// SetMessage sets the outgoing message. nil means nothing is sent.
func (r *Radio) SetMessage(m []float64) { r.message = slices.Clone(m) }

// Message returns the outgoing message.
func (r *Radio) Message() []float64 { return r.message }

// Enabled reports whether the radio transmits and receives.
func (r *Radio) Enabled() bool { return r.enabled }

// SetEnabled switches the radio on or off.
func (r *Radio) SetEnabled(on bool) { r.enabled = on }

// SetRanges changes the transmit and receive ranges.
func (r *Radio) SetRanges(transmit, receive float64) {
	r.transmitRange, r.receiveRange = transmit, receive
}

// Receive collects the messages of reachable peers in random order and
// returns them.
func (r *Radio) Receive() [][]float64 {
	r.received = r.received[:0]
	if !r.enabled {
		return r.received
	}
	r.rng.Shuffle(len(r.peers), func(i, j int) {
		r.peers[i], r.peers[j] = r.peers[j], r.peers[i]
	})
	for _, p := range r.peers {
		if !p.enabled || p.message == nil {
			continue
		}
		d := math.Hypot(r.x-p.x, r.y-p.y)
		if d <= r.receiveRange && d <= p.transmitRange {
			r.received = append(r.received, p.message)
		}
	}
	return r.received
}

// Received returns the messages collected by the last Receive.
func (r *Radio) Received() [][]float64 { return r.received }

// Reset restores the message, ranges and enabled flag and reseeds the
// shuffle. Peers are kept.
func (r *Radio) Reset() {
	r.enabled = !r.cfg.Disabled
	r.transmitRange = r.cfg.TransmitRange
	r.receiveRange = r.cfg.ReceiveRange
	r.message = nil
	r.received = nil
	r.rng = rand.New(rand.NewPCG(r.cfg.Seed, r.cfg.Seed+1))
}
