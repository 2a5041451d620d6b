// Package network builds the time-space network that anchors the aircraft
// flow-balance rows of the fleet assignment models.
package network

import (
	"fleet-planning-service/internal/domain"
	"sort"
)

// Flow signs used in the balance equation.
const (
	Arrive = +1
	Depart = -1
)

// Event is one flight touching a node. Sign is Arrive when the flight ends
// at the node's station and Depart when it starts there.
type Event struct {
	Flight int
	Sign   int
}

// Node groups consecutive events at a station that share one balance row.
// IDs are 1-based and contiguous per station.
type Node struct {
	ID      int
	Station string
	Time    int
	Events  []Event
}

// Span is the first and last node ID of a station.
type Span struct {
	First int
	Last  int
}

// Single reports a station whose events all fall in one node. Such a
// station has neither ground arcs nor an overnight term.
func (s Span) Single() bool { return s.First == s.Last }

type Network struct {
	nodes    []Node
	stations []string
	spans    map[string]Span
}

// Nodes returns the node table; Nodes()[i].ID == i+1.
func (n *Network) Nodes() []Node { return n.nodes }

// Node returns the node with the given 1-based ID.
func (n *Network) Node(id int) Node { return n.nodes[id-1] }

// Stations returns the stations in node order.
func (n *Network) Stations() []string { return n.stations }

func (n *Network) Span(station string) (Span, bool) {
	s, ok := n.spans[station]
	return s, ok
}

type stagedEvent struct {
	flight  int
	sign    int
	stagger int
	arrival int
}

// Build partitions each station's flight events into timeline nodes.
//
// Events are ordered by stagger time: the departure time for departures,
// and the arrival time plus turnaround for arrivals, since an arriving
// aircraft cannot fly again before it is turned. Ties fall back to the
// flight's arrival time, then arrivals first, then flight number. A node
// closes whenever a departure is immediately followed by an arrival, and
// at the end of the sequence.
func Build(flights []domain.Flight, turnaround int) *Network {
	byStation := make(map[string][]stagedEvent)
	for _, f := range flights {
		byStation[f.Origin] = append(byStation[f.Origin], stagedEvent{
			flight: f.Number, sign: Depart, stagger: f.Departure, arrival: f.Arrival,
		})
		byStation[f.Destination] = append(byStation[f.Destination], stagedEvent{
			flight: f.Number, sign: Arrive, stagger: f.Arrival + turnaround, arrival: f.Arrival,
		})
	}

	net := &Network{
		stations: domain.Stations(flights),
		spans:    make(map[string]Span, len(byStation)),
	}

	for _, station := range net.stations {
		events := byStation[station]
		sort.SliceStable(events, func(i, j int) bool {
			a, b := events[i], events[j]
			if a.stagger != b.stagger {
				return a.stagger < b.stagger
			}
			if a.arrival != b.arrival {
				return a.arrival < b.arrival
			}
			if a.sign != b.sign {
				return a.sign > b.sign
			}
			return a.flight < b.flight
		})

		first := len(net.nodes) + 1
		var cur []Event
		curTime := 0
		for i, ev := range events {
			if len(cur) == 0 {
				curTime = ev.stagger
			}
			cur = append(cur, Event{Flight: ev.flight, Sign: ev.sign})

			turn := ev.sign == Depart && i+1 < len(events) && events[i+1].sign == Arrive
			if turn || i == len(events)-1 {
				net.nodes = append(net.nodes, Node{
					ID:      len(net.nodes) + 1,
					Station: station,
					Time:    curTime,
					Events:  cur,
				})
				cur = nil
			}
		}
		net.spans[station] = Span{First: first, Last: len(net.nodes)}
	}

	return net
}

// ArcKey identifies a ground arc between adjacent nodes of one station for
// one fleet.
type ArcKey struct {
	From  int
	To    int
	Fleet string
}

// GroundArcs enumerates the idle-aircraft arcs for every fleet at every
// station with at least two nodes, in station then fleet order.
func (n *Network) GroundArcs(fleets []string) []ArcKey {
	var arcs []ArcKey
	for _, station := range n.stations {
		span := n.spans[station]
		if span.Single() {
			continue
		}
		for _, fleet := range fleets {
			for i := span.First; i < span.Last; i++ {
				arcs = append(arcs, ArcKey{From: i, To: i + 1, Fleet: fleet})
			}
		}
	}
	return arcs
}
