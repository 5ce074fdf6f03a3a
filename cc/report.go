package cc

import (
	"fmt"
	"io"
	"sort"
)

// WriteTopology renders one line per configured node to w, in the exact
// format of spec.md §6: hex(addr) x y hex(parent_addr) reqs replies heals
// tx_power. A node the Tracker never heard from (never joined) is still
// listed, with zeroed counters and no parent.
func WriteTopology(w io.Writer, d *Driver) error {
	addrs := make([]Address, 0, len(d.nodes))
	for addr := range d.nodes {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })

	records := make(map[Address]*NodeRecord)
	for _, n := range d.tracker.Nodes() {
		records[n.Address] = n
	}

	for _, addr := range addrs {
		ne := d.nodes[addr]
		n, tracked := records[addr]
		var parent Address
		var reqs, replies, heals int
		txPower := MinTxPowerDBm
		if tracked {
			parent = n.Parent
			reqs = n.NumReqReceived
			replies = n.NumReplyDelivered
			heals = n.NumSelfHealing
			txPower = n.TxPowerDBm
		}
		if _, err := fmt.Fprintf(w, "0x%04x %.2f %.2f 0x%04x %d %d %d %.1f\n",
			uint16(addr), ne.pos.X, ne.pos.Y, uint16(parent), reqs, replies, heals, txPower); err != nil {
			return err
		}
	}
	return nil
}

// WriteSummary writes the join-completion line and collision histogram to
// w in the exact format of spec.md §6.
func WriteSummary(w io.Writer, d *Driver) error {
	if t, ok := d.tracker.JoinCompletionTime(); ok {
		if _, err := fmt.Fprintf(w, "Join Completion at %.1f seconds\n", float64(t)); err != nil {
			return err
		}
	} else {
		if _, err := fmt.Fprintln(w, "Join Completion not reached"); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "Total number of collisions: %d\n", d.tracker.TotalCollisions()); err != nil {
		return err
	}

	byHop := d.tracker.CollisionsByHop()
	hops := make([]int, 0, len(byHop))
	for h := range byHop {
		hops = append(hops, h)
	}
	sort.Ints(hops)
	for _, h := range hops {
		if _, err := fmt.Fprintf(w, "At %d hops left: %d\n", h, byHop[h]); err != nil {
			return err
		}
	}
	return nil
}
