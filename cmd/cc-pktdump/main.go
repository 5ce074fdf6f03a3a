// Command cc-pktdump decodes a single hex-encoded Cottoncandy frame given
// as its one argument and prints its fields.
package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/CottonCandy-UofT/cottoncandy-sim/cc"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: cc-pktdump <hex-bytes>")
		os.Exit(1)
	}

	raw, err := hex.DecodeString(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, "cc-pktdump:", err)
		os.Exit(1)
	}

	frame, err := cc.DeserializeFrame(raw)
	if err != nil {
		fmt.Fprintln(os.Stderr, "cc-pktdump:", err)
		os.Exit(1)
	}

	fmt.Printf("type=%d src=0x%04x dst=0x%04x\n", frame.Header.Type, uint16(frame.Header.Src), uint16(frame.Header.Dst))
	switch {
	case frame.JoinAck != nil:
		fmt.Printf("  join_ack hops=%d num_children=%d rssi=%d\n", frame.JoinAck.Hops, frame.JoinAck.NumChildren, frame.JoinAck.RSSI())
	case frame.SeekJoin != nil:
		fmt.Printf("  seek_join private_channel=%d parent_channel=%d num_children=%d max_backoff=%d next_accept_join_s=%d\n",
			frame.SeekJoin.PrivateChannel, frame.SeekJoin.ParentChannel, frame.SeekJoin.NumChildren, frame.SeekJoin.MaxBackoff, frame.SeekJoin.NextAcceptJoinS)
	case frame.GatewayReq != nil:
		fmt.Printf("  gateway_req option=0x%02x channel=%d next_req_time_s=%d max_backoff=%d\n",
			frame.GatewayReq.Option, frame.GatewayReq.Channel, frame.GatewayReq.NextReqTimeS, frame.GatewayReq.MaxBackoff)
	case frame.NodeReply != nil:
		fmt.Printf("  node_reply option=0x%02x data_len=%d\n", frame.NodeReply.Option, frame.NodeReply.DataLen)
		if frame.NodeReply.Option&cc.NodeReplyAggregated != 0 {
			minis, err := cc.DecodeMiniReplies(frame.NodeReplyPayload)
			if err != nil {
				fmt.Fprintln(os.Stderr, "cc-pktdump:", err)
				os.Exit(1)
			}
			for _, mr := range minis {
				fmt.Printf("    mini src=0x%04x data=%s\n", uint16(mr.Src), hex.EncodeToString(mr.Data))
			}
		}
	}
}
