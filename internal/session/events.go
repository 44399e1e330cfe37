package session

import "github.com/nkravets/avsig/internal/protocol"

// EventID identifies a decoded inbound message to session and endpoint logic.
type EventID uint8

// sessionEvent marks events routed to the session handler rather than to a
// stream endpoint.
const sessionEvent EventID = 0x80

// Endpoint-routed events.
const (
	EvtSetConfigCmd EventID = iota + 1
	EvtSetConfigRsp
	EvtSetConfigRej
	EvtGetConfigCmd
	EvtGetConfigRsp
	EvtReconfigCmd
	EvtReconfigRsp
	EvtOpenCmd
	EvtOpenRsp
	EvtOpenRej
	EvtCloseCmd
	EvtCloseRsp
	EvtAbortCmd
	EvtAbortRsp
	EvtSecurityCmd
	EvtSecurityRsp
	EvtDelayReportCmd
	EvtDelayReportRsp
)

// Session-routed events: connection, discovery and capability-query traffic.
const (
	EvtDiscoverCmd EventID = sessionEvent | (iota + 1)
	EvtDiscoverRsp
	EvtGetCapCmd
	EvtGetCapRsp
	EvtStartCmd
	EvtStartRsp
	EvtSuspendCmd
	EvtSuspendRsp
)

// IsSessionEvent reports whether evt is routed to the session handler.
func (e EventID) IsSessionEvent() bool {
	return e&sessionEvent != 0
}

// Command message-to-event table, indexed by SignalID-1.
var cmdEvents = [protocol.SigMax]EventID{
	EvtDiscoverCmd,    // discover
	EvtGetCapCmd,      // get capabilities
	EvtSetConfigCmd,   // set configuration
	EvtGetConfigCmd,   // get configuration
	EvtReconfigCmd,    // reconfigure
	EvtOpenCmd,        // open
	EvtStartCmd,       // start
	EvtCloseCmd,       // close
	EvtSuspendCmd,     // suspend
	EvtAbortCmd,       // abort
	EvtSecurityCmd,    // security control
	EvtGetCapCmd,      // get all capabilities
	EvtDelayReportCmd, // delay report
}

// Response message-to-event table, indexed by SignalID-1.
var rspEvents = [protocol.SigMax]EventID{
	EvtDiscoverRsp,    // discover
	EvtGetCapRsp,      // get capabilities
	EvtSetConfigRsp,   // set configuration
	EvtGetConfigRsp,   // get configuration
	EvtReconfigRsp,    // reconfigure
	EvtOpenRsp,        // open
	EvtStartRsp,       // start
	EvtCloseRsp,       // close
	EvtSuspendRsp,     // suspend
	EvtAbortRsp,       // abort
	EvtSecurityRsp,    // security control
	EvtGetCapRsp,      // get all capabilities
	EvtDelayReportRsp, // delay report
}

// Reject message-to-event table, indexed by SignalID-1. A zero entry means
// the reject resolves the command without raising an event.
var rejEvents = [protocol.SigMax]EventID{
	EvtDiscoverRsp,  // discover
	EvtGetCapRsp,    // get capabilities
	EvtSetConfigRej, // set configuration
	EvtGetConfigRsp, // get configuration
	EvtReconfigRsp,  // reconfigure
	EvtOpenRej,      // open
	EvtStartRsp,     // start
	EvtCloseRsp,     // close
	EvtSuspendRsp,   // suspend
	EvtAbortRsp,     // abort
	EvtSecurityRsp,  // security control
	EvtGetCapRsp,    // get all capabilities
	0,               // delay report
}
