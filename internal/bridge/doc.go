// Package bridge implements a development companion bridge.
//
// A real bridge runs on the phone and forwards settings to the watch over
// its own link. This one accepts payload frames over WebSocket, decodes
// them, hands them to a Handler (the CLI prints them) and replies with a
// transport.Ack. It can advertise itself over mDNS so that `scan` and
// `configure --bridge auto` find it.
//
// # Frames
//
// Binary frames are decoded as CBOR, text frames as JSON. Each frame gets
// exactly one text acknowledgement:
//
//	{"status":"ok","entries":4}
//	{"status":"error","message":"failed to decode CBOR payload: ..."}
//
// # Usage Example
//
//	srv := bridge.New(&bridge.Config{Port: 8765, Advertise: true, Name: "desk"},
//	    func(remote string, p *payload.Payload) error {
//	        fmt.Print(p.FormatDetailed())
//	        return nil
//	    })
//	if err := srv.Start(); err != nil {
//	    return err
//	}
//
// Start blocks until SIGINT or SIGTERM and then shuts down gracefully.
package bridge
