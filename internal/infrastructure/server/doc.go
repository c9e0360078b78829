// Package server wires the FrameLens backend together.
//
// NewServer builds the fetch client, the inspection service, the HTTP API,
// the overlay stream and the metrics endpoint from a config.Config. Run
// serves until Shutdown is called.
//
//	cfg, err := config.Load()
//	srv, err := server.NewServer(cfg)
//	go srv.Run()
//	...
//	srv.Shutdown(ctx)
package server
