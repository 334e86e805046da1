// Package server is the HTTP surface of the streaming hub.
//
// Clients connect either with a WebSocket to /api/v1/streaming and send
// subscribe/unsubscribe commands:
//
//	{"type":"subscribe","stream":"hashtag","tag":"golang"}
//
// or open one server-sent events stream per selector, e.g.
// /api/v1/streaming/public/local or /api/v1/streaming/hashtag?tag=golang.
// Every request needs an access token with the scope the selector requires.
//
//	h := server.NewHandler(hub, verifier, cfg, server.WithMetricsHandler(m.Handler()))
//	srv := server.New(cfg, server.WithShutdownHook(hub.Close))
//	err := srv.Run(ctx, h.Routes())
package server
