// Package redisbus feeds domain events from Redis pub/sub into the streaming hub.
//
// Producers publish JSON envelopes to a single channel ("streaming:events" by
// default):
//
//	{"kind":"status.created",
//	 "status":{"id":"1","author_id":"7","visibility":"public","local":true,"tags":["go"]},
//	 "payload":{...}}
//
// The Subscriber decodes every message through the stream event constructors
// and calls Hub.Publish. Malformed envelopes are logged and skipped.
//
//	client, err := redisbus.Connect(ctx, cfg)
//	sub := redisbus.NewSubscriber(client, hub, redisbus.WithChannel(cfg.Channel))
//	go sub.Run(ctx)
package redisbus
