// Package stream is the real-time fan-out core of the streaming server.
//
// Clients open a Connection through Hub.Connect, passing a Transport that knows how
// to write frames (WebSocket, server-sent events). They then subscribe to streams
// identified by a Selector: the public timelines, a hashtag, a list, their home
// timeline, notifications or direct messages. Every subscription carries a Filter
// with the client's language and media preferences.
//
// Producers call Hub.Publish with an Event. The Router computes the candidate index
// keys of the event, evaluates Matches for every subscriber using relationship data
// from a RelationshipSource, and offers the event to each matching connection's
// bounded delivery channel without blocking.
//
// # Usage
//
//	hub, err := stream.New(relationships, stream.WithConfig(cfg), stream.WithLogger(log))
//	if err != nil {
//	    return err
//	}
//	defer hub.Close(context.Background())
//
//	conn, err := hub.Connect(ctx, accountID, transport)
//	if err != nil {
//	    return err
//	}
//	if err := conn.Subscribe(ctx, stream.Hashtag("golang"), stream.Filter{}); err != nil {
//	    return err
//	}
//
//	ev, _ := stream.NewStatusEvent(stream.EventStatusCreated, status, payload)
//	hub.Publish(ctx, ev)
//
// Transports feed client commands back with Connection.Handle, which accepts the
// parsed result of ParseCommand:
//
//	cmd, err := stream.ParseCommand(msg)
//	if err != nil {
//	    conn.SendError(err)
//	    continue
//	}
//	if err := conn.Handle(ctx, cmd); err != nil {
//	    conn.SendError(err)
//	}
//
// # Streams
//
// Stream names follow the public streaming API: "public", "public:local",
// "public:media", "public:local:media", "user", "user:notification", "direct",
// "hashtag:<tag>" and "list:<id>". ParseSelector accepts them together with the
// "local" and "notifications" aliases. Subscribing twice to the same stream
// replaces the earlier Filter. A status that matches several streams of one
// connection is delivered once, tagged with the first matching stream.
//
// List streams are private to their owner. Hub.Authorize runs that check so that
// transports can reject a foreign list before they commit a response.
//
// # Filtering
//
// Matches is pure. It combines status visibility with the subscriber's
// Relationship to the author (blocks and mutes always exclude), the stream rules
// (tag, list membership, mentions) and the subscription Filter. Keyword filters
// installed through FiltersChanged events hide matching statuses in the contexts
// they name. Whenever a relationship lookup fails the subscriber is skipped.
//
// # Backpressure
//
// Every connection owns a bounded delivery channel of Config.QueueSize entries.
// Publish never waits: a full channel drops the delivery for that connection
// alone and counts it. Drops are metered by a budget of Config.DropThreshold that
// refills continuously over Config.DropWindow; a connection that exhausts it is
// closed with ErrSlowConsumer.
//
// # Lifecycle
//
// Each connection has a single writer goroutine that drains its channel into the
// transport. Transports implementing Pinger are pinged every
// Config.HeartbeatInterval. Only deliveries and client heartbeats
// (Connection.Heartbeat, the ping command) count as activity; a connection
// without either for Config.IdleTimeout is closed with ErrIdleTimeout.
//
// The writer moves through the Open, Draining and Closed states exactly once.
// Teardown unregisters the connection and all its subscriptions in one step, so a
// concurrent Publish either sees the whole connection or none of it. Hub.Close
// tears down every connection with ErrShutdown.
//
// # Observability
//
// Hub.Stats reports connections, subscriptions per stream kind, counters and the
// drop count of every lagging connection. A Metrics implementation passed with
// WithMetrics receives the same events as they happen.
package stream
