package stream_test

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrymomot/streamhub/pkg/logger"
	"github.com/dmitrymomot/streamhub/pkg/relationship"
	"github.com/dmitrymomot/streamhub/pkg/stream"
)

// chanTransport hands every written frame to a channel.
type chanTransport chan stream.Frame

func (c chanTransport) WriteFrame(_ context.Context, f stream.Frame) error {
	c <- f
	return nil
}

func (c chanTransport) Close(error) error { return nil }

func ExampleHub_Publish() {
	ctx := context.Background()

	rels := relationship.NewMemory()
	rels.Follow("carol", "bob")

	hub, err := stream.New(rels, stream.WithLogger(logger.Nop()))
	if err != nil {
		panic(err)
	}
	defer hub.Close(ctx)

	frames := make(chanTransport, 8)
	conn, err := hub.Connect(ctx, "carol", frames)
	if err != nil {
		panic(err)
	}
	_ = conn.Subscribe(ctx, stream.User(), stream.Filter{})
	_ = conn.Subscribe(ctx, stream.Hashtag("golang"), stream.Filter{})

	ev, err := stream.NewStatusEvent(stream.EventStatusCreated, stream.StatusRef{
		ID:         "109",
		AuthorID:   "bob",
		Visibility: stream.VisibilityPublic,
		Tags:       []string{"#GoLang"},
	}, []byte(`{"id":"109"}`))
	if err != nil {
		panic(err)
	}

	// carol matches on both streams but receives the status once, tagged with
	// the first matching stream.
	fmt.Println("deliveries:", hub.Publish(ctx, ev))

	for {
		select {
		case f := <-frames:
			if f.Event == stream.FrameConnected {
				continue
			}
			fmt.Println(f.Event, strings.Join(f.Stream, ":"), string(f.Payload))
			return
		case <-time.After(time.Second):
			fmt.Println("timeout")
			return
		}
	}

	// Output:
	// deliveries: 1
	// update hashtag:golang {"id":"109"}
}

func ExampleParseSelector() {
	sel, mediaOnly, err := stream.ParseSelector("public:local:media", "", "")
	if err != nil {
		panic(err)
	}
	fmt.Println(sel, mediaOnly)

	_, _, err = stream.ParseSelector("hashtag", "", "")
	fmt.Println(err != nil)

	// Output:
	// public:local true
	// true
}
