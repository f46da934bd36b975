package channel

import (
	"context"
	"errors"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/proto"
)

// Socket is the websocket-backed Channel. One Socket is shared per
// session; its read loop runs until Close or the context ends.
type Socket struct {
	conn *websocket.Conn
	log  *zerolog.Logger
	reg  *registry

	writeMu sync.Mutex

	closeOnce sync.Once
	done      chan struct{}
}

var _ Channel = (*Socket)(nil)

// Dial connects to the server's event endpoint and starts the read loop.
// The loop stops when ctx is cancelled or the connection closes.
func Dial(ctx context.Context, url string, logger *zerolog.Logger) (*Socket, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	s := &Socket{
		conn: conn,
		log:  logger,
		reg:  newRegistry(),
		done: make(chan struct{}),
	}
	go s.readLoop(ctx)
	return s, nil
}

// Emit marshals payload and writes it as a named frame.
func (s *Socket) Emit(ctx context.Context, event string, payload any) error {
	frame, err := proto.NewFrame(event, payload)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return wsjson.Write(ctx, s.conn, frame)
}

// Subscribe registers the single handler for an event name. The handler
// runs on the read loop goroutine, so deliveries for one event name are
// strictly FIFO.
func (s *Socket) Subscribe(event string, h Handler) (Subscription, error) {
	return s.reg.subscribe(event, h)
}

// Close shuts the connection down and drops all handlers.
func (s *Socket) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.reg.clear()
		err = s.conn.Close(websocket.StatusNormalClosure, "bye")
		<-s.done
	})
	return err
}

// Done is closed once the read loop has exited.
func (s *Socket) Done() <-chan struct{} {
	return s.done
}

func (s *Socket) readLoop(ctx context.Context) {
	defer close(s.done)

	for {
		var frame proto.Frame
		if err := wsjson.Read(ctx, s.conn, &frame); err != nil {
			if status := websocket.CloseStatus(err); status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				return
			}
			if errors.Is(err, context.Canceled) {
				return
			}
			s.log.Warn().Err(err).Msg("ws read loop stopped")
			return
		}

		if !s.reg.dispatch(frame.Event, frame.Data) {
			s.log.Debug().Str("event", frame.Event).Msg("dropped event without handler")
		}
	}
}
