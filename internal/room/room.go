package room

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/playnowemulator/room-server/internal/engine"
	"github.com/playnowemulator/room-server/internal/session"
	"github.com/playnowemulator/room-server/internal/types"
)

type Msg interface{ isRoomMsg() }

type Join struct {
	ConnID   string
	UserID   string
	Username string
	Outbox   chan types.ServerMessage // where this client receives frames
	Reply    chan error
}

func (Join) isRoomMsg() {}

type Leave struct{ ConnID string }

func (Leave) isRoomMsg() {}

type FromClient struct {
	ConnID  string
	Type    string
	Payload json.RawMessage
}

func (FromClient) isRoomMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isRoomMsg() {}

type Shutdown struct{}

func (Shutdown) isRoomMsg() {}

// View reflects internal state without data races; used by tests and
// the stats path.
type View struct {
	NumClients int
	Snapshot   session.Snapshot
}

// Hooks let the registry observe a room without sharing its state.
// Both are called from the room goroutine and must not block for long.
type Hooks struct {
	// Notify fires after every membership or status change.
	Notify func(session.Summary)
	// OnEmpty fires once when the room has drained and should be
	// removed from the registry.
	OnEmpty func(roomID string)
}

// Room owns one Session and serializes every mutation through a single
// goroutine, so host-uniqueness and capacity hold under concurrent
// join/leave/relay traffic.
type Room struct {
	ID string

	inbox   chan Msg
	sess    *session.Session
	clients map[string]chan types.ServerMessage
	hooks   Hooks
	grace   time.Duration // how long an empty room lingers before disposal
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func New(parent context.Context, id string, opts session.Options, grace time.Duration, hooks Hooks, log *zap.Logger) *Room {
	ctx, cancel := context.WithCancel(parent)

	r := &Room{
		ID:      id,
		inbox:   make(chan Msg, 64),
		sess:    session.New(id, opts),
		clients: make(map[string]chan types.ServerMessage),
		hooks:   hooks,
		grace:   grace,
		log:     log.With(zap.String("room", id)),
		ctx:     ctx,
		cancel:  cancel,
	}

	go r.loop()
	return r
}

func (r *Room) Inbox() chan<- Msg { return r.inbox }

// Send delivers a message unless the room has already shut down.
func (r *Room) Send(m Msg) bool {
	select {
	case r.inbox <- m:
		return true
	case <-r.ctx.Done():
		return false
	}
}

// idleTimeout bounds how long a created room may sit with no joiner
// at all before it is reclaimed.
const idleTimeout = time.Hour

func (r *Room) loop() {
	// Announce the fresh room so it shows up in discovery before the
	// first join.
	r.notify()

	// Armed when the room empties and a grace period is configured.
	var graceTimer *time.Timer
	var graceC <-chan time.Time

	disarm := func() {
		if graceTimer != nil {
			graceTimer.Stop()
			graceTimer = nil
			graceC = nil
		}
	}

	// checkEmpty runs after anything that can shrink membership;
	// reports whether the room disposed itself.
	checkEmpty := func() bool {
		if r.sess.Len() > 0 {
			return false
		}
		if r.grace <= 0 {
			r.dispose()
			return true
		}
		disarm()
		graceTimer = time.NewTimer(r.grace)
		graceC = graceTimer.C
		return false
	}

	idle := time.NewTimer(idleTimeout)
	defer idle.Stop()

	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case <-idle.C:
			if r.sess.Len() == 0 {
				r.dispose()
				return
			}

		case <-graceC:
			disarm()
			if r.sess.Len() == 0 {
				r.dispose()
				return
			}

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Join:
				effects, err := engine.Join(r.sess, msg.ConnID, msg.UserID, msg.Username)
				if err != nil {
					msg.Reply <- err
					break
				}
				r.clients[msg.ConnID] = msg.Outbox
				msg.Reply <- nil
				disarm()
				idle.Stop()
				r.deliver(effects)
				r.notify()
				if checkEmpty() {
					return
				}

			case Leave:
				if !r.removeMember(msg.ConnID) {
					break
				}
				if checkEmpty() {
					return
				}

			case FromClient:
				effects, err := engine.Apply(r.sess, msg.ConnID, msg.Type, msg.Payload)
				if err != nil {
					// In-room violations never disturb the rest of the
					// room; drop and keep serving.
					r.log.Debug("dropped message",
						zap.String("conn", msg.ConnID),
						zap.String("type", msg.Type),
						zap.Error(err))
					break
				}
				r.deliver(effects)
				if msg.Type == engine.TypeStartGame {
					r.notify()
				}
				if checkEmpty() {
					return
				}

			case GetState:
				msg.Reply <- View{NumClients: len(r.clients), Snapshot: r.sess.Snapshot()}

			case Shutdown:
				r.shutdown()
				return
			}
		}
	}
}

// removeMember runs leave semantics for one connection and reports
// whether a member was actually removed.
func (r *Room) removeMember(connID string) bool {
	if ch, ok := r.clients[connID]; ok {
		close(ch)
		delete(r.clients, connID)
	}
	effects, err := engine.Leave(r.sess, connID)
	if err != nil {
		return false
	}
	r.deliver(effects)
	r.notify()
	return true
}

// deliver fans effects out to member outboxes. Sends never block: a
// client whose outbox is full is dropped, which counts as a leave and
// may queue further effects (player-left, host-changed).
func (r *Room) deliver(effects []engine.Effect) {
	for len(effects) > 0 {
		e := effects[0]
		effects = effects[1:]

		frame := types.ServerMessage{Type: e.Type, Payload: e.Payload}

		var dead []string
		if e.To != "" {
			if ch, ok := r.clients[e.To]; ok && !trySend(ch, frame) {
				dead = append(dead, e.To)
			}
		} else {
			for id, ch := range r.clients {
				if id == e.Exclude {
					continue
				}
				if !trySend(ch, frame) {
					dead = append(dead, id)
				}
			}
		}

		for _, id := range dead {
			r.log.Warn("dropping slow client", zap.String("conn", id))
			if ch, ok := r.clients[id]; ok {
				close(ch)
				delete(r.clients, id)
			}
			if more, err := engine.Leave(r.sess, id); err == nil {
				effects = append(effects, more...)
			}
		}
		if len(dead) > 0 {
			r.notify()
		}
	}
}

func trySend(ch chan types.ServerMessage, frame types.ServerMessage) bool {
	select {
	case ch <- frame:
		return true
	default:
		return false
	}
}

func (r *Room) notify() {
	if r.hooks.Notify != nil {
		r.hooks.Notify(r.sess.Summary())
	}
}

// dispose runs when membership reached zero and any grace period has
// passed: the session is over for good, tell the registry and stop.
func (r *Room) dispose() {
	r.sess.Status = session.StatusFinished
	r.log.Info("room drained, disposing")
	if r.hooks.OnEmpty != nil {
		r.hooks.OnEmpty(r.ID)
	}
	r.shutdown()
}

func (r *Room) shutdown() {
	for id, ch := range r.clients {
		close(ch)
		delete(r.clients, id)
	}
	r.cancel()
}
