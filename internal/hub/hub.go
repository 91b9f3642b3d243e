package hub

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/playnowemulator/room-server/internal/directory"
	"github.com/playnowemulator/room-server/internal/room"
	"github.com/playnowemulator/room-server/internal/session"
)

type HubMsg interface{ isHubMsg() }

type CreateRoom struct {
	Opts  session.Options
	Reply chan *room.Room
}

type GetRoom struct {
	ID    string
	Reply chan *room.Room
}

type RemoveRoom struct{ ID string }

type ListRooms struct {
	Reply chan []session.Summary
}

type updateSummary struct{ summary session.Summary }

type ShutdownHub struct{}

func (CreateRoom) isHubMsg()    {}
func (GetRoom) isHubMsg()       {}
func (RemoveRoom) isHubMsg()    {}
func (ListRooms) isHubMsg()     {}
func (updateSummary) isHubMsg() {}
func (ShutdownHub) isHubMsg()   {}

// Config carries the policy knobs the hub hands to each room.
type Config struct {
	// RoomGrace keeps an empty room alive this long so a brief
	// reconnect doesn't lose the session. Zero means immediate
	// disposal.
	RoomGrace time.Duration
}

// Hub is the process-wide room registry. It owns the roomID -> Room
// directory and a summary cache fed by room notifications, and is the
// only cross-room shared structure.
type Hub struct {
	inbox     chan HubMsg
	rooms     map[string]*room.Room
	summaries map[string]session.Summary
	cfg       Config
	dir       directory.Store
	log       *zap.Logger
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewHub(parent context.Context, cfg Config, dir directory.Store, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:     make(chan HubMsg, 64),
		rooms:     make(map[string]*room.Room),
		summaries: make(map[string]session.Summary),
		cfg:       cfg,
		dir:       dir,
		log:       log,
		ctx:       ctx,
		cancel:    cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateRoom:
				id := uuid.NewString()
				hooks := room.Hooks{
					Notify: func(sum session.Summary) {
						h.inbox <- updateSummary{summary: sum}
					},
					OnEmpty: func(roomID string) {
						h.inbox <- RemoveRoom{ID: roomID}
					},
				}
				rm := room.New(h.ctx, id, msg.Opts, h.cfg.RoomGrace, hooks, h.log)
				h.rooms[id] = rm
				h.log.Info("room created", zap.String("room", id))
				msg.Reply <- rm

			case GetRoom:
				msg.Reply <- h.rooms[msg.ID] // may be nil

			case updateSummary:
				if _, ok := h.rooms[msg.summary.RoomID]; !ok {
					break // raced with disposal
				}
				h.summaries[msg.summary.RoomID] = msg.summary
				h.publish(msg.summary)

			case RemoveRoom:
				if _, ok := h.rooms[msg.ID]; !ok {
					break
				}
				delete(h.rooms, msg.ID)
				delete(h.summaries, msg.ID)
				h.log.Info("room removed", zap.String("room", msg.ID))
				h.unpublish(msg.ID)

			case ListRooms:
				out := make([]session.Summary, 0, len(h.summaries))
				for _, s := range h.summaries {
					out = append(out, s)
				}
				sort.Slice(out, func(i, j int) bool {
					return out[i].CreatedAt.Before(out[j].CreatedAt)
				})
				msg.Reply <- out

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

// publish/unpublish run the directory write off the hub goroutine so a
// slow store never stalls room bookkeeping.
func (h *Hub) publish(sum session.Summary) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.dir.Upsert(ctx, sum); err != nil {
			h.log.Warn("directory upsert failed", zap.String("room", sum.RoomID), zap.Error(err))
		}
	}()
}

func (h *Hub) unpublish(roomID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.dir.Remove(ctx, roomID); err != nil {
			h.log.Warn("directory remove failed", zap.String("room", roomID), zap.Error(err))
		}
	}()
}

func (h *Hub) shutdown() {
	for _, rm := range h.rooms {
		rm.Send(room.Shutdown{})
	}
	clear(h.rooms)
	clear(h.summaries)
	h.cancel()
}
