package types

// Client -> Server (envelope: { type, payload })
//
// start-game: {}
//   host only; waiting -> playing
//
// input-command:
//   opaque payload, relayed to everyone except the sender
//
// game-frame:
//   opaque payload, relayed only when the sender is the host
//
// chat-message:
//   message: string
//
// player-update:
//   username: string (isHost / userId are never accepted)
//
// request-state: {}
//
// heartbeat: {} (answered by the gateway, never reaches the room)

// Server -> Client
//
// player-joined:
//   playerId: string
//   username: string
//   isHost: boolean
//
// player-left:
//   playerId: string
//
// host-changed:
//   hostId: string
//   username: string
//
// game-started:
//   timestamp: number (ms)
//
// room-state: (sent to the joiner only)
//   roomId: string
//   players: [{ sessionId, username, isHost }]
//
// chat-message:
//   sender: string
//   message: string
//   timestamp: number (ms)
//
// state-sync: (reply to request-state, requester only)
//   roomId, gameId, gameTitle, gamePlatform, maxPlayers,
//   currentPlayers, status, players
//
// heartbeat-ack:
//   timestamp: number (ms)
//
// error: (sender only, never broadcast)
//   error: string
