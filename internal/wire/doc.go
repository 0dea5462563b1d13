// Package wire is the JSON envelope spoken with the game server.
//
// Every frame is a UTF-8 JSON object tagged by its "type" field.
//
// Client -> Server
//
//	join:  playerId: string
//	move:  x: int, y: int
//
// Server -> Client
//
//	start:        opponentId: string, color: "white" | "black" (optional)
//	opponentMove: x: int, y: int
//	gameOver:     result | winner | reason: string, plus any other result fields
//
// Frames may carry an integer "v" protocol version, which is accepted and ignored.
// Frames of any other type decode to Unknown; deciding whether they matter is
// left to the session.
package wire
