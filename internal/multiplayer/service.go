// internal/multiplayer/service.go
//
// Session protocol: turns client events into registry and mutation calls
// and broadcasts the results to the game room.
//
// Inbound events
//   - "create game"    {difficulty, mode, hostName}
//   - "join game"      {gameId, playerName}
//   - "found word"     "appeal" or {word: "appeal", ...}
//   - "new countdown"  integer, dynamic games only
//   - "selected hint"  relayed to the opponent
//   - "unselect all"   relayed to the opponent
//   - "restart game"   {difficulty, mode, hostName}
//   - "leaveGame"
//
// Lookup misses and bad payloads are answered with an "error" event to the
// sender; they never tear the connection down.

package multiplayer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/crossword/internal/crossword"
	"github.com/robalobadob/crossword/internal/mutation"
	"github.com/robalobadob/crossword/internal/session"
)

// Inbound event names.
const (
	EventCreateGame   = "create game"
	EventJoinGame     = "join game"
	EventFoundWord    = "found word"
	EventNewCountdown = "new countdown"
	EventSelectedHint = "selected hint"
	EventUnselectAll  = "unselect all"
	EventRestartGame  = "restart game"
	EventLeaveGame    = "leaveGame"
)

// Outbound event names.
const (
	EventGameCreated        = "game created"
	EventGameStarted        = "game started"
	EventCurrentCountdown   = "current countdown"
	EventUpdateMutation     = "update mutation"
	EventOpponentFoundWord  = "opponent found a word"
	EventOpponentHint       = "opponent selected a hint"
	EventOpponentUnselected = "opponent unselected all"
	EventOpponentRestarted  = "opponent restarted game"
	EventOpponentLeft       = "opponent left"
	EventError              = "error"
)

// ErrBadPayload wraps every payload decoding failure.
var ErrBadPayload = errors.New("bad payload")

// Gateway delivers events to connections. *gateway.Hub implements it.
type Gateway interface {
	Emit(connID, event string, payload any)
	EmitToSession(sessionID, event string, payload any)
	EmitToOthers(connID, event string, payload any)
	Join(connID, sessionID string)
	Leave(connID string)
}

// GameRequest is the payload of "create game" and "restart game".
type GameRequest struct {
	Difficulty string `json:"difficulty"`
	Mode       string `json:"mode"`
	HostName   string `json:"hostName"`
}

// JoinRequest is the payload of "join game".
type JoinRequest struct {
	GameID     string `json:"gameId"`
	PlayerName string `json:"playerName"`
}

// Service handles the session protocol.
type Service struct {
	sessions     *session.Registry
	mutations    *mutation.Engine
	gw           Gateway
	buildTimeout time.Duration
}

// NewService wires the protocol to a registry, engine and gateway.
func NewService(sessions *session.Registry, mutations *mutation.Engine, gw Gateway, buildTimeout time.Duration) *Service {
	return &Service{sessions: sessions, mutations: mutations, gw: gw, buildTimeout: buildTimeout}
}

// Ticks returns the registry callback that broadcasts countdown ticks.
func Ticks(gw Gateway) session.TickFunc {
	return func(sessionID string, remaining int) {
		gw.EmitToSession(sessionID, EventCurrentCountdown, remaining)
	}
}

// HandleEvent dispatches one inbound event.
func (s *Service) HandleEvent(ctx context.Context, connID, event string, data json.RawMessage) {
	var err error
	switch event {
	case EventCreateGame:
		var req GameRequest
		if err = decode(data, &req); err == nil {
			_, err = s.CreateGame(ctx, connID, req)
		}
	case EventJoinGame:
		var req JoinRequest
		if err = decode(data, &req); err == nil {
			_, err = s.JoinGame(connID, req)
		}
	case EventFoundWord:
		var word string
		if word, err = decodeWord(data); err == nil {
			err = s.FoundWord(ctx, connID, word, data)
		}
	case EventNewCountdown:
		var v int
		if err = decode(data, &v); err == nil {
			s.NewCountdown(connID, v)
		}
	case EventSelectedHint:
		s.gw.EmitToOthers(connID, EventOpponentHint, data)
	case EventUnselectAll:
		s.gw.EmitToOthers(connID, EventOpponentUnselected, nil)
	case EventRestartGame:
		var req GameRequest
		if err = decode(data, &req); err == nil {
			_, err = s.RestartGame(ctx, connID, req)
		}
	case EventLeaveGame:
		err = s.LeaveGame(connID)
	default:
		err = fmt.Errorf("unknown event %q", event)
	}
	if err != nil {
		log.Debug().Err(err).Str("conn", connID).Str("event", event).Msg("event rejected")
		s.gw.Emit(connID, EventError, err.Error())
	}
}

// Disconnected treats a dropped connection as leaving its game.
func (s *Service) Disconnected(connID string) {
	if err := s.LeaveGame(connID); err != nil && !errors.Is(err, session.ErrNotFound) {
		log.Warn().Err(err).Str("conn", connID).Msg("leave on disconnect")
	}
}

// CreateGame builds a new game with connID as host and puts the host in its
// room. Dynamic games start their countdown right away.
func (s *Service) CreateGame(ctx context.Context, connID string, req GameRequest) (session.View, error) {
	d, err := crossword.ParseDifficulty(req.Difficulty)
	if err != nil {
		return session.View{}, err
	}
	mode, err := session.ParseMode(req.Mode)
	if err != nil {
		return session.View{}, err
	}
	if _, err := s.sessions.FindSessionIDByConnectionID(connID); err == nil {
		_ = s.LeaveGame(connID)
	}
	ctx, cancel := context.WithTimeout(ctx, s.buildTimeout)
	defer cancel()

	g, err := s.sessions.CreateGame(ctx, d, mode, req.HostName, connID)
	if err != nil {
		return session.View{}, err
	}
	s.gw.Join(connID, g.ID)
	v := g.View()
	s.gw.Emit(connID, EventGameCreated, v)
	g.StartClock()
	return v, nil
}

// JoinGame seats connID in an existing game and announces the start to
// everyone in it.
func (s *Service) JoinGame(connID string, req JoinRequest) (session.View, error) {
	g, err := s.sessions.Join(req.GameID, connID, req.PlayerName)
	if err != nil {
		return session.View{}, err
	}
	s.gw.Join(connID, g.ID)
	v := g.View()
	s.gw.EmitToSession(g.ID, EventGameStarted, v)
	return v, nil
}

// FoundWord records a find, tells the opponent and, in dynamic games,
// regenerates the unsolved part of the grid for the whole room.
func (s *Service) FoundWord(ctx context.Context, connID, word string, raw json.RawMessage) error {
	g, err := s.sessions.SessionForConnection(connID)
	if err != nil {
		return err
	}
	if err := s.mutations.FoundWord(g.ID, word); err != nil {
		return err
	}
	if raw == nil {
		raw, _ = json.Marshal(word)
	}
	s.gw.EmitToOthers(connID, EventOpponentFoundWord, raw)

	if g.Mode != session.Dynamic {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.buildTimeout)
	defer cancel()
	m, err := s.mutations.NextMutation(ctx, g.ID)
	if err != nil {
		return err
	}
	s.gw.EmitToSession(g.ID, EventUpdateMutation, m)
	return nil
}

// NewCountdown changes the countdown of connID's game and restarts it.
// False when the connection has no game or the game is not dynamic.
func (s *Service) NewCountdown(connID string, v int) bool {
	g, err := s.sessions.SessionForConnection(connID)
	if err != nil {
		return false
	}
	if !g.SetCountdown(v) {
		log.Debug().Str("session", g.ID).Str("mode", string(g.Mode)).Msg("countdown change ignored")
		return false
	}
	return true
}

// RestartGame ends connID's game and starts a new one. The opponent is told
// the new game id so it can join.
func (s *Service) RestartGame(ctx context.Context, connID string, req GameRequest) (session.View, error) {
	oldID, err := s.sessions.FindSessionIDByConnectionID(connID)
	if err != nil {
		return session.View{}, err
	}
	d, err := crossword.ParseDifficulty(req.Difficulty)
	if err != nil {
		return session.View{}, err
	}
	mode, err := session.ParseMode(req.Mode)
	if err != nil {
		return session.View{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.buildTimeout)
	defer cancel()

	g, err := s.sessions.CreateGame(ctx, d, mode, req.HostName, connID)
	if err != nil {
		return session.View{}, err
	}
	s.gw.EmitToOthers(connID, EventOpponentRestarted, g.ID)
	_ = s.sessions.End(oldID)

	s.gw.Join(connID, g.ID)
	v := g.View()
	s.gw.Emit(connID, EventGameCreated, v)
	g.StartClock()
	return v, nil
}

// LeaveGame unseats connID and tells whoever is left.
func (s *Service) LeaveGame(connID string) error {
	if _, err := s.sessions.Leave(connID); err != nil {
		s.gw.Leave(connID)
		return err
	}
	s.gw.EmitToOthers(connID, EventOpponentLeft, nil)
	s.gw.Leave(connID)
	return nil
}

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty", ErrBadPayload)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return nil
}

// decodeWord accepts a bare string or a placed word object.
func decodeWord(data json.RawMessage) (string, error) {
	var w string
	if err := json.Unmarshal(data, &w); err == nil && w != "" {
		return w, nil
	}
	var pw crossword.PlacedWord
	if err := decode(data, &pw); err != nil {
		return "", err
	}
	if pw.Text == "" {
		return "", fmt.Errorf("%w: missing word", ErrBadPayload)
	}
	return pw.Text, nil
}
