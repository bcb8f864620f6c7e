package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bhaeesma-sketch/Bhaeesgame/internal/domain"
	"github.com/bhaeesma-sketch/Bhaeesgame/internal/games"
	"github.com/bhaeesma-sketch/Bhaeesgame/internal/history"
	"github.com/bhaeesma-sketch/Bhaeesgame/internal/ledger"
)

const defaultAdvanceFrames = 1

// GET /api/v1/games
func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, GamesResponse{
		Games:         games.ListGames(),
		EngineVersion: EngineVersion,
	})
}

// GET /api/v1/ledger
func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.Snapshot())
}

// GET /api/v1/profile
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.Profile())
}

// POST /api/v1/ledger/deposit
func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req DepositRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.errors.HandleValidationError(w, r, err)
		return
	}
	res, err := s.engine.Deposit(r.Context(), req.Amount)
	if err != nil {
		s.errors.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

// GET /api/v1/ledger/packages
func (s *Server) handleListPackages(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, PackagesResponse{Packages: ledger.Packages()})
}

// POST /api/v1/ledger/packages/{id}
func (s *Server) handleBuyPackage(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.BuyPackage(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.errors.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

// POST /api/v1/ledger/signup-claim
//
// A repeated claim is not a failure: it answers 200 with granted false.
func (s *Server) handleSignupClaim(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.ClaimSignup(r.Context())
	if err != nil && !errors.Is(err, domain.ErrDuplicateClaim) {
		s.errors.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

// POST /api/v1/games/{game}/bet
func (s *Server) handleBet(w http.ResponseWriter, r *http.Request) {
	var req BetRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.errors.HandleValidationError(w, r, err)
		return
	}
	res, err := s.engine.PlaceBet(r.Context(), chi.URLParam(r, "game"), req.Stake)
	if err != nil {
		s.errors.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

// POST /api/v1/games/{game}/session
func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req BetRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.errors.HandleValidationError(w, r, err)
		return
	}
	state, err := s.engine.StartSession(r.Context(), chi.URLParam(r, "game"), req.Stake)
	if err != nil {
		s.errors.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, state)
}

// GET /api/v1/games/{game}/session
func (s *Server) handleSessionState(w http.ResponseWriter, r *http.Request) {
	game := chi.URLParam(r, "game")
	if game != games.Mines {
		if _, err := games.Lookup(game); err != nil {
			s.errors.HandleError(w, r, err)
			return
		}
		s.errors.HandleError(w, r, domain.ErrInvalidSessionState)
		return
	}
	state, err := s.engine.MinesState()
	if err != nil {
		s.errors.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, state)
}

// POST /api/v1/games/{game}/reveal
func (s *Server) handleReveal(w http.ResponseWriter, r *http.Request) {
	var req RevealRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.errors.HandleValidationError(w, r, err)
		return
	}
	res, err := s.engine.Reveal(r.Context(), chi.URLParam(r, "game"), *req.Cell)
	if err != nil {
		s.errors.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

// POST /api/v1/games/{game}/cashout
func (s *Server) handleCashOut(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.CashOut(r.Context(), chi.URLParam(r, "game"))
	if err != nil {
		s.errors.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

// POST /api/v1/games/{game}/exit
func (s *Server) handleExit(w http.ResponseWriter, r *http.Request) {
	game := chi.URLParam(r, "game")
	snap, err := s.engine.ExitToLobby(r.Context(), game)
	if err != nil {
		s.errors.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ExitResponse{Game: game, Ledger: snap})
}

// POST /api/v1/games/plinko/drop
func (s *Server) handleDrop(w http.ResponseWriter, r *http.Request) {
	var req DropRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.errors.HandleValidationError(w, r, err)
		return
	}
	risk, err := games.ParseRisk(req.Risk)
	if err != nil {
		s.errors.HandleError(w, r, err)
		return
	}
	res, err := s.engine.DropBall(r.Context(), req.Stake, risk, req.Rows)
	if err != nil {
		s.errors.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

// GET /api/v1/games/plinko/balls
func (s *Server) handleBalls(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"balls": s.engine.PlinkoBalls()})
}

// POST /api/v1/games/plinko/advance
func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	var req AdvanceRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.errors.HandleValidationError(w, r, err)
		return
	}
	frames := req.Frames
	if frames == 0 {
		frames = defaultAdvanceFrames
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"balls": s.engine.AdvancePlinko(r.Context(), frames)})
}

// GET /api/v1/outcomes/{id}
func (s *Server) handleOutcome(w http.ResponseWriter, r *http.Request) {
	out, err := s.engine.Outcome(chi.URLParam(r, "id"))
	if err != nil {
		s.errors.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, out)
}

// GET /api/v1/history?game=&run_id=&page=&per_page=
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	hq := HistoryQuery{Game: q.Get("game"), RunID: q.Get("run_id")}
	var err error
	if hq.Page, err = queryInt(r, "page", 1); err != nil {
		s.errors.HandleValidationError(w, r, err)
		return
	}
	if hq.PerPage, err = queryInt(r, "per_page", 50); err != nil {
		s.errors.HandleValidationError(w, r, err)
		return
	}
	if err := s.validate.Struct(hq); err != nil {
		s.errors.HandleValidationError(w, r, err)
		return
	}
	if hq.Game != "" {
		if _, err := games.Lookup(hq.Game); err != nil {
			s.errors.HandleError(w, r, err)
			return
		}
	}
	page, err := s.engine.History(r.Context(), history.Query{
		Game:    hq.Game,
		RunID:   hq.RunID,
		Page:    hq.Page,
		PerPage: hq.PerPage,
	})
	if err != nil {
		s.errors.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, page)
}

// GET /api/v1/history/summary
func (s *Server) handleHistorySummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.engine.HistorySummary(r.Context())
	if err != nil {
		s.errors.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, SummaryResponse{Games: summary})
}

// GET /api/v1/autoplay
func (s *Server) handleAutoplayState(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"state": s.autoplay.GetState(),
		"logs":  s.autoplay.GetLogs(),
	})
}

// POST /api/v1/autoplay/start
func (s *Server) handleAutoplayStart(w http.ResponseWriter, r *http.Request) {
	var req AutoplayStartRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.errors.HandleValidationError(w, r, err)
		return
	}
	balance := s.engine.Snapshot().Balance.InexactFloat64()
	if err := s.autoplay.Start(r.Context(), req.Script, balance); err != nil {
		s.errors.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, s.autoplay.GetState())
}

// POST /api/v1/autoplay/stop
func (s *Server) handleAutoplayStop(w http.ResponseWriter, r *http.Request) {
	if err := s.autoplay.Stop(); err != nil {
		s.errors.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.autoplay.GetState())
}

// GET /api/v1/ws
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	s.hub.Serve(w, r, &Message{Type: MsgLedger, Data: s.engine.Snapshot()})
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("query parameter %s must be an integer", key)
	}
	return n, nil
}
