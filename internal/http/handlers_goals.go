package http

import (
	"errors"
	"fmt"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/goals"
	"fintrack/internal/services"
)

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(s.deps.Goals.List(r.Context(), s.today())).Write(w)
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	v, ok := s.goalView(w, r)
	if !ok {
		return
	}
	NewResponse().JSON(v).Write(w)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	in, ok := goalInput(w, r)
	if !ok {
		return
	}
	g, err := s.deps.Goals.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(g).Write(w)
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	in, ok := goalInput(w, r)
	if !ok {
		return
	}
	g, err := s.deps.Goals.Update(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(g).Write(w)
}

func (s *Server) handlePinGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	g, err := s.deps.Goals.TogglePin(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(g).Write(w)
}

func (s *Server) handleAchieveGoal(w http.ResponseWriter, r *http.Request) {
	v, ok := s.goalView(w, r)
	if !ok {
		return
	}
	if v.Achieved {
		writeError(w, r, core.ErrGoalAchieved)
		return
	}
	if !confirmed(r) {
		writeConfirm(w, fmt.Sprintf("Mark %q as achieved?", v.Name))
		return
	}
	g, err := s.deps.Goals.Achieve(r.Context(), v.ID, s.today())
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().JSON(goals.NewView(g, 0, s.today())).Write(w)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	v, ok := s.goalView(w, r)
	if !ok {
		return
	}
	if !confirmed(r) {
		writeConfirm(w, fmt.Sprintf("Are you sure you want to delete %q?", v.Name))
		return
	}
	if err := s.deps.Goals.Delete(r.Context(), v.ID); err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}

// handleGoalSpending records an achieved goal as an expense. Doing it a
// second time needs confirmation.
func (s *Server) handleGoalSpending(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req spendingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := s.deps.Goals.MarkInSpending(r.Context(), id, req.Use, confirmed(r))
	var repeat *services.RepeatSpendingError
	if errors.As(err, &repeat) {
		writeConfirm(w, fmt.Sprintf("Caution: You have already added %q to spending.", repeat.Goal.Name))
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(spendingResponse(res)).Write(w)
}

type spendingBody struct {
	Goal          core.Goal        `json:"goal"`
	Transaction   core.Transaction `json:"transaction"`
	AlreadyMarked bool             `json:"alreadyMarked"`
}

func spendingResponse(res services.SpendingResult) spendingBody {
	return spendingBody{Goal: res.Goal, Transaction: res.Transaction, AlreadyMarked: res.AlreadyMarked}
}

func (s *Server) goalView(w http.ResponseWriter, r *http.Request) (goals.View, bool) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return goals.View{}, false
	}
	v, err := s.deps.Goals.View(r.Context(), id, s.today())
	if err != nil {
		writeError(w, r, err)
		return goals.View{}, false
	}
	return v, true
}

func goalInput(w http.ResponseWriter, r *http.Request) (goals.Input, bool) {
	var req goalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return goals.Input{}, false
	}
	in, err := req.input()
	if err != nil {
		writeError(w, r, err)
		return goals.Input{}, false
	}
	return in, true
}
