package server

import (
	"fmt"
	"net/http"

	"github.com/splitledger/splitledger/internal/engine"
	"github.com/splitledger/splitledger/internal/models"
	"github.com/splitledger/splitledger/internal/service"
)

// Request/response bodies. Amounts are integer minor units everywhere.

type scopeRequest struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

type scopeResponse struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Members   []string `json:"members"`
	CreatedAt int64    `json:"created_at"`
}

type shareBody struct {
	MemberID string `json:"member_id"`
	Amount   int64  `json:"amount"`
}

type expenseRequest struct {
	ScopeID      string      `json:"scope_id,omitempty"`
	PayerID      string      `json:"payer_id"`
	Description  string      `json:"description"`
	TotalAmount  int64       `json:"total_amount"`
	Policy       string      `json:"policy"`
	Participants []string    `json:"participants,omitempty"`
	Shares       []shareBody `json:"shares,omitempty"`
}

type expenseResponse struct {
	ID          string      `json:"id"`
	ScopeID     string      `json:"scope_id"`
	PayerID     string      `json:"payer_id"`
	Description string      `json:"description"`
	TotalAmount int64       `json:"total_amount"`
	Policy      string      `json:"policy"`
	Splits      []shareBody `json:"splits"`
	CreatedAt   int64       `json:"created_at"`
}

type settlementRequest struct {
	ScopeID   string `json:"scope_id"`
	FromID    string `json:"from_id"`
	ToID      string `json:"to_id"`
	Amount    int64  `json:"amount"`
	Note      string `json:"note,omitempty"`
	Completed bool   `json:"completed,omitempty"`
}

type settlementResponse struct {
	ID        string `json:"id"`
	ScopeID   string `json:"scope_id"`
	FromID    string `json:"from_id"`
	ToID      string `json:"to_id"`
	Amount    int64  `json:"amount"`
	Status    string `json:"status"`
	Note      string `json:"note,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

type transferBody struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount int64  `json:"amount"`
}

func (s *Server) handleCreateScope(w http.ResponseWriter, r *http.Request) {
	var req scopeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", service.ErrInvalidInput, err))
		return
	}

	scope, err := s.svc.CreateScope(r.Context(), req.Name, req.Members)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toScopeResponse(scope))
}

func (s *Server) handleGetScope(w http.ResponseWriter, r *http.Request) {
	scope, err := s.svc.GetScope(r.Context(), r.PathValue("scopeID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toScopeResponse(scope))
}

func (s *Server) handleAddMembers(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Members []string `json:"members"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", service.ErrInvalidInput, err))
		return
	}

	if err := s.svc.AddMembers(r.Context(), r.PathValue("scopeID"), req.Members); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	err := s.svc.RemoveMember(r.Context(), r.PathValue("scopeID"), r.PathValue("memberID"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLogExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decode(r, &req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", service.ErrInvalidInput, err))
		return
	}

	expense, err := s.svc.LogExpense(r.Context(), toExpenseInput(req))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toExpenseResponse(expense))
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	expense, err := s.svc.GetExpense(r.Context(), r.PathValue("expenseID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseResponse(expense))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decode(r, &req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", service.ErrInvalidInput, err))
		return
	}

	expense, err := s.svc.UpdateExpense(r.Context(), r.PathValue("expenseID"), toExpenseInput(req))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseResponse(expense))
}

func (s *Server) handleRemoveExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.RemoveExpense(r.Context(), r.PathValue("expenseID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRecordSettlement(w http.ResponseWriter, r *http.Request) {
	var req settlementRequest
	if err := decode(r, &req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", service.ErrInvalidInput, err))
		return
	}

	settlement, err := s.svc.RecordSettlement(r.Context(), service.SettlementInput{
		ScopeID:   req.ScopeID,
		FromID:    req.FromID,
		ToID:      req.ToID,
		Amount:    req.Amount,
		Note:      req.Note,
		Completed: req.Completed,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSettlementResponse(settlement))
}

func (s *Server) handleCompleteSettlement(w http.ResponseWriter, r *http.Request) {
	settlement, err := s.svc.CompleteSettlement(r.Context(), r.PathValue("settlementID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSettlementResponse(settlement))
}

func (s *Server) handleCancelSettlement(w http.ResponseWriter, r *http.Request) {
	settlement, err := s.svc.CancelSettlement(r.Context(), r.PathValue("settlementID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSettlementResponse(settlement))
}

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	balances, err := s.svc.Balances(r.Context(), r.PathValue("scopeID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]map[string]int64{"balances": balances})
}

func (s *Server) handleScopedTransfers(w http.ResponseWriter, r *http.Request) {
	transfers, err := s.svc.ScopedTransfers(r.Context(), r.PathValue("scopeID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]transferBody{"transfers": toTransferBodies(transfers)})
}

func (s *Server) handleGlobalTransfers(w http.ResponseWriter, r *http.Request) {
	members := r.URL.Query()["member"]
	transfers, err := s.svc.GlobalTransfers(r.Context(), members)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]transferBody{"transfers": toTransferBodies(transfers)})
}

func toScopeResponse(scope *models.Scope) scopeResponse {
	return scopeResponse{
		ID:        scope.ID,
		Name:      scope.Name,
		Members:   scope.Members,
		CreatedAt: scope.CreatedAt,
	}
}

func toExpenseInput(req expenseRequest) service.ExpenseInput {
	in := service.ExpenseInput{
		ScopeID:      req.ScopeID,
		PayerID:      req.PayerID,
		Description:  req.Description,
		TotalAmount:  req.TotalAmount,
		Policy:       models.SplitPolicy(req.Policy),
		Participants: req.Participants,
	}
	for _, share := range req.Shares {
		in.Shares = append(in.Shares, service.SplitShare{MemberID: share.MemberID, Amount: share.Amount})
	}
	return in
}

func toExpenseResponse(expense *models.Expense) expenseResponse {
	resp := expenseResponse{
		ID:          expense.ID,
		ScopeID:     expense.ScopeID,
		PayerID:     expense.PayerID,
		Description: expense.Description,
		TotalAmount: expense.TotalAmount,
		Policy:      string(expense.Policy),
		CreatedAt:   expense.CreatedAt,
	}
	for _, split := range expense.Splits {
		resp.Splits = append(resp.Splits, shareBody{MemberID: split.MemberID, Amount: split.Amount})
	}
	return resp
}

func toSettlementResponse(settlement *models.Settlement) settlementResponse {
	return settlementResponse{
		ID:        settlement.ID,
		ScopeID:   settlement.ScopeID,
		FromID:    settlement.FromID,
		ToID:      settlement.ToID,
		Amount:    settlement.Amount,
		Status:    string(settlement.Status),
		Note:      settlement.Note,
		CreatedAt: settlement.CreatedAt,
	}
}

func toTransferBodies(transfers []engine.Transfer) []transferBody {
	bodies := make([]transferBody, 0, len(transfers))
	for _, tr := range transfers {
		bodies = append(bodies, transferBody{From: tr.From, To: tr.To, Amount: tr.Amount})
	}
	return bodies
}
