package http

import (
	"errors"
	"net/http"

	"finanzas/internal/core"
	applog "finanzas/internal/log"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	logger := applog.FromContext(r.Context())

	user, err := s.currentUser(r)
	if err != nil {
		s.rejectSession(w, r, err)
		return
	}

	d, err := s.dashboards.Get(r.Context(), user.ID)
	if errors.Is(err, core.ErrNotFound) {
		s.rejectSession(w, r, core.ErrMissingSession)
		return
	}
	if err != nil {
		logger.ErrorContext(r.Context(), "Dashboard load failed",
			applog.FieldError, err,
			applog.FieldUserID, user.ID,
			applog.FieldOperation, applog.OpRead)
		s.renderError(w, r, http.StatusInternalServerError, "Could not load your dashboard, please try again.")
		return
	}

	s.render(w, r, http.StatusOK, "dashboard.html", pageData{
		Title:     "Dashboard",
		User:      &d.User,
		Dashboard: d,
		Types:     []core.TransactionType{core.Income, core.Expense},
	})
}

// rejectSession sends the browser back to /login, dropping any cookie that
// failed to resolve.
func (s *Server) rejectSession(w http.ResponseWriter, r *http.Request, err error) {
	if !errors.Is(err, core.ErrMissingSession) {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Session lookup failed", applog.FieldError, err)
		s.renderError(w, r, http.StatusInternalServerError, "Something went wrong, please try again.")
		return
	}
	if hasSessionCookie(r) {
		s.clearSessionCookie(w)
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// Mutation handlers always answer with 303 /dashboard. Failures are only
// logged; an unauthenticated caller is bounced on to /login from there.

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	defer redirectToDashboard(w, r)

	user, ok := s.mutationUser(r)
	if !ok {
		return
	}
	in, err := parseTransactionForm(r)
	if err != nil {
		s.logRejected(r, applog.OpCreate, user.ID, 0, err)
		return
	}

	t, err := s.transactions.Create(r.Context(), user.ID, in)
	if err != nil {
		s.logRejected(r, applog.OpCreate, user.ID, 0, err)
		return
	}
	s.appMetrics.inc(&s.appMetrics.transactionsCreated)
	s.logTransaction(r, applog.OpCreate, t)
}

func (s *Server) handleEditTransaction(w http.ResponseWriter, r *http.Request) {
	defer redirectToDashboard(w, r)

	user, ok := s.mutationUser(r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.logRejected(r, applog.OpUpdate, user.ID, 0, err)
		return
	}
	in, err := parseTransactionForm(r)
	if err != nil {
		s.logRejected(r, applog.OpUpdate, user.ID, id, err)
		return
	}

	t, err := s.transactions.Update(r.Context(), user.ID, id, in)
	if err != nil {
		s.logRejected(r, applog.OpUpdate, user.ID, id, err)
		return
	}
	s.appMetrics.inc(&s.appMetrics.transactionsUpdated)
	s.logTransaction(r, applog.OpUpdate, t)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	defer redirectToDashboard(w, r)

	user, ok := s.mutationUser(r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.logRejected(r, applog.OpDelete, user.ID, 0, err)
		return
	}

	if err := s.transactions.Delete(r.Context(), user.ID, id); err != nil {
		s.logRejected(r, applog.OpDelete, user.ID, id, err)
		return
	}
	s.appMetrics.inc(&s.appMetrics.transactionsDeleted)
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Transaction delete",
		applog.FieldOperation, applog.OpDelete,
		applog.FieldUserID, user.ID,
		applog.FieldTransactionID, id)
}

func redirectToDashboard(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Server) mutationUser(r *http.Request) (core.User, bool) {
	user, err := s.currentUser(r)
	if err != nil {
		level := applog.FromContext(r.Context()).WarnContext
		if !errors.Is(err, core.ErrMissingSession) {
			level = applog.FromContext(r.Context()).ErrorContext
		}
		level(r.Context(), "Mutation without a usable session",
			applog.FieldPath, r.URL.Path,
			applog.FieldError, err)
		return core.User{}, false
	}
	return user, true
}

// logRejected logs expected rejections (bad input, unknown or foreign id)
// at warn and everything else at error.
func (s *Server) logRejected(r *http.Request, op string, userID, id int64, err error) {
	logger := applog.FromContext(r.Context())
	args := []any{
		applog.FieldOperation, op,
		applog.FieldUserID, userID,
		applog.FieldError, err,
	}
	if id > 0 {
		args = append(args, applog.FieldTransactionID, id)
	}

	if isValidationError(err) || errors.Is(err, core.ErrNotFound) || errors.Is(err, errBadID) {
		logger.WarnContext(r.Context(), "Transaction "+op+" rejected", args...)
		return
	}
	logger.ErrorContext(r.Context(), "Transaction "+op+" failed", args...)
}

func (s *Server) logTransaction(r *http.Request, op string, t core.Transaction) {
	applog.NewStructuredLogger(applog.FromContext(r.Context())).
		LogTransaction(r.Context(), op, t.UserID, t.ID, t.Type.String(), t.Amount.Cents, t.Category)
}
