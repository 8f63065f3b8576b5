package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"mibolsillo/internal/session"
)

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Create(r.Context())
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/v1/sessions/"+sess.ID).
		Body(sess.Selection().View(sess.ID)).
		Write(w)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	sess, err := s.sessions.Get(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, sess.Selection().View(id))
}

func (s *Server) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var u session.Update
	if err := DecodeJSON(r, &u); err != nil {
		writeError(w, r, err)
		return
	}
	sel, err := s.sessions.Update(r.Context(), id, u)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, sel.View(id))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleResetDates(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	sel, err := s.sessions.ResetDates(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, sel.View(id))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.sessions.Dashboard(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, d)
}
