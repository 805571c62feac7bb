package web

import (
	"fmt"
	"net/http"

	"github.com/dopejs/tmplvars/internal/catalog"
	"github.com/dopejs/tmplvars/internal/panel"
	"github.com/dopejs/tmplvars/internal/template"
	"github.com/go-chi/chi/v5"
)

// entityResponse is the JSON shape returned for a single entity.
type entityResponse struct {
	InternalID    string `json:"internalId"`
	ID            string `json:"id"`
	Name          string `json:"name,omitempty"`
	Description   string `json:"description,omitempty"`
	VariableCount int    `json:"variableCount"`
}

// listResponse is the list projection of one entity's variables.
type listResponse struct {
	Entity   entityResponse `json:"entity"`
	Items    []panel.Item   `json:"items"`
	Dangling []string       `json:"dangling,omitempty"`
}

type variableResponse struct {
	InternalID string            `json:"internalId"`
	Variable   template.Variable `json:"variable"`
}

func toEntityResponse(internalID string, e *template.Entity) entityResponse {
	return entityResponse{
		InternalID:    internalID,
		ID:            e.ID,
		Name:          e.Name,
		Description:   e.Description,
		VariableCount: len(e.VariableInternalIDs),
	}
}

// GET /api/v1/entities
func (s *Server) listEntities(w http.ResponseWriter, r *http.Request) {
	snap, err := s.cat.Snapshot()
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	ids := snap.OrderedEntityIDs()
	resp := make([]entityResponse, 0, len(ids))
	for _, id := range ids {
		resp = append(resp, toEntityResponse(id, snap.EntitiesByInternalID[id]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// POST /api/v1/entities
func (s *Server) createEntity(w http.ResponseWriter, r *http.Request) {
	var e template.Entity
	if err := readJSON(r, &e); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	e.VariableInternalIDs = nil
	internalID, err := s.cat.AddEntity(e)
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	s.logger.Info("entity added", "entity", internalID, "id", e.ID, "via", "api")
	writeJSON(w, http.StatusCreated, toEntityResponse(internalID, &e))
}

// resolveEntity takes a fresh snapshot and resolves the {entity} path parameter.
func (s *Server) resolveEntity(w http.ResponseWriter, r *http.Request) (*template.Template, string, bool) {
	snap, err := s.cat.Snapshot()
	if err != nil {
		s.writeCatalogError(w, r, err)
		return nil, "", false
	}
	id, _, err := catalog.ResolveEntity(snap, chi.URLParam(r, "entity"))
	if err != nil {
		s.writeCatalogError(w, r, err)
		return nil, "", false
	}
	return snap, id, true
}

// GET /api/v1/entities/{entity}/variables
func (s *Server) listVariables(w http.ResponseWriter, r *http.Request) {
	snap, entityID, ok := s.resolveEntity(w, r)
	if !ok {
		return
	}
	l, err := panel.BuildList(snap, entityID)
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	if len(l.Dangling) > 0 {
		s.logger.Warn("entity lists missing variables", "entity", entityID, "ids", l.Dangling)
	}
	writeJSON(w, http.StatusOK, listResponse{
		Entity:   toEntityResponse(entityID, &l.Entity),
		Items:    l.Items,
		Dangling: l.Dangling,
	})
}

// GET /api/v1/entities/{entity}/variables/{variable}
func (s *Server) getVariable(w http.ResponseWriter, r *http.Request) {
	snap, entityID, ok := s.resolveEntity(w, r)
	if !ok {
		return
	}
	id, v, err := catalog.ResolveVariable(snap, entityID, chi.URLParam(r, "variable"))
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, variableResponse{InternalID: id, Variable: *v})
}

// POST /api/v1/entities/{entity}/variables
func (s *Server) createVariable(w http.ResponseWriter, r *http.Request) {
	_, entityID, ok := s.resolveEntity(w, r)
	if !ok {
		return
	}
	var v template.Variable
	if err := readJSON(r, &v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	id, err := s.cat.UpsertVariable(entityID, "", v)
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	s.logger.Info("variable saved", "entity", entityID, "variable", id, "id", v.ID, "created", true, "via", "api")
	s.writeVariable(w, r, http.StatusCreated, id)
}

// PUT /api/v1/entities/{entity}/variables/{variable}
func (s *Server) updateVariable(w http.ResponseWriter, r *http.Request) {
	snap, entityID, ok := s.resolveEntity(w, r)
	if !ok {
		return
	}
	id, existing, err := catalog.ResolveVariable(snap, entityID, chi.URLParam(r, "variable"))
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	var v template.Variable
	if err := readJSON(r, &v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if v.Type == "" {
		v.Type = existing.Type
	}
	if v.Type != existing.Type {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("cannot change the type of %s from %s to %s", existing.ID, existing.Type, v.Type))
		return
	}
	if _, err := s.cat.UpsertVariable(entityID, id, v); err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	s.logger.Info("variable saved", "entity", entityID, "variable", id, "id", v.ID, "created", false, "via", "api")
	s.writeVariable(w, r, http.StatusOK, id)
}

// DELETE /api/v1/entities/{entity}/variables/{variable}
func (s *Server) deleteVariable(w http.ResponseWriter, r *http.Request) {
	snap, entityID, ok := s.resolveEntity(w, r)
	if !ok {
		return
	}
	id, _, err := catalog.ResolveVariable(snap, entityID, chi.URLParam(r, "variable"))
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	if err := s.cat.DeleteVariable(entityID, id); err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	s.logger.Info("variable deleted", "entity", entityID, "variable", id, "via", "api")
	w.WriteHeader(http.StatusNoContent)
}

// writeVariable responds with the committed record, which may carry defaults
// the request omitted.
func (s *Server) writeVariable(w http.ResponseWriter, r *http.Request, status int, internalID string) {
	snap, err := s.cat.Snapshot()
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	v := snap.VariablesByInternalID[internalID]
	if v == nil {
		writeError(w, http.StatusInternalServerError, "variable vanished after commit")
		return
	}
	writeJSON(w, status, variableResponse{InternalID: internalID, Variable: *v})
}
