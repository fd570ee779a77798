package http

import (
	"net/http"
	"strconv"

	"backoffice/internal/documents"
	"backoffice/internal/log"
	"backoffice/internal/report"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	kind, err := parseKindParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	docs, err := s.deps.Documents.List(r.Context(), kind)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, docs)
}

func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	kind, err := parseKindParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var doc documents.Document
	if err := decodeJSON(w, r, &doc); err != nil {
		writeError(w, r, err)
		return
	}
	doc.ID = 0
	doc.Kind = kind

	created, err := s.deps.Documents.Create(r.Context(), doc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Document created",
		log.NewFields().WithOperation(log.OpCreate).WithDocument(created.ID, string(created.Kind), created.Version).ToSlice()...)
	w.Header().Set("Location", "/api/documents/"+string(created.Kind)+"/"+strconv.FormatInt(created.ID, 10))
	writeJSON(w, r, http.StatusCreated, created)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	kind, id, err := documentParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	doc, err := s.deps.Documents.Get(r.Context(), kind, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, doc)
}

func (s *Server) handleUpdateDocument(w http.ResponseWriter, r *http.Request) {
	kind, id, err := documentParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var doc documents.Document
	if err := decodeJSON(w, r, &doc); err != nil {
		writeError(w, r, err)
		return
	}
	doc.ID = id
	doc.Kind = kind

	updated, err := s.deps.Documents.Update(r.Context(), doc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, updated)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	kind, id, err := documentParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.deps.Documents.Delete(r.Context(), kind, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDocumentSummary recomputes the document's sheet on every call.
func (s *Server) handleDocumentSummary(w http.ResponseWriter, r *http.Request) {
	kind, id, err := documentParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	currency, err := parseCurrency(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_, sheet, err := s.deps.Documents.Summary(r.Context(), kind, id, currency)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, sheet)
}

func (s *Server) handleDocumentReport(w http.ResponseWriter, r *http.Request) {
	kind, id, err := documentParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	currency, err := parseCurrency(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	doc, sheet, err := s.deps.Documents.Summary(r.Context(), kind, id, currency)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, report.Build(doc, sheet))
}

func (s *Server) handleSettleLine(w http.ResponseWriter, r *http.Request) {
	kind, id, err := documentParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	doc, err := s.deps.Documents.Settle(r.Context(), kind, id, chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Expense line settled",
		log.NewFields().WithOperation(log.OpSettle).WithDocument(doc.ID, string(doc.Kind), doc.Version).ToSlice()...)
	writeJSON(w, r, http.StatusOK, doc)
}

// handlePreview computes the sheet of an unsaved draft for the editor's live
// totals.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var draft documents.Document
	if err := decodeJSON(w, r, &draft); err != nil {
		writeError(w, r, err)
		return
	}
	sheet, err := s.deps.Documents.Preview(draft)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, sheet)
}

func (s *Server) handleDues(w http.ResponseWriter, r *http.Request) {
	currency, err := parseCurrency(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	dues, err := s.deps.Documents.Dues(r.Context(), currency)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dues)
}

func documentParams(r *http.Request) (documents.Kind, int64, error) {
	kind, err := parseKindParam(r)
	if err != nil {
		return "", 0, err
	}
	id, err := parseIDParam(r)
	if err != nil {
		return "", 0, err
	}
	return kind, id, nil
}
