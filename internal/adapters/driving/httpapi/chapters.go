package httpapi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/custodia-labs/digest-cli/internal/core/domain"
)

func (s *Server) handleListChapters(w http.ResponseWriter, r *http.Request) {
	chapters, err := s.ports.Chapters.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if chapters == nil {
		chapters = []domain.ChapterSummary{}
	}
	writeJSON(w, http.StatusOK, chapters)
}

func (s *Server) handleGetChapter(w http.ResponseWriter, r *http.Request) {
	chapter, err := s.ports.Chapters.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chapter)
}

func (s *Server) handleDeleteChapter(w http.ResponseWriter, r *http.Request) {
	chapterID := chi.URLParam(r, "id")
	deleted, err := s.ports.Chapters.Delete(r.Context(), chapterID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !deleted {
		writeError(w, fmt.Errorf("chapter %s: %w", chapterID, domain.ErrNotFound))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleQueryPropositions(w http.ResponseWriter, r *http.Request) {
	level := r.URL.Query().Get("bloom")
	if level == "" {
		writeDetail(w, http.StatusBadRequest, "bloom query parameter is required")
		return
	}
	props, err := s.ports.Chapters.QueryByBloom(r.Context(), chi.URLParam(r, "id"), domain.BloomLevel(level))
	if err != nil {
		writeError(w, err)
		return
	}
	if props == nil {
		props = []domain.Proposition{}
	}
	writeJSON(w, http.StatusOK, props)
}

func (s *Server) handleTakeawaysForUnit(w http.ResponseWriter, r *http.Request) {
	takeaways, err := s.ports.Chapters.TakeawaysForUnit(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "unit"))
	if err != nil {
		writeError(w, err)
		return
	}
	if takeaways == nil {
		takeaways = []domain.KeyTakeaway{}
	}
	writeJSON(w, http.StatusOK, takeaways)
}

func (s *Server) handleChapterStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.ports.Chapters.Stats(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
