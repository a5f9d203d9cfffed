package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/custodia-labs/digest-cli/internal/core/domain"
	"github.com/custodia-labs/digest-cli/internal/logger"
)

// multipartMemory is how much of a multipart form is buffered in memory.
const multipartMemory = 1 << 20

// multipartSlack allows for form fields and boundaries around the file part.
const multipartSlack = 64 << 10

// digestResponse is returned by POST /chapters/digest.
type digestResponse struct {
	JobID     string       `json:"job_id"`
	ChapterID string       `json:"chapter_id"`
	State     domain.State `json:"state"`
	Format    string       `json:"format,omitempty"`
	Job       *domain.Job  `json:"job,omitempty"`
}

func (s *Server) handleDigest(w http.ResponseWriter, r *http.Request) {
	if s.ports.Jobs == nil || s.ports.Ingest == nil {
		writeDetail(w, http.StatusServiceUnavailable, "digest jobs are not available")
		return
	}

	upload, err := s.readUpload(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	extracted, err := s.ports.Ingest.Extract(r.Context(), *upload)
	if err != nil {
		writeError(w, err)
		return
	}

	title := r.FormValue("chapter_title")
	if title == "" {
		title = extracted.Title
	}
	job, err := s.ports.Jobs.Submit(r.Context(), domain.DigestRequest{
		Text:         extracted.Text,
		BookID:       r.FormValue("book_id"),
		ChapterID:    r.FormValue("chapter_id"),
		ChapterTitle: title,
		SourceName:   upload.Filename,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	resp := digestResponse{
		JobID:     job.ID,
		ChapterID: job.ChapterID,
		State:     job.State,
		Format:    extracted.Format,
	}

	if wait, _ := strconv.ParseBool(r.FormValue("wait")); !wait {
		writeJSON(w, http.StatusAccepted, resp)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.config.WaitTimeout)
	defer cancel()
	final, err := s.ports.Jobs.Wait(ctx, job.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	resp.State = final.State
	resp.Job = final
	if final.State == domain.StateCompleted {
		writeJSON(w, http.StatusOK, resp)
		return
	}
	writeJSON(w, s.failureStatus(r.Context(), final), errorBody{Detail: final.Error})
}

// readUpload reads the multipart "file" part within the size limit.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*domain.Upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadSize+multipartSlack)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: reading multipart form: %w", domain.ErrInvalidInput, err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("%w: file is required", domain.ErrInvalidInput)
	}
	defer file.Close()

	if header.Size > s.config.MaxUploadSize {
		return nil, &http.MaxBytesError{Limit: s.config.MaxUploadSize}
	}
	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}

	return &domain.Upload{
		Filename: header.Filename,
		MIMEType: header.Header.Get("Content-Type"),
		Content:  content,
	}, nil
}

// failureStatus picks the status for a failed job from the last phase it
// reached before the closing error event: validation failures are 422,
// everything else 500.
func (s *Server) failureStatus(ctx context.Context, job *domain.Job) int {
	events, err := s.ports.Jobs.Events(ctx, job.ID, 0)
	if err != nil {
		return http.StatusInternalServerError
	}
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Status.IsTerminal() {
			continue
		}
		if events[i].Phase == domain.StateValidating {
			return http.StatusUnprocessableEntity
		}
		break
	}
	return http.StatusInternalServerError
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	if s.ports.Jobs == nil {
		writeDetail(w, http.StatusServiceUnavailable, "digest jobs are not available")
		return
	}
	jobs, err := s.ports.Jobs.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if jobs == nil {
		jobs = []domain.Job{}
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	if s.ports.Jobs == nil {
		writeDetail(w, http.StatusServiceUnavailable, "digest jobs are not available")
		return
	}
	job, err := s.ports.Jobs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	if s.ports.Jobs == nil {
		writeDetail(w, http.StatusServiceUnavailable, "digest jobs are not available")
		return
	}
	if err := s.ports.Jobs.Cancel(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// handleJobEvents streams a job's events as server-sent events, starting
// at ?from= (or the Last-Event-ID header) and closing after the terminal
// event or the wait timeout.
func (s *Server) handleJobEvents(w http.ResponseWriter, r *http.Request) {
	if s.ports.Jobs == nil {
		writeDetail(w, http.StatusServiceUnavailable, "digest jobs are not available")
		return
	}
	jobID := chi.URLParam(r, "id")

	from := 0
	if v := r.URL.Query().Get("from"); v != "" {
		from, _ = strconv.Atoi(v)
	} else if v := r.Header.Get("Last-Event-ID"); v != "" {
		if last, err := strconv.Atoi(v); err == nil {
			from = last + 1
		}
	}

	// Unknown jobs get a plain 404 before the stream starts.
	if _, err := s.ports.Jobs.Get(r.Context(), jobID); err != nil {
		writeError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeDetail(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	err := s.ports.Jobs.Follow(r.Context(), jobID, from, s.config.WaitTimeout, func(ev domain.Event) error {
		data, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "id: %d\ndata: %s\n\n", ev.Index, data); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrWaitTimeout):
		fmt.Fprint(w, "event: timeout\ndata: {}\n\n")
		flusher.Flush()
	case r.Context().Err() != nil:
	default:
		logger.Get().Warn().Err(err).Str("job_id", jobID).Msg("event stream ended")
	}
}
