package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/mpelletier/boardwalk/internal/engine"
)

// decodeJSON decodes a request body into v, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		JSONError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// --- Boards ---

func (s *Server) handleCreateBoard(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Title == "" {
		JSONError(w, "title is required", http.StatusBadRequest)
		return
	}

	board, err := s.engine.CreateBoard(r.Context(), s.tenant(r), req.Title)
	if err != nil {
		HandleError(w, err)
		return
	}
	JSONResponseStatus(w, board, http.StatusCreated)
}

func (s *Server) handleUpdateBoard(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Title == "" {
		JSONError(w, "title is required", http.StatusBadRequest)
		return
	}

	board, err := s.engine.UpdateBoard(r.Context(), r.PathValue("id"), req.Title)
	if err != nil {
		HandleError(w, err)
		return
	}
	JSONResponse(w, board)
}

func (s *Server) handleReorderBoard(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Position int `json:"position"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	board, err := s.engine.ReorderBoard(r.Context(), r.PathValue("id"), req.Position)
	if err != nil {
		HandleError(w, err)
		return
	}
	JSONResponse(w, board)
}

func (s *Server) handleCreateColumn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Title == "" {
		JSONError(w, "title is required", http.StatusBadRequest)
		return
	}

	col, err := s.engine.CreateColumn(r.Context(), r.PathValue("id"), req.Title)
	if err != nil {
		HandleError(w, err)
		return
	}
	JSONResponseStatus(w, col, http.StatusCreated)
}

// --- Tasks ---

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		ColumnID    string `json:"column_id"`
		At          string `json:"at"` // "top" or "bottom" (default)
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Title == "" || req.ColumnID == "" {
		JSONError(w, "title and column_id are required", http.StatusBadRequest)
		return
	}

	nt := engine.NewTask{
		Title:       req.Title,
		Description: req.Description,
		ColumnID:    req.ColumnID,
	}

	var task any
	var err error
	if req.At == "top" {
		task, err = s.engine.CreateTaskAtTop(r.Context(), nt)
	} else {
		task, err = s.engine.CreateTaskAtBottom(r.Context(), nt)
	}
	if err != nil {
		HandleError(w, err)
		return
	}
	JSONResponseStatus(w, task, http.StatusCreated)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	task, err := s.engine.UpdateTask(r.Context(), r.PathValue("id"), req.Title, req.Description)
	if err != nil {
		HandleError(w, err)
		return
	}
	JSONResponse(w, task)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.DeleteTask(r.Context(), r.PathValue("id")); err != nil {
		HandleError(w, err)
		return
	}
	NoContent(w)
}

func (s *Server) handleReorderTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Position int    `json:"position"`
		ColumnID string `json:"column_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	task, err := s.engine.ReorderTask(r.Context(), r.PathValue("id"), req.Position, req.ColumnID)
	if err != nil {
		HandleError(w, err)
		return
	}
	JSONResponse(w, task)
}

func (s *Server) handleMoveTaskAcrossBoard(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BoardID string `json:"board_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.BoardID == "" {
		JSONError(w, "board_id is required", http.StatusBadRequest)
		return
	}

	task, err := s.engine.MoveTaskAcrossBoard(r.Context(), r.PathValue("id"), req.BoardID)
	if err != nil {
		HandleError(w, err)
		return
	}
	JSONResponse(w, task)
}

func (s *Server) handleBatchReposition(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Updates []engine.Reposition `json:"updates"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := s.engine.BatchRepositionTasks(r.Context(), req.Updates); err != nil {
		HandleError(w, err)
		return
	}
	NoContent(w)
}

// --- Relationships ---

func (s *Server) handleCreateRelationship(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind          string `json:"kind"`
		RelatedTaskID string `json:"related_task_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	rel, err := s.engine.CreateRelationship(r.Context(), r.PathValue("id"), req.Kind, req.RelatedTaskID)
	if err != nil {
		HandleError(w, err)
		return
	}
	JSONResponseStatus(w, rel, http.StatusCreated)
}

func (s *Server) handleDeleteRelationship(w http.ResponseWriter, r *http.Request) {
	err := s.engine.DeleteRelationship(r.Context(), r.PathValue("id"), r.PathValue("relID"))
	if err != nil {
		HandleError(w, err)
		return
	}
	NoContent(w)
}

func (s *Server) handleConnectedGraph(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			JSONError(w, "limit must be an integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	graph, err := s.engine.GetConnectedTaskGraph(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		HandleError(w, err)
		return
	}
	JSONResponse(w, graph)
}
