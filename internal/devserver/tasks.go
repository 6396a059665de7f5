package devserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/twiced-technology-gmbh/taskdeck/internal/date"
	"github.com/twiced-technology-gmbh/taskdeck/internal/task"
)

var errInvalidPayload = errors.New("invalid payload")

func (s *Server) handleListTasks(c *gin.Context) {
	respondSuccess(c, http.StatusOK, s.data.listTasks())
}

func (s *Server) handleGetTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	t, err := s.data.getTask(id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, t)
}

func (s *Server) handleCreateTask(c *gin.Context) {
	fields, err := bindFields(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	t := task.Task{Status: task.StatusTodo, Color: task.DefaultColor}
	if err := applyFields(&t, fields); err != nil {
		s.respondError(c, err)
		return
	}
	if err := task.Validate(&t); err != nil {
		s.respondError(c, err)
		return
	}
	created, err := s.data.createTask(t, s.now())
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, created)
}

// handleUpdateTask applies a partial update: only fields present in the
// body change.
func (s *Server) handleUpdateTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	fields, err := bindFields(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	updated, err := s.data.updateTask(id, func(t *task.Task) error {
		if err := applyFields(t, fields); err != nil {
			return err
		}
		return task.Validate(t)
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, updated)
}

func (s *Server) handleDeleteTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.data.deleteTask(id); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusNoContent, nil)
}

func (s *Server) handleUpdateSubtask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status *bool `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == nil {
		s.respondError(c, errInvalidPayload)
		return
	}
	sub, err := s.data.setSubtaskStatus(id, *req.Status)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, sub)
}

func bindFields(c *gin.Context) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := c.ShouldBindJSON(&fields); err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidPayload, err)
	}
	return fields, nil
}

// applyFields decodes each known field onto t. Members arrive as ids and
// are kept as bare references until the store expands them.
func applyFields(t *task.Task, fields map[string]json.RawMessage) error {
	for name, raw := range fields {
		var err error
		switch name {
		case "title":
			err = json.Unmarshal(raw, &t.Title)
		case "description":
			err = json.Unmarshal(raw, &t.Description)
		case "category":
			err = json.Unmarshal(raw, &t.Category)
		case "status":
			err = json.Unmarshal(raw, &t.Status)
		case "priority":
			err = json.Unmarshal(raw, &t.Priority)
		case "color":
			err = json.Unmarshal(raw, &t.Color)
		case "checked":
			err = json.Unmarshal(raw, &t.Checked)
		case "created_at":
			err = json.Unmarshal(raw, &t.CreatedAt)
		case "due_date":
			var d date.Date
			if err = json.Unmarshal(raw, &d); err == nil {
				t.DueDate = d
			}
		case "members":
			var ids []int
			if err = json.Unmarshal(raw, &ids); err == nil {
				t.Members = make([]task.Member, len(ids))
				for i, id := range ids {
					t.Members[i] = task.Member{ID: id}
				}
			}
		case "subtasks":
			var subs []task.Subtask
			if err = json.Unmarshal(raw, &subs); err == nil {
				t.Subtasks = subs
			}
		default:
			// id, subtasks_progress and unknown keys are server-owned or ignored.
		}
		if err != nil {
			return fmt.Errorf("%w: field %s: %w", errInvalidPayload, name, err)
		}
	}
	t.Title = strings.TrimSpace(t.Title)
	return nil
}
