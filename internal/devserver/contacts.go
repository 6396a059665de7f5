package devserver

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/twiced-technology-gmbh/taskdeck/internal/task"
)

type contactRequest struct {
	Username    string  `json:"username"`
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	Email       string  `json:"email"`
	PhoneNumber string  `json:"phone_number"`
	Password    *string `json:"password"`
	Color       string  `json:"color"`
}

func (s *Server) handleListContacts(c *gin.Context) {
	respondSuccess(c, http.StatusOK, s.data.listMembers())
}

// handleCreateContact adds a member. Contacts without a password get an
// account that cannot sign in.
func (s *Server) handleCreateContact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, errInvalidPayload)
		return
	}
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.Username) == "" {
		s.respondError(c, errors.New("first_name and username are required"))
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		s.respondError(c, errors.New("invalid email"))
		return
	}

	var hash []byte
	if req.Password != nil && *req.Password != "" {
		var err error
		if hash, err = bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost); err != nil {
			s.respondError(c, err)
			return
		}
	}
	member, err := s.data.createAccount(task.User{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Username:  req.Username,
		Email:     req.Email,
	}, hash, req.PhoneNumber, colorOr(req.Color))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, member)
}
