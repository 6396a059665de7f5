package api

import (
	"context"
	"net/http"

	"github.com/twiced-technology-gmbh/taskdeck/internal/task"
)

// NewContact is the payload for creating a contact. Contacts are accounts
// without a password.
type NewContact struct {
	Username    string  `json:"username"`
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	Email       string  `json:"email"`
	PhoneNumber string  `json:"phone_number"`
	Password    *string `json:"password"`
	Color       string  `json:"color"`
}

// ListContacts fetches every contact.
func (c *Client) ListContacts(ctx context.Context) ([]task.Member, error) {
	var members []task.Member
	if err := c.do(ctx, http.MethodGet, "/contacts/", nil, &members); err != nil {
		return nil, err
	}
	if members == nil {
		members = []task.Member{}
	}
	return members, nil
}

// CreateContact stores a new contact and returns it as a Member.
func (c *Client) CreateContact(ctx context.Context, nc NewContact) (task.Member, error) {
	var m task.Member
	if err := c.do(ctx, http.MethodPost, "/contacts/", nc, &m); err != nil {
		return task.Member{}, err
	}
	return m, nil
}
