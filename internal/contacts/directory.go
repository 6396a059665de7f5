package contacts

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/language"

	"github.com/twiced-technology-gmbh/taskdeck/internal/api"
	"github.com/twiced-technology-gmbh/taskdeck/internal/clierr"
	"github.com/twiced-technology-gmbh/taskdeck/internal/store"
	"github.com/twiced-technology-gmbh/taskdeck/internal/task"
)

// DefaultColor is the badge color for new contacts.
const DefaultColor = "#29ABE2"

const minNameLen = 2

const (
	msgLoad   = "Something went wrong fetching all contacts"
	msgCreate = "Failed to create contact"
)

// Gateway loads and stores contacts. *api.Client satisfies it.
type Gateway interface {
	ListContacts(ctx context.Context) ([]task.Member, error)
	CreateContact(ctx context.Context, nc api.NewContact) (task.Member, error)
}

// Directory holds the loaded contacts. The list is replaced whole on every
// change, like the task store.
type Directory struct {
	gw       Gateway
	reporter store.Reporter
	tag      language.Tag

	mu      sync.RWMutex
	members []task.Member
}

// NewDirectory returns an empty directory that groups with tag's rules.
func NewDirectory(gw Gateway, reporter store.Reporter, tag language.Tag) *Directory {
	if reporter == nil {
		reporter = store.ReporterFunc(func(string) {})
	}
	return &Directory{gw: gw, reporter: reporter, tag: tag, members: []task.Member{}}
}

// Load replaces the contact list with the backend's.
func (d *Directory) Load(ctx context.Context) error {
	members, err := d.gw.ListContacts(ctx)
	if err != nil {
		d.reporter.ShowError(msgLoad)
		return asCLIError(msgLoad, err)
	}
	d.mu.Lock()
	d.members = slices.Clone(members)
	d.mu.Unlock()
	return nil
}

// Members returns the contacts in load order.
func (d *Directory) Members() []task.Member {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.members)
}

// Groups projects the current contacts into alphabetical groups.
func (d *Directory) Groups() []Group {
	return GroupMembers(d.Members(), d.tag)
}

// Input is what a user enters for a new contact.
type Input struct {
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	Color       string
}

// Validate checks the fields the contact form requires.
func (in Input) Validate() error {
	if len([]rune(strings.TrimSpace(in.FirstName))) < minNameLen {
		return clierr.Newf(clierr.ValidationFailed, "first name needs at least %d characters", minNameLen)
	}
	if len([]rune(strings.TrimSpace(in.LastName))) < minNameLen {
		return clierr.Newf(clierr.ValidationFailed, "last name needs at least %d characters", minNameLen)
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return clierr.Newf(clierr.ValidationFailed, "invalid email %q", in.Email).
			WithDetails(map[string]any{"email": in.Email})
	}
	if strings.TrimSpace(in.PhoneNumber) == "" {
		return clierr.New(clierr.ValidationFailed, "phone number is required")
	}
	return nil
}

// Payload builds the create request. Contacts get a generated username and
// no password.
func (in Input) Payload(now time.Time) api.NewContact {
	color := in.Color
	if color == "" {
		color = DefaultColor
	}
	first := strings.TrimSpace(in.FirstName)
	return api.NewContact{
		Username:    strings.ToLower(first) + "_" + strconv.FormatInt(now.UnixMilli(), 10),
		FirstName:   first,
		LastName:    strings.TrimSpace(in.LastName),
		Email:       strings.TrimSpace(in.Email),
		PhoneNumber: strings.TrimSpace(in.PhoneNumber),
		Color:       color,
	}
}

// Add validates and creates a contact, then appends it to the list.
func (d *Directory) Add(ctx context.Context, in Input) (task.Member, error) {
	if err := in.Validate(); err != nil {
		d.reporter.ShowError(msgCreate)
		return task.Member{}, err
	}
	m, err := d.gw.CreateContact(ctx, in.Payload(time.Now()))
	if err != nil {
		d.reporter.ShowError(msgCreate)
		return task.Member{}, asCLIError(msgCreate, err)
	}

	d.mu.Lock()
	next := make([]task.Member, 0, len(d.members)+1)
	next = append(next, d.members...)
	d.members = append(next, m)
	d.mu.Unlock()
	return m, nil
}

// Lookup finds a contact by id, username, email or full name
// (case-insensitive).
func (d *Directory) Lookup(ref string) (task.Member, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return task.Member{}, false
	}
	id, idErr := strconv.Atoi(ref)
	for _, m := range d.Members() {
		switch {
		case idErr == nil && m.ID == id:
			return m, true
		case strings.EqualFold(m.User.Username, ref),
			strings.EqualFold(m.User.Email, ref),
			strings.EqualFold(m.FullName(), ref):
			return m, true
		}
	}
	return task.Member{}, false
}

// Resolve maps member references to contacts, keeping the given order and
// dropping duplicates. Unknown references fail with the full list of misses.
func (d *Directory) Resolve(refs []string) ([]task.Member, error) {
	out := make([]task.Member, 0, len(refs))
	var missing []string
	for _, ref := range refs {
		if strings.TrimSpace(ref) == "" {
			continue
		}
		m, ok := d.Lookup(ref)
		if !ok {
			missing = append(missing, ref)
			continue
		}
		if !slices.ContainsFunc(out, func(x task.Member) bool { return x.ID == m.ID }) {
			out = append(out, m)
		}
	}
	if len(missing) > 0 {
		return nil, clierr.Newf(clierr.InvalidInput, "unknown contact(s): %s", strings.Join(missing, ", ")).
			WithDetails(map[string]any{"missing": missing})
	}
	return out, nil
}

// ByIDs returns the contacts with the given ids in that order.
func (d *Directory) ByIDs(ids []int) ([]task.Member, error) {
	refs := make([]string, len(ids))
	for i, id := range ids {
		refs[i] = strconv.Itoa(id)
	}
	return d.Resolve(refs)
}

func asCLIError(msg string, err error) error {
	var ce *clierr.Error
	if errors.As(err, &ce) {
		return ce
	}
	return clierr.Wrap(clierr.TransportFailure, fmt.Sprintf("%s: %v", msg, err), err)
}
