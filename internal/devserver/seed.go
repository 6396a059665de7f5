package devserver

import (
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/twiced-technology-gmbh/taskdeck/internal/date"
	"github.com/twiced-technology-gmbh/taskdeck/internal/task"
)

// Demo account created by Seed.
const (
	DemoEmail    = "guest@taskdeck.local"
	DemoPassword = "guest1234"
)

type seedContact struct {
	first, last, email, phone, color string
}

var seedContacts = []seedContact{
	{"Anton", "Mayer", "anton@taskdeck.local", "+49 1111 111 11 1", "#FF7A00"},
	{"Anja", "Schulz", "schulz@taskdeck.local", "+49 2222 222 22 2", "#9327FF"},
	{"Benedikt", "Ziegler", "benedikt@taskdeck.local", "+49 3333 333 33 3", "#6E52FF"},
	{"David", "Eisenberg", "davidberg@taskdeck.local", "+49 4444 444 44 4", "#FC71FF"},
	{"Eva", "Fischer", "eva@taskdeck.local", "+49 5555 555 55 5", "#FFBB2B"},
	{"Emmanuel", "Mauer", "emmanuelma@taskdeck.local", "+49 6666 666 66 6", "#1FD7C1"},
}

// Seed adds the demo account, a handful of contacts and a task in every
// column. It is meant for an empty server.
func (s *Server) Seed() error {
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing demo password: %w", err)
	}
	if _, err := s.data.createAccount(task.User{
		FirstName: "Guest",
		Username:  "guest",
		Email:     DemoEmail,
	}, hash, "", defaultColor); err != nil {
		return fmt.Errorf("creating demo account: %w", err)
	}

	var ids []int
	for i, sc := range seedContacts {
		m, err := s.data.createAccount(task.User{
			FirstName: sc.first,
			LastName:  sc.last,
			Username:  fmt.Sprintf("contact_%d", i+1),
			Email:     sc.email,
		}, nil, sc.phone, sc.color)
		if err != nil {
			return fmt.Errorf("creating contact %s: %w", sc.email, err)
		}
		ids = append(ids, m.ID)
	}

	now := s.now()
	today := date.Of(now)
	due := func(days int) date.Date { return date.Of(today.AddDate(0, 0, days)) }
	refs := func(ids ...int) []task.Member {
		out := make([]task.Member, len(ids))
		for i, id := range ids {
			out[i] = task.Member{ID: id}
		}
		return out
	}

	tasks := []task.Task{
		{
			Title:       "Kochwelt Page & Recipe Recommender",
			Description: "Build start page with recipe recommendation.",
			Category:    task.CategoryUserStory,
			Status:      task.StatusInProgress,
			Priority:    task.PriorityMedium,
			Members:     refs(ids[0], ids[1]),
			DueDate:     due(7),
			Subtasks: []task.Subtask{
				{Title: "Implement recipe recommendation", Status: true},
				{Title: "Start page layout"},
			},
		},
		{
			Title:       "HTML Base Template Creation",
			Description: "Create reusable HTML base templates.",
			Category:    task.CategoryTechnicalTask,
			Status:      task.StatusAwaitFeedback,
			Priority:    task.PriorityLow,
			Members:     refs(ids[2], ids[3]),
			DueDate:     due(3),
		},
		{
			Title:       "Daily Kochwelt Recipe",
			Description: "Implement daily recipe and portion calculator.",
			Category:    task.CategoryUserStory,
			Status:      task.StatusAwaitFeedback,
			Priority:    task.PriorityMedium,
			Members:     refs(ids[4], ids[5], ids[0]),
			DueDate:     due(10),
		},
		{
			Title:       "CSS Architecture Planning",
			Description: "Define CSS naming conventions and structure.",
			Category:    task.CategoryTechnicalTask,
			Status:      task.StatusDone,
			Priority:    task.PriorityHigh,
			Members:     refs(ids[5], ids[1]),
			DueDate:     due(-2),
			Subtasks: []task.Subtask{
				{Title: "Establish CSS Methodology", Status: true},
				{Title: "Setup Base Styles", Status: true},
			},
		},
		{
			Title:       "Contact Form & Imprint",
			Description: "Create a contact form and imprint page.",
			Category:    task.CategoryUserStory,
			Status:      task.StatusTodo,
			Priority:    task.PriorityHigh,
			Members:     refs(ids[2]),
			DueDate:     due(1),
		},
	}
	for i, t := range tasks {
		t.Color = task.DefaultColor
		created := now.Add(time.Duration(i) * time.Minute)
		t.CreatedAt = &created
		if _, err := s.data.createTask(t, now); err != nil {
			return fmt.Errorf("creating task %q: %w", t.Title, err)
		}
	}
	return nil
}
