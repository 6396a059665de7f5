package contacts

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"golang.org/x/text/language"

	"github.com/twiced-technology-gmbh/taskdeck/internal/api"
	"github.com/twiced-technology-gmbh/taskdeck/internal/clierr"
	"github.com/twiced-technology-gmbh/taskdeck/internal/task"
)

func member(id int, first, last string) task.Member {
	return task.Member{ID: id, User: task.User{ID: 100 + id, FirstName: first, LastName: last}}
}

func keysOf(groups []Group) []string {
	keys := make([]string, len(groups))
	for i, g := range groups {
		keys[i] = g.Key
	}
	return keys
}

func idsOf(members []task.Member) []int {
	out := make([]int, len(members))
	for i, m := range members {
		out[i] = m.ID
	}
	return out
}

func TestGroupMembers(t *testing.T) {
	members := []task.Member{
		member(1, "bob", "Smith"),
		member(2, "Anna", "Zed"),
		member(3, "", "Nameless"),
		member(4, "Anna", "Adams"),
		member(5, "Ben", "Ali"),
	}

	groups := GroupMembers(members, language.English)

	if got, want := keysOf(groups), []string{"#", "A", "B"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("keys = %v, want %v", got, want)
	}
	if got := idsOf(groups[1].Members); !reflect.DeepEqual(got, []int{4, 2}) {
		t.Errorf("A members = %v, want [4 2]", got)
	}
	if got := idsOf(groups[2].Members); !reflect.DeepEqual(got, []int{5, 1}) {
		t.Errorf("B members = %v, want [5 1]", got)
	}
}

func TestGroupMembersLocale(t *testing.T) {
	members := []task.Member{
		member(1, "Zoe", ""),
		member(2, "Ärne", ""),
		member(3, "Olaf", ""),
	}

	// German collation sorts Ä with A.
	de := keysOf(GroupMembers(members, language.German))
	if !reflect.DeepEqual(de, []string{"Ä", "O", "Z"}) {
		t.Errorf("de keys = %v", de)
	}

	// Turkish uppercases a dotted i to İ.
	tr := GroupMembers([]task.Member{member(1, "ilker", "")}, language.Turkish)
	if tr[0].Key != "İ" {
		t.Errorf("tr key = %q, want İ", tr[0].Key)
	}
}

func TestRegroupIsStable(t *testing.T) {
	members := []task.Member{
		member(1, "carl", "B"),
		member(2, "Carl", "A"),
		member(3, "", ""),
		member(4, "Émile", "x"),
		member(5, "Ada", ""),
		member(6, "Ada", ""),
		member(7, "zed", "q"),
	}

	once := GroupMembers(members, language.French)
	again := GroupMembers(Flatten(once), language.French)
	if !reflect.DeepEqual(once, again) {
		t.Errorf("regroup changed grouping:\n%v\n%v", once, again)
	}
}

func TestGroupMembersEmpty(t *testing.T) {
	if got := GroupMembers(nil, language.English); len(got) != 0 {
		t.Errorf("groups = %v", got)
	}
	if got := Flatten(nil); len(got) != 0 {
		t.Errorf("flatten = %v", got)
	}
}

type fakeGateway struct {
	ListContactsFunc  func(ctx context.Context) ([]task.Member, error)
	CreateContactFunc func(ctx context.Context, nc api.NewContact) (task.Member, error)
}

func (f *fakeGateway) ListContacts(ctx context.Context) ([]task.Member, error) {
	return f.ListContactsFunc(ctx)
}

func (f *fakeGateway) CreateContact(ctx context.Context, nc api.NewContact) (task.Member, error) {
	return f.CreateContactFunc(ctx, nc)
}

func TestDirectory(t *testing.T) {
	var reported []string
	rep := reporterFunc(func(m string) { reported = append(reported, m) })

	var sent api.NewContact
	gw := &fakeGateway{
		ListContactsFunc: func(context.Context) ([]task.Member, error) {
			ann := member(1, "Ann", "Lee")
			ann.User.Username = "ann"
			ann.User.Email = "ann@example.com"
			return []task.Member{ann, member(2, "Bob", "Ray")}, nil
		},
		CreateContactFunc: func(_ context.Context, nc api.NewContact) (task.Member, error) {
			sent = nc
			return member(3, nc.FirstName, nc.LastName), nil
		},
	}
	d := NewDirectory(gw, rep, language.English)
	ctx := context.Background()

	if err := d.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}

	for _, ref := range []string{"1", "ann", "ANN@example.com", "ann lee"} {
		if m, ok := d.Lookup(ref); !ok || m.ID != 1 {
			t.Errorf("Lookup(%q) = %v, %v", ref, m.ID, ok)
		}
	}

	got, err := d.ByIDs([]int{2, 1, 2})
	if err != nil {
		t.Fatalf("ByIDs: %v", err)
	}
	if !reflect.DeepEqual(idsOf(got), []int{2, 1}) {
		t.Errorf("ByIDs = %v", idsOf(got))
	}
	if _, err := d.Resolve([]string{"1", "nobody"}); !clierr.Is(err, clierr.InvalidInput) {
		t.Errorf("Resolve unknown: %v", err)
	}

	in := Input{FirstName: "Cleo", LastName: "Park", Email: "cleo@example.com", PhoneNumber: "123"}
	if _, err := d.Add(ctx, in); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if sent.Password != nil || sent.Color != DefaultColor || sent.Username == "" {
		t.Errorf("payload = %+v", sent)
	}
	if n := len(d.Members()); n != 3 {
		t.Errorf("members = %d, want 3", n)
	}
	if keys := keysOf(d.Groups()); !reflect.DeepEqual(keys, []string{"A", "B", "C"}) {
		t.Errorf("groups = %v", keys)
	}
	if len(reported) != 0 {
		t.Errorf("reported = %v", reported)
	}
}

func TestDirectoryFailures(t *testing.T) {
	var reported []string
	rep := reporterFunc(func(m string) { reported = append(reported, m) })
	gw := &fakeGateway{
		ListContactsFunc: func(context.Context) ([]task.Member, error) {
			return nil, errors.New("down")
		},
		CreateContactFunc: func(context.Context, api.NewContact) (task.Member, error) {
			t.Fatal("invalid contact reached the gateway")
			return task.Member{}, nil
		},
	}
	d := NewDirectory(gw, rep, language.English)

	if err := d.Load(context.Background()); !clierr.Is(err, clierr.TransportFailure) {
		t.Errorf("Load: %v", err)
	}
	_, err := d.Add(context.Background(), Input{FirstName: "A", LastName: "Bc", Email: "x@y.z", PhoneNumber: "1"})
	if !clierr.Is(err, clierr.ValidationFailed) {
		t.Errorf("Add: %v", err)
	}
	if len(reported) != 2 {
		t.Errorf("reported = %v, want 2 messages", reported)
	}
}

func TestInputPayload(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	p := Input{FirstName: " Dana ", LastName: "Fox", Email: "d@f.io", PhoneNumber: "1", Color: "#fff"}.Payload(now)
	if p.Username != "dana_1700000000000" || p.FirstName != "Dana" || p.Color != "#fff" {
		t.Errorf("payload = %+v", p)
	}
}

type reporterFunc func(string)

func (f reporterFunc) ShowError(m string) { f(m) }
