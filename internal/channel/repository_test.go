package channel

import (
	"errors"
	"testing"
)

func testChannel(id string) *Channel {
	return &Channel{
		ID:          id,
		Name:        "Channel " + id,
		TzOffsetMin: -300,
		Enabled:     true,
	}
}

func TestInsertAndGet(t *testing.T) {
	repo := NewInMemoryRepository()

	ch := testChannel("chan-1")
	if err := repo.Insert(ch); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := repo.GetByID("chan-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Name != "Channel chan-1" || got.TzOffsetMin != -300 {
		t.Errorf("unexpected channel: %+v", got)
	}
}

func TestGetUnknownChannel(t *testing.T) {
	repo := NewInMemoryRepository()

	_, err := repo.GetByID("missing")
	if !errors.Is(err, ErrChannelNotFound) {
		t.Errorf("expected ErrChannelNotFound, got %v", err)
	}
}

func TestInsertRejectsInvalid(t *testing.T) {
	repo := NewInMemoryRepository()

	cases := []*Channel{
		{Name: "no id", TzOffsetMin: 0},
		{ID: "no-name", TzOffsetMin: 0},
		{ID: "bad-tz", Name: "Bad TZ", TzOffsetMin: 15 * 60},
		{ID: "Chan-1", Name: "Uppercase ID"},
		{ID: "bad-avatar", Name: "Bad Avatar", AvatarURL: "ftp://example.com/a.png"},
	}
	for _, ch := range cases {
		if err := repo.Insert(ch); err == nil {
			t.Errorf("expected validation error for %+v", ch)
		}
	}
}

func TestUpdateUnknownChannel(t *testing.T) {
	repo := NewInMemoryRepository()

	err := repo.Update(testChannel("missing"))
	if !errors.Is(err, ErrChannelNotFound) {
		t.Errorf("expected ErrChannelNotFound, got %v", err)
	}
}

func TestUpdateReplacesFields(t *testing.T) {
	repo := NewInMemoryRepository()

	ch := testChannel("chan-1")
	if err := repo.Insert(ch); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	ch.TzOffsetMin = 120
	ch.Enabled = false
	if err := repo.Update(ch); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := repo.GetByID("chan-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.TzOffsetMin != 120 || got.Enabled {
		t.Errorf("update not applied: %+v", got)
	}
}

func TestListEnabledSkipsDisabled(t *testing.T) {
	repo := NewInMemoryRepository()

	a := testChannel("b-chan")
	b := testChannel("a-chan")
	c := testChannel("c-chan")
	c.Enabled = false

	for _, ch := range []*Channel{a, b, c} {
		if err := repo.Insert(ch); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	list, err := repo.ListEnabled()
	if err != nil {
		t.Fatalf("ListEnabled failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 channels, got %d", len(list))
	}
	if list[0].ID != "a-chan" || list[1].ID != "b-chan" {
		t.Errorf("expected channels ordered by ID, got %s, %s", list[0].ID, list[1].ID)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	repo := NewInMemoryRepository()

	if err := repo.Insert(testChannel("chan-1")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, _ := repo.GetByID("chan-1")
	got.Name = "mutated"

	again, _ := repo.GetByID("chan-1")
	if again.Name == "mutated" {
		t.Error("GetByID returned a shared reference")
	}
}
