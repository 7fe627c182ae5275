package repository_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/calgrid/internal/adapters/repository"
	"github.com/okian/calgrid/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func event(id, from, to string) model.Event {
	return model.Event{ID: id, Title: id, StartDate: from, EndDate: to, StartTime: "09:00", EndTime: "10:00"}
}

func date(s string) time.Time {
	t, _ := model.ParseDate(s)
	return t
}

func stores(t *testing.T) map[string]func() repository.Store {
	return map[string]func() repository.Store{
		"memory": func() repository.Store { return repository.NewMemoryStore() },
		"bolt": func() repository.Store {
			s, err := repository.OpenBoltStore(filepath.Join(t.TempDir(), "events.db"))
			if err != nil {
				t.Fatalf("open bolt store: %v", err)
			}
			return s
		},
	}
}

func TestStores(t *testing.T) {
	for name, open := range stores(t) {
		Convey("Given an empty "+name+" store", t, func() {
			ctx := context.Background()
			s := open()
			defer func() { _ = s.Close() }()

			Convey("When creating an event without id", func() {
				ev := event("", "2024-05-06", "2024-05-06")
				created, err := s.Create(ctx, ev)

				Convey("Then an id is assigned and the event can be read back", func() {
					So(err, ShouldBeNil)
					So(created.ID, ShouldNotBeEmpty)
					got, err := s.Get(ctx, created.ID)
					So(err, ShouldBeNil)
					So(got, ShouldResemble, created)
					So(s.Count(ctx), ShouldEqual, 1)
				})
			})

			Convey("When creating the same id twice", func() {
				_, err := s.Create(ctx, event("a", "2024-05-06", "2024-05-06"))
				So(err, ShouldBeNil)
				_, err = s.Create(ctx, event("a", "2024-05-07", "2024-05-07"))

				Convey("Then the second create conflicts", func() {
					So(errors.Is(err, repository.ErrConflict), ShouldBeTrue)
				})
			})

			Convey("When creating an invalid event", func() {
				bad := event("bad", "2024-05-06", "2024-05-06")
				bad.EndTime = "08:00"
				_, err := s.Create(ctx, bad)

				Convey("Then it is rejected", func() {
					So(errors.Is(err, repository.ErrInvalidEvent), ShouldBeTrue)
					So(s.Count(ctx), ShouldEqual, 0)
				})
			})

			Convey("When updating and deleting", func() {
				_, err := s.Create(ctx, event("a", "2024-05-06", "2024-05-06"))
				So(err, ShouldBeNil)

				changed := event("a", "2024-05-08", "2024-05-08")
				changed.Title = "moved"
				_, err = s.Update(ctx, changed)
				So(err, ShouldBeNil)
				got, _ := s.Get(ctx, "a")
				So(got.Title, ShouldEqual, "moved")

				So(s.Delete(ctx, "a"), ShouldBeNil)
				_, err = s.Get(ctx, "a")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				So(errors.Is(s.Delete(ctx, "a"), repository.ErrNotFound), ShouldBeTrue)

				_, err = s.Update(ctx, event("ghost", "2024-05-08", "2024-05-08"))
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})

			Convey("When querying a date range", func() {
				for _, ev := range []model.Event{
					event("before", "2024-04-01", "2024-04-02"),
					event("inside", "2024-05-07", "2024-05-07"),
					event("straddle", "2024-05-01", "2024-05-06"),
					event("after", "2024-06-01", "2024-06-01"),
				} {
					So(s.Upsert(ctx, ev), ShouldBeNil)
				}
				rep := event("weekly", "2024-01-01", "2024-01-01")
				rep.IsRepeating, rep.RepeatingType = true, model.RepeatWeekly
				So(s.Upsert(ctx, rep), ShouldBeNil)

				got, err := s.InRange(ctx, date("2024-05-06"), date("2024-05-12"))

				Convey("Then overlapping and repeating events are returned in start order", func() {
					So(err, ShouldBeNil)
					ids := make([]string, len(got))
					for i, ev := range got {
						ids[i] = ev.ID
					}
					So(ids, ShouldResemble, []string{"weekly", "straddle", "inside"})
				})

				Convey("And List returns everything", func() {
					all, err := s.List(ctx)
					So(err, ShouldBeNil)
					So(all, ShouldHaveLength, 5)
				})
			})
		})
	}
}

func TestValidate(t *testing.T) {
	Convey("Given events checked before storage", t, func() {
		ok := event("a", "2024-05-06", "2024-05-06")
		So(repository.Validate(ok), ShouldBeNil)

		overnight := event("b", "2024-05-06", "2024-05-07")
		overnight.StartTime, overnight.EndTime = "22:00", "06:00"
		So(repository.Validate(overnight), ShouldBeNil)

		cases := []func(*model.Event){
			func(e *model.Event) { e.Title = "" },
			func(e *model.Event) { e.StartDate = "2024/05/06" },
			func(e *model.Event) { e.EndTime = "25:00" },
			func(e *model.Event) { e.EndTime = e.StartTime },
			func(e *model.Event) { e.EndDate = "2024-05-01" },
			func(e *model.Event) { e.IsRepeating = true; e.RepeatingType = "yearly" },
			func(e *model.Event) { e.RepeatingType = model.RepeatDaily },
		}
		for _, mutate := range cases {
			ev := ok
			mutate(&ev)
			So(errors.Is(repository.Validate(ev), repository.ErrInvalidEvent), ShouldBeTrue)
		}
	})
}

func TestStores_Closed(t *testing.T) {
	for name, open := range stores(t) {
		Convey("Given a closed "+name+" store", t, func() {
			ctx := context.Background()
			s := open()
			_, err := s.Create(ctx, event("a", "2024-05-06", "2024-05-06"))
			So(err, ShouldBeNil)
			So(s.Close(), ShouldBeNil)

			Convey("Then every operation reports ErrClosed", func() {
				_, err := s.Get(ctx, "a")
				So(errors.Is(err, repository.ErrClosed), ShouldBeTrue)
				_, err = s.List(ctx)
				So(errors.Is(err, repository.ErrClosed), ShouldBeTrue)
				_, err = s.InRange(ctx, date("2024-05-01"), date("2024-05-31"))
				So(errors.Is(err, repository.ErrClosed), ShouldBeTrue)
				_, err = s.Create(ctx, event("b", "2024-05-06", "2024-05-06"))
				So(errors.Is(err, repository.ErrClosed), ShouldBeTrue)
				_, err = s.Update(ctx, event("a", "2024-05-07", "2024-05-07"))
				So(errors.Is(err, repository.ErrClosed), ShouldBeTrue)
				So(errors.Is(s.Upsert(ctx, event("c", "2024-05-06", "2024-05-06")), repository.ErrClosed), ShouldBeTrue)
				So(errors.Is(s.Delete(ctx, "a"), repository.ErrClosed), ShouldBeTrue)
				So(s.Count(ctx), ShouldEqual, 0)
			})

			Convey("And closing again is harmless", func() {
				So(s.Close(), ShouldBeNil)
			})
		})
	}
}
