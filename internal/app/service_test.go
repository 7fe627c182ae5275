package service_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/okian/calgrid/internal/adapters/ics"
	"github.com/okian/calgrid/internal/adapters/repository"
	service "github.com/okian/calgrid/internal/app"
	"github.com/okian/calgrid/internal/domain/layout"
	"github.com/okian/calgrid/internal/domain/model"
	"github.com/okian/calgrid/internal/domain/view"
	"github.com/okian/calgrid/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(logger.WithLevel("error")); err != nil {
		panic(err)
	}
}

func started(t *testing.T, opts ...service.Option) *service.Service {
	t.Helper()
	svc := service.New(opts...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	return svc
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New()
		ctx := context.Background()

		Convey("When it has not been started", func() {
			_, err := svc.ListEvents(ctx)

			Convey("Then operations report ErrNotStarted", func() {
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})

		Convey("When starting and stopping", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			stats := svc.GetStats()
			svc.Stop()
			svc.Stop()

			Convey("Then stats reflect the running service", func() {
				So(stats["started"], ShouldEqual, true)
				So(stats["events"], ShouldEqual, 0)
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})

		Convey("When the engine configuration is invalid", func() {
			bad := service.New(service.WithEngineOptions(layout.WithHourHeight(0)))
			err := bad.Start(ctx)

			Convey("Then Start fails", func() {
				So(errors.Is(err, layout.ErrInvalidConfiguration), ShouldBeTrue)
			})
		})
	})
}

func TestService_Events(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := started(t)
		defer svc.Stop()
		ctx := context.Background()

		created, err := svc.CreateEvent(ctx, model.Event{
			Title: "Review", StartDate: "2024-05-06", EndDate: "2024-05-06",
			StartTime: "10:00", EndTime: "11:00",
		})
		So(err, ShouldBeNil)
		So(created.ID, ShouldNotBeEmpty)

		Convey("When reading it back", func() {
			got, err := svc.GetEvent(ctx, created.ID)

			Convey("Then it is returned unchanged", func() {
				So(err, ShouldBeNil)
				So(got, ShouldResemble, created)
			})
		})

		Convey("When updating it", func() {
			created.EndTime = "12:00"
			_, err := svc.UpdateEvent(ctx, created)
			got, _ := svc.GetEvent(ctx, created.ID)

			Convey("Then the change is stored", func() {
				So(err, ShouldBeNil)
				So(got.EndTime, ShouldEqual, "12:00")
			})
		})

		Convey("When deleting it", func() {
			So(svc.DeleteEvent(ctx, created.ID), ShouldBeNil)
			_, err := svc.GetEvent(ctx, created.ID)
			list, _ := svc.ListEvents(ctx)

			Convey("Then it is gone", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				So(list, ShouldBeEmpty)
			})
		})

		Convey("When creating an invalid event", func() {
			_, err := svc.CreateEvent(ctx, model.Event{Title: "x", StartDate: "2024-05-06"})

			Convey("Then it is rejected", func() {
				So(errors.Is(err, repository.ErrInvalidEvent), ShouldBeTrue)
			})
		})
	})
}

func TestService_Layout(t *testing.T) {
	Convey("Given stored single and repeating events", t, func() {
		svc := started(t)
		defer svc.Stop()
		ctx := context.Background()

		for _, ev := range []model.Event{
			{ID: "standup", Title: "Standup", StartDate: "2024-05-01", EndDate: "2024-05-01",
				StartTime: "09:00", EndTime: "09:15", IsRepeating: true, RepeatingType: model.RepeatDaily},
			{ID: "planning", Title: "Planning", StartDate: "2024-05-07", EndDate: "2024-05-07",
				StartTime: "09:00", EndTime: "10:00"},
			{ID: "trip", Title: "Trip", StartDate: "2024-05-09", EndDate: "2024-05-11",
				StartTime: "08:00", EndTime: "18:00"},
			{ID: "later", Title: "Later", StartDate: "2024-06-01", EndDate: "2024-06-01",
				StartTime: "09:00", EndTime: "10:00"},
		} {
			_, err := svc.CreateEvent(ctx, ev)
			So(err, ShouldBeNil)
		}

		Convey("When laying out the week of 2024-05-06", func() {
			res, err := svc.Layout(ctx, view.Window{Type: view.Week, Anchor: "2024-05-06"})
			So(err, ShouldBeNil)

			byID := map[string]model.PositionedEvent{}
			for _, p := range res.Events {
				byID[p.ID] = p
			}

			Convey("Then every day gets a standup occurrence", func() {
				So(len(res.Events), ShouldEqual, 7+1+1)
				So(byID, ShouldContainKey, "standup@2024-05-06")
				So(byID, ShouldContainKey, "standup@2024-05-12")
				So(byID, ShouldNotContainKey, "later")
			})

			Convey("Then overlapping events share columns", func() {
				So(byID["planning"].TotalColumns, ShouldEqual, 2)
				So(byID["standup@2024-05-07"].TotalColumns, ShouldEqual, 2)
				So(byID["standup@2024-05-06"].TotalColumns, ShouldEqual, 1)
			})

			Convey("Then multi-day events become bars", func() {
				So(byID["trip"].Timed, ShouldBeFalse)
				So(byID["trip"].Bars, ShouldHaveLength, 1)
				So(res.Skipped, ShouldBeEmpty)
			})
		})

		Convey("When the window is invalid", func() {
			_, err := svc.Layout(ctx, view.Window{Type: "decade", Anchor: "2024-05-06"})

			Convey("Then a configuration error is returned", func() {
				So(errors.Is(err, layout.ErrInvalidConfiguration), ShouldBeTrue)
			})
		})
	})
}

func TestService_BoltStore(t *testing.T) {
	Convey("Given a service backed by a bolt file", t, func() {
		path := filepath.Join(t.TempDir(), "calgrid.db")
		ctx := context.Background()

		first := started(t, service.WithBoltPath(path))
		_, err := first.CreateEvent(ctx, model.Event{ID: "keep", Title: "Keep",
			StartDate: "2024-05-06", EndDate: "2024-05-06", StartTime: "10:00", EndTime: "11:00"})
		So(err, ShouldBeNil)
		first.Stop()

		Convey("When a new service opens the same file", func() {
			second := started(t, service.WithBoltPath(path))
			defer second.Stop()
			got, err := second.GetEvent(ctx, "keep")

			Convey("Then the event survived the restart", func() {
				So(err, ShouldBeNil)
				So(got.Title, ShouldEqual, "Keep")
			})
		})
	})
}

const teamFeed = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//calgrid//test//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:retro\r\n" +
	"DTSTAMP:20240501T000000Z\r\n" +
	"DTSTART:20240510T140000Z\r\n" +
	"DTEND:20240510T150000Z\r\n" +
	"SUMMARY:Retro\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:offsite\r\n" +
	"DTSTAMP:20240501T000000Z\r\n" +
	"DTSTART;VALUE=DATE:20240507\r\n" +
	"DTEND;VALUE=DATE:20240509\r\n" +
	"SUMMARY:Offsite\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

const shrunkFeed = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//calgrid//test//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:retro\r\n" +
	"DTSTAMP:20240501T000000Z\r\n" +
	"DTSTART:20240510T140000Z\r\n" +
	"DTEND:20240510T150000Z\r\n" +
	"SUMMARY:Retro\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestService_SyncICS(t *testing.T) {
	Convey("Given a service subscribed to a feed", t, func() {
		var body atomic.Value
		body.Store(teamFeed)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(body.Load().(string)))
		}))
		defer srv.Close()

		svc := started(t,
			service.WithICSSources([]ics.Source{{ID: "team", URL: srv.URL + "/team.ics"}}),
			service.WithHTTPClient(srv.Client()),
		)
		defer svc.Stop()
		ctx := context.Background()

		Convey("When syncing", func() {
			report, err := svc.SyncICS(ctx)

			Convey("Then feed events are stored under the source prefix", func() {
				So(err, ShouldBeNil)
				So(report.Sources, ShouldHaveLength, 1)
				So(report.Sources[0].Imported, ShouldEqual, 2)
				got, err := svc.GetEvent(ctx, "team:offsite")
				So(err, ShouldBeNil)
				So(got.EndDate, ShouldEqual, "2024-05-08")
				So(svc.GetStats()["lastSync"], ShouldNotBeNil)
			})

			Convey("And an event disappears from the feed", func() {
				body.Store(shrunkFeed)
				report, err := svc.SyncICS(ctx)

				Convey("Then it is removed from the store", func() {
					So(err, ShouldBeNil)
					So(report.Sources[0].Removed, ShouldEqual, 1)
					_, err := svc.GetEvent(ctx, "team:offsite")
					So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				})
			})
		})

		Convey("When the feed is unreachable", func() {
			srv.Close()
			report, err := svc.SyncICS(ctx)

			Convey("Then the failure is reported per source", func() {
				So(errors.Is(err, service.ErrSync), ShouldBeTrue)
				So(errors.Is(err, ics.ErrFetch), ShouldBeTrue)
				So(report.Sources[0].Error, ShouldNotBeEmpty)
			})
		})
	})
}
