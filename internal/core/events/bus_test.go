package events_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/frahmantamala/servicebook/internal/core/events"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestEvents(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Events Suite")
}

var _ = Describe("EventBus", func() {
	var (
		bus    *events.EventBus
		logBuf *syncBuffer
	)

	BeforeEach(func() {
		logBuf = &syncBuffer{}
		bus = events.NewEventBus(slog.New(slog.NewTextHandler(logBuf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	})

	It("should deliver published events to every subscriber asynchronously", func() {
		received := make(chan string, 2)
		for i := 0; i < 2; i++ {
			bus.Subscribe(events.EventTypeCollectionInvalidated, func(ctx context.Context, e events.Event) error {
				received <- e.EventID()
				return nil
			})
		}

		evt := events.NewCollectionInvalidatedEvent("machines", "maintenance")
		Expect(bus.Publish(context.Background(), evt)).To(Succeed())

		Eventually(received).Should(Receive(Equal(evt.ID)))
		Eventually(received).Should(Receive(Equal(evt.ID)))
	})

	It("should keep handlers running after the publishing request is cancelled", func() {
		done := make(chan error, 1)
		bus.Subscribe(events.EventTypeRecordChanged, func(ctx context.Context, e events.Event) error {
			done <- ctx.Err()
			return nil
		})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		Expect(bus.Publish(ctx, events.NewRecordChangedEvent("claims", 7, events.OpDelete, 1))).To(Succeed())

		Eventually(done).Should(Receive(BeNil()))
	})

	It("should stop at the first failing handler when publishing synchronously", func() {
		calls := 0
		bus.Subscribe(events.EventTypeRecordChanged, func(ctx context.Context, e events.Event) error {
			calls++
			return errors.New("boom")
		})
		bus.Subscribe(events.EventTypeRecordChanged, func(ctx context.Context, e events.Event) error {
			calls++
			return nil
		})

		err := bus.PublishSync(context.Background(), events.NewRecordChangedEvent("machines", 1, events.OpCreate, 1))
		Expect(err).To(MatchError(ContainSubstring("boom")))
		Expect(calls).To(Equal(1))
	})

	It("should ignore events nobody listens to", func() {
		Expect(bus.PublishSync(context.Background(), events.NewCollectionInvalidatedEvent("claims"))).To(Succeed())
	})
})

var _ = Describe("AuditLog", func() {
	It("should log the collection, record and actor", func() {
		buf := &syncBuffer{}
		handler := events.AuditLog(slog.New(slog.NewTextHandler(buf, nil)))

		Expect(handler(context.Background(), events.NewRecordChangedEvent("maintenance", 12, events.OpUpdate, 3))).To(Succeed())

		out := buf.String()
		Expect(out).To(ContainSubstring("collection=maintenance"))
		Expect(out).To(ContainSubstring("record_id=12"))
		Expect(out).To(ContainSubstring("operation=update"))
		Expect(out).To(ContainSubstring("actor_id=3"))
	})

	It("should reject other event types", func() {
		handler := events.AuditLog(slog.New(slog.NewTextHandler(&syncBuffer{}, nil)))
		Expect(handler(context.Background(), events.NewCollectionInvalidatedEvent("machines"))).NotTo(Succeed())
	})
})

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
