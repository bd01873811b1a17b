package notification_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"time"

	"github.com/frahmantamala/club-management/internal/cache"
	notificationDatamodel "github.com/frahmantamala/club-management/internal/core/datamodel/notification"
	"github.com/frahmantamala/club-management/internal/notification"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type memoryWriter struct {
	mu    sync.Mutex
	inApp []*notificationDatamodel.InApp
	logs  []*notificationDatamodel.Log
}

func (m *memoryWriter) CreateInApp(_ context.Context, n *notificationDatamodel.InApp) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inApp = append(m.inApp, n)
	return nil
}

func (m *memoryWriter) CreateLog(_ context.Context, l *notificationDatamodel.Log) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, l)
	return nil
}

func (m *memoryWriter) channels() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.logs))
	for _, l := range m.logs {
		out = append(out, l.Channel)
	}
	return out
}

func (m *memoryWriter) inAppCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inApp)
}

var testLogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

var _ = Describe("Dispatcher", func() {
	var writer *memoryWriter

	BeforeEach(func() {
		writer = &memoryWriter{}
	})

	It("writes an in-app notification and a log per job", func() {
		d := notification.NewDispatcher(notification.DispatcherConfig{MaxWorkers: 2}, writer, nil, cache.Noop{}, testLogger)
		defer d.Shutdown()

		for _, id := range []string{"a", "b", "c"} {
			Expect(d.Enqueue(notification.Job{
				Recipient: notification.Recipient{ID: id},
				Type:      notification.TypeReminder,
				Message:   "hello",
			})).To(Succeed())
		}

		Eventually(writer.inAppCount).Should(Equal(3))
		Eventually(writer.channels).Should(ConsistOf("IN_APP", "IN_APP", "IN_APP"))
		Expect(d.GatewayConfigured()).To(BeFalse())
	})

	It("also sends through the gateway when a phone is known", func() {
		var (
			mu       sync.Mutex
			received []map[string]string
		)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(r.Header.Get("Authorization")).To(Equal("Bearer key"))
			var body map[string]string
			Expect(json.NewDecoder(r.Body).Decode(&body)).To(Succeed())
			mu.Lock()
			received = append(received, body)
			mu.Unlock()
			w.WriteHeader(http.StatusAccepted)
		}))
		defer server.Close()

		gw := notification.NewHTTPGateway(notification.GatewayConfig{URL: server.URL, APIKey: "key", Timeout: time.Second}, testLogger)
		d := notification.NewDispatcher(notification.DispatcherConfig{MaxWorkers: 1}, writer, gw, nil, testLogger)
		defer d.Shutdown()

		Expect(d.Enqueue(notification.Job{
			Recipient: notification.Recipient{ID: "m1", Phone: "+221770000000"},
			Type:      notification.TypeReminder,
			Message:   "Rappel",
		})).To(Succeed())

		Eventually(writer.channels).Should(ConsistOf("IN_APP", "SMS"))
		mu.Lock()
		defer mu.Unlock()
		Expect(received).To(HaveLen(1))
		Expect(received[0]["to"]).To(Equal("+221770000000"))
		Expect(received[0]["message"]).To(Equal("Rappel"))
	})

	It("keeps the in-app copy when the gateway fails", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		gw := notification.NewHTTPGateway(notification.GatewayConfig{URL: server.URL}, testLogger)
		d := notification.NewDispatcher(notification.DispatcherConfig{MaxWorkers: 1}, writer, gw, nil, testLogger)
		defer d.Shutdown()

		Expect(d.Enqueue(notification.Job{Recipient: notification.Recipient{ID: "m1", Phone: "+1"}, Type: notification.TypeReminder, Message: "x"})).To(Succeed())
		Eventually(writer.channels).Should(ConsistOf("IN_APP"))
		Consistently(writer.channels, 200*time.Millisecond).Should(ConsistOf("IN_APP"))
	})

	It("refuses jobs after shutdown", func() {
		d := notification.NewDispatcher(notification.DispatcherConfig{}, writer, nil, nil, testLogger)
		d.Shutdown()
		Expect(d.Enqueue(notification.Job{Recipient: notification.Recipient{ID: "x"}})).To(MatchError(notification.ErrStopped))
	})

	It("has no gateway without a URL", func() {
		Expect(notification.NewHTTPGateway(notification.GatewayConfig{}, testLogger)).To(BeNil())
	})
})

var _ = Describe("FormatFCFA", func() {
	It("groups thousands", func() {
		Expect(notification.FormatFCFA(10000)).To(Equal("10 000 FCFA"))
		Expect(notification.FormatFCFA(1234567)).To(Equal("1 234 567 FCFA"))
		Expect(notification.FormatFCFA(500)).To(Equal("500 FCFA"))
	})
})
