package webhook_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"funnelhq.app/portal/internal/domain"
	webhookhandler "funnelhq.app/portal/internal/http/handler/webhook"
	"funnelhq.app/portal/internal/service"
	"funnelhq.app/portal/internal/webhook"
)

type mockSyncService struct {
	handleFn func(ctx context.Context, event *domain.IdentityEvent) error
	calls    int
}

func (m *mockSyncService) Handle(ctx context.Context, event *domain.IdentityEvent) error {
	m.calls++
	if m.handleFn != nil {
		return m.handleFn(ctx, event)
	}
	return nil
}

var _ = Describe("IdentityWebhookHandler", func() {
	var (
		router *gin.Engine
		sync   *mockSyncService
		key    []byte
		secret string
		now    time.Time
	)

	noSleep := func(context.Context, time.Duration) error { return nil }

	build := func(secret string) {
		verifier := webhook.NewVerifier(secret, 5*time.Minute).WithClock(func() time.Time { return now })
		retry := service.NewRetryCoordinator(service.RetryPolicy{MaxAttempts: 3, Delay: time.Second}, service.WithSleeper(noSleep))
		h := webhookhandler.NewIdentityWebhookHandler(verifier, sync, retry)

		router = gin.New()
		router.POST("/webhooks/identity", h.HandleEvent)
	}

	send := func(body string, signed bool) (*httptest.ResponseRecorder, map[string]any) {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/identity", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		if signed {
			ts := strconv.FormatInt(now.Unix(), 10)
			req.Header.Set("webhook-id", "msg_1")
			req.Header.Set("webhook-timestamp", ts)
			req.Header.Set("webhook-signature", "v1,"+webhook.Sign(key, "msg_1", ts, []byte(body)))
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		var resp map[string]any
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		return w, resp
	}

	const userCreated = `{"type":"user.created","data":{"id":"user_1","email":"a@x.com"}}`

	BeforeEach(func() {
		now = time.Unix(1_760_000_000, 0)
		key = []byte("identity-signing-key")
		secret = "whsec_" + base64.StdEncoding.EncodeToString(key)
		sync = &mockSyncService{}
		build(secret)
	})

	It("processes a verified delivery", func() {
		var got *domain.IdentityEvent
		sync.handleFn = func(_ context.Context, event *domain.IdentityEvent) error {
			got = event
			return nil
		}

		w, body := send(userCreated, true)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(body["received"]).To(BeTrue())
		Expect(body["type"]).To(Equal("user.created"))
		Expect(body["retries"]).To(BeNumerically("==", 0))
		Expect(got.MessageID).To(Equal("msg_1"))
		Expect(got.Type).To(Equal(domain.EventUserCreated))
	})

	It("reports the retries a transient failure needed", func() {
		sync.handleFn = func(context.Context, *domain.IdentityEvent) error {
			if sync.calls < 3 {
				return errors.New("organization not yet mirrored")
			}
			return nil
		}

		w, body := send(userCreated, true)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(body["retries"]).To(BeNumerically("==", 2))
		Expect(sync.calls).To(Equal(3))
	})

	It("returns 500 with the last error once retries are exhausted", func() {
		sync.handleFn = func(context.Context, *domain.IdentityEvent) error {
			return errors.New("business data unavailable")
		}

		w, body := send(userCreated, true)

		Expect(w.Code).To(Equal(http.StatusInternalServerError))
		Expect(body["type"]).To(Equal("user.created"))
		Expect(body["retries"]).To(BeNumerically("==", 2))
		Expect(body["lastError"]).To(Equal("business data unavailable"))
		Expect(sync.calls).To(Equal(3))
	})

	It("acknowledges permanent failures without retrying", func() {
		sync.handleFn = func(context.Context, *domain.IdentityEvent) error {
			return service.Permanent(errors.New("email missing"))
		}

		w, _ := send(userCreated, true)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(sync.calls).To(Equal(1))
	})

	It("acknowledges event types it does not handle", func() {
		sync.handleFn = func(context.Context, *domain.IdentityEvent) error {
			return service.Permanent(service.ErrUnhandledEvent)
		}

		w, body := send(`{"type":"session.created","data":{}}`, true)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(body["type"]).To(Equal("session.created"))
		Expect(sync.calls).To(Equal(1))
	})

	It("rejects deliveries without signature headers", func() {
		w, body := send(userCreated, false)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(body["error"]).To(Equal("missing webhook headers"))
		Expect(sync.calls).To(BeZero())
	})

	It("rejects deliveries with a bad signature", func() {
		key = []byte("someone-else")

		w, body := send(userCreated, true)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(body["error"]).To(Equal("invalid signature"))
		Expect(sync.calls).To(BeZero())
	})

	It("rejects signed bodies without an event type", func() {
		w, body := send(`{"data":{}}`, true)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(body["error"]).To(Equal("invalid payload"))
	})

	It("fails closed when no secret is configured", func() {
		build("")

		w, _ := send(userCreated, true)

		Expect(w.Code).To(Equal(http.StatusInternalServerError))
		Expect(sync.calls).To(BeZero())
	})
})
