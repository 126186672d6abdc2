package identity_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"funnelhq.app/portal/internal/identity"
)

var _ = Describe("WorkOS provider", func() {
	var (
		server   *httptest.Server
		provider identity.Provider
		ctx      context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		mux := http.NewServeMux()
		mux.HandleFunc("/user_management/users/user_01", func(w http.ResponseWriter, r *http.Request) {
			Expect(r.Header.Get("Authorization")).To(Equal("Bearer sk_test"))
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id":                  "user_01",
				"email":               "Ada@Example.com",
				"first_name":          "Ada",
				"last_name":           "Lovelace",
				"profile_picture_url": "https://img.example.com/ada.png",
			})
		})
		mux.HandleFunc("/user_management/users/user_down", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
		server = httptest.NewServer(mux)
		provider = identity.NewWorkOSProviderWithEndpoint("sk_test", server.URL)
	})

	AfterEach(func() {
		server.Close()
	})

	It("maps a provider user onto the portal view", func() {
		user, err := provider.GetUser(ctx, "user_01")
		Expect(err).NotTo(HaveOccurred())
		Expect(user.ID).To(Equal("user_01"))
		Expect(user.Email).To(Equal("ada@example.com"))
		Expect(user.Name).To(Equal("Ada Lovelace"))
		Expect(user.AvatarURL).NotTo(BeNil())
		Expect(*user.AvatarURL).To(Equal("https://img.example.com/ada.png"))
	})

	It("reports unknown users as ErrUserNotFound", func() {
		_, err := provider.GetUser(ctx, "user_missing")
		Expect(err).To(MatchError(identity.ErrUserNotFound))
		Expect(err.Error()).To(ContainSubstring("user_missing"))
	})

	It("wraps other provider failures", func() {
		_, err := provider.GetUser(ctx, "user_down")
		Expect(err).To(HaveOccurred())
		Expect(err).NotTo(MatchError(identity.ErrUserNotFound))
		Expect(err.Error()).To(ContainSubstring("user_down"))
	})
})

var _ = Describe("Noop provider", func() {
	It("reports that no provider is configured", func() {
		p := identity.NewNoopProvider()
		_, err := p.GetUser(context.Background(), "user_01")
		Expect(err).To(MatchError(identity.ErrNotConfigured))
		Expect(p.RevokeInvitation(context.Background(), "inv_1")).To(MatchError(identity.ErrNotConfigured))
	})
})
