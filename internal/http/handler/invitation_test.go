package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"funnelhq.app/portal/internal/http/handler"
	"funnelhq.app/portal/internal/model"
	"funnelhq.app/portal/internal/service"
)

var _ = Describe("InvitationHandler", func() {
	var (
		router     *gin.Engine
		invService *mockInvitationService
		h          *handler.InvitationHandler
		orgID      int64
		expiresAt  time.Time
	)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		var req *http.Request
		if body == "" {
			req = httptest.NewRequest(method, path, nil)
		} else {
			req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
			req.Header.Set("Content-Type", "application/json")
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	decode := func(w *httptest.ResponseRecorder) map[string]any {
		var body map[string]any
		Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
		return body
	}

	pending := func() *model.Invitation {
		return &model.Invitation{
			ID:             1001,
			Email:          "new@acme.com",
			Role:           model.AccountRoleTeamMember,
			OrganizationID: &orgID,
			Status:         model.InvitationStatusPending,
			ExpiresAt:      expiresAt,
		}
	}

	BeforeEach(func() {
		orgID = 42
		expiresAt = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
		invService = &mockInvitationService{}
		h = handler.NewInvitationHandler(invService, false)

		router = gin.New()
		router.POST("/invitations/validate", h.Validate)
		router.POST("/invitations/accept", h.Accept)
		router.POST("/invitations/create", h.Create)
		router.DELETE("/invitations/:id", h.Revoke)
		router.GET("/invitations/list/:organizationId", h.ListByOrganization)
	})

	Describe("Validate", func() {
		It("returns the invitation summary for a valid token", func() {
			invService.validateFn = func(_ context.Context, token string) (*model.Invitation, error) {
				Expect(token).To(Equal("tok"))
				return pending(), nil
			}

			w := do(http.MethodPost, "/invitations/validate", `{"token":"tok"}`)

			Expect(w.Code).To(Equal(http.StatusOK))
			body := decode(w)
			Expect(body["valid"]).To(BeTrue())
			inv := body["invitation"].(map[string]any)
			Expect(inv["id"]).To(Equal("1001"))
			Expect(inv["email"]).To(Equal("new@acme.com"))
			Expect(inv["organizationId"]).To(Equal("42"))
		})

		It("requires a token", func() {
			w := do(http.MethodPost, "/invitations/validate", `{}`)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(decode(w)["code"]).To(Equal("invalid_request"))
		})

		DescribeTable("maps lifecycle errors to 400 codes",
			func(err error, code string) {
				invService.validateFn = func(context.Context, string) (*model.Invitation, error) {
					return nil, err
				}

				w := do(http.MethodPost, "/invitations/validate", `{"token":"tok"}`)

				Expect(w.Code).To(Equal(http.StatusBadRequest))
				Expect(decode(w)["code"]).To(Equal(code))
			},
			Entry("unknown token", service.ErrInviteNotFound, "not_found"),
			Entry("expired", service.ErrInviteExpired, "expired"),
			Entry("already processed", service.ErrInviteAlreadyProcessed, "already_processed"),
		)

		It("returns 500 with details outside production", func() {
			invService.validateFn = func(context.Context, string) (*model.Invitation, error) {
				return nil, errors.New("db down")
			}

			w := do(http.MethodPost, "/invitations/validate", `{"token":"tok"}`)

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
			Expect(decode(w)["details"]).To(Equal("db down"))
		})

		It("omits details in production", func() {
			invService.validateFn = func(context.Context, string) (*model.Invitation, error) {
				return nil, errors.New("db down")
			}
			prod := handler.NewInvitationHandler(invService, true)
			router = gin.New()
			router.POST("/invitations/validate", prod.Validate)

			w := do(http.MethodPost, "/invitations/validate", `{"token":"tok"}`)

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
			Expect(decode(w)).NotTo(HaveKey("details"))
		})
	})

	Describe("Accept", func() {
		It("accepts with request metadata", func() {
			var gotMeta model.AcceptMetadata
			var gotAccount int64
			invService.acceptFn = func(_ context.Context, token string, accountID int64, meta model.AcceptMetadata) (*model.Invitation, error) {
				gotAccount = accountID
				gotMeta = meta
				inv := pending()
				inv.Status = model.InvitationStatusAccepted
				return inv, nil
			}

			req := httptest.NewRequest(http.MethodPost, "/invitations/accept", bytes.NewBufferString(`{"token":"tok","userId":"7"}`))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("User-Agent", "portal-test")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(gotAccount).To(Equal(int64(7)))
			Expect(gotMeta.UserAgent).To(Equal("portal-test"))
			Expect(gotMeta.IP).NotTo(BeEmpty())

			body := decode(w)
			Expect(body["success"]).To(BeTrue())
			Expect(body["role"]).To(Equal("team_member"))
			Expect(body["organizationId"]).To(Equal("42"))
		})

		It("returns 404 when the account is unknown", func() {
			invService.acceptFn = func(context.Context, string, int64, model.AcceptMetadata) (*model.Invitation, error) {
				return nil, service.ErrAccountNotFound
			}

			w := do(http.MethodPost, "/invitations/accept", `{"token":"tok","userId":"7"}`)

			Expect(w.Code).To(Equal(http.StatusNotFound))
			Expect(decode(w)["code"]).To(Equal("user_not_found"))
		})

		It("reports a lost race as already processed", func() {
			invService.acceptFn = func(context.Context, string, int64, model.AcceptMetadata) (*model.Invitation, error) {
				return nil, service.ErrInviteAlreadyProcessed
			}

			w := do(http.MethodPost, "/invitations/accept", `{"token":"tok","userId":"7"}`)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(decode(w)["code"]).To(Equal("already_processed"))
		})

		It("requires a user id", func() {
			w := do(http.MethodPost, "/invitations/accept", `{"token":"tok"}`)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("Create", func() {
		It("creates an invitation and returns its link", func() {
			var got service.CreateInvitationParams
			invService.createFn = func(_ context.Context, params service.CreateInvitationParams) (*model.Invitation, string, error) {
				got = params
				return pending(), "https://app.example.com/invite?token=tok", nil
			}

			w := do(http.MethodPost, "/invitations/create", `{"email":"new@acme.com","role":"team_member","organizationId":"42","invitedBy":"9"}`)

			Expect(w.Code).To(Equal(http.StatusCreated))
			Expect(got.Email).To(Equal("new@acme.com"))
			Expect(got.Role).To(Equal(model.AccountRoleTeamMember))
			Expect(*got.OrganizationID).To(Equal(int64(42)))
			Expect(*got.InvitedBy).To(Equal(int64(9)))
			Expect(got.ProjectID).To(BeNil())

			inv := decode(w)["invitation"].(map[string]any)
			Expect(inv["id"]).To(Equal("1001"))
			Expect(inv["invitationUrl"]).To(Equal("https://app.example.com/invite?token=tok"))
		})

		It("rejects malformed emails before reaching the service", func() {
			called := false
			invService.createFn = func(context.Context, service.CreateInvitationParams) (*model.Invitation, string, error) {
				called = true
				return nil, "", nil
			}

			w := do(http.MethodPost, "/invitations/create", `{"email":"nope","role":"admin"}`)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(called).To(BeFalse())
		})

		DescribeTable("maps create errors",
			func(err error, status int, code string) {
				invService.createFn = func(context.Context, service.CreateInvitationParams) (*model.Invitation, string, error) {
					return nil, "", err
				}

				w := do(http.MethodPost, "/invitations/create", `{"email":"new@acme.com","role":"admin"}`)

				Expect(w.Code).To(Equal(status))
				Expect(decode(w)["code"]).To(Equal(code))
			},
			Entry("duplicate user", service.ErrDuplicateUser, http.StatusConflict, "duplicate_user"),
			Entry("duplicate pending", service.ErrDuplicatePendingInvitation, http.StatusConflict, "duplicate_pending"),
			Entry("invalid role", service.ErrInvalidRole, http.StatusBadRequest, "invalid_role"),
			Entry("invalid email", service.ErrInvalidEmail, http.StatusBadRequest, "invalid_email"),
			Entry("unknown organization", service.ErrOrganizationNotFound, http.StatusBadRequest, "organization_not_found"),
		)
	})

	Describe("Revoke", func() {
		It("revokes without a body", func() {
			var gotID int64
			invService.revokeFn = func(_ context.Context, id int64, revokedBy *int64, reason *string) (*model.Invitation, error) {
				gotID = id
				Expect(revokedBy).To(BeNil())
				Expect(reason).To(BeNil())
				return pending(), nil
			}

			w := do(http.MethodDelete, "/invitations/1001", "")

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(gotID).To(Equal(int64(1001)))
			Expect(decode(w)["success"]).To(BeTrue())
		})

		It("passes the actor and reason through", func() {
			invService.revokeFn = func(_ context.Context, _ int64, revokedBy *int64, reason *string) (*model.Invitation, error) {
				Expect(*revokedBy).To(Equal(int64(9)))
				Expect(*reason).To(Equal("sent to wrong address"))
				return pending(), nil
			}

			w := do(http.MethodDelete, "/invitations/1001", `{"revokedBy":"9","reason":"sent to wrong address"}`)

			Expect(w.Code).To(Equal(http.StatusOK))
		})

		It("rejects non-numeric ids", func() {
			w := do(http.MethodDelete, "/invitations/abc", "")

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 404 for unknown invitations", func() {
			w := do(http.MethodDelete, "/invitations/5", "")

			Expect(w.Code).To(Equal(http.StatusNotFound))
			Expect(decode(w)["code"]).To(Equal("not_found"))
		})

		It("returns 409 for processed invitations", func() {
			invService.revokeFn = func(context.Context, int64, *int64, *string) (*model.Invitation, error) {
				return nil, service.ErrInviteAlreadyProcessed
			}

			w := do(http.MethodDelete, "/invitations/5", "")

			Expect(w.Code).To(Equal(http.StatusConflict))
			Expect(decode(w)["code"]).To(Equal("already_processed"))
		})
	})

	Describe("ListByOrganization", func() {
		It("lists invitations with string ids", func() {
			invService.listByOrganizationFn = func(_ context.Context, id int64) ([]model.Invitation, error) {
				Expect(id).To(Equal(int64(42)))
				return []model.Invitation{*pending()}, nil
			}

			w := do(http.MethodGet, "/invitations/list/42", "")

			Expect(w.Code).To(Equal(http.StatusOK))
			var body []map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
			Expect(body).To(HaveLen(1))
			Expect(body[0]["id"]).To(Equal("1001"))
			Expect(body[0]["status"]).To(Equal("pending"))
		})

		It("returns an empty array when there are none", func() {
			w := do(http.MethodGet, "/invitations/list/42", "")

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(Equal("[]"))
		})
	})
})
