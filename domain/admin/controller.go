package admin

import (
	"net/http"

	"github.com/keylet/waitlist-api/config/router"
	"github.com/keylet/waitlist-api/domain/waitlist"
	"github.com/keylet/waitlist-api/internal/log"
	apperrors "github.com/keylet/waitlist-api/pkg/errors"
	"gorm.io/gorm"
)

// AdminSecretHeader carries the shared secret on gated requests. The gate
// keeps no session state; clients re-present the secret on every call.
const AdminSecretHeader = "X-Admin-Secret"

// NewAdminController mounts the credential check and the secret-gated
// waitlist read surface (list + CSV export).
func NewAdminController(
	db *gorm.DB,
	logger *log.Logger,
) *router.RESTController {

	return router.NewVersionedRESTController(
		"AdminController",
		"v1",
		"/admin",
		func(rs *router.RouterService, c *router.RESTController) {
			gate := NewAdminGateService(logger, nil)
			waitlistService := waitlist.NewWaitlistServiceFactory(db, logger).CreateService()

			rs.AddPostHandler(c, nil, "session", checkPasswordHandler(gate))
			rs.AddGetHandler(c, nil, "waitlist", listWaitlistHandler(waitlistService), requireAdminSecret(gate))
			rs.AddRawGetHandler(c, nil, "waitlist/export", requireAdminSecret(gate), exportWaitlistHandler(waitlistService))
		},
	)
}

func checkPasswordHandler(gate AdminGateService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		logger := router.GetLogger(ctx)

		var req AdminLoginRequest

		if err := ctx.ShouldBindJSON(&req); err != nil {
			logger.Error("Failed to bind request", "error", err)
			return router.BadRequestResult("Invalid request body", nil)
		}

		result, err := gate.Authenticate(ctx.Request.Context(), req.Password)
		if err != nil {
			return router.ErrorResult(
				apperrors.HTTPStatusCode(err),
				apperrors.GetHumanReadableMessage(err),
				nil,
			)
		}

		if !result.OK {
			return router.UnauthorizedResult(result.Message)
		}

		return router.OKResult(AdminSessionResponse{Authenticated: true}, result.Message)
	}
}

// requireAdminSecret re-authenticates every gated request from the secret
// header. A wrong secret yields the same response as a missing one.
func requireAdminSecret(gate AdminGateService) router.MiddlewareFunc {
	return func(c *router.RequestContext) {
		result, err := gate.Authenticate(c.Request.Context(), c.GetHeader(AdminSecretHeader))
		if err != nil {
			status := apperrors.HTTPStatusCode(err)
			c.AbortWithStatusJSON(status, router.ErrorResult(
				status,
				apperrors.GetHumanReadableMessage(err),
				nil,
			).ToJSON())
			return
		}

		if !result.OK {
			c.AbortWithStatusJSON(apperrors.StatusUnauthorized,
				router.UnauthorizedResult(result.Message).ToJSON())
			return
		}

		c.Next()
	}
}

func listWaitlistHandler(service waitlist.WaitlistService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		entries, err := service.GetAllEntries(ctx.Request.Context())
		if err != nil {
			// Admin UI only ever sees a generic retrievable-failure message.
			return router.ErrorResult(
				apperrors.HTTPStatusCode(err),
				waitlist.MsgListFailure,
				nil,
			)
		}

		return router.OKResult(entries, "Waitlist entries retrieved successfully")
	}
}

func exportWaitlistHandler(service waitlist.WaitlistService) router.MiddlewareFunc {
	return func(c *router.RequestContext) {
		data, err := service.ExportCSV(c.Request.Context())
		if err != nil {
			status := apperrors.HTTPStatusCode(err)
			c.AbortWithStatusJSON(status, router.ErrorResult(
				status,
				waitlist.MsgListFailure,
				nil,
			).ToJSON())
			return
		}

		c.Header("Content-Disposition", `attachment; filename="waitlist.csv"`)
		c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
	}
}
