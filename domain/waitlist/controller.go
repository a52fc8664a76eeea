package waitlist

import (
	"time"

	"github.com/keylet/waitlist-api/config/router"
	"github.com/keylet/waitlist-api/internal/log"
	apperrors "github.com/keylet/waitlist-api/pkg/errors"
	"github.com/keylet/waitlist-api/pkg/ratelimit"
	"gorm.io/gorm"
)

// NewWaitlistController mounts the public signup endpoint. Admin reads over
// the same data live behind the admin controller's secret gate.
func NewWaitlistController(
	db *gorm.DB,
	logger *log.Logger,
) *router.RESTController {

	return router.NewVersionedRESTController(
		"WaitlistController",
		"v1",
		"/waitlist",
		func(rs *router.RouterService, c *router.RESTController) {
			repository := NewWaitlistRepository(db)
			service := NewWaitlistService(logger, repository)

			signupLimiter := createSignupRateLimiter()

			rs.AddPostHandler(c, signupLimiter, "", joinWaitlistHandler(service))
		},
	)
}

func createSignupRateLimiter() ratelimit.RateLimiter {
	const signupRequestsPerMinute = 30 // More permissive than monitoring (10/min)

	config := &ratelimit.RateLimitConfig{
		Requests: signupRequestsPerMinute,
		Window:   time.Minute,
		Redis:    nil, // In-memory is enough for a single public endpoint
		Logger:   nil,
	}

	return ratelimit.NewRateLimiter(config)
}

func joinWaitlistHandler(service WaitlistService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		logger := router.GetLogger(ctx)

		var req JoinWaitlistRequest

		if err := ctx.ShouldBindJSON(&req); err != nil {
			logger.Error("Failed to bind request", "error", err)

			validationErrors := apperrors.FormatValidationErrors(err, &req)
			if len(validationErrors) > 0 {
				return router.BadRequestResult("Invalid request payload", validationErrors)
			}

			return router.BadRequestResult("Invalid request body", nil)
		}

		result, err := service.Upsert(ctx.Request.Context(), req.Email)
		if err != nil {
			if apperrors.IsStoreError(err) {
				// Store detail stays in the logs; the caller only sees the
				// generic retry message.
				return router.ErrorResult(apperrors.HTTPStatusCode(err), MsgStoreFailure, nil)
			}
			return router.ErrorResult(
				apperrors.HTTPStatusCode(err),
				apperrors.GetHumanReadableMessage(err),
				nil,
			)
		}

		if result.AlreadyExisted {
			return router.OKResult(result, result.Message)
		}

		return &router.ServiceResult{
			StatusCode: apperrors.StatusCreated,
			Data:       result,
			Message:    result.Message,
		}
	}
}
