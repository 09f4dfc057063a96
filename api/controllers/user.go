package controllers

import (
	"context"
	"net/http"

	"github.com/playdepot/playdepot-backend/api/middleware"
	"github.com/playdepot/playdepot-backend/api/responses"
	"github.com/playdepot/playdepot-backend/internal/library"
	"github.com/playdepot/playdepot-backend/internal/users"
	pkgerrors "github.com/playdepot/playdepot-backend/pkg/errors"
	"github.com/playdepot/playdepot-backend/pkg/logger"
)

type profileService interface {
	Profile(ctx context.Context, userID uint) (*users.Profile, error)
}

type libraryService interface {
	List(ctx context.Context, userID uint) ([]library.Entry, error)
}

// UserProfile returns the caller's profile with the cart embedded.
func UserProfile(svc profileService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.Profile(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

func LibraryList(svc libraryService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "library service unavailable"))
			return
		}
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, err := svc.List(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entries)
	}
}

func requireUser(r *http.Request) (uint, error) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == 0 {
		return 0, pkgerrors.Unauthorized("authentication required")
	}
	return userID, nil
}
