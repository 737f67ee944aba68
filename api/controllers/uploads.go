package controllers

import (
	"net/http"

	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/api/responses"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/internal/uploads"
	pkgerrors "github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/errors"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/logger"
)

// UploadFiles runs the pipeline on its own and returns the stored
// descriptors. Rejected files are reported next to the accepted ones.
func UploadFiles(svc uploads.Service, limits UploadLimits, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "upload service unavailable"))
			return
		}
		if _, err := requireIdentity(r); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		req, cleanup, err := parseUploadRequest(w, r, limits)
		defer cleanup()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Upload(r.Context(), req, uploads.Options{})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
