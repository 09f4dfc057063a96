package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	pkgerrors "github.com/playdepot/playdepot-backend/pkg/errors"
	"github.com/playdepot/playdepot-backend/pkg/logger"
)

// encodeFailureBody is sent when a payload cannot be marshalled.
const encodeFailureBody = `{"success":false,"message":"internal server error","code":"INTERNAL_ERROR"}`

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data, "")
}

func WriteSuccessMessage(w http.ResponseWriter, data any, message string) {
	WriteSuccessStatus(w, http.StatusOK, data, message)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any, message string) {
	writeJSON(w, status, SuccessEnvelope{Success: true, Data: data, Message: message})
}

// WriteError maps err onto its status and public envelope. Errors that are
// not *pkgerrors.Error are treated as internal, so their text never reaches
// the client. 5xx responses log at error, the rest at warn.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Internal(err, "unexpected error")
	}
	meta := pkgerrors.MetadataFor(typed.Code())

	if logg != nil {
		ctx = logg.WithFields(ctx, pkgerrors.Dump(err).LogFields())
		if meta.HTTPStatus >= http.StatusInternalServerError {
			logg.Error(ctx, "request.error", err)
		} else {
			logg.Warn(ctx, "request.rejected")
		}
	}

	envelope := ErrorEnvelope{Message: typed.PublicMessage(), Code: string(typed.Code())}
	if meta.DetailsAllowed {
		envelope.Details = typed.Details()
	}
	writeJSON(w, meta.HTTPStatus, envelope)
}

// writeJSON marshals before touching the writer so a bad payload still
// yields a well-formed 500.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		status, body = http.StatusInternalServerError, []byte(encodeFailureBody)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}
