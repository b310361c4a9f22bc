package responses

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/angelmondragon/catalog-storefront/pkg/catalog"
	pkgerrors "github.com/angelmondragon/catalog-storefront/pkg/errors"
	"github.com/angelmondragon/catalog-storefront/pkg/logger"
	"github.com/angelmondragon/catalog-storefront/pkg/types"
)

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, types.SuccessEnvelope{Data: data})
}

func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}

	if httpErr, ok := catalog.AsHTTPError(err); ok {
		writeCatalogError(ctx, logg, w, err, httpErr)
		return
	}

	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}

	meta := pkgerrors.MetadataFor(typed.Code())

	msg := meta.PublicMessage
	switch typed.Code() {
	case pkgerrors.CodeValidation,
		pkgerrors.CodeNotFound,
		pkgerrors.CodePrecondition,
		pkgerrors.CodeRateLimit:
		if m := typed.Message(); m != "" {
			msg = m
		}
	}

	payload := types.ErrorEnvelope{
		Error: types.APIError{
			Code:    string(typed.Code()),
			Message: msg,
		},
	}

	if meta.DetailsAllowed {
		if details := typed.Details(); details != nil {
			payload.Error.Details = details
		}
	}

	logError(ctx, logg, err)
	writeJSON(w, meta.HTTPStatus, payload)
}

// writeCatalogError renders a normalized catalog failure with its upstream
// status. Failures without a usable status become 502.
func writeCatalogError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error, httpErr *catalog.HTTPError) {
	status := httpErr.StatusCode
	if status < http.StatusBadRequest || status > 599 {
		status = http.StatusBadGateway
	}

	payload := types.ErrorEnvelope{
		Error: types.APIError{
			Code:    string(codeForStatus(status)),
			Message: httpErr.Message,
			Details: types.CatalogErrorDetails{
				StatusCode:   httpErr.StatusCode,
				Payload:      httpErr.Payload,
				ResponseCode: httpErr.ResponseCode,
			},
		},
	}

	logError(ctx, logg, err)
	writeJSON(w, status, payload)
}

func codeForStatus(status int) pkgerrors.Code {
	switch {
	case status == http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case status == http.StatusTooManyRequests:
		return pkgerrors.CodeRateLimit
	case status == http.StatusConflict || status == http.StatusPreconditionFailed:
		return pkgerrors.CodePrecondition
	case status >= http.StatusBadRequest && status < http.StatusInternalServerError:
		return pkgerrors.CodeValidation
	default:
		return pkgerrors.CodeDependency
	}
}

func logError(ctx context.Context, logg *logger.Logger, err error) {
	if logg == nil {
		return
	}
	dump := pkgerrors.Dump(err)

	fields := map[string]any{
		"error":       dump.TopMessage,
		"error_code":  dump.Code,
		"error_chain": dump.Chain,
	}
	if dump.UpstreamStatus != nil {
		fields["upstream_status"] = *dump.UpstreamStatus
	}
	if dump.UpstreamResponseCode != nil {
		fields["upstream_response_code"] = *dump.UpstreamResponseCode
	}

	ctx = logg.WithFields(ctx, fields)
	logg.Error(ctx, "request.error", err)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf(`{"level":"error","msg":"failed to encode response","err":"%v"}`, err)
	}
}
