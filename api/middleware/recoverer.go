package middleware

import (
	"fmt"
	"net/http"

	"github.com/angelmondragon/catalog-storefront/api/responses"
	pkgerrors "github.com/angelmondragon/catalog-storefront/pkg/errors"
	"github.com/angelmondragon/catalog-storefront/pkg/logger"
)

// Recoverer turns handler panics into a 500 envelope. Fail-fast cart
// violations surface here in development.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				var err error
				if cause, ok := rec.(error); ok {
					err = fmt.Errorf("panic: %w", cause)
				} else {
					err = fmt.Errorf("panic: %v", rec)
				}

				ctx := r.Context()
				if logg != nil {
					ctx = logg.WithField(ctx, "panic_code", string(codeOf(err)))
					logg.Error(ctx, "panic.recovered", err)
				}
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "panic"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func codeOf(err error) pkgerrors.Code {
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Code()
	}
	return pkgerrors.CodeInternal
}
