package rest

import (
	"net/http"

	"github.com/gofrs/uuid"
	"github.com/sirupsen/logrus"
)

// RequestLogger tags every request with a unique ID and logs method, path and
// origin through a request-scoped child logger.
func RequestLogger(baseLogger logrus.FieldLogger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, request *http.Request) {

			reqUUID, err := uuid.NewV4()
			if err != nil {
				baseLogger.WithError(err).Error("can't generate a request UUID")
				w.WriteHeader(http.StatusInternalServerError)
				return
			}

			logger := baseLogger.WithFields(logrus.Fields{
				"reqid":     reqUUID.String(),
				"remote-ip": request.RemoteAddr,
			})
			logger.Debugf("%s %s", request.Method, request.URL.Path)

			next.ServeHTTP(w, request)
		})
	}
}
