package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// PaymentCORS returns the permissive policy the checkout flow needs: the
// browser client is hosted on a separate origin from this API and preflights
// every payment call.
func PaymentCORS() func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "X-Client-Info", "Apikey", "Content-Type"},
		MaxAge:         300,
	}).Handler
}

// PaymentCORSHeaders stamps the payment route's header contract on every
// response. go-chi/cors negotiates preflights but only writes headers when
// the request carries an Origin; the checkout client expects the wildcard
// set on declines, 405s, and server-to-server calls alike.
func PaymentCORSHeaders() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", "*")
			h.Set("Access-Control-Allow-Headers", "authorization, x-client-info, apikey, content-type")
			h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
			next.ServeHTTP(w, r)
		})
	}
}
