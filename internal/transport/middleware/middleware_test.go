package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestMiddleware(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Middleware Suite")
}

var _ = Describe("Middleware", func() {
	lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	Describe("Recovery", func() {
		It("answers 500 with the error envelope", func() {
			h := Recovery(lg)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
				panic("boom")
			}))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/caisse", nil))

			Expect(rec.Code).To(Equal(http.StatusInternalServerError))
			var body map[string]interface{}
			Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
			Expect(body).To(HaveKey("error"))
			Expect(body).To(HaveKey("message"))
		})
	})

	Describe("RequestID", func() {
		It("keeps an inbound id and exposes it to chi", func() {
			var seen string
			h := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				seen = chiMiddleware.GetReqID(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(RequestIDHeader, "abc-123")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			Expect(seen).To(Equal("abc-123"))
			Expect(rec.Header().Get(RequestIDHeader)).To(Equal("abc-123"))
		})

		It("mints one when absent", func() {
			rec := httptest.NewRecorder()
			RequestID(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).
				ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			Expect(rec.Header().Get(RequestIDHeader)).NotTo(BeEmpty())
		})
	})

	Describe("CORS", func() {
		h := CORS([]string{"https://club.example"})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))

		preflight := func(origin string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodOptions, "/api/v1/caisse", nil)
			req.Header.Set("Origin", origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
			req.Header.Set("Access-Control-Request-Headers", "Authorization, "+RequestIDHeader)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			return rec
		}

		It("answers preflight requests for a known origin", func() {
			rec := preflight("https://club.example")

			Expect(rec.Code).NotTo(Equal(http.StatusTeapot))
			Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(Equal("https://club.example"))
			Expect(rec.Header().Get("Access-Control-Allow-Credentials")).To(Equal("true"))
			Expect(rec.Header().Get("Access-Control-Allow-Methods")).To(ContainSubstring(http.MethodPatch))
		})

		It("grants nothing to a preflight from an unknown origin", func() {
			rec := preflight("https://evil.example")

			Expect(rec.Code).NotTo(Equal(http.StatusTeapot))
			Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(BeEmpty())
			Expect(rec.Header().Get("Access-Control-Allow-Methods")).To(BeEmpty())
		})

		It("does not echo unknown origins", func() {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Origin", "https://evil.example")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusTeapot))
			Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(BeEmpty())
		})

		It("exposes the request id on simple requests", func() {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Origin", "https://club.example")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(Equal("https://club.example"))
			Expect(rec.Header().Get("Access-Control-Expose-Headers")).To(ContainSubstring("X-Request-Id"))
		})
	})

	Describe("Metrics", func() {
		It("passes the response through", func() {
			r := chi.NewRouter()
			r.Use(Metrics)
			r.Get("/caisse/expenses/{id}", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusAccepted)
			})
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/caisse/expenses/e1", nil))
			Expect(rec.Code).To(Equal(http.StatusAccepted))
		})
	})

	Describe("body filtering", func() {
		It("masks nested secrets", func() {
			out := filterSensitiveBody([]byte(`{"phone":"770000000","password":"hunter2","nested":{"access_token":"x"}}`))
			Expect(out).To(ContainSubstring(`"password":"[FILTERED]"`))
			Expect(out).To(ContainSubstring(`"access_token":"[FILTERED]"`))
			Expect(out).To(ContainSubstring(`"phone":"770000000"`))
		})

		It("masks the Authorization header", func() {
			h := http.Header{}
			h.Set("Authorization", "Bearer abc")
			h.Set("Accept", "application/json")
			filtered := filterSensitiveHeaders(h)
			Expect(filtered["Authorization"]).To(Equal("[FILTERED]"))
			Expect(filtered["Accept"]).To(Equal("application/json"))
		})
	})
})
