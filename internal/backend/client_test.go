package backend_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/salesdeck/insight-console/internal/backend"
	"github.com/salesdeck/insight-console/internal/kind"
	"github.com/salesdeck/insight-console/pkg/requestid"
)

var _ = Describe("client", func() {
	var (
		srv      *httptest.Server
		handler  http.HandlerFunc
		lastReq  *http.Request
		lastBody []byte
		client   *backend.Client
	)

	BeforeEach(func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}
		srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lastReq = r
			lastBody, _ = io.ReadAll(r.Body)
			handler(w, r)
		}))
		client = backend.NewClient(srv.URL+"/", kind.Icebreaker, srv.Client())
	})

	AfterEach(func() {
		srv.Close()
	})

	Context("submit", func() {
		It("posts the payload as json", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"message":"queued"}`))
			}
			ctx := requestid.ToContext(context.TODO(), "req-42")
			ack, err := client.SubmitJob(ctx, kind.Payload{"company_name": "Acme", "linkedin_bio": "Founder"})
			Expect(err).To(BeNil())
			Expect(ack.Accepted).To(BeTrue())

			Expect(lastReq.Method).To(Equal(http.MethodPost))
			Expect(lastReq.URL.Path).To(Equal("/api/icebreaker"))
			Expect(lastReq.Header.Get("Content-Type")).To(Equal("application/json"))
			Expect(lastReq.Header.Get(middleware.RequestIDHeader)).To(Equal("req-42"))

			var body map[string]string
			Expect(json.Unmarshal(lastBody, &body)).To(Succeed())
			Expect(body).To(HaveKeyWithValue("company_name", "Acme"))
		})

		It("accepts an empty body", func() {
			ack, err := client.SubmitJob(context.TODO(), kind.Payload{"linkedin_bio": "Founder"})
			Expect(err).To(BeNil())
			Expect(ack.Accepted).To(BeTrue())
		})

		It("honours an explicit refusal", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"accepted":false}`))
			}
			ack, err := client.SubmitJob(context.TODO(), kind.Payload{"linkedin_bio": "Founder"})
			Expect(err).To(BeNil())
			Expect(ack.Accepted).To(BeFalse())
		})

		It("reads the queue token", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"accepted":true,"queue_token":"tok-1"}`))
			}
			ack, err := client.SubmitJob(context.TODO(), kind.Payload{"linkedin_bio": "Founder"})
			Expect(err).To(BeNil())
			Expect(ack.QueueToken).To(Equal("tok-1"))
		})

		It("returns the backend message on failure", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnprocessableEntity)
				_, _ = w.Write([]byte(`{"detail":"bio too long"}`))
			}
			_, err := client.SubmitJob(context.TODO(), kind.Payload{"linkedin_bio": "Founder"})
			Expect(err).ToNot(BeNil())

			var statusErr *backend.StatusError
			Expect(errors.As(err, &statusErr)).To(BeTrue())
			Expect(statusErr.StatusCode).To(Equal(http.StatusUnprocessableEntity))
			Expect(statusErr.Message).To(Equal("bio too long"))
		})
	})

	Context("list", func() {
		It("decodes the result envelope", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"linkedin_icebreakers":[
					{"id":12,"company_name":"Acme","linkedin_bio":"Founder","pitch_deck":null,"icebreaker_text":"Hi","date_generated":"2025-03-01T09:00:40.123456"},
					{"id":"a-7","company_name":"Globex","linkedin_bio":"CTO","icebreaker_text":"Hello","date_generated":"2025-03-01T08:00:00+02:00"}
				]}`))
			}
			results, err := client.ListResults(context.TODO())
			Expect(err).To(BeNil())
			Expect(lastReq.URL.Path).To(Equal("/api/all_icebreker"))
			Expect(results).To(HaveLen(2))

			Expect(results[0].ID).To(Equal("12"))
			Expect(results[0].Fields).To(HaveKeyWithValue("company_name", "Acme"))
			Expect(results[0].Fields).To(HaveKeyWithValue("pitch_deck", ""))
			Expect(results[0].Output).To(Equal("Hi"))
			Expect(results[0].GeneratedAt).To(Equal(time.Date(2025, 3, 1, 9, 0, 40, 123456000, time.UTC)))

			Expect(results[1].ID).To(Equal("a-7"))
			Expect(results[1].GeneratedAt).To(Equal(time.Date(2025, 3, 1, 6, 0, 0, 0, time.UTC)))
		})

		It("uses the transcript route and key", func() {
			client = backend.NewClient(srv.URL, kind.Transcript, srv.Client())
			handler = func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"transcripts":[{"id":1,"company":"Acme","transcript":"t","ai_summary":"s"}]}`))
			}
			results, err := client.ListResults(context.TODO())
			Expect(err).To(BeNil())
			Expect(lastReq.URL.Path).To(Equal("/api/transcripts"))
			Expect(results).To(HaveLen(1))
			Expect(results[0].Output).To(Equal("s"))
		})

		It("skips records without an id", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"linkedin_icebreakers":[{"company_name":"Acme"},{"id":3}]}`))
			}
			results, err := client.ListResults(context.TODO())
			Expect(err).To(BeNil())
			Expect(results).To(HaveLen(1))
			Expect(results[0].ID).To(Equal("3"))
		})

		It("fails on a missing envelope key", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"items":[]}`))
			}
			_, err := client.ListResults(context.TODO())
			Expect(errors.Is(err, backend.ErrUnexpectedBody)).To(BeTrue())
		})

		It("fails on an empty body", func() {
			_, err := client.ListResults(context.TODO())
			Expect(errors.Is(err, backend.ErrEmptyResponse)).To(BeTrue())
		})

		It("fails on a server error", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			}
			_, err := client.ListResults(context.TODO())
			var statusErr *backend.StatusError
			Expect(errors.As(err, &statusErr)).To(BeTrue())
			Expect(statusErr.StatusCode).To(Equal(http.StatusBadGateway))
		})
	})

	Context("delete", func() {
		It("escapes the id", func() {
			Expect(client.DeleteResult(context.TODO(), "a/b")).To(Succeed())
			Expect(lastReq.Method).To(Equal(http.MethodDelete))
			Expect(lastReq.URL.EscapedPath()).To(Equal("/api/icebreaker/a%2Fb"))
		})

		It("reports a missing result", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			}
			err := client.DeleteResult(context.TODO(), "9")
			var statusErr *backend.StatusError
			Expect(errors.As(err, &statusErr)).To(BeTrue())
			Expect(statusErr.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Context("interceptor", func() {
		It("is connected after a successful call", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"linkedin_icebreakers":[]}`))
			}
			i := backend.NewInterceptor(client)
			Expect(i.GetStatus().Connected).To(BeFalse())

			_, err := i.ListResults(context.TODO())
			Expect(err).To(BeNil())
			Expect(i.GetStatus().Connected).To(BeTrue())
		})

		It("stays connected when the backend answers with an error", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			}
			i := backend.NewInterceptor(client)
			_, err := i.ListResults(context.TODO())
			Expect(err).ToNot(BeNil())
			Expect(i.GetStatus().Connected).To(BeTrue())
			Expect(i.GetStatus().LastError).ToNot(BeEmpty())
		})

		It("is disconnected when the backend is unreachable", func() {
			srv.Close()
			i := backend.NewInterceptor(client)
			_, err := i.ListResults(context.TODO())
			Expect(err).ToNot(BeNil())
			Expect(i.GetStatus().Connected).To(BeFalse())
		})
	})
})
