package web_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"time"

	"github.com/frahmantamala/servicebook/internal/client"
	"github.com/frahmantamala/servicebook/internal/web"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// fakeAPI answers the dashboard from canned JSON. The first machine create is held until
// release is closed.
type fakeAPI struct {
	mu      sync.Mutex
	creates []string
	release chan struct{}
	once    sync.Once
}

func (f *fakeAPI) received() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.creates...)
}

func (f *fakeAPI) unblock() {
	f.once.Do(func() { close(f.release) })
}

func (f *fakeAPI) router() http.Handler {
	writeRaw := func(w http.ResponseWriter, status int, body string) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer tok" {
				writeRaw(w, http.StatusUnauthorized, `{"detail":"Authentication credentials were not provided."}`)
				return
			}
			next(w, r)
		}
	}
	facetsDown := func(w http.ResponseWriter, r *http.Request) {
		writeRaw(w, http.StatusInternalServerError, `{"detail":"facets exploded"}`)
	}

	r := chi.NewRouter()
	r.Post("/api/auth/token/", func(w http.ResponseWriter, r *http.Request) {
		writeRaw(w, http.StatusOK, `{"access":"tok","refresh":"ref"}`)
	})
	r.Get("/api/me/", authed(func(w http.ResponseWriter, r *http.Request) {
		writeRaw(w, http.StatusOK, `{"id":1,"username":"manager","is_staff":true,"groups":[]}`)
	}))
	r.Get("/api/machines/", authed(func(w http.ResponseWriter, r *http.Request) {
		writeRaw(w, http.StatusOK, `[{"id":1,"serial_number":"0017","model_name":"PD1.5","shipment_date":"2022-03-01"}]`)
	}))
	r.Post("/api/machines/", authed(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.creates = append(f.creates, string(body))
		first := len(f.creates) == 1
		f.mu.Unlock()
		if first {
			<-f.release
		}
		writeRaw(w, http.StatusCreated, `{"id":2}`)
	}))
	r.Get("/api/maintenance/", authed(func(w http.ResponseWriter, r *http.Request) {
		writeRaw(w, http.StatusOK, `[{"id":5,"machine":1,"machine_serial":"0017","maintenance_type":7,"date":"2022-06-01","operating_hours":120}]`)
	}))
	r.Post("/api/maintenance/", authed(func(w http.ResponseWriter, r *http.Request) {
		writeRaw(w, http.StatusCreated, `{"id":5}`)
	}))
	r.Get("/api/maintenance-types/", authed(func(w http.ResponseWriter, r *http.Request) {
		writeRaw(w, http.StatusOK, `[{"id":7,"name":"ТО-7"}]`)
	}))
	r.Get("/api/machines/facets/", facetsDown)
	r.Get("/api/maintenance/facets/", facetsDown)
	r.Get("/api/claims/facets/", facetsDown)
	return r
}

var _ = Describe("Dashboard against a bare upstream", func() {
	var (
		api    *fakeAPI
		apiSrv *httptest.Server
		webSrv *httptest.Server
		b      *browser
	)

	BeforeEach(func() {
		lg := slog.New(slog.NewTextHandler(GinkgoWriter, &slog.HandlerOptions{Level: slog.LevelError}))
		api = &fakeAPI{release: make(chan struct{})}
		apiSrv = httptest.NewServer(api.router())

		h, err := web.NewHandler(web.Dependencies{
			API:    client.NewClient(client.Config{BaseURL: apiSrv.URL}, lg),
			Facets: client.NewFacetsCache(time.Minute, lg),
			Logger: lg,
		})
		Expect(err).NotTo(HaveOccurred())
		router := chi.NewRouter()
		web.RegisterRoutes(router, h, web.Options{Logger: lg})
		webSrv = httptest.NewServer(router)

		b = newBrowser(webSrv.URL)
		b.login("manager", "manager-pass")
		Expect(b.token()).To(Equal("tok"))
	})

	AfterEach(func() {
		api.unblock()
		webSrv.Close()
		apiSrv.Close()
	})

	It("should send concurrent creates with different payloads separately", func() {
		statuses := make(chan int, 2)
		create := func(serial string) {
			defer GinkgoRecover()
			status, _ := b.submit("/ui/machines", url.Values{
				"model_name":    {"PD3.0"},
				"serial_number": {serial},
				"return":        {"tab=machines"},
			})
			statuses <- status
		}

		go create("111")
		Eventually(api.received).Should(HaveLen(1))
		go create("222")
		Eventually(api.received).Should(HaveLen(2))
		api.unblock()

		Eventually(statuses).Should(Receive(Equal(http.StatusOK)))
		Eventually(statuses).Should(Receive(Equal(http.StatusOK)))
		bodies := api.received()
		Expect(bodies).To(ContainElement(ContainSubstring(`"serial_number":"111"`)))
		Expect(bodies).To(ContainElement(ContainSubstring(`"serial_number":"222"`)))
	})

	It("should name maintenance types sent as bare ids in the reloaded table", func() {
		status, out := b.submit("/ui/maintenance", url.Values{
			"machine_id":       {"1"},
			"maintenance_type": {"7"},
			"return":           {"tab=maintenance"},
		})
		Expect(status).To(Equal(http.StatusOK))
		Expect(out["html"]).To(ContainSubstring("ТО-7"))
	})

	It("should render rows without filters when facets fail", func() {
		resp, body := b.get("/?tab=machines")
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(body).To(ContainSubstring("PD1.5"))
		Expect(body).NotTo(ContainSubstring("data-filter"))
		Expect(body).NotTo(ContainSubstring("facets exploded"))
	})

	It("should commit filters on blur from the page script", func() {
		resp, script := b.get("/static/app.js")
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(script).To(ContainSubstring(`querySelectorAll("[data-filter]")`))
		Expect(script).To(ContainSubstring(`addEventListener("blur"`))
		Expect(script).NotTo(ContainSubstring(`addEventListener("change"`))
	})
})
