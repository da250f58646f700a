package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/hubmatch/internal/geo"
	"github.com/sells-group/hubmatch/internal/model"
	"github.com/sells-group/hubmatch/internal/pincode"
	"github.com/sells-group/hubmatch/internal/report"
	"github.com/sells-group/hubmatch/internal/resolve"
)

// apiState is the report computed at start-up plus what is needed to
// answer nearest-hub queries.
type apiState struct {
	env        *analysisEnv
	report     *model.Report
	resolution resolve.Resolution
}

type hubSummary struct {
	Name     string              `json:"name"`
	Lat      float64             `json:"latitude"`
	Lon      float64             `json:"longitude"`
	Pincodes []string            `json:"pincodes"`
	Coverage report.CoverageView `json:"coverage"`
}

type nearestResponse struct {
	Pincode    string  `json:"postal_code,omitempty"`
	Lat        float64 `json:"latitude"`
	Lon        float64 `json:"longitude"`
	Hub        string  `json:"hub"`
	DistanceKM float64 `json:"distance_km"`
	Band       string  `json:"band"`
}

// newRouter builds the read-only API over s.
func newRouter(s *apiState, origins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(observe(s.env))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/hubs", s.listHubs)
	r.Get("/hubs/{name}/distances", s.hubDistances)
	r.Get("/mismatches", s.mismatches)
	r.Get("/nearest", s.nearest)
	r.Get("/report.geojson", s.geoJSON)
	if s.env != nil && s.env.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.env.Metrics.Handler())
	}
	return r
}

// observe logs each request and records it in the HTTP metrics.
func observe(env *analysisEnv) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := r.URL.Path
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)
			if env != nil && env.Metrics != nil {
				env.Metrics.ObserveHTTP(r.Method, route, status, elapsed)
			}
			zap.L().Debug("http request",
				zap.String("method", r.Method),
				zap.String("route", route),
				zap.Int("status", status),
				zap.Duration("elapsed", elapsed),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

func (s *apiState) listHubs(w http.ResponseWriter, _ *http.Request) {
	out := make([]hubSummary, 0, len(s.report.Tables))
	for _, t := range s.report.Tables {
		pins := t.Hub.Pincodes
		if pins == nil {
			pins = []string{}
		}
		out = append(out, hubSummary{
			Name:     t.Hub.Name,
			Lat:      t.Hub.Location.Lat,
			Lon:      t.Hub.Location.Lon,
			Pincodes: pins,
			Coverage: report.NewTableView(t).Coverage,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *apiState) hubDistances(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	t, ok := s.report.Table(name)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown hub "+strconv.Quote(name))
		return
	}
	writeJSON(w, http.StatusOK, report.NewTableView(t))
}

func (s *apiState) mismatches(w http.ResponseWriter, r *http.Request) {
	records := s.report.Mismatches
	if h := r.URL.Query().Get("hub"); h != "" {
		if _, ok := s.report.Table(h); !ok {
			writeError(w, http.StatusNotFound, "unknown hub "+strconv.Quote(h))
			return
		}
		records = s.report.MismatchesFor(h)
	}
	writeJSON(w, http.StatusOK, report.NewMismatchViews(records))
}

// nearest accepts either ?postal_code= (looked up in the start-up
// resolution, never remotely) or ?lat=&lon=.
func (s *apiState) nearest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	resp := nearestResponse{}

	if raw := q.Get("postal_code"); raw != "" {
		code := pincode.Normalize(raw)
		p, ok := s.resolution.Lookup(code)
		if !ok {
			writeError(w, http.StatusNotFound, "postal code "+strconv.Quote(raw)+" is not resolved")
			return
		}
		resp.Pincode, resp.Lat, resp.Lon = code, p.Lat, p.Lon
	} else {
		lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
		lon, errLon := strconv.ParseFloat(q.Get("lon"), 64)
		if errLat != nil || errLon != nil {
			writeError(w, http.StatusBadRequest, "lat and lon must be numbers")
			return
		}
		resp.Lat, resp.Lon = lat, lon
	}

	p := geo.Point{Lat: resp.Lat, Lon: resp.Lon}
	if !p.Valid() {
		writeError(w, http.StatusBadRequest, "coordinate out of range")
		return
	}

	h, d := s.env.Analyzer.Nearest(p)
	resp.Hub = h.Name
	resp.DistanceKM = geo.Round2(d)
	resp.Band = geo.Classify(d)
	writeJSON(w, http.StatusOK, resp)
}

func (s *apiState) geoJSON(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	if err := report.WriteGeoJSON(w, s.report); err != nil {
		zap.L().Error("write geojson", zap.Error(err))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("write json response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
