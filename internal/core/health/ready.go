package health

import (
	"encoding/json"
	"net/http"
)

// ReadinessReporter reports whether the catalog is loaded and which version
// is being served.
type ReadinessReporter interface {
	Readiness() (ready bool, catalogVersion string)
}

func Readiness(rr ReadinessReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		type resp struct {
			Status  string `json:"status"`
			Catalog string `json:"catalog,omitempty"`
		}
		ready, version := rr.Readiness()
		out := resp{Status: "not_ready"}
		if ready {
			out.Status = "ready"
			out.Catalog = version
		}
		w.Header().Set("Content-Type", "application/json")
		if !ready {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}
