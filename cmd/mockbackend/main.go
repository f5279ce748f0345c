// Command mockbackend serves a fixture facility list in the backend's wire
// format, including the coordinate field spellings seen in production data.
// Point BACKEND_BASE_URL at it for local development without the real
// backend.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
)

const fixture = `{
  "data": [
    {"id": 1, "name": "PT Telkom Indonesia", "address": "Jl. Japati No.1, Bandung", "sector": "Teknologi", "kuota": 4, "lat": -6.8957, "lng": 107.6338},
    {"id": 2, "name": "PT Len Industri", "address": "Jl. Soekarno Hatta No.442, Bandung", "sector": "Manufaktur", "kuota": 2, "latitude": "-6.9389", "longitude": "107.6050"},
    {"id": 3, "name": "CV Media Kreasi", "address": "Jl. Braga No.99, Bandung", "sector": "Media", "kuota": 3, "geo_lat": -6.9175, "geo_lng": "107.6098"},
    {"id": 4, "name": "PT Solusi Digital", "address": "Jl. Dago No.12, Bandung", "sector": "Teknologi", "kuota": 2},
    {"id": 5, "name": "Bengkel Maju Jaya", "sector": "Otomotif", "kuota": 1},
    {"id": 6, "name": "PT Data Nusantara", "address": "Jl. Riau No.30, Bandung", "sector": "Teknologi", "kuota": 5, "lat": "not-a-number", "lng": 107.61}
  ]
}`

func main() {
	addr := flag.String("addr", ":8000", "listen address")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/companie", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, fixture)
	})

	logger.Info("mock backend listening", "addr", *addr)
	if err := http.ListenAndServe(*addr, mux); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}
