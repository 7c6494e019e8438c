package http

import (
	"encoding/base64"
	"html/template"
	"net/http"
	"time"

	"github.com/couchcryptid/vessel-position-service/internal/domain"
)

var vesselPage = template.Must(template.New("vessel").Parse(`<!DOCTYPE html>
<html>
<head><title>{{.Name}} - Vessel Information</title></head>
<body>
  <h1>Vessel Information{{if .Cached}} (Cached){{end}}</h1>
  <p><strong>Name:</strong> {{.Name}}</p>
  <p><strong>MMSI:</strong> {{.MMSI}}</p>
  <p><strong>IMO:</strong> {{.IMO}}</p>

  <h2>Vessel Position:</h2>
  <p><strong>Source:</strong> {{.Source}}</p>
  <p><strong>Status:</strong> {{.Status}}</p>
  <p><strong>Timestamp:</strong> {{.Timestamp}}</p>
  <p><strong>Location:</strong> Latitude {{.Latitude}}, Longitude {{.Longitude}}</p>
  <p><strong>Speed:</strong> {{.Speed}} kn, <strong>Course:</strong> {{.Course}}&deg;</p>

  <h2>Weather:</h2>
  <p>{{.Weather.Condition}} ({{.Weather.Description}}), {{.Weather.TemperatureC}} &deg;C,
     wind {{.Weather.WindSpeed}} m/s, humidity {{.Weather.HumidityPct}}%, clouds {{.Weather.CloudCoverPct}}%</p>
{{if .Image}}
  <h2>Satellite Image:</h2>
  <img src="{{.Image}}" alt="Satellite Image"/>
{{end}}{{with .Anomaly}}
  <h2>Oil Spill Analysis:</h2>
{{if .Assessment}}  <p><strong>Detected:</strong> {{if .Assessment.IsAnomaly}}yes{{else}}no{{end}}</p>
  <p><strong>Confidence:</strong> {{printf "%.2f" .Assessment.Confidence}}</p>
  <p><strong>Coverage:</strong> {{printf "%.2f" .Assessment.CoveragePct}}%</p>
{{else}}  <p>{{.Error}}</p>
{{end}}{{end}}{{if .Overlay}}  <img src="{{.Overlay}}" alt="Analysis Image"/>
{{end}}</body>
</html>
`))

type vesselView struct {
	Name      string
	MMSI      string
	IMO       string
	Cached    bool
	Source    string
	Status    string
	Timestamp string
	Latitude  float64
	Longitude float64
	Speed     float64
	Course    float64
	Weather   domain.WeatherSnapshot
	Image     template.URL
	Anomaly   *domain.AnomalyOutcome
	Overlay   template.URL
}

func sourceLabel(p domain.Provenance) string {
	switch p {
	case domain.ProvenanceCache:
		return "Database Cache"
	case domain.ProvenanceDegraded:
		return "Mock Data"
	default:
		return "AIS Vessel Finder"
	}
}

func dataURL(img []byte) template.URL {
	if len(img) == 0 {
		return ""
	}
	// Encoded bytes come from our own providers, never from the query.
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(img)) //nolint:gosec
}

func renderRecord(w http.ResponseWriter, rec domain.EnrichedRecord) error {
	p := rec.Position
	view := vesselView{
		Name:      p.DisplayName,
		MMSI:      p.Key.String(),
		IMO:       p.SecondaryID,
		Cached:    rec.Provenance == domain.ProvenanceCache,
		Source:    sourceLabel(rec.Provenance),
		Status:    rec.StatusMessage,
		Timestamp: p.ObservedAt.Format(time.RFC1123),
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		Speed:     p.Speed,
		Course:    p.CourseOverGround,
		Weather:   rec.Weather,
		Image:     dataURL(rec.Imagery),
		Anomaly:   rec.Anomaly,
	}
	if rec.Anomaly != nil && rec.Anomaly.Assessment != nil {
		view.Overlay = dataURL(rec.Anomaly.Assessment.OverlayImage)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	return vesselPage.Execute(w, view)
}
