package handler

import (
	"encoding/json"
	"net/http"

	"github.com/twpayne/go-polyline"
)

type shapeResponse struct {
	ShapeID  string `json:"shape_id"`
	Points   int    `json:"points"`
	Polyline string `json:"polyline"`
}

// APIShape serves a shape as an encoded polyline. Consecutive duplicate
// points are collapsed.
func (h *Handler) APIShape(w http.ResponseWriter, r *http.Request) {
	feed := h.feed(w)
	if feed == nil {
		return
	}
	shape := feed.Shapes.Get(r.PathValue("id"))
	if shape == nil {
		http.NotFound(w, r)
		return
	}

	var coords [][]float64
	for _, p := range shape.Points() {
		if n := len(coords); n > 0 && coords[n-1][0] == p.Lat && coords[n-1][1] == p.Lon {
			continue
		}
		coords = append(coords, []float64{p.Lat, p.Lon})
	}

	resp := shapeResponse{
		ShapeID:  shape.ID,
		Points:   len(shape.Points()),
		Polyline: string(polyline.EncodeCoords(coords)),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.log(r.Context()).Error("encoding shape", "error", err)
	}
}
