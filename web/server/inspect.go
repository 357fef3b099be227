package server

import (
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/integrator"
	"github.com/df07/go-pathtracer/pkg/material"
	"github.com/df07/go-pathtracer/pkg/scene"
)

// InspectResponse represents the JSON response for object inspection
type InspectResponse struct {
	Hit          bool                   `json:"hit"`
	MaterialType string                 `json:"materialType"`
	Point        [3]float64             `json:"point"`
	Normal       [3]float64             `json:"normal"`
	Distance     float64                `json:"distance"`
	FrontFace    bool                   `json:"frontFace"`
	Background   [3]float64             `json:"background"` // Sky color seen when the ray misses
	Properties   map[string]interface{} `json:"properties"`
}

func vecArray(v core.Vec3) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

func hexColor(c core.Vec3) string {
	c = c.Clamp(0, 1)
	return fmt.Sprintf("#%02x%02x%02x", int(c.X*255), int(c.Y*255), int(c.Z*255))
}

// extractTextureInfo describes a texture and samples it at point
func extractTextureInfo(texture core.Texture, point core.Vec3) map[string]interface{} {
	properties := map[string]interface{}{
		"color": hexColor(texture.Value(0, 0, point)),
	}

	switch t := texture.(type) {
	case material.ConstantTexture:
		properties["type"] = "constant"
		properties["albedo"] = vecArray(t.Color)
	case material.CheckerTexture:
		properties["type"] = "checker"
		properties["odd"] = extractTextureInfo(t.Odd, point)
		properties["even"] = extractTextureInfo(t.Even, point)
	case material.NoiseTexture:
		properties["type"] = "noise"
		properties["scale"] = t.Scale
	default:
		properties["type"] = "unknown"
	}
	return properties
}

// extractMaterialInfo extracts detailed material information with type assertions
func extractMaterialInfo(mat core.Material, point core.Vec3) (string, map[string]interface{}) {
	properties := make(map[string]interface{})

	switch m := mat.(type) {
	case *material.Lambertian:
		properties["texture"] = extractTextureInfo(m.Albedo, point)
		return "lambertian", properties

	case *material.Metal:
		properties["albedo"] = vecArray(m.Albedo)
		properties["color"] = hexColor(m.Albedo)
		properties["fuzzness"] = m.Fuzzness
		return "metal", properties

	case *material.Dielectric:
		properties["refractiveIndex"] = m.RefractiveIndex
		properties["color"] = "#ffffff" // Clear glass
		return "dielectric", properties

	default:
		return "unknown", properties
	}
}

// inspectPixel casts a ray through the center of a pixel and returns the first hit.
// Lens and shutter samples come from a fixed seed so repeated inspections agree.
func inspectPixel(sceneObj *scene.Scene, width, height, pixelX, pixelY int) (core.Ray, *core.HitRecord, bool) {
	// Row 0 is the top of the image, camera v runs bottom to top
	u := (float64(pixelX) + 0.5) / float64(width)
	v := (float64(height-1-pixelY) + 0.5) / float64(height)

	ray := sceneObj.GetCamera().GetRay(u, v, core.NewSeededSampler(0))
	hit, isHit := sceneObj.GetWorld().Hit(ray, integrator.MinHitDistance, math.Inf(1), nil)
	return ray, hit, isHit
}

// handleInspect handles ray casting inspection requests
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")

	req, err := parseRenderRequest(r.URL.Query())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid scene parameters: " + err.Error()})
		return
	}

	// Parse pixel coordinates
	pixelX, err := strconv.Atoi(r.URL.Query().Get("x"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid x coordinate"})
		return
	}
	pixelY, err := strconv.Atoi(r.URL.Query().Get("y"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid y coordinate"})
		return
	}

	// Validate pixel coordinates
	if pixelX < 0 || pixelX >= req.Width || pixelY < 0 || pixelY >= req.Height {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Pixel coordinates out of bounds"})
		return
	}

	sceneObj, err := scene.New(req.Scene, req.Settings(), scene.Options{Seed: req.Seed})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	ray, hit, isHit := inspectPixel(sceneObj, req.Width, req.Height, pixelX, pixelY)
	if !isHit {
		writeJSON(w, http.StatusOK, InspectResponse{
			Hit:        false,
			Background: vecArray(integrator.BackgroundColor(ray)),
		})
		return
	}

	materialType, materialProps := extractMaterialInfo(hit.Material, hit.Point)
	writeJSON(w, http.StatusOK, InspectResponse{
		Hit:          true,
		MaterialType: materialType,
		Point:        vecArray(hit.Point),
		Normal:       vecArray(hit.Normal),
		Distance:     hit.T,
		FrontFace:    ray.Direction.Dot(hit.Normal) < 0,
		Properties:   map[string]interface{}{"material": materialProps},
	})
}
