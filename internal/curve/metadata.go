// internal/curve/metadata.go
package curve

// Metadata holds per-curve display attributes.
type Metadata struct {
	Visible bool   `json:"visible"`
	Color   string `json:"color,omitempty"`
}

// DefaultMetadata is the metadata a curve receives when created implicitly.
func DefaultMetadata() Metadata {
	return Metadata{Visible: true}
}

// WithVisible returns a copy with only the visibility replaced.
func (m Metadata) WithVisible(visible bool) Metadata {
	m.Visible = visible
	return m
}

// WithColor returns a copy with only the color replaced.
func (m Metadata) WithColor(color string) Metadata {
	m.Color = color
	return m
}

// ViewTransform describes the zoom and pan applied to the curve canvas.
type ViewTransform struct {
	ZoomX float64 `json:"zoom_x"`
	ZoomY float64 `json:"zoom_y"`
	PanX  float64 `json:"pan_x"`
	PanY  float64 `json:"pan_y"`
}

// DefaultViewTransform is the identity view.
func DefaultViewTransform() ViewTransform {
	return ViewTransform{ZoomX: 1, ZoomY: 1}
}

// WithZoom returns a copy with only the zoom factors replaced.
func (v ViewTransform) WithZoom(zoomX, zoomY float64) ViewTransform {
	v.ZoomX = zoomX
	v.ZoomY = zoomY
	return v
}

// WithPan returns a copy with only the pan offsets replaced.
func (v ViewTransform) WithPan(panX, panY float64) ViewTransform {
	v.PanX = panX
	v.PanY = panY
	return v
}
