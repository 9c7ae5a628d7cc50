// internal/curve/point_test.go
package curve

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusRoundTrip(t *testing.T) {
	for _, status := range []Status{StatusNormal, StatusKeyframe, StatusEndframe, StatusTracked, StatusInterpolated} {
		parsed, err := ParseStatus(status.String())
		require.NoError(t, err)
		assert.Equal(t, status, parsed)
	}
}

func TestParseStatus(t *testing.T) {
	cases := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{"KEYFRAME", StatusKeyframe, false},
		{"keyframe", StatusKeyframe, false},
		{" tracked ", StatusTracked, false},
		{"ENDFRAME", StatusEndframe, false},
		{"", StatusNormal, true},
		{"BOGUS", StatusNormal, true},
	}

	for _, tc := range cases {
		got, err := ParseStatus(tc.in)
		if tc.wantErr {
			assert.Error(t, err, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestPointJSON(t *testing.T) {
	p := Point{Frame: 12, X: 640.5, Y: 360.25, Status: StatusInterpolated}

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"frame":12,"x":640.5,"y":360.25,"status":"INTERPOLATED"}`, string(data))

	var back Point
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, p, back)

	var bad Point
	assert.Error(t, json.Unmarshal([]byte(`{"frame":1,"status":"NOPE"}`), &bad))
}

func TestWithStatusDerivesCopy(t *testing.T) {
	p := Point{Frame: 1, X: 2, Y: 3, Status: StatusNormal}
	q := p.WithStatus(StatusKeyframe)

	assert.Equal(t, StatusNormal, p.Status)
	assert.Equal(t, StatusKeyframe, q.Status)
	assert.Equal(t, p.X, q.X)
	assert.Equal(t, p.Y, q.Y)
}

func TestMetadataDerive(t *testing.T) {
	m := DefaultMetadata()
	assert.True(t, m.Visible)

	hidden := m.WithVisible(false).WithColor("#00ff00")
	assert.True(t, m.Visible, "original untouched")
	assert.False(t, hidden.Visible)
	assert.Equal(t, "#00ff00", hidden.Color)
}

func TestViewTransformDerive(t *testing.T) {
	v := DefaultViewTransform()
	assert.Equal(t, ViewTransform{ZoomX: 1, ZoomY: 1}, v)

	zoomed := v.WithZoom(2, 4).WithPan(10, -5)
	assert.Equal(t, ViewTransform{ZoomX: 2, ZoomY: 4, PanX: 10, PanY: -5}, zoomed)
	assert.Equal(t, DefaultViewTransform(), v)
}
