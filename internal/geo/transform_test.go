package geo

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"
)

func TestProjectIdentity(t *testing.T) {
	r := NewTransformerRegistry()

	x, y, err := r.Project("EPSG:4326", orb.Point{13.4, 52.5})
	require.NoError(t, err)
	require.Equal(t, 13.4, x)
	require.Equal(t, 52.5, y)
}

func TestProjectWebMercator(t *testing.T) {
	r := NewTransformerRegistry()

	x, y, err := r.Project("EPSG:3857", orb.Point{1, 0})
	require.NoError(t, err)
	require.InDelta(t, 111319.4908, x, 0.01)
	require.InDelta(t, 0, y, 1e-6)
}

func TestProjectUTM(t *testing.T) {
	r := NewTransformerRegistry()

	// Zone 33N central meridian is 15E: points on it map to false easting.
	x, _, err := r.Project("EPSG:32633", orb.Point{15, 52})
	require.NoError(t, err)
	require.InDelta(t, 500000, x, 0.01)

	// Southern hemisphere zones add the 10,000 km false northing.
	_, yNorth, err := r.Project("EPSG:32733", orb.Point{15, 10})
	require.NoError(t, err)
	_, ySouth, err := r.Project("EPSG:32733", orb.Point{15, -10})
	require.NoError(t, err)
	require.Greater(t, ySouth, 0.0)
	require.Greater(t, yNorth, ySouth)
}

func TestProjectUnsupportedCRS(t *testing.T) {
	r := NewTransformerRegistry()

	_, _, err := r.Project("EPSG:2154", orb.Point{2.35, 48.85})
	require.Error(t, err)
}

func TestProjectReusesTransformer(t *testing.T) {
	r := NewTransformerRegistry()

	x1, y1, err := r.Project("EPSG:32633", orb.Point{14.5, 51.2})
	require.NoError(t, err)
	x2, y2, err := r.Project("EPSG:32633", orb.Point{14.5, 51.2})
	require.NoError(t, err)
	require.Equal(t, x1, x2)
	require.Equal(t, y1, y2)
}
