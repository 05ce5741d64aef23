package geo

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/paulmach/orb"
)

// WGS84 ellipsoid constants.
const (
	wgs84A  = 6378137.0
	wgs84F  = 1 / 298.257223563
	utmK0   = 0.9996
	utmFE   = 500000.0
	utmFNSo = 10000000.0
)

// Transformer projects WGS84 lon/lat into one target CRS.
type Transformer func(p orb.Point) (x, y float64)

// TransformerRegistry builds at most one Transformer per target CRS and
// reuses it for every point. Construction involves parsing the CRS code and
// binding projection constants, so per-point construction is forbidden.
//
// Supported codes: EPSG:4326 (identity), EPSG:3857 (spherical mercator) and
// EPSG:326xx / EPSG:327xx (UTM north/south). The registry is safe for
// concurrent use.
type TransformerRegistry struct {
	mu           sync.Mutex
	transformers map[string]Transformer
}

func NewTransformerRegistry() *TransformerRegistry {
	return &TransformerRegistry{transformers: make(map[string]Transformer)}
}

// Project converts a WGS84 point into the target CRS, constructing the
// transformer lazily on first use.
func (r *TransformerRegistry) Project(crs string, p orb.Point) (x, y float64, err error) {
	r.mu.Lock()
	t, ok := r.transformers[crs]
	if !ok {
		t, err = buildTransformer(crs)
		if err != nil {
			r.mu.Unlock()
			return 0, 0, err
		}
		r.transformers[crs] = t
	}
	r.mu.Unlock()

	x, y = t(p)
	return x, y, nil
}

func buildTransformer(crs string) (Transformer, error) {
	code := strings.ToUpper(strings.TrimSpace(crs))
	code = strings.TrimPrefix(code, "EPSG:")

	switch {
	case code == "4326" || code == "CRS84":
		return func(p orb.Point) (float64, float64) {
			return p.Lon(), p.Lat()
		}, nil

	case code == "3857" || code == "900913":
		return func(p orb.Point) (float64, float64) {
			x := wgs84A * radians(p.Lon())
			y := wgs84A * math.Log(math.Tan(math.Pi/4+radians(p.Lat())/2))
			return x, y
		}, nil

	case len(code) == 5 && (strings.HasPrefix(code, "326") || strings.HasPrefix(code, "327")):
		zone, err := strconv.Atoi(code[3:])
		if err != nil || zone < 1 || zone > 60 {
			return nil, fmt.Errorf("crs %q: invalid UTM zone", crs)
		}
		south := strings.HasPrefix(code, "327")
		return utmTransformer(zone, south), nil
	}

	return nil, fmt.Errorf("crs %q is not supported", crs)
}

// utmTransformer implements the forward transverse-mercator projection for
// one UTM zone using the standard series expansion on the WGS84 ellipsoid.
func utmTransformer(zone int, south bool) Transformer {
	e2 := wgs84F * (2 - wgs84F)
	e4 := e2 * e2
	e6 := e4 * e2
	ep2 := e2 / (1 - e2)
	lon0 := radians(float64((zone-1)*6 - 180 + 3))

	return func(p orb.Point) (float64, float64) {
		phi := radians(p.Lat())
		lam := radians(p.Lon())

		sinPhi := math.Sin(phi)
		cosPhi := math.Cos(phi)
		tanPhi := math.Tan(phi)

		n := wgs84A / math.Sqrt(1-e2*sinPhi*sinPhi)
		t := tanPhi * tanPhi
		c := ep2 * cosPhi * cosPhi
		a := cosPhi * (lam - lon0)

		m := wgs84A * ((1-e2/4-3*e4/64-5*e6/256)*phi -
			(3*e2/8+3*e4/32+45*e6/1024)*math.Sin(2*phi) +
			(15*e4/256+45*e6/1024)*math.Sin(4*phi) -
			(35*e6/3072)*math.Sin(6*phi))

		x := utmK0*n*(a+(1-t+c)*a*a*a/6+
			(5-18*t+t*t+72*c-58*ep2)*math.Pow(a, 5)/120) + utmFE

		y := utmK0 * (m + n*tanPhi*(a*a/2+
			(5-t+9*c+4*c*c)*math.Pow(a, 4)/24+
			(61-58*t+t*t+600*c-330*ep2)*math.Pow(a, 6)/720))

		if south {
			y += utmFNSo
		}
		return x, y
	}
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
