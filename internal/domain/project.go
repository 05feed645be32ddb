package domain

import "math"

// WGS84 ellipsoid and UTM/UPS projection constants.
const (
	wgs84A = 6378137.0
	wgs84F = 1 / 298.257223563

	utmScale         = 0.9996
	utmFalseEasting  = 500000.0
	utmFalseNorthing = 10000000.0 // southern hemisphere only
	upsScale         = 0.994
	upsFalseOrigin   = 2000000.0

	newtonSteps = 10
)

var (
	e2 = wgs84F * (2 - wgs84F)
	ec = math.Sqrt(e2)

	// Krüger series in the third flattening n, as given by Karney (2011),
	// "Transverse Mercator with an accuracy of a few nanometers".
	thirdFlattening  = wgs84F / (2 - wgs84F)
	rectifyingRadius = rectifying(thirdFlattening)
	krugerBeta       = inverseKruger(thirdFlattening)

	// Polar stereographic scale: sqrt((1+e)^(1+e) * (1-e)^(1-e)).
	polarC = math.Sqrt(math.Pow(1+ec, 1+ec) * math.Pow(1-ec, 1-ec))
)

func rectifying(n float64) float64 {
	n2 := n * n
	return wgs84A / (1 + n) * (1 + n2/4 + n2*n2/64 + n2*n2*n2/256)
}

func inverseKruger(n float64) [6]float64 {
	n2 := n * n
	n3 := n2 * n
	n4 := n3 * n
	n5 := n4 * n
	n6 := n5 * n
	return [6]float64{
		n/2 - 2*n2/3 + 37*n3/96 - n4/360 - 81*n5/512 + 96199*n6/604800,
		n2/48 + n3/15 - 437*n4/1440 + 46*n5/105 + 1118711*n6/3870720,
		17*n3/480 - 37*n4/840 - 209*n5/4480 + 5569*n6/90720,
		4397*n4/161280 - 11*n5/504 - 830251*n6/7257600,
		4583*n5/161280 - 108847*n6/3991680,
		20648693 * n6 / 638668800,
	}
}

// inverseTransverseMercator converts easting x and northing y (metres from the
// central meridian and the equator) to latitude and longitude offset in degrees.
func inverseTransverseMercator(x, y float64) (lat, lon float64) {
	xi := y / (utmScale * rectifyingRadius)
	eta := x / (utmScale * rectifyingRadius)

	xip, etap := xi, eta
	for j, b := range krugerBeta {
		k := float64(2 * (j + 1))
		xip -= b * math.Sin(k*xi) * math.Cosh(k*eta)
		etap -= b * math.Cos(k*xi) * math.Sinh(k*eta)
	}

	taup := math.Sin(xip) / math.Hypot(math.Sinh(etap), math.Cos(xip))
	lon = math.Atan2(math.Sinh(etap), math.Cos(xip))
	lat = math.Atan(conformalToGeodetic(taup))
	return degrees(lat), degrees(lon)
}

// inversePolarStereographic converts UPS easting and northing (false origin
// removed by the caller) to latitude and longitude in degrees.
func inversePolarStereographic(north bool, x, y float64) (lat, lon float64) {
	rho := math.Hypot(x, y)
	if rho == 0 {
		lat = 90
	} else {
		t := rho * polarC / (2 * wgs84A * upsScale)
		lat = degrees(math.Atan(conformalToGeodetic((1/t - t) / 2)))
	}
	if north {
		return lat, degrees(math.Atan2(x, -y))
	}
	return -lat, degrees(math.Atan2(x, y))
}

// conformalToGeodetic solves tan(conformal latitude) = taup for tan(latitude)
// by Newton's method, capped at newtonSteps iterations.
func conformalToGeodetic(taup float64) float64 {
	tau := taup / (1 - e2)
	for range newtonSteps {
		tp := geodeticToConformal(tau)
		d := (taup - tp) / math.Hypot(1, tp) *
			(1 + (1-e2)*tau*tau) / ((1 - e2) * math.Hypot(1, tau))
		tau += d
		if math.Abs(d) < 1e-14*math.Max(1, math.Abs(tau)) {
			break
		}
	}
	return tau
}

func geodeticToConformal(tau float64) float64 {
	tau1 := math.Hypot(1, tau)
	sig := math.Sinh(ec * math.Atanh(ec*tau/tau1))
	return math.Hypot(1, sig)*tau - sig*tau1
}

func degrees(rad float64) float64 { return rad * 180 / math.Pi }
