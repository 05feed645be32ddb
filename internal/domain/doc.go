// Package domain converts Military Grid Reference System (MGRS) references to
// WGS84 latitude and longitude, and finds the column of a table that holds them.
//
// # Reference Format
//
// A zoned reference has four parts:
//
//	33T  WM  12345 67890
//	│ │  │   └──┬──┘ └─ northing digits
//	│ │  │      └─ easting digits (same count as northing, 0–5 each)
//	│ │  └─ 100 km square: column letter, row letter
//	│ └─ latitude band C–X (8° each from 80°S, X is 12°), no I or O
//	└─ UTM zone 1–60 (6° each from 180°W)
//
// Polar references (UPS) drop the zone and use bands A/B (south) or Y/Z
// (north), e.g. "ZGC2000050000".
//
// Precision is set by the digit count: 5 digits per axis = 1 m, 4 = 10 m,
// down to 0 digits = the whole 100 km square. Conversions return the centre
// of the denoted cell, so a reference at any precision maps inside the cell
// of every coarser prefix of itself.
//
// # 100 km Square Lettering
//
// Column letters cycle through three sets (A–H, J–R, S–Z) keyed by
// (zone-1) mod 3. Row letters A–V repeat every 2,000 km; even zones start
// at F rather than A. Because rows repeat, the latitude band is needed to
// pick the right 2,000 km cycle (see [resolveUTMRow]). Bands C–M are south
// of the equator and carry a 10,000 km false northing.
//
// # Projection
//
// UTM inverse uses the Krüger series to sixth order in the third flattening
// (Karney 2011), accurate to well under a millimetre within a zone. UPS inverse
// uses the ellipsoidal polar stereographic projection with scale 0.994 and a
// 2,000 km false origin.
//
// # Column Detection
//
// [Detect] scores every column of a sample by how many values have the
// lexical MGRS shape and returns the best one, leftmost on ties. It never
// looks at column names. Detection finding nothing is a normal outcome.
package domain
