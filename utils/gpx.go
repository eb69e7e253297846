package utils

import (
	"encoding/xml"
	"fmt"
	"math"
	"time"
)

// Track is the aggregate of a parsed GPX file.
type Track struct {
	DistanceKm float64
	Duration   time.Duration
	Points     int
}

type gpxFile struct {
	Tracks []struct {
		Segments []struct {
			Points []gpxPoint `xml:"trkpt"`
		} `xml:"trkseg"`
	} `xml:"trk"`
}

type gpxPoint struct {
	Lat  float64 `xml:"lat,attr"`
	Lon  float64 `xml:"lon,attr"`
	Time string  `xml:"time"`
}

// ParseGPX sums the haversine distance over all track segments and takes
// the duration from the first and last timestamped points.
func ParseGPX(data []byte) (*Track, error) {
	var file gpxFile
	if err := xml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse gpx: %w", err)
	}

	var (
		distance    float64
		points      int
		first, last time.Time
	)
	for _, trk := range file.Tracks {
		for _, seg := range trk.Segments {
			for i, p := range seg.Points {
				points++
				if i > 0 {
					prev := seg.Points[i-1]
					distance += haversineKm(prev.Lat, prev.Lon, p.Lat, p.Lon)
				}
				if t, err := time.Parse(time.RFC3339, p.Time); err == nil {
					if first.IsZero() || t.Before(first) {
						first = t
					}
					if t.After(last) {
						last = t
					}
				}
			}
		}
	}
	if points < 2 {
		return nil, fmt.Errorf("gpx track has no usable points")
	}

	track := &Track{DistanceKm: distance, Points: points}
	if !first.IsZero() && last.After(first) {
		track.Duration = last.Sub(first)
	}
	return track, nil
}

// EstimateRunCalories is the common running approximation of about one
// kcal per kg per km.
func EstimateRunCalories(weightKg, distanceKm float64) float64 {
	return 1.036 * weightKg * distanceKm
}

const earthRadiusKm = 6371.0

func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}
