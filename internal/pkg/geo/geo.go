// Package geo содержит геометрические утилиты маршрута: расстояния по
// большому кругу, длины полилиний и проекцию точки на полилинию.
package geo

import (
	"math"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

// DistanceKm вычисляет расстояние между двумя точками в километрах
func DistanceKm(a, b orb.Point) float64 {
	return orbgeo.DistanceHaversine(a, b) / 1000
}

// LengthKm - длина полилинии в километрах
func LengthKm(ls orb.LineString) float64 {
	var meters float64
	for i := 1; i < len(ls); i++ {
		meters += orbgeo.DistanceHaversine(ls[i-1], ls[i])
	}
	return meters / 1000
}

// Straight возвращает прямую линию-заглушку между двумя точками
func Straight(a, b orb.Point) orb.LineString {
	return orb.LineString{a, b}
}

// ValidCoordinates проверяет валидность координат
func ValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// ProjectOnSegment проецирует p на отрезок a-b и возвращает точку проекции и
// параметр t, ограниченный [0, 1]. Долгота масштабируется на cos(широты),
// чтобы проекция была перпендикулярной на местности, а не в градусах.
func ProjectOnSegment(p, a, b orb.Point) (orb.Point, float64) {
	k := math.Cos((a[1] + b[1]) / 2 * math.Pi / 180)

	dx := (b[0] - a[0]) * k
	dy := b[1] - a[1]
	if dx == 0 && dy == 0 {
		return a, 0
	}

	t := (((p[0]-a[0])*k)*dx + (p[1]-a[1])*dy) / (dx*dx + dy*dy)
	if t <= 0 {
		return a, 0
	}
	if t >= 1 {
		return b, 1
	}

	return orb.Point{a[0] + t*(b[0]-a[0]), a[1] + t*(b[1]-a[1])}, t
}

// Projection - ближайшая к точке позиция на полилинии
type Projection struct {
	Point orb.Point
	// Index первой вершины отрезка полилинии, на который попала проекция
	Index int
	T     float64
	// AlongKm - расстояние от начала полилинии до проекции
	AlongKm float64
	// OffsetKm - расстояние от исходной точки до проекции
	OffsetKm float64
}

// Project находит ближайшую точку полилинии по всем её отрезкам.
// Для полилинии из одной вершины возвращает эту вершину.
func Project(ls orb.LineString, p orb.Point) (Projection, bool) {
	switch len(ls) {
	case 0:
		return Projection{}, false
	case 1:
		return Projection{Point: ls[0], OffsetKm: DistanceKm(ls[0], p)}, true
	}

	best := Projection{OffsetKm: math.MaxFloat64}
	var prefix float64
	for i := 0; i < len(ls)-1; i++ {
		proj, t := ProjectOnSegment(p, ls[i], ls[i+1])
		offset := DistanceKm(proj, p)
		if offset < best.OffsetKm {
			best = Projection{
				Point:    proj,
				Index:    i,
				T:        t,
				AlongKm:  prefix + DistanceKm(ls[i], proj),
				OffsetKm: offset,
			}
		}
		prefix += DistanceKm(ls[i], ls[i+1])
	}

	return best, true
}
