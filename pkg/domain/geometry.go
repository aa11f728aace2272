package domain

import (
	"fmt"
	"math"
)

// Point координата города на плоскости
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// String форматирует точку как (x, y)
func (p Point) String() string {
	return fmt.Sprintf("(%g, %g)", p.X, p.Y)
}

// RoundUp округляет v вверх до precision знаков после запятой.
// Значения, отличающиеся от границы меньше чем на roundingSlack единиц
// последнего разряда, считаются лежащими на границе.
func RoundUp(v float64, precision int) float64 {
	scale := math.Pow10(precision)
	return math.Ceil(v*scale-roundingSlack) / scale
}

// RawDistance возвращает евклидово расстояние без округления.
// Отрицательное подкоренное выражение означает дефект вызывающего кода и
// приводит к панике.
func RawDistance(a, b Point) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	sq := dx*dx + dy*dy
	if sq < 0 || math.IsNaN(sq) {
		panic(fmt.Sprintf("domain: sqrt of invalid value %v between %v and %v", sq, a, b))
	}
	return math.Sqrt(sq)
}

// Distance возвращает евклидово расстояние, округлённое вверх до precision знаков.
func Distance(a, b Point, precision int) float64 {
	return RoundUp(RawDistance(a, b), precision)
}

// DistanceMatrix строит плотную матрицу округлённых расстояний.
func DistanceMatrix(points []Point, precision int) [][]float64 {
	n := len(points)
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := Distance(points[i], points[j], precision)
			dist[i][j] = d
			dist[j][i] = d
		}
	}
	return dist
}
