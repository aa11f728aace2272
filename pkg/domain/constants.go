package domain

import "math"

// Математические константы
const (
	Epsilon  = 1e-9
	Infinity = math.MaxFloat64
)

// Параметры округления расстояний
const (
	// DefaultPrecision число знаков после запятой для расстояний
	DefaultPrecision = 2
	// roundingSlack гасит артефакты вида 1.1*100 = 110.00000000000001 перед ceil
	roundingSlack = 1e-7
)

// FloatEquals сравнивает два float64 с учётом Epsilon
func FloatEquals(a, b float64) bool {
	return math.Abs(a-b) < Epsilon
}

// FloatLess проверяет a < b с учётом Epsilon
func FloatLess(a, b float64) bool {
	return a < b-Epsilon
}

// FloatGreater проверяет a > b с учётом Epsilon
func FloatGreater(a, b float64) bool {
	return a > b+Epsilon
}

// IsPositive проверяет, положительно ли значение
func IsPositive(v float64) bool {
	return v > Epsilon
}

// ClampZero обнуляет отрицательные значения
func ClampZero(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
