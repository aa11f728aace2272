package flow

import (
	"sync"
	"testing"
)

// Решатели не имеют общего состояния: параллельные вызовы на своих входах
// должны давать тот же результат, что и последовательные.
func TestSolversConcurrency(t *testing.T) {
	var wg sync.WaitGroup
	errs := make(chan string, 64)

	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			net := diamond()
			switch i % 3 {
			case 0:
				res, err := MaxFlow(net)
				if err != nil || res.Value != 4 {
					errs <- "max flow mismatch"
				}
			case 1:
				res, ok, err := FlowsWithDemands(net, demandMatrix(4, map[[2]int]float64{{0, 1}: 1}))
				if err != nil || !ok || res.Flow[0][1] < 1 {
					errs <- "demand flow mismatch"
				}
			default:
				res, err := MaximumWeightedFlow(net, demandMatrix(4, map[[2]int]float64{{0, 2}: 1}))
				if err != nil || res.Value != 2 {
					errs <- "weighted flow mismatch"
				}
			}
		}(i)
	}

	wg.Wait()
	close(errs)

	for msg := range errs {
		t.Error(msg)
	}
}

// layered строит сеть-«решётку» из layers слоёв по width узлов.
func layered(layers, width int) *Network {
	size := layers*width + 2
	source, sink := 0, size-1
	net := NewNetwork(size, source, sink)
	node := func(l, k int) int { return 1 + l*width + k }

	for k := 0; k < width; k++ {
		net.AddEdge(source, node(0, k), 10)
		net.AddEdge(node(layers-1, k), sink, 10)
	}
	for l := 0; l+1 < layers; l++ {
		for k := 0; k < width; k++ {
			net.AddEdge(node(l, k), node(l+1, k), float64(1+k%4))
			net.AddEdge(node(l, k), node(l+1, (k+1)%width), 2)
		}
	}
	return net
}

func BenchmarkMaxFlow(b *testing.B) {
	net := layered(10, 10)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := MaxFlow(net); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkFlowsWithDemands(b *testing.B) {
	net := layered(10, 10)
	demands := newMatrix(net.Size)
	for k := 0; k < 10; k++ {
		demands[0][1+k] = 1
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := FlowsWithDemands(net, demands); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkMaximumWeightedFlow(b *testing.B) {
	net := layered(4, 4)
	weights := newMatrix(net.Size)
	net.eachEdge(func(i, j int) {
		weights[i][j] = float64((i + j) % 3)
	})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := MaximumWeightedFlow(net, weights); err != nil {
			b.Fatal(err)
		}
	}
}
