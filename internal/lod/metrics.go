package lod

import "github.com/prometheus/client_golang/prometheus"

// RegisterMetrics exposes tree gauges on r.
func (s *System) RegisterMetrics(r prometheus.Registerer) error {
	gauges := []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "voxplanet",
			Subsystem: "lod",
			Name:      "nodes",
			Help:      "Live octree nodes.",
		}, func() float64 { return float64(s.shared.NodeCount()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "voxplanet",
			Subsystem: "lod",
			Name:      "drawn_grids",
			Help:      "Grid meshes currently handed to the drawables sink.",
		}, func() float64 { return float64(s.shared.Drawn()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "voxplanet",
			Subsystem: "lod",
			Name:      "must_generate",
			Help:      "Addresses waiting in the must-generate set.",
		}, func() float64 { return float64(s.shared.MustGenerateCount()) }),
	}
	for _, g := range gauges {
		if err := r.Register(g); err != nil {
			return err
		}
	}
	return nil
}
