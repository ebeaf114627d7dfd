package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/fatih/color"
	"github.com/guptarohit/asciigraph"
	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ceralive/ceracoder/internal/abr/runner"
	"github.com/ceralive/ceracoder/internal/applog"
	"github.com/ceralive/ceracoder/internal/config"
	"github.com/ceralive/ceracoder/internal/linksim"
	"github.com/ceralive/ceracoder/internal/metrics"
	"github.com/ceralive/ceracoder/internal/overlay"
)

func main() {
	fmt.Println("\033[1;36m==============================\033[0m")
	fmt.Println("\033[1;36m  ceracoder adaptive balancer\033[0m")
	fmt.Println("\033[1;36m==============================\033[0m")

	configPath := flag.String("config", "", "Path to the INI configuration file")
	bitrateFile := flag.String("bitrate-file", "", "Path to a legacy two-line bitrate override file")
	balancerName := flag.String("balancer", "", "Balancer algorithm override (highest precedence)")
	srtLatency := flag.Int64("srt-latency", 2000, "SRT latency in milliseconds")
	srtPktSize := flag.Int64("srt-pkt-size", 1316, "SRT packet size in bytes")
	ticks := flag.Int("ticks", 200, "Number of simulated ticks to run")
	enablePrometheus := flag.Bool("prometheus", false, "Serve Prometheus metrics on -metrics-addr")
	metricsAddr := flag.String("metrics-addr", ":9108", "Address to serve /metrics on")
	reportFormat := flag.String("report-format", "table", "End-of-run report format: table | json")
	verbose := flag.Bool("verbose", false, "Verbose (development-mode) logging")
	flag.Parse()

	logger := applog.New(*verbose)
	defer logger.Sync()

	fileCfg, err := config.Load(*configPath)
	if err != nil {
		logger.Sugar().Fatalw("failed to load configuration", "error", err)
	}

	if *bitrateFile != "" {
		minBps, maxBps, err := config.LoadLegacyBitrateFile(*bitrateFile)
		if err != nil {
			logger.Sugar().Fatalw("failed to load legacy bitrate file", "error", err)
		}
		fileCfg.MinBitrateKbps = minBps / 1000
		fileCfg.MaxBitrateKbps = maxBps / 1000
	}

	algoCfg := config.ToAlgorithmConfig(fileCfg, *srtLatency, *srtPktSize)

	r, err := runner.Init(algoCfg, fileCfg.Balancer, *balancerName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer r.Cleanup()

	fmt.Printf("balancer: %s  bounds: [%d, %d] bps\n", r.Name(), algoCfg.MinBitrateBps, algoCfg.MaxBitrateBps)

	reg := prometheus.NewRegistry()
	promMetrics := metrics.NewPrometheus(reg)
	promMetrics.SetMinBitrate(algoCfg.MinBitrateBps)
	hdr := metrics.NewHDR()

	if *enablePrometheus {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				logger.Sugar().Errorw("prometheus listener stopped", "error", err)
			}
		}()
		fmt.Printf("prometheus metrics on %s/metrics\n", *metricsAddr)
	}

	profile := linksim.GoodLink(algoCfg.MaxBitrateBps)
	gen := linksim.New(profile, algoCfg.SRTPktSizeBytes)

	bitrateSeries := make([]float64, 0, *ticks)
	throughputSeries := make([]float64, 0, *ticks)

	requested := algoCfg.MaxBitrateBps
	for i := 0; i < *ticks; i++ {
		sample := gen.Next(requested)
		decision := r.Step(sample)
		requested = decision.NewBitrateBps

		promMetrics.Observe(decision)
		hdr.Observe(decision)

		bitrateSeries = append(bitrateSeries, float64(decision.NewBitrateBps))
		throughputSeries = append(throughputSeries, decision.Throughput)

		fmt.Println(overlay.Format(decision))
	}

	renderReport(*reportFormat, bitrateSeries, throughputSeries, hdr.Snapshot())
}

// percentileReport is the JSON shape of -report-format=json; field names
// are the stable, machine-readable counterpart to the table's columns.
type percentileReport struct {
	Quantity string  `json:"quantity"`
	P50      float64 `json:"p50"`
	P90      float64 `json:"p90"`
	P99      float64 `json:"p99"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Mean     float64 `json:"mean"`
	Count    int64   `json:"count"`
}

type runReport struct {
	Ticks      int                `json:"ticks"`
	Percentile []percentileReport `json:"percentiles"`
}

func renderReport(format string, bitrateSeries, throughputSeries []float64, snap metrics.Snapshot) {
	rows := []struct {
		name string
		s    metrics.PercentileStats
	}{
		{"bitrate_bps", snap.Bitrate},
		{"throughput_bps", snap.Throughput},
		{"rtt_ms", snap.RTT},
		{"buffer_packets", snap.Buffer},
	}

	if format == "json" {
		report := runReport{Ticks: len(bitrateSeries)}
		for _, row := range rows {
			report.Percentile = append(report.Percentile, percentileReport{
				Quantity: row.name,
				P50:      row.s.P50,
				P90:      row.s.P90,
				P99:      row.s.P99,
				Min:      row.s.Min,
				Max:      row.s.Max,
				Mean:     row.s.Mean,
				Count:    row.s.Count,
			})
		}
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return
		}
		fmt.Println(string(data))
		return
	}

	if len(bitrateSeries) > 0 {
		graph := asciigraph.Plot(bitrateSeries,
			asciigraph.Height(10),
			asciigraph.Width(70),
			asciigraph.Caption("committed bitrate (bps)"),
		)
		fmt.Println(graph)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("quantity", "p50", "p90", "p99", "count")
	for _, row := range rows {
		table.Append(row.name,
			fmt.Sprintf("%.0f", row.s.P50),
			fmt.Sprintf("%.0f", row.s.P90),
			fmt.Sprintf("%.0f", row.s.P99),
			fmt.Sprintf("%d", row.s.Count),
		)
	}
	table.Render()
	color.Green("\n✓ report rendered (%d ticks)", len(bitrateSeries))
}
