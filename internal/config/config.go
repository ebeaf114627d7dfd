// Package config loads the INI-style text configuration and the legacy
// two-line bitrate override file described in spec section 6, and
// projects them into an abr.Config the Runner can consume.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/ini.v1"

	"github.com/ceralive/ceracoder/internal/abr"
)

// AdaptiveFile mirrors the [adaptive] INI section, values in kbps/ms.
type AdaptiveFile struct {
	IncrStepKbps   int64
	DecrStepKbps   int64
	IncrIntervalMs int64
	DecrIntervalMs int64
	LossThreshold  float64
}

// AimdFile mirrors the [aimd] INI section, values in kbps/ms.
type AimdFile struct {
	IncrStepKbps   int64
	DecrMult       float64
	IncrIntervalMs int64
	DecrIntervalMs int64
}

// FileConfig is the typed projection of the whole INI file.
type FileConfig struct {
	MinBitrateKbps int64
	MaxBitrateKbps int64
	Balancer       string

	SRTLatencyMs int64

	Adaptive AdaptiveFile
	Aimd     AimdFile
}

// Defaults returns the configuration spec section 6 documents as the
// built-in defaults for every key.
func Defaults() FileConfig {
	return FileConfig{
		MinBitrateKbps: 300,
		MaxBitrateKbps: 6000,
		Balancer:       "adaptive",
		SRTLatencyMs:   2000,
		Adaptive: AdaptiveFile{
			IncrStepKbps:   30,
			DecrStepKbps:   100,
			IncrIntervalMs: 500,
			DecrIntervalMs: 200,
			LossThreshold:  0.5,
		},
		Aimd: AimdFile{
			IncrStepKbps:   50,
			DecrMult:       0.75,
			IncrIntervalMs: 500,
			DecrIntervalMs: 200,
		},
	}
}

// Load reads path as an INI file and overlays it onto Defaults(). A
// missing or unreadable file is not an error: the caller gets defaults
// back, matching belacoder's config_load behavior of treating a failed
// load as non-fatal to the rest of the pipeline.
func Load(path string) (FileConfig, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}

	f, err := ini.LoadSources(ini.LoadOptions{AllowShadows: true}, path)
	if err != nil {
		return cfg, nil
	}

	general := f.Section("general")
	cfg.MinBitrateKbps = general.Key("min_bitrate").MustInt64(cfg.MinBitrateKbps)
	cfg.MaxBitrateKbps = general.Key("max_bitrate").MustInt64(cfg.MaxBitrateKbps)
	cfg.Balancer = general.Key("balancer").MustString(cfg.Balancer)

	srt := f.Section("srt")
	cfg.SRTLatencyMs = srt.Key("latency").MustInt64(cfg.SRTLatencyMs)

	adaptive := f.Section("adaptive")
	cfg.Adaptive.IncrStepKbps = adaptive.Key("incr_step").MustInt64(cfg.Adaptive.IncrStepKbps)
	cfg.Adaptive.DecrStepKbps = adaptive.Key("decr_step").MustInt64(cfg.Adaptive.DecrStepKbps)
	cfg.Adaptive.IncrIntervalMs = adaptive.Key("incr_interval").MustInt64(cfg.Adaptive.IncrIntervalMs)
	cfg.Adaptive.DecrIntervalMs = adaptive.Key("decr_interval").MustInt64(cfg.Adaptive.DecrIntervalMs)
	cfg.Adaptive.LossThreshold = adaptive.Key("loss_threshold").MustFloat64(cfg.Adaptive.LossThreshold)

	aimd := f.Section("aimd")
	cfg.Aimd.IncrStepKbps = aimd.Key("incr_step").MustInt64(cfg.Aimd.IncrStepKbps)
	cfg.Aimd.DecrMult = aimd.Key("decr_mult").MustFloat64(cfg.Aimd.DecrMult)
	cfg.Aimd.IncrIntervalMs = aimd.Key("incr_interval").MustInt64(cfg.Aimd.IncrIntervalMs)
	cfg.Aimd.DecrIntervalMs = aimd.Key("decr_interval").MustInt64(cfg.Aimd.DecrIntervalMs)

	return cfg, nil
}

// Write serializes cfg to path in the same section/key layout Load
// reads, for the config round-trip law in spec section 8.
func Write(cfg FileConfig, path string) error {
	f := ini.Empty()

	general, _ := f.NewSection("general")
	general.NewKey("min_bitrate", strconv.FormatInt(cfg.MinBitrateKbps, 10))
	general.NewKey("max_bitrate", strconv.FormatInt(cfg.MaxBitrateKbps, 10))
	general.NewKey("balancer", cfg.Balancer)

	srt, _ := f.NewSection("srt")
	srt.NewKey("latency", strconv.FormatInt(cfg.SRTLatencyMs, 10))

	adaptive, _ := f.NewSection("adaptive")
	adaptive.NewKey("incr_step", strconv.FormatInt(cfg.Adaptive.IncrStepKbps, 10))
	adaptive.NewKey("decr_step", strconv.FormatInt(cfg.Adaptive.DecrStepKbps, 10))
	adaptive.NewKey("incr_interval", strconv.FormatInt(cfg.Adaptive.IncrIntervalMs, 10))
	adaptive.NewKey("decr_interval", strconv.FormatInt(cfg.Adaptive.DecrIntervalMs, 10))
	adaptive.NewKey("loss_threshold", strconv.FormatFloat(cfg.Adaptive.LossThreshold, 'f', -1, 64))

	aimd, _ := f.NewSection("aimd")
	aimd.NewKey("incr_step", strconv.FormatInt(cfg.Aimd.IncrStepKbps, 10))
	aimd.NewKey("decr_mult", strconv.FormatFloat(cfg.Aimd.DecrMult, 'f', -1, 64))
	aimd.NewKey("incr_interval", strconv.FormatInt(cfg.Aimd.IncrIntervalMs, 10))
	aimd.NewKey("decr_interval", strconv.FormatInt(cfg.Aimd.DecrIntervalMs, 10))

	return f.SaveTo(path)
}

// ToAlgorithmConfig composes the abr.Config a Runner is built from: it
// copies bounds and converts every per-algorithm kbps tunable to bps.
func ToAlgorithmConfig(cfg FileConfig, srtLatencyMs, srtPktSizeBytes int64) abr.Config {
	return abr.Config{
		MinBitrateBps:   cfg.MinBitrateKbps * 1000,
		MaxBitrateBps:   cfg.MaxBitrateKbps * 1000,
		SRTLatencyMs:    srtLatencyMs,
		SRTPktSizeBytes: srtPktSizeBytes,
		Adaptive: abr.AdaptiveTunables{
			IncrStepBps:    cfg.Adaptive.IncrStepKbps * 1000,
			DecrStepBps:    cfg.Adaptive.DecrStepKbps * 1000,
			IncrIntervalMs: cfg.Adaptive.IncrIntervalMs,
			DecrIntervalMs: cfg.Adaptive.DecrIntervalMs,
			LossThreshold:  cfg.Adaptive.LossThreshold,
		},
		Aimd: abr.AimdTunables{
			IncrStepBps:    cfg.Aimd.IncrStepKbps * 1000,
			DecrMult:       cfg.Aimd.DecrMult,
			IncrIntervalMs: cfg.Aimd.IncrIntervalMs,
			DecrIntervalMs: cfg.Aimd.DecrIntervalMs,
		},
	}
}

// legacyBitrateMin and legacyBitrateMax are the hard bounds belacoder's
// legacy bitrate file enforces on each parsed line.
const (
	legacyBitrateMin = 300_000
	legacyBitrateMax = 30_000_000
)

// LoadLegacyBitrateFile parses the two-line "min\nmax\n" legacy bitrate
// override file, rejecting anything outside [300_000, 30_000_000] bps.
// Only the first two lines are read; any further lines are ignored.
func LoadLegacyBitrateFile(path string) (minBps, maxBps int64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lines := make([]int64, 0, 2)
	for scanner.Scan() && len(lines) < 2 {
		v, perr := strconv.ParseInt(scanner.Text(), 10, 64)
		if perr != nil {
			return 0, 0, fmt.Errorf("config: invalid legacy bitrate value %q: %w", scanner.Text(), perr)
		}
		if v < legacyBitrateMin || v > legacyBitrateMax {
			return 0, 0, fmt.Errorf("config: legacy bitrate %d out of range [%d, %d]", v, legacyBitrateMin, legacyBitrateMax)
		}
		lines = append(lines, v)
	}
	if err := scanner.Err(); err != nil {
		return 0, 0, err
	}
	if len(lines) != 2 {
		return 0, 0, fmt.Errorf("config: legacy bitrate file must have at least 2 lines, got %d", len(lines))
	}

	return lines[0], lines[1], nil
}
