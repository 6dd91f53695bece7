// Command ls-airwaves is a terminal globe of live radio stations.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/term"

	"github.com/litescript/ls-airwaves/internal/globe"
	"github.com/litescript/ls-airwaves/internal/logging"
	"github.com/litescript/ls-airwaves/internal/metrics"
	"github.com/litescript/ls-airwaves/internal/state"
	"github.com/litescript/ls-airwaves/internal/station"
	"github.com/litescript/ls-airwaves/internal/ui"
)

// CLI flags for headless mode
var (
	renderMode  bool
	pickCoord   string
	exportPath  string
	metricsAddr string
)

const (
	defaultRefresh = 30 * time.Minute
	minRefresh     = 1 * time.Minute
	maxRefresh     = 24 * time.Hour

	defaultRenderWidth  = 100
	defaultRenderHeight = 40
)

func main() {
	// Parse flags
	refresh := flag.Duration("refresh", defaultRefresh, "Station list refresh interval (e.g., 30m, 2h)")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	logFile := flag.String("log-file", "ls-airwaves.log", "Log file used while the TUI runs")
	exportDir := flag.String("export-dir", ".", "Directory for spreadsheet exports from the TUI")
	flag.BoolVar(&renderMode, "render", false, "Render one frame of the globe to stdout")
	flag.StringVar(&pickCoord, "pick", "", "Print stations near a coordinate (lat,lon)")
	flag.StringVar(&exportPath, "export", "", "With -pick, write nearby stations to .json, .xlsx or - for stdout")
	flag.StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g., :9090)")
	flag.Parse()

	// Validate refresh interval
	if *refresh < minRefresh {
		*refresh = minRefresh
	} else if *refresh > maxRefresh {
		*refresh = maxRefresh
	}

	headless := renderMode || pickCoord != ""
	if exportPath != "" && pickCoord == "" {
		fmt.Fprintln(os.Stderr, "Error: -export requires -pick")
		os.Exit(2)
	}

	// Set up logging. The TUI owns the terminal, so it logs to a file.
	level := logging.ParseLevel(*logLevel)
	logger := logging.New(level)
	if !headless && *logFile != "" {
		fileLogger, err := logging.OpenFile(*logFile, level)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
			os.Exit(1)
		}
		logger = fileLogger
	}
	defer logger.Close()

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	// Initialize components
	collector, err := metrics.NewCollector(prometheus.DefaultRegisterer)
	if err != nil {
		logger.Warn("metrics disabled: %v", err)
	}
	if metricsAddr != "" && collector != nil {
		go func() {
			if err := collector.Serve(ctx, metricsAddr, logger.Named("metrics")); err != nil {
				logger.Error("%v", err)
			}
		}()
	}

	stateCfg := state.DefaultConfig()
	stateCfg.RefreshInterval = *refresh
	stateMgr := state.NewManager(stateCfg)

	catalogCfg := station.DefaultCatalogConfig()
	catalogCfg.CacheTTL = catalogTTL(*refresh)
	catalog := station.NewCatalog(station.WithConfig(catalogCfg))
	globeCfg := globe.DefaultConfig()

	// Headless mode: no TUI
	if headless {
		if err := runHeadless(ctx, catalog, globeCfg, collector, logger); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	scene := globe.NewScene(globeCfg,
		globe.WithLogger(logger.Named("globe")),
		globe.WithRecorder(recorder(collector)),
	)
	uiCfg := ui.DefaultConfig()
	uiCfg.FrameInterval = globeCfg.FrameInterval
	uiCfg.ExportDir = *exportDir
	refreshCh := make(chan struct{}, 1)
	uiCfg.Refresh = func() {
		select {
		case refreshCh <- struct{}{}:
		default:
		}
	}
	model := ui.New(stateMgr, scene, uiCfg)

	// Create Bubble Tea program
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))

	// Start fetch loop in background
	go runFetchLoop(ctx, catalog, stateMgr, collector, p, refreshCh, logger.Named("catalog"))

	// Run TUI (blocks until quit)
	final, err := p.Run()
	scene.Stop()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
	if m, ok := final.(ui.Model); ok {
		if startErr := m.SceneError(); startErr != nil {
			fmt.Fprintf(os.Stderr, "Error starting globe: %v\n", startErr)
			os.Exit(1)
		}
	}
}

// recorder avoids handing the scene a typed nil collector.
func recorder(c *metrics.Collector) globe.Recorder {
	if c == nil {
		return nil
	}
	return c
}

// catalogTTL keeps cached station lists for half the refresh interval, so
// scheduled refreshes always reach the network and manual ones in between
// are served from the cache.
func catalogTTL(refresh time.Duration) time.Duration {
	return refresh / 2
}

// sender is the part of tea.Program the fetch loop uses.
type sender interface {
	Send(msg tea.Msg)
}

func runFetchLoop(ctx context.Context, catalog *station.Catalog, stateMgr *state.Manager, collector *metrics.Collector, p sender, refreshCh <-chan struct{}, logger *logging.Logger) {
	// Do initial fetch immediately
	doFetch(ctx, catalog, stateMgr, collector, p, logger)

	ticker := time.NewTicker(stateMgr.RefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("Fetch loop shutting down")
			return
		case <-ticker.C:
			doFetch(ctx, catalog, stateMgr, collector, p, logger)
		case <-refreshCh:
			logger.Debug("Manual refresh requested")
			doFetch(ctx, catalog, stateMgr, collector, p, logger)
		}
	}
}

func doFetch(ctx context.Context, catalog *station.Catalog, stateMgr *state.Manager, collector *metrics.Collector, p sender, logger *logging.Logger) {
	logger.Debug("Fetching stations...")

	result := catalog.Fetch(ctx)
	collector.ObserveFetch(len(result.Stations), result.Cached, result.Error)

	if result.Error != nil {
		logger.Error("Fetch failed: %v", result.Error)
		if stateMgr.HasData() {
			logger.Warn("Keeping %d stations from the last fetch", len(stateMgr.Snapshot().Stations))
		}
		stateMgr.Update(nil, result.Duration, false, result.Error)
		p.Send(ui.ErrorMsg{Error: result.Error})
		return
	}

	logger.Info("Fetch complete: %d stations in %v (cached=%v)",
		len(result.Stations), result.Duration, result.Cached)

	stateMgr.Update(result.Stations, result.Duration, result.Cached, nil)
	p.Send(ui.DataUpdateMsg{Snapshot: stateMgr.Snapshot()})
}

// runHeadless handles the headless modes without starting the TUI.
func runHeadless(ctx context.Context, catalog *station.Catalog, cfg globe.Config, collector *metrics.Collector, logger *logging.Logger) error {
	result := catalog.Fetch(ctx)
	collector.ObserveFetch(len(result.Stations), result.Cached, result.Error)
	if result.Error != nil {
		return result.Error
	}
	logger.Debug("fetched %d stations in %v", len(result.Stations), result.Duration)

	if renderMode {
		w, h := defaultRenderWidth, defaultRenderHeight
		if term.IsTerminal(int(os.Stdout.Fd())) {
			if tw, th, err := term.GetSize(int(os.Stdout.Fd())); err == nil && tw > 0 && th > 1 {
				w, h = tw, th-1
			}
		}
		if err := renderOnce(os.Stdout, cfg, result.Stations, w, h, collector, logger); err != nil {
			return err
		}
	}

	if pickCoord != "" {
		lat, lon, err := parseCoordinate(pickCoord)
		if err != nil {
			return err
		}
		pick := globe.PickCoordinate(cfg, lat, lon, result.Stations)
		now := time.Now()
		if exportPath != "" {
			return exportPick(pick, now)
		}
		writePick(os.Stdout, pick, now)
	}
	return nil
}

// textSurface presents frames as plain text.
type textSurface struct {
	w, h int
	out  io.Writer
}

func (s *textSurface) Size() (int, int) { return s.w, s.h }

func (s *textSurface) Present(fb *globe.Framebuffer) error {
	_, err := io.WriteString(s.out, fb.String()+"\n")
	return err
}

// renderOnce draws a single globe frame to out.
func renderOnce(out io.Writer, cfg globe.Config, stations []station.Station, w, h int, collector *metrics.Collector, logger *logging.Logger) error {
	scene := globe.NewScene(cfg,
		globe.WithLogger(logger.Named("globe")),
		globe.WithRecorder(recorder(collector)),
	)
	scene.SetStations(stations)
	if err := scene.Start(&textSurface{w: w, h: h, out: out}); err != nil {
		return fmt.Errorf("start globe: %w", err)
	}
	defer scene.Stop()

	if res := scene.Frame(time.Now(), nil); res.Err != nil {
		return fmt.Errorf("render: %w", res.Err)
	}
	return nil
}

func parseCoordinate(s string) (lat, lon float64, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid coordinate %q: want lat,lon", s)
	}
	if lat, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64); err != nil {
		return 0, 0, fmt.Errorf("invalid latitude %q: %w", parts[0], err)
	}
	if lon, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64); err != nil {
		return 0, 0, fmt.Errorf("invalid longitude %q: %w", parts[1], err)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, fmt.Errorf("coordinate %q out of range", s)
	}
	return lat, lon, nil
}

func writePick(w io.Writer, pick globe.PickResult, now time.Time) {
	fmt.Fprintf(w, "%s  %.2f°, %.2f°\n", pick.Region(), pick.Latitude(), pick.Longitude())
	fmt.Fprintf(w, "Local time %s (UTC%+d)\n", pick.LocalTime(now), pick.UTCOffset())
	if len(pick.Nearby) == 0 {
		fmt.Fprintln(w, "No stations found in this range.")
		return
	}
	fmt.Fprintf(w, "%d nearby:\n", len(pick.Nearby))
	for _, n := range pick.Nearby {
		fmt.Fprintf(w, "  %5.2f  %-32s %-12s %s\n", n.Distance, n.Name, n.DisplayTags(), n.StreamURL())
	}
}

func exportPick(pick globe.PickResult, now time.Time) error {
	export := station.ExportPick(pick.Latitude(), pick.Longitude(), pick.Region(), pick.LocalTime(now), pick.Nearby, now)

	switch {
	case exportPath == "-":
		if err := export.WriteJSON(os.Stdout); err != nil {
			return fmt.Errorf("write JSON to stdout: %w", err)
		}
	case strings.EqualFold(filepath.Ext(exportPath), ".xlsx"):
		if err := export.WriteXLSX(exportPath); err != nil {
			return fmt.Errorf("write spreadsheet: %w", err)
		}
	default:
		f, err := os.Create(exportPath)
		if err != nil {
			return fmt.Errorf("create export file: %w", err)
		}
		defer f.Close()
		if err := export.WriteJSON(f); err != nil {
			return fmt.Errorf("write JSON to file: %w", err)
		}
	}
	return nil
}
