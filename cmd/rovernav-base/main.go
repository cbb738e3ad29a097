package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"rovernav/internal/config"
	"rovernav/internal/fuzzy"
	"rovernav/internal/geo"
	"rovernav/internal/nav"
	"rovernav/internal/record"
	"rovernav/internal/replay"
	"rovernav/internal/sim"
	"rovernav/internal/transport"
	"rovernav/internal/web"
	"rovernav/internal/wire"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "./dev.yaml", "Path to YAML config")
	flag.Parse()

	cfg, err := config.LoadBase(configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ctl, ok := fuzzy.ByName(cfg.Controller)
	if !ok {
		log.Fatalf("unknown controller %q", cfg.Controller)
	}

	waypoints := make([]geo.Point, 0, len(cfg.Waypoints))
	for _, wp := range cfg.Waypoints {
		waypoints = append(waypoints, geo.Point{LatDeg: wp.LatDeg, LonDeg: wp.LonDeg})
	}
	tracker, err := nav.New(nav.Config{
		Waypoints:          waypoints,
		Controller:         ctl,
		PositionThresholdM: cfg.Nav.PositionThresholdM,
		MinDistanceFactor:  cfg.Nav.MinDistanceFactor,
		Policy:             nav.PathPolicy(cfg.Nav.Policy),
		ApproachSwitchM:    cfg.Nav.ApproachSwitchM,
	})
	if err != nil {
		log.Fatalf("tracker init failed: %v", err)
	}

	var link transport.LineTransport
	switch {
	case cfg.Replay.Enable:
		link, err = openReplayLink(ctx, cfg.Replay)
		if err != nil {
			log.Fatalf("replay init failed: %v", err)
		}
	case cfg.Sim.Enable:
		link = openSimLink(ctx, cfg.Sim)
	default:
		link, err = transport.OpenSerial(transport.SerialConfig{
			Device:      cfg.Serial.Device,
			Baud:        cfg.Serial.Baud,
			ReadTimeout: cfg.Serial.ReadTimeout,
		})
		if err != nil {
			log.Fatalf("serial open failed: %v", err)
		}
	}
	defer link.Close()

	rt := &baseRuntime{
		link:    link,
		tracker: tracker,
		status:  web.NewStatus(time.Now()),
		hub:     web.NewRecordHub(),
		idle:    cfg.LoopInterval,
	}

	if cfg.CSV.Enable {
		csv, err := record.NewCSVWriter(cfg.CSV.Path)
		if err != nil {
			log.Fatalf("csv init failed: %v", err)
		}
		defer csv.Close()
		rt.csv = csv
	}
	if cfg.UDP.Enable {
		udp, err := record.NewUDPBroadcaster(cfg.UDP.Dest)
		if err != nil {
			log.Fatalf("udp init failed: %v", err)
		}
		defer udp.Close()
		rt.udp = udp
	}
	if cfg.Record.Enable {
		rec, err := replay.CreateWriter(cfg.Record.Path)
		if err != nil {
			log.Fatalf("telemetry record init failed: %v", err)
		}
		defer rec.Close()
		rt.recorder = rec
	}

	if cfg.Web.Enable {
		go func() {
			if err := web.Serve(ctx, cfg.Web.Listen, rt.status, rt.hub); err != nil && ctx.Err() == nil {
				log.WithError(err).Error("web server stopped")
				cancel()
			}
		}()
		log.Infof("web listening on %s", cfg.Web.Listen)
	}

	log.Infof("rovernav-base starting: %d waypoints, controller=%s policy=%s",
		len(waypoints), cfg.Controller, cfg.Nav.Policy)

	rt.run(ctx)

	log.Info("rovernav-base stopping")
}

// openReplayLink plays a recorded telemetry log into an in-memory link. The
// control loop reads it exactly as it would a live radio.
func openReplayLink(ctx context.Context, cfg config.ReplayConfig) (transport.LineTransport, error) {
	f, err := os.Open(cfg.Path)
	if err != nil {
		return nil, err
	}
	recs, err := replay.NewReader(f).ReadAll()
	_ = f.Close()
	if err != nil {
		return nil, err
	}

	feed, loopEnd := transport.NewPipe()
	go func() {
		defer feed.Close()
		err := replay.Play(recs, cfg.Speed, cfg.Loop, nil, func(line string) error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return feed.WriteLine(line)
		})
		if err != nil && ctx.Err() == nil {
			log.WithError(err).Error("replay stopped")
		}
	}()
	return loopEnd, nil
}

// openSimLink runs the kinematic rover model behind an in-memory link so the
// whole base stack can be exercised without hardware.
func openSimLink(ctx context.Context, cfg config.SimConfig) transport.LineTransport {
	baseEnd, simEnd := transport.NewPipe()
	go func() {
		model := &sim.Rover{
			TrackWidthM: cfg.TrackWidthM,
			MaxSpeedMps: cfg.MaxSpeedMps,
			MaxPWM:      cfg.MaxPWM,
			Position:    geo.Point{LatDeg: cfg.StartLatDeg, LonDeg: cfg.StartLonDeg},
			HeadingDeg:  cfg.HeadingDeg,
		}
		var lastCmd wire.Command
		tick := time.NewTicker(cfg.Interval)
		defer tick.Stop()
		prev := time.Now()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-tick.C:
				for {
					line, ok := simEnd.ReadLine()
					if !ok {
						break
					}
					if cmd, err := wire.ParseCommand(line); err == nil {
						lastCmd = cmd
					}
				}
				model.Step(float64(lastCmd.Left), float64(lastCmd.Right), now.Sub(prev).Seconds())
				prev = now
				_ = simEnd.WriteLine(wire.EncodeTelemetry(wire.Telemetry{
					LatDeg:     model.Position.LatDeg,
					LonDeg:     model.Position.LonDeg,
					SpeedMps:   model.SpeedMps,
					HeadingDeg: model.HeadingDeg,
				}))
			}
		}
	}()
	return baseEnd
}
