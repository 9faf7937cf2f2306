package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	log "github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"github.com/Agrid-Dev/solarloop/cmd/app"
	httpctrl "github.com/Agrid-Dev/solarloop/internal/controllers/http"
	modbusctrl "github.com/Agrid-Dev/solarloop/internal/controllers/modbus"
	mqttctrl "github.com/Agrid-Dev/solarloop/internal/controllers/mqtt"
	wsctrl "github.com/Agrid-Dev/solarloop/internal/controllers/ws"
	"github.com/Agrid-Dev/solarloop/internal/device"
	"github.com/Agrid-Dev/solarloop/internal/export"
	"github.com/Agrid-Dev/solarloop/internal/paramcache"
	"github.com/Agrid-Dev/solarloop/internal/playback"
	"github.com/Agrid-Dev/solarloop/internal/prompt"
	"github.com/Agrid-Dev/solarloop/internal/solarloop"
	"github.com/Agrid-Dev/solarloop/internal/watch"
)

func main() {
	var (
		configPath  string
		cachePath   string
		interactive bool
		outputPath  string
		format      string
		serve       bool
		verbose     bool
	)
	flag.StringVar(&configPath, "config", "config.yaml", "path to config file (.yaml/.yml/.json)")
	flag.StringVar(&cachePath, "cache", "", "parameter cache file (overrides config)")
	flag.BoolVarP(&interactive, "interactive", "i", false, "prompt for parameters on stdin")
	flag.StringVarP(&outputPath, "output", "o", "", "write the series to this file (default stdout)")
	flag.StringVarP(&format, "format", "f", "", "output format: csv, json or yaml")
	flag.BoolVar(&serve, "serve", false, "replay the run on the configured controllers")
	flag.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	flag.Parse()

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetOutput(os.Stderr)
	if verbose {
		log.SetLevel(log.DebugLevel)
	}

	cfg, err := app.LoadConfig(configPath)
	if err != nil {
		log.Fatal(err)
	}
	app.ApplyEnvOverrides(&cfg)
	if cachePath != "" {
		cfg.Cache = cachePath
	}
	if format != "" {
		cfg.Output.Format = format
	}
	if outputPath != "" {
		cfg.Output.Path = outputPath
	}

	params, err := acquire(cfg, interactive)
	if err != nil {
		log.WithError(err).Fatal("parameter acquisition failed")
	}

	if serve {
		if err := runServe(cfg, params); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Fatal("serve exited")
		}
		return
	}

	if err := runBatch(cfg, params); err != nil {
		log.WithError(err).Fatal("simulation failed")
	}
}

// acquire resolves the parameter set: config first, then the cache file when
// present, then the interactive prompts.
func acquire(cfg app.Config, interactive bool) (solarloop.Params, error) {
	base, err := cfg.Params()
	if err != nil {
		return solarloop.Params{}, err
	}
	if interactive {
		return prompt.New(os.Stdin, os.Stdout).Acquire(cfg.Cache, base.Derating)
	}
	if cfg.Cache != "" && paramcache.Exists(cfg.Cache) {
		log.WithField("path", cfg.Cache).Info("using cached parameters")
		return paramcache.Load(cfg.Cache, base.Derating)
	}
	return base, nil
}

func runBatch(cfg app.Config, params solarloop.Params) error {
	f, err := cfg.OutputFormat()
	if err != nil {
		return err
	}

	series, err := solarloop.Run(params)
	if err != nil {
		return err
	}

	if cfg.Output.Path == "" {
		if err := export.Write(os.Stdout, f, series); err != nil {
			return err
		}
	} else if err := writeFile(cfg.Output.Path, f, series); err != nil {
		return err
	}

	sum := export.Summarize(series)
	log.WithFields(log.Fields{
		"records":     sum.Records,
		"derating":    params.Derating,
		"final_tank":  sum.FinalTank,
		"max_tank":    sum.MaxTank,
		"peak_minute": sum.PeakSunlightTime,
		"output":      cfg.Output.Path,
		"format":      f,
	}).Info("simulation complete")
	return nil
}

// writeFile reports the close error too; a failed flush means lost output.
func writeFile(path string, f export.Format, series solarloop.Series) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := export.Write(file, f, series); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	return nil
}

func runServe(cfg app.Config, params solarloop.Params) error {
	player, err := playback.New(params, cfg.Playback.Loop)
	if err != nil {
		return err
	}
	dev := device.New(cfg.DeviceID, player)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var runners []func(context.Context) error
	runners = append(runners, func(ctx context.Context) error {
		return dev.Player.Run(ctx, cfg.Playback.Interval)
	})

	if cfg.Controllers.HTTP.Enabled {
		srv := httpctrl.New(dev.Player, cfg.Controllers.HTTP.Addr, dev.ID)
		if cfg.Controllers.WS.Enabled {
			stream := wsctrl.NewStream(dev.Player, dev.ID, cfg.Controllers.WS.Interval)
			srv.Handle("GET /v1/stream", stream)
			runners = append(runners, stream.Run)
		}
		runners = append(runners, srv.Run)
		log.WithField("addr", cfg.Controllers.HTTP.Addr).Info("http controller enabled")
	}

	if cfg.Controllers.MQTT.Enabled {
		mc, err := mqttctrl.New(dev.Player, mqttctrl.Config{
			DeviceID:        dev.ID,
			BrokerURL:       cfg.Controllers.MQTT.BrokerURL,
			ClientID:        cfg.Controllers.MQTT.ClientID,
			BaseTopic:       cfg.Controllers.MQTT.BaseTopic,
			QoS:             cfg.Controllers.MQTT.QoS,
			RetainSnapshot:  cfg.Controllers.MQTT.RetainSnapshot,
			PublishInterval: cfg.Controllers.MQTT.PublishInterval,
			Username:        cfg.Controllers.MQTT.Username,
			Password:        cfg.Controllers.MQTT.Password,
		})
		if err != nil {
			return err
		}
		runners = append(runners, mc.Run)
		log.WithField("broker", cfg.Controllers.MQTT.BrokerURL).Info("mqtt controller enabled")
	}

	if cfg.Controllers.Modbus.Enabled {
		mb, err := modbusctrl.New(dev.Player, modbusctrl.Config{
			DeviceID: dev.ID,
			Addr:     cfg.Controllers.Modbus.Addr,
			UnitID:   cfg.Controllers.Modbus.UnitID,
		})
		if err != nil {
			return err
		}
		runners = append(runners, mb.Run)
		log.WithField("addr", cfg.Controllers.Modbus.Addr).Info("modbus controller enabled")
	}

	if cfg.Cache != "" {
		runners = append(runners, watch.New(dev.Player, cfg.Cache).Run)
	}

	log.WithFields(log.Fields{
		"device_id": dev.ID,
		"run_id":    dev.Player.Get().RunID,
		"duration":  params.Duration,
	}).Info("solarloop serving")

	// first failure stops everything
	errCh := make(chan error, len(runners))
	var wg sync.WaitGroup
	for _, run := range runners {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- err
				cancel()
			}
		}()
	}
	wg.Wait()
	close(errCh)
	return <-errCh
}
