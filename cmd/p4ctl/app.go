package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"p4ctl/pkg/api"
	"p4ctl/pkg/config"
	"p4ctl/pkg/deviceconfig"
	grpcgw "p4ctl/pkg/gateway/grpc"
	"p4ctl/pkg/observability"
	"p4ctl/pkg/p4rt"
	"p4ctl/pkg/rpclog"
)

// run is the main entry point after CLI parsing.
func run(opts Options) int {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return 1
	}

	logger, err := observability.SetupLogger(cfg.Log)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to setup logger: " + err.Error() + "\n")
		return 1
	}
	defer func() { _ = logger.Sync() }()

	zap.L().Info("p4ctl started", zap.String("app", cfg.AppName))
	zap.L().Info("effective configuration", zap.Any("config", cfg))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var transports []api.Transport
	defer func() {
		for _, t := range transports {
			_ = t.Close()
		}
	}()

	for _, dev := range cfg.Devices {
		var t api.Transport
		t, err := grpcgw.Dial(dev.Address)
		if err != nil {
			zap.L().Error("dial failed", zap.String("device", dev.Name), zap.Error(err))
			return 1
		}
		transports = append(transports, t)

		if dev.RequestLog != "" {
			dump, err := rpclog.New(dev.RequestLog)
			if err != nil {
				zap.L().Error("request log setup failed", zap.String("device", dev.Name), zap.Error(err))
				return 1
			}
			t = rpclog.Wrap(t, dump)
		}

		conn, err := p4rt.Connect(ctx, t, p4rt.Options{
			Name:          dev.Name,
			DeviceID:      dev.DeviceID,
			ConfigBuilder: deviceconfig.Generic(),
		})
		if err != nil {
			zap.L().Error("connect failed", zap.String("device", dev.Name), zap.Error(err))
			return 1
		}

		arb, err := conn.MasterArbitrationUpdate(ctx, opts.DryRun)
		if err != nil {
			zap.L().Error("arbitration failed", zap.String("device", dev.Name), zap.Error(err))
			return 1
		}
		if arb != nil {
			zap.L().Info("mastership established",
				zap.String("device", dev.Name), zap.Any("status", arb.Status))
		}

		go pullPackets(ctx, conn)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	zap.L().Info("controller is running; press Ctrl+C to exit")
	<-sig

	cancel()
	if err := p4rt.ShutdownAll(); err != nil {
		zap.L().Warn("shutdown finished with errors", zap.Error(err))
	}
	return 0
}

// pullPackets logs punted packets until the connection closes.
func pullPackets(ctx context.Context, conn *p4rt.Connection) {
	for {
		pkt, err := conn.PacketIn(ctx)
		if err != nil {
			return
		}
		zap.L().Info("packet in",
			zap.String("device", conn.Name()),
			zap.Int("payload_bytes", len(pkt.Payload)),
			zap.Int("metadata_fields", len(pkt.Metadata)))
	}
}
