// Command loader is the target-side ARINC 615A load-session process: it
// wires config, session, the TFTP engine, the firmware sink, and the
// maintenance trigger into an fsm.Machine and drives it until a signal or
// a terminal ERROR halts it. Grounded on the teacher's
// cmd/driver/hasher-server/main.go for overall shape (flag parsing,
// signal.Notify-driven graceful shutdown, log.Fatalf on unrecoverable
// init failure) with the CGMiner-process-management and firewall-
// configuration concerns dropped — this system has no companion process
// to supervise and binds only the one UDP port the spec calls for.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"arincloader/internal/config"
	"arincloader/internal/firmware"
	"arincloader/internal/fsm"
	"arincloader/internal/keystore"
	"arincloader/internal/logging"
	"arincloader/internal/session"
	"arincloader/internal/statusapi"
	"arincloader/internal/tftp"
	"arincloader/internal/trigger"
)

const portFile = "/tmp/arincloader.port"

var (
	verbose     = flag.Bool("verbose", false, "enable debug logging")
	logFormat   = flag.String("log-format", "text", "log format: text or json")
	statusAddr  = flag.String("status-addr", "127.0.0.1:8089", "status API listen address")
	triggerFile = flag.String("trigger-file", "/tmp/arincloader.trigger", "path whose existence simulates the maintenance button, for running off target hardware")
)

// writePortFile records the status API's bound port for loaderctl/loadermon
// to discover, the same handoff the teacher's hasher-host uses for its CLI.
func writePortFile(addr string) error {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	return os.WriteFile(portFile, []byte(port), 0o644)
}

func cleanupPortFile() {
	os.Remove(portFile)
}

func main() {
	flag.Parse()

	log := logging.Setup(logging.Options{Verbose: *verbose, Format: *logFormat})
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}

	keyFiles := keystore.Files{
		LocalKeyPath: cfg.Paths.KeyDir + "/local.key",
		PeerKeyPath:  cfg.Paths.KeyDir + "/peer.key",
	}
	sink := firmware.New(cfg.Paths.FirmwareStage, cfg.Paths.FirmwareFinal)

	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: session.TFTPPort})
	if err != nil {
		log.Error("failed to bind main TFTP endpoint", "port", session.TFTPPort, "err", err)
		os.Exit(1)
	}
	defer conn.Close()

	ctx := session.New()
	ctx.MainConn = conn
	engine := tftp.New(conn)

	trig := trigger.NewEdgeDetector(trigger.FileLevel{Path: *triggerFile}, false)

	m := fsm.New(ctx, cfg, trig, keyFiles, sink, engine, log)

	events := statusapi.NewEventLog(500)
	srv := statusapi.New(*statusAddr, &ctx.Status, events)
	if err := writePortFile(srv.Addr()); err != nil {
		log.Warn("failed to write port file", "err", err)
	}
	defer cleanupPortFile()

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go statusapi.RunPoller(runCtx, &ctx.Status, events)

	go func() {
		log.Info("status API listening", "addr", srv.Addr())
		if err := srv.ListenAndServe(); err != nil {
			log.Error("status API server error", "err", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	loopDone := make(chan error, 1)
	go func() { loopDone <- m.Loop(runCtx) }()

	select {
	case <-sigCh:
		log.Info("received shutdown signal")
		cancel()
		<-loopDone
	case err := <-loopDone:
		if err != nil {
			log.Error("state machine halted", "err", err, "state", m.Current())
		}
	}

	if err := srv.Shutdown(5 * time.Second); err != nil {
		log.Warn("status API shutdown error", "err", err)
	}

	if m.Current() == fsm.Error {
		log.Error(fmt.Sprintf("halted in %s", m.Current()))
		os.Exit(1)
	}
}
