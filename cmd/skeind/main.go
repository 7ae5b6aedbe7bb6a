// Command skeind is the SKEIN server: it serves the HTTP surface
// (internal/httpapi) against a project registry, optionally bridging
// thread/yield/folio notifications onto an embedded NATS bus so a
// second local process observes the same artifact-graph changes.
//
// Its instance-management shape (PID file, port conflict resolution,
// graceful shutdown over signals and /api/shutdown) is adapted from
// the teacher's cmd/cliaimonitor entrypoint, trimmed to SKEIN's own
// registry/httpapi/nats stack: no captain, agents, mcp, or metrics
// machinery survives here.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spiritengine/skein/internal/config"
	"github.com/spiritengine/skein/internal/httpapi"
	"github.com/spiritengine/skein/internal/instance"
	natsbus "github.com/spiritengine/skein/internal/nats"
	"github.com/spiritengine/skein/internal/registry"
	"github.com/spiritengine/skein/internal/types"
)

func main() {
	var (
		configPath   = flag.String("config", defaultConfigPath(), "path to skein server config YAML")
		registryPath = flag.String("registry", "", "path to projects.json (default: ~/.skein/projects.json)")
		baseDir      = flag.String("data-dir", "", "base directory projects' data directories are registered under")
		pidFilePath  = flag.String("pid-file", defaultPIDFilePath(), "path to the instance PID file")
		showStatus   = flag.Bool("status", false, "report whether a skeind instance is running and exit")
		stop         = flag.Bool("stop", false, "request a graceful shutdown of a running instance and exit")
		forceStop    = flag.Bool("force-stop", false, "forcibly terminate a running instance and exit")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	mgr := instance.NewManager(*pidFilePath, "", portFromAddr(cfg.ListenAddr))

	switch {
	case *showStatus:
		printStatus(mgr)
		return
	case *forceStop:
		forceStopRunning(mgr)
		return
	case *stop:
		gracefulStopRunning(mgr)
		return
	}

	if err := serve(mgr, cfg, *registryPath, *baseDir); err != nil {
		fmt.Fprintf(os.Stderr, "skeind: %v\n", err)
		os.Exit(1)
	}
}

// serve boots the full instance: resolves a port conflict if one
// exists, writes the PID file, starts the embedded NATS bus when
// configured, and blocks until an OS signal or an /api/shutdown
// request asks it to stop.
func serve(mgr *instance.InstanceManager, cfg types.ServerConfig, registryPath, baseDir string) error {
	if existing, err := mgr.CheckExistingInstance(); err != nil {
		return fmt.Errorf("failed to check for an existing instance: %w", err)
	} else if existing != nil {
		resolver := instance.NewConflictResolver(mgr, instance.IsInteractive())
		if err := resolver.Resolve(existing); err != nil {
			return fmt.Errorf("failed to resolve port conflict: %w", err)
		}
	}

	if registryPath == "" {
		p, err := registry.DefaultPath()
		if err != nil {
			return fmt.Errorf("failed to resolve default registry path: %w", err)
		}
		registryPath = p
	}
	reg := registry.New(registryPath)

	httpSrv := httpapi.NewServer(httpapi.Config{
		Registry:          reg,
		BaseDir:           baseDir,
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
	})

	var natsServer *natsbus.EmbeddedServer
	var natsClient *natsbus.Client
	var natsHandler *natsbus.Handler
	if cfg.NATS.Enabled {
		ns, client, handler, err := startNATS(cfg.NATS.Port, filepath.Join(baseDir, "nats-jetstream"))
		if err != nil {
			return fmt.Errorf("failed to start embedded NATS bus: %w", err)
		}
		natsServer, natsClient, natsHandler = ns, client, handler
		httpSrv.SetNATSClient(natsClient)
		defer natsHandler.Stop()
		defer natsClient.Close()
		defer natsServer.Shutdown()
	}

	if err := mgr.WritePIDFile(os.Getpid(), mgr.GetPort(), baseDir); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	defer mgr.RemovePIDFile()

	addr := fmt.Sprintf(":%d", mgr.GetPort())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpSrv.Start(addr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server exited: %w", err)
		}
	case <-sigCh:
		fmt.Println("\nshutting down (signal received)")
	case <-httpSrv.ShutdownRequested():
		fmt.Println("shutting down (/api/shutdown requested)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(ctx)
}

// startNATS launches the embedded bus with JetStream enabled, sets up
// the THREADS/YIELDS/FOLIOS replay streams (internal/nats/streams.go),
// and starts a local client/handler pair purely for logging observed
// notifications; httpapi's own publishes (via SetNATSClient) are what
// make the bus useful across processes.
func startNATS(port int, jetStreamDir string) (*natsbus.EmbeddedServer, *natsbus.Client, *natsbus.Handler, error) {
	server, err := natsbus.NewEmbeddedServer(natsbus.EmbeddedServerConfig{
		Port:      port,
		JetStream: true,
		DataDir:   jetStreamDir,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	if err := server.Start(); err != nil {
		return nil, nil, nil, err
	}

	client, err := natsbus.NewClient(server.URL())
	if err != nil {
		server.Shutdown()
		return nil, nil, nil, err
	}

	streams, err := natsbus.NewStreamManager(client.RawConn())
	if err != nil {
		client.Close()
		server.Shutdown()
		return nil, nil, nil, err
	}
	if err := streams.SetupStreams(); err != nil {
		client.Close()
		server.Shutdown()
		return nil, nil, nil, err
	}

	handler := natsbus.NewHandler(client, natsbus.HandlerCallbacks{
		OnThreadAppended: func(m natsbus.ThreadAppendedMessage) {
			fmt.Printf("[nats] thread appended project=%s thread=%s\n", m.ProjectID, m.ThreadID)
		},
		OnYieldCreated: func(m natsbus.YieldCreatedMessage) {
			fmt.Printf("[nats] yield created project=%s sack=%s\n", m.ProjectID, m.SackID)
		},
		OnFolioUpdated: func(m natsbus.FolioUpdatedMessage) {
			fmt.Printf("[nats] folio updated project=%s folio=%s\n", m.ProjectID, m.FolioID)
		},
	})
	if err := handler.Start(); err != nil {
		client.Close()
		server.Shutdown()
		return nil, nil, nil, err
	}

	return server, client, handler, nil
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "skein.yaml"
	}
	return filepath.Join(home, ".skein", "skein.yaml")
}

func defaultPIDFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "skeind.pid"
	}
	return filepath.Join(home, ".skein", "skeind.pid")
}

func portFromAddr(addr string) int {
	port := 7744
	fmt.Sscanf(addr, ":%d", &port)
	return port
}

func printStatus(mgr *instance.InstanceManager) {
	info, err := mgr.CheckExistingInstance()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to check existing instance: %v\n", err)
		os.Exit(1)
	}
	if info == nil {
		fmt.Println("no skeind instance is running")
		return
	}
	fmt.Printf("skeind running: pid=%d port=%d started=%s responding=%v\n",
		info.PID, info.Port, info.StartTime.Format(time.RFC3339), info.IsResponding)
}

func gracefulStopRunning(mgr *instance.InstanceManager) {
	info, err := mgr.CheckExistingInstance()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to check existing instance: %v\n", err)
		os.Exit(1)
	}
	if info == nil {
		fmt.Println("no skeind instance is running")
		return
	}

	if err := instance.SendShutdownRequest(info.Port); err != nil {
		fmt.Fprintf(os.Stderr, "graceful shutdown request failed: %v\n", err)
		os.Exit(1)
	}
	if !instance.WaitForPortToBeAvailable(info.Port, 10*time.Second) {
		fmt.Fprintf(os.Stderr, "instance did not stop within the timeout\n")
		os.Exit(1)
	}
	mgr.RemovePIDFile()
	fmt.Println("stopped")
}

func forceStopRunning(mgr *instance.InstanceManager) {
	info, err := mgr.CheckExistingInstance()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to check existing instance: %v\n", err)
		os.Exit(1)
	}
	if info == nil {
		fmt.Println("no skeind instance is running")
		return
	}

	if err := instance.KillProcess(info.PID); err != nil {
		fmt.Fprintf(os.Stderr, "failed to kill process %d: %v\n", info.PID, err)
		os.Exit(1)
	}
	mgr.RemovePIDFile()
	fmt.Println("stopped")
}
