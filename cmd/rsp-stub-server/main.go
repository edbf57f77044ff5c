package main

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	dbg "github.com/kestrelrsp/rspstub/internal/debug"
	"github.com/kestrelrsp/rspstub/internal/debug/gdbserver"
	"github.com/kestrelrsp/rspstub/internal/link"
	"github.com/kestrelrsp/rspstub/internal/metrics"
	"github.com/kestrelrsp/rspstub/internal/protover"
	"github.com/kestrelrsp/rspstub/internal/watch"
)

func main() {
	var (
		transport  string
		addr       string
		serialPort string
		baud       int
		dataBits   int
		parity     string
		stopBits   int
		dbgJSON    string
		metricsHTTP string
		tlsCert    string
		tlsKey     string
	)

	flag.StringVar(&transport, "transport", "tcp", "link transport: tcp, serial, or quic")
	flag.StringVar(&addr, "addr", ":9000", "listen address for tcp/quic transports")
	flag.StringVar(&serialPort, "serial-port", "", "serial device path for the serial transport (e.g. /dev/ttyUSB0)")
	flag.IntVar(&baud, "baud", 115200, "serial baud rate")
	flag.IntVar(&dataBits, "data-bits", 8, "serial data bits")
	flag.StringVar(&parity, "parity", "none", "serial parity: none, odd, even, mark, or space")
	flag.IntVar(&stopBits, "stop-bits", 1, "serial stop bits: 1 or 2")
	flag.StringVar(&dbgJSON, "debug-json", "", "path to ProgramDebugInfo JSON (hot-reloaded on write)")
	flag.StringVar(&metricsHTTP, "metrics-addr", "", "optional address to serve Prometheus metrics (e.g. :8080)")
	flag.StringVar(&tlsCert, "tls-cert", "", "TLS certificate file (required for the quic transport)")
	flag.StringVar(&tlsKey, "tls-key", "", "TLS key file (required for the quic transport)")
	flag.Parse()

	if dbgJSON == "" {
		fmt.Fprintln(os.Stderr, "--debug-json is required")
		os.Exit(2)
	}

	b, err := os.ReadFile(dbgJSON)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read debug json failed:", err)
		os.Exit(1)
	}

	var info dbg.ProgramDebugInfo
	if err := json.Unmarshal(b, &info); err != nil {
		fmt.Fprintln(os.Stderr, "parse debug json failed:", err)
		os.Exit(1)
	}

	srv := gdbserver.NewServer(info)

	stats := metrics.New()
	srv.SetMetrics(stats)

	fw, err := watch.NewFileWatcher(func(path string, data []byte) error {
		var reloaded dbg.ProgramDebugInfo
		if err := json.Unmarshal(data, &reloaded); err != nil {
			return fmt.Errorf("reload %s: %w", path, err)
		}

		srv.ReloadDebugInfo(reloaded)

		fmt.Println("reloaded debug info from", path)

		return nil
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "create file watcher failed:", err)
		os.Exit(1)
	}
	defer fw.Close()

	if err := fw.Add(dbgJSON); err != nil {
		fmt.Fprintln(os.Stderr, "watch debug json failed:", err)
		os.Exit(1)
	}

	go func() {
		for err := range fw.Errors() {
			fmt.Fprintln(os.Stderr, "watch error:", err)
		}
	}()

	fmt.Println("protocol version", protover.String())

	ln, err := openListener(transport, addr, serialPort, link.SerialConfig{
		Baud:     baud,
		DataBits: dataBits,
		Parity:   parity,
		StopBits: stopBits,
	}, tlsCert, tlsKey)
	if err != nil {
		fmt.Fprintln(os.Stderr, "listen failed:", err)
		os.Exit(1)
	}
	defer ln.Close()

	fmt.Println("RSP server listening on", ln.Addr(), "via", transport)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metricsSrv *http.Server
	if metricsHTTP != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", stats.Handler())
		metricsSrv = &http.Server{Addr: metricsHTTP, Handler: mux}

		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				fmt.Fprintln(os.Stderr, "metrics server failed:", err)
			}
		}()
	}

	go acceptLoop(ctx, ln, srv)

	<-ctx.Done()

	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(context.Background())
	}

	fmt.Println("RSP server stopped")
}

func acceptLoop(ctx context.Context, ln link.Listener, srv *gdbserver.Server) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				continue
			}
		}

		go func(c link.Link) {
			defer c.Close()
			_ = srv.HandleConn(c)
		}(conn)
	}
}

func openListener(transport, addr, serialPort string, serialCfg link.SerialConfig, tlsCert, tlsKey string) (link.Listener, error) {
	switch transport {
	case "tcp":
		return link.ListenTCP(addr)
	case "serial":
		if serialPort == "" {
			return nil, fmt.Errorf("--serial-port is required for the serial transport")
		}

		return link.OpenSerial(serialPort, serialCfg)
	case "quic":
		if tlsCert == "" || tlsKey == "" {
			return nil, fmt.Errorf("--tls-cert and --tls-key are required for the quic transport")
		}

		cert, err := tls.LoadX509KeyPair(tlsCert, tlsKey)
		if err != nil {
			return nil, fmt.Errorf("load TLS keypair: %w", err)
		}

		return link.ListenQUIC(addr, &tls.Config{Certificates: []tls.Certificate{cert}})
	default:
		return nil, fmt.Errorf("unknown transport %q: use tcp, serial, or quic", transport)
	}
}
