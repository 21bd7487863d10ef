// Command paint is a headless client for the paint service. It replays a scripted input
// session through the drawing board and replicates the result.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/status"

	"github.com/and161185/paintstream/internal/board"
	"github.com/and161185/paintstream/internal/replication"
	"github.com/and161185/paintstream/internal/transport/grpcclient"
	"github.com/and161185/paintstream/internal/transport/wsclient"
)

// ---- utils ----

func openScript(p string) (io.ReadCloser, error) {
	if p == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(p)
}

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func fail(err error) {
	if st, ok := status.FromError(err); ok {
		fmt.Fprintf(os.Stderr, "error: %s (%s)\n", st.Message(), st.Code())
	} else {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	os.Exit(1)
}

func usage() {
	fmt.Fprintf(os.Stderr, `paint CLI
Usage:
  paint -addr HOST:PORT [-transport grpc|ws] [-room name] <cmd> [args]

Commands:
  version
  play   -script <file|->  [-width W -height H] [-strict]   (replays input, prints summary)
  list                                                     (live actions of the room, gRPC only)
`)
	os.Exit(2)
}

type summary struct {
	Room      string `json:"room"`
	Transport string `json:"transport"`
	Policy    string `json:"policy"`
	Actions   int    `json:"actions"`
	Unsent    int    `json:"unsent"`
	Delivered int64  `json:"delivered"`
	Dropped   int64  `json:"dropped"`
}

// ---- main ----

var (
	version   = "dev"
	buildDate = "unknown"
)

// main dispatches subcommands and builds the selected transport.
func main() {
	// global flags
	addr := flag.String("addr", "localhost:8443", "server addr (ws://host/ws for -transport ws)")
	transport := flag.String("transport", "grpc", "grpc or ws")
	room := flag.String("room", replication.DefaultRoom, "room name")
	caPath := flag.String("cacert", "", "CA cert (PEM)")
	insecure := flag.Bool("insecure", false, "skip cert verify (dev)")
	plaintext := flag.Bool("plaintext", false, "gRPC without TLS")
	dev := flag.Bool("dev", false, "debug logging to stderr")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	cmd := flag.Arg(0)

	logger := zap.NewNop()
	if *dev {
		logger, _ = zap.NewDevelopment()
	}
	defer func() { _ = logger.Sync() }()

	grpcOpts := grpcclient.Options{Addr: *addr, CACert: *caPath, SkipVerify: *insecure, Plaintext: *plaintext}

	switch cmd {

	case "version":
		fmt.Printf("paint %s (%s)\n", version, buildDate)

	case "play":
		fs := flag.NewFlagSet("play", flag.ExitOnError)
		script := fs.String("script", "-", "JSON-lines input script")
		width := fs.Uint("width", 800, "window width")
		height := fs.Uint("height", 600, "window height")
		strict := fs.Bool("strict", false, "strict replication policy")
		list := fs.Bool("list", false, "print the room after playing (gRPC only)")
		_ = fs.Parse(flag.Args()[1:])

		f, err := openScript(*script)
		if err != nil {
			fail(err)
		}
		cmds, err := parseScript(f)
		_ = f.Close()
		if err != nil {
			fail(err)
		}

		var tr replication.Transport
		var closer func() error
		switch *transport {
		case "grpc":
			m := grpcclient.New(grpcOpts, logger)
			tr, closer = m, m.Close
		case "ws":
			w := wsclient.New(*addr, nil, logger)
			tr, closer = w, w.Close
		default:
			fail(fmt.Errorf("unknown transport %q", *transport))
		}
		defer func() { _ = closer() }()

		policy := replication.BestEffort
		if *strict {
			policy = replication.Strict
		}
		d := replication.New(replication.Config{Room: *room, Policy: policy, CallTimeout: 5 * time.Second}, tr, logger)
		b := board.New(board.Config{
			PruneSentOnUndo: *strict,
			Width:           uint32(*width),
			Height:          uint32(*height),
		}, d, logger)

		end := play(b, cmds, time.Now(), func(now time.Time) { b.Frame(now) })
		// a trailing commit still needs a frame to flush
		b.Frame(end.Add(frameInterval))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := d.Close(ctx); err != nil {
			logger.Warn("dispatcher close", zap.Error(err))
		}

		st := d.Stats()
		printJSON(os.Stdout, summary{
			Room:      *room,
			Transport: *transport,
			Policy:    policy.String(),
			Actions:   len(b.Actions()),
			Unsent:    b.Unsent(),
			Delivered: st.Delivered,
			Dropped:   st.Dropped,
		})

		if *list {
			if *transport != "grpc" {
				fail(errors.New("-list needs -transport grpc"))
			}
			m := tr.(*grpcclient.Manager)
			actions, err := m.ListRoom(ctx, *room)
			if err != nil {
				fail(err)
			}
			printJSON(os.Stdout, rows(actions))
		}

	case "list":
		m := grpcclient.New(grpcOpts, logger)
		defer m.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		actions, err := m.ListRoom(ctx, *room)
		if err != nil {
			fail(err)
		}
		printJSON(os.Stdout, rows(actions))

	default:
		usage()
	}
}
