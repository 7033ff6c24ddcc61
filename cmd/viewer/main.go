package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"

	"framecast/internal/domain/control"
	"framecast/internal/domain/media"
	"framecast/internal/transport/wire"
	"github.com/hashicorp/go-hclog"
)

const maxFrameBytes = 64 << 20

func main() {
	addr := flag.String("addr", "127.0.0.1:9999", "stream server address")
	outDir := flag.String("out", "", "directory to write received frames to")
	ext := flag.String("ext", "jpg", "file extension for written frames")
	flag.Parse()

	log := hclog.New(&hclog.LoggerOptions{Name: "viewer", Level: hclog.Info})

	if *outDir != "" {
		if err := os.MkdirAll(*outDir, 0o755); err != nil {
			log.Error("cannot create output directory", "error", err)
			os.Exit(1)
		}
	}

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		log.Error("connect failed", "addr", *addr, "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	payload, err := wire.ReadFrame(conn, maxFrameBytes)
	if err != nil {
		log.Error("catalog read failed", "error", err)
		os.Exit(1)
	}
	entries, err := wire.DecodeCatalog(payload)
	if err != nil {
		log.Error("catalog decode failed", "error", err)
		os.Exit(1)
	}
	printCatalog(os.Stdout, entries)

	r := &frameReceiver{conn: conn, outDir: *outDir, ext: *ext, log: log}
	done := make(chan error, 1)
	go func() { done <- r.run() }()

	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if line == "quit" || line == "exit" {
				_ = conn.Close()
				return
			}
			cmd, err := parseLine(line, entries)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				continue
			}
			if err := wire.WriteControl(conn, cmd); err != nil {
				log.Error("send failed", "error", err)
				return
			}
		}
		_ = conn.Close()
	}()

	if err := <-done; err != nil && !errors.Is(err, net.ErrClosed) {
		log.Error("stream ended", "error", err, "frames", r.frames.Load())
		os.Exit(1)
	}
	log.Info("disconnected", "frames", r.frames.Load())
}

// parseLine turns a console line into a command. "start" accepts a catalog index
// (1-based) or a video id; a line starting with "{" is sent as raw JSON.
func parseLine(line string, entries []wire.CatalogEntry) (control.Command, error) {
	if strings.HasPrefix(line, "{") {
		return control.Parse([]byte(line))
	}

	fields := strings.Fields(line)
	action := control.Action(strings.ToLower(fields[0]))
	switch action {
	case control.ActionPause, control.ActionResume, control.ActionStop:
		return control.Command{Action: action}, nil
	case control.ActionStart:
		if len(fields) < 2 {
			return control.Command{}, errors.New("usage: start <index|id>")
		}
		return control.Command{Action: action, Video: pickVideo(fields[1], entries)}, nil
	default:
		return control.Command{}, fmt.Errorf("unknown command %q", fields[0])
	}
}

func pickVideo(arg string, entries []wire.CatalogEntry) media.VideoID {
	if n, err := strconv.Atoi(arg); err == nil && n >= 1 && n <= len(entries) {
		return entries[n-1].ID
	}
	return media.VideoID(arg)
}

func printCatalog(w io.Writer, entries []wire.CatalogEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "library is empty")
		return
	}
	for i, e := range entries {
		fmt.Fprintf(w, "%3d  %-40s  %s  (%d bytes)\n", i+1, e.Title, e.ID, e.Size)
	}
}

type frameReceiver struct {
	conn   net.Conn
	outDir string
	ext    string
	log    hclog.Logger
	frames atomic.Uint64
}

func (r *frameReceiver) run() error {
	for {
		payload, err := wire.ReadFrame(r.conn, maxFrameBytes)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if len(payload) == 0 {
			r.log.Info("end of video", "frames", r.frames.Load())
			continue
		}

		n := r.frames.Add(1)
		if r.outDir == "" {
			if n%30 == 0 {
				r.log.Info("receiving", "frames", n, "last_bytes", len(payload))
			}
			continue
		}
		name := filepath.Join(r.outDir, fmt.Sprintf("frame-%06d.%s", n, r.ext))
		if err := os.WriteFile(name, payload, 0o644); err != nil {
			return err
		}
	}
}
