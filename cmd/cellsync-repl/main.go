// cellsync-repl is an interactive demo and test harness for the cellsync
// synchronization engine.
//
// Usage:
//
//	cellsync-repl [options]
//
// Options:
//
//	--cols int        grid width (default from config, 80)
//	--rows int        grid height (default from config, 24)
//	--node-id uint    this node's id (default from config, 1)
//	--config string   directory holding the project .cellsync.json (default: current directory)
//
// Commands (in REPL):
//
//	write <x> <y> <rune> [fg] [bg]   Stage a cell write (back buffer only)
//	commit                           Commit staged writes, print the snapshot
//	full                             Emit a full-screen snapshot
//	apply <hex>                      Apply a packed hex blob to the grid
//	ack <peer> <gen>                 Record an ack from a peer
//	since <gen>                      Fetch the oldest packed diff after gen
//	cursor <x> <y>                   Move the cursor
//	render                           Render the grid as text
//	info                             Show engine/grid info
//	id                               Show this node's id
//	dump <file>                      Write a CRC32C-checked snapshot dump
//	load <file>                      Load a dump and apply it to the grid
//	bench <count>                    Benchmark write+commit+pack throughput
//	help                             Show this help
//	exit / quit / q                  Exit
package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"

	"github.com/tty-sync/cellsync/pkg/cell"
	"github.com/tty-sync/cellsync/pkg/cellgrid"
	"github.com/tty-sync/cellsync/pkg/cellsync"
	"github.com/tty-sync/cellsync/pkg/syrup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	fs := flag.NewFlagSet("cellsync-repl", flag.ContinueOnError)

	cols := fs.Int("cols", 0, "grid width")
	rows := fs.Int("rows", 0, "grid height")
	nodeID := fs.Uint64("node-id", 0, "this node's id")
	configPath := fs.String("config", "", "directory holding the project .cellsync.json")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: cellsync-repl [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			return nil
		}

		return fmt.Errorf("%w: %w", errUsage, err)
	}

	workDir, err := os.Getwd()
	if err != nil {
		return err
	}

	if *configPath != "" {
		workDir = *configPath
	}

	cfg, err := LoadConfig(workDir)
	if err != nil {
		return err
	}

	if *cols != 0 {
		cfg.Cols = *cols
	}

	if *rows != 0 {
		cfg.Rows = *rows
	}

	if *nodeID != 0 {
		cfg.NodeID = *nodeID
	}

	grid := cellgrid.NewGrid(uint16(cfg.Cols), uint16(cfg.Rows))
	engine := cellsync.NewEngine(cfg.NodeID, grid)

	r := &REPL{
		grid:   grid,
		engine: engine,
	}

	return r.Run()
}

// REPL is the interactive command loop.
type REPL struct {
	grid   *cellgrid.Grid
	engine *cellsync.Engine
	liner  *liner.State
}

// historyFile returns the path to the history file.
func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return home + string(os.PathSeparator) + ".cellsync_history"
}

// Run starts the REPL loop.
func (r *REPL) Run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(r.completer)

	if f, err := os.Open(historyFile()); err == nil {
		r.liner.ReadHistory(f)
		f.Close()
	}

	fmt.Printf("cellsync-repl (node=%d, grid=%dx%d)\n", r.engine.NodeID(), r.grid.Cols(), r.grid.Rows())
	fmt.Println("Type 'help' for available commands.")
	fmt.Println()

	for {
		line, err := r.liner.Prompt("cellsync> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Println("\nBye!")

				break
			}

			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		r.liner.AppendHistory(line)

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "exit", "quit", "q":
			fmt.Println("Bye!")

			r.saveHistory()

			return nil

		case "help", "?":
			r.printHelp()

		case "write":
			r.cmdWrite(args)

		case "commit":
			r.cmdCommit()

		case "full":
			r.cmdFull()

		case "apply":
			r.cmdApply(args)

		case "ack":
			r.cmdAck(args)

		case "since":
			r.cmdSince(args)

		case "cursor":
			r.cmdCursor(args)

		case "render":
			r.cmdRender()

		case "info":
			r.cmdInfo()

		case "id":
			fmt.Println(r.engine.NodeID())

		case "dump":
			r.cmdDump(args)

		case "load":
			r.cmdLoad(args)

		case "bench":
			r.cmdBench(args)

		case "clear", "cls":
			fmt.Print("\033[H\033[2J")

		default:
			fmt.Printf("Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}

	r.saveHistory()

	return nil
}

func (r *REPL) saveHistory() {
	if path := historyFile(); path != "" {
		if f, err := os.Create(path); err == nil {
			r.liner.WriteHistory(f)
			f.Close()
		}
	}
}

func (r *REPL) completer(line string) []string {
	commands := []string{
		"write", "commit", "full", "apply", "ack", "since",
		"cursor", "render", "info", "id", "dump", "load", "bench",
		"clear", "cls", "help", "exit", "quit", "q",
	}

	var completions []string

	lower := strings.ToLower(line)
	for _, cmd := range commands {
		if strings.HasPrefix(cmd, lower) {
			completions = append(completions, cmd)
		}
	}

	return completions
}

func (r *REPL) printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  write <x> <y> <rune> [fg] [bg]   Stage a cell write (back buffer only)")
	fmt.Println("  commit                           Commit staged writes, print the snapshot")
	fmt.Println("  full                             Emit a full-screen snapshot")
	fmt.Println("  apply <hex>                      Apply a packed hex blob to the grid")
	fmt.Println("  ack <peer> <gen>                 Record an ack from a peer")
	fmt.Println("  since <gen>                      Fetch the oldest packed diff after gen")
	fmt.Println("  cursor <x> <y>                   Move the cursor")
	fmt.Println("  render                           Render the grid as text")
	fmt.Println("  info                             Show engine/grid info")
	fmt.Println("  id                               Show this node's id")
	fmt.Println("  dump <file>                      Write a CRC32C-checked snapshot dump")
	fmt.Println("  load <file>                      Load a dump and apply it to the grid")
	fmt.Println("  bench <count>                    Benchmark write+commit+pack throughput")
	fmt.Println("  help                             Show this help")
	fmt.Println("  exit / quit / q                  Exit")
}

func (r *REPL) cmdWrite(args []string) {
	if len(args) < 3 {
		fmt.Println("Usage: write <x> <y> <rune> [fg] [bg]")

		return
	}

	x, err := strconv.ParseUint(args[0], 10, 16)
	if err != nil {
		fmt.Printf("bad x: %v\n", err)

		return
	}

	y, err := strconv.ParseUint(args[1], 10, 16)
	if err != nil {
		fmt.Printf("bad y: %v\n", err)

		return
	}

	runes := []rune(args[2])
	if len(runes) == 0 {
		fmt.Println("rune must not be empty")

		return
	}

	c := cell.Cell{Codepoint: uint32(runes[0])}

	if len(args) > 3 {
		fg, err := strconv.ParseUint(args[3], 0, 32)
		if err != nil {
			fmt.Printf("bad fg: %v\n", err)

			return
		}

		c.FG = uint32(fg)
	}

	if len(args) > 4 {
		bg, err := strconv.ParseUint(args[4], 0, 32)
		if err != nil {
			fmt.Printf("bad bg: %v\n", err)

			return
		}

		c.BG = uint32(bg)
	}

	r.engine.WriteCell(uint16(x), uint16(y), c)
	fmt.Println("ok")
}

func (r *REPL) cmdCommit() {
	snap, err := r.engine.Commit()
	if err != nil {
		fmt.Printf("commit error: %v\n", err)

		return
	}

	fmt.Printf("generation=%d diffs=%d packed_bytes=%d\n", snap.Generation, len(snap.Diffs), len(snap.Packed()))
}

func (r *REPL) cmdFull() {
	snap, err := r.engine.FullSnapshot()
	if err != nil {
		fmt.Printf("full snapshot error: %v\n", err)

		return
	}

	fmt.Printf("generation=%d diffs=%d packed_bytes=%d\n", snap.Generation, len(snap.Diffs), len(snap.Packed()))
}

func (r *REPL) cmdApply(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: apply <hex>")

		return
	}

	data, err := hex.DecodeString(args[0])
	if err != nil {
		fmt.Printf("bad hex: %v\n", err)

		return
	}

	if err := r.engine.ApplyPacked(data); err != nil {
		fmt.Printf("apply error: %v\n", err)

		return
	}

	fmt.Println("ok")
}

func (r *REPL) cmdAck(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: ack <peer> <gen>")

		return
	}

	peer, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		fmt.Printf("bad peer: %v\n", err)

		return
	}

	gen, err := strconv.ParseUint(args[1], 10, 64)
	if err != nil {
		fmt.Printf("bad gen: %v\n", err)

		return
	}

	r.engine.Ack(peer, gen)
	fmt.Println("ok")
}

func (r *REPL) cmdSince(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: since <gen>")

		return
	}

	gen, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		fmt.Printf("bad gen: %v\n", err)

		return
	}

	packed, ok := r.engine.PackedSince(gen)
	if !ok {
		fmt.Println("(none)")

		return
	}

	fmt.Println(hex.EncodeToString(packed))
}

func (r *REPL) cmdCursor(args []string) {
	if len(args) < 2 {
		fmt.Printf("cursor: (%d,%d)\n", r.grid.CursorX(), r.grid.CursorY())

		return
	}

	x, err := strconv.ParseUint(args[0], 10, 16)
	if err != nil {
		fmt.Printf("bad x: %v\n", err)

		return
	}

	y, err := strconv.ParseUint(args[1], 10, 16)
	if err != nil {
		fmt.Printf("bad y: %v\n", err)

		return
	}

	r.grid.SetCursor(uint16(x), uint16(y))
	fmt.Println("ok")
}

// cmdRender draws the grid as text, using go-runewidth so double-width
// codepoints don't desync column alignment.
func (r *REPL) cmdRender() {
	var b strings.Builder

	for y := uint16(0); y < r.grid.Rows(); y++ {
		col := uint16(0)

		for col < r.grid.Cols() {
			c, ok := r.grid.GetCell(col, y)

			var ch rune
			if ok && c.Codepoint != 0 {
				ch = rune(c.Codepoint)
			} else {
				ch = ' '
			}

			b.WriteRune(ch)

			w := runewidth.RuneWidth(ch)
			if w < 1 {
				w = 1
			}

			col += uint16(w)
		}

		b.WriteByte('\n')
	}

	fmt.Print(b.String())
}

func (r *REPL) cmdInfo() {
	fmt.Printf("node_id=%d\n", r.engine.NodeID())
	fmt.Printf("generation=%d\n", r.engine.Generation())
	fmt.Printf("grid=%dx%d\n", r.grid.Cols(), r.grid.Rows())
	fmt.Printf("cursor=(%d,%d)\n", r.grid.CursorX(), r.grid.CursorY())
}

func (r *REPL) cmdDump(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: dump <file>")

		return
	}

	snap, err := r.engine.FullSnapshot()
	if err != nil {
		fmt.Printf("snapshot error: %v\n", err)

		return
	}

	frame := cellsync.EncodeFrame(snap)

	if err := dumpSnapshot(args[0], frame); err != nil {
		fmt.Printf("dump error: %v\n", err)

		return
	}

	fmt.Println("ok")
}

func (r *REPL) cmdLoad(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: load <file>")

		return
	}

	frame, err := loadDump(args[0])
	if err != nil {
		fmt.Printf("load error: %v\n", err)

		return
	}

	if err := cellsync.ApplyFromWire(frame, r.grid); err != nil {
		fmt.Printf("apply error: %v\n", err)

		return
	}

	fmt.Println("ok")
}

func (r *REPL) cmdBench(args []string) {
	count := 10000

	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Printf("bad count: %v\n", err)

			return
		}

		count = n
	}

	cols, rows := r.grid.Cols(), r.grid.Rows()

	start := time.Now()

	for i := 0; i < count; i++ {
		x := uint16(i) % cols
		y := (uint16(i) / cols) % rows

		r.engine.WriteCell(x, y, cell.Cell{Codepoint: uint32('a' + i%26)})
	}

	writeElapsed := time.Since(start)

	start = time.Now()

	snap, err := r.engine.Commit()
	if err != nil {
		fmt.Printf("commit error: %v\n", err)

		return
	}

	commitElapsed := time.Since(start)

	start = time.Now()

	if _, err := syrup.Encode(cellsync.EncodeFrame(snap)); err != nil {
		fmt.Printf("encode error: %v\n", err)

		return
	}

	encodeElapsed := time.Since(start)

	fmt.Printf("writes=%d write=%s commit=%s encode=%s diffs=%d packed_bytes=%d\n",
		count, writeElapsed, commitElapsed, encodeElapsed, len(snap.Diffs), len(snap.Packed()))
}
