// Flake CLI - Command-line tool for flake ID generation and inspection
//
// Usage:
//   flake generate [flags]       Generate flake IDs
//   flake parse <id>             Parse and inspect an ID
//   flake encode <id> <format>   Convert an ID to a different format
//   flake bench                  Run performance benchmarks
//
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/arasto/flake"
)

const version = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	switch command {
	case "generate", "gen", "g":
		cmdGenerate(os.Args[2:])
	case "parse", "p":
		cmdParse(os.Args[2:])
	case "encode", "enc", "e":
		cmdEncode(os.Args[2:])
	case "bench", "benchmark", "b":
		cmdBench(os.Args[2:])
	case "version", "--version", "-v":
		fmt.Printf("flake CLI version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Flake CLI - 64-bit time-ordered unique ID generator

Usage:
  flake <command> [flags]

Commands:
  generate, gen, g      Generate flake IDs
  parse, p              Parse and inspect an ID
  encode, enc, e        Convert an ID between formats
  bench, b              Run performance benchmarks
  version               Show version information
  help                  Show this help message

Examples:
  # Generate a single ID
  flake generate --machine 42

  # Generate 10 IDs in Base62 format
  flake generate --count 10 --format base62 --machine 42

  # Parse and inspect an ID
  flake parse 1234567890123456789

  # Convert an ID to a different format
  flake encode 1234567890123456789 base62

  # Run benchmarks
  flake bench --duration 5s

For detailed help on a command:
  flake <command> --help

`)
}

// ============================================================================
// Generate Command
// ============================================================================

func cmdGenerate(args []string) {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	count := fs.Int("count", 1, "Number of IDs to generate")
	machineID := fs.Int64("machine", 0, "Machine ID (0-1023)")
	epochStr := fs.String("epoch", "", "Custom epoch as RFC 3339 (default: 2024-01-01T00:00:00Z)")
	format := fs.String("format", "decimal", "Output format: decimal, base32, base58, base62, hex")
	jsonOutput := fs.Bool("json", false, "Output as JSON")
	batch := fs.Bool("batch", false, "Use batch generation for better throughput")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: flake generate [flags]

Generate one or more flake IDs.

Flags:
  --count N          Number of IDs to generate (default: 1)
  --machine N        Machine ID 0-1023 (default: 0)
  --epoch TIME       Custom epoch as RFC 3339 timestamp
  --format FORMAT    Output format: decimal, base32, base58, base62, hex (default: decimal)
  --json             Output as JSON with full details
  --batch            Use batch generation (faster for large counts)

Examples:
  flake generate --machine 42
  flake generate --count 1000 --format base62 --machine 42
  flake generate --json --machine 5
`)
	}

	fs.Parse(args)

	epoch, err := parseEpoch(*epochStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid epoch: %v\n", err)
		os.Exit(1)
	}

	gen, err := flake.New(epoch, *machineID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating generator: %v\n", err)
		os.Exit(1)
	}

	var ids []flake.ID
	var genErr error
	startTime := time.Now()

	if *batch && *count > 1 {
		ids, genErr = gen.NextBatch(*count)
		if genErr != nil {
			fmt.Fprintf(os.Stderr, "Error generating batch: %v\n", genErr)
			os.Exit(1)
		}
	} else {
		ids = make([]flake.ID, *count)
		for i := 0; i < *count; i++ {
			ids[i], genErr = gen.Next()
			if genErr != nil {
				fmt.Fprintf(os.Stderr, "Error generating ID: %v\n", genErr)
				os.Exit(1)
			}
		}
	}

	duration := time.Since(startTime)

	if *jsonOutput {
		outputJSON(ids, epoch, duration, *machineID)
	} else {
		for _, id := range ids {
			fmt.Println(formatID(id, *format))
		}

		// Show performance stats for large batches
		if *count > 100 {
			rate := float64(*count) / duration.Seconds()
			fmt.Fprintf(os.Stderr, "\nGenerated %d IDs in %v (%.0f IDs/sec)\n",
				*count, duration, rate)
		}
	}
}

func parseEpoch(s string) (time.Time, error) {
	if s == "" {
		return flake.DefaultEpoch, nil
	}
	return time.Parse(time.RFC3339, s)
}

func formatID(id flake.ID, format string) string {
	switch strings.ToLower(format) {
	case "base32", "b32":
		return id.Base32()
	case "base36", "b36":
		return id.Base36()
	case "base58", "b58":
		return id.Base58()
	case "base62", "b62":
		return id.Base62()
	case "base64", "b64":
		return id.Base64()
	case "hex", "x":
		return id.Hex()
	case "binary", "bin":
		return id.Base2()
	default:
		return id.String()
	}
}

func outputJSON(ids []flake.ID, epoch time.Time, duration time.Duration, machineID int64) {
	type IDInfo struct {
		ID        string    `json:"id"`
		Base62    string    `json:"base62"`
		Hex       string    `json:"hex"`
		Timestamp time.Time `json:"timestamp"`
		Machine   int64     `json:"machine"`
		Sequence  int64     `json:"sequence"`
	}

	type Output struct {
		Count      int      `json:"count"`
		MachineID  int64    `json:"machine_id"`
		Duration   string   `json:"duration"`
		RatePerSec float64  `json:"rate_per_sec"`
		IDs        []IDInfo `json:"ids"`
	}

	infos := make([]IDInfo, len(ids))
	for i, id := range ids {
		_, machine, seq := id.Components()
		infos[i] = IDInfo{
			ID:        id.String(),
			Base62:    id.Base62(),
			Hex:       id.Hex(),
			Timestamp: id.Time(epoch),
			Machine:   machine,
			Sequence:  seq,
		}
	}

	rate := float64(len(ids)) / duration.Seconds()
	output := Output{
		Count:      len(ids),
		MachineID:  machineID,
		Duration:   duration.String(),
		RatePerSec: rate,
		IDs:        infos,
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	encoder.Encode(output)
}

// ============================================================================
// Parse Command
// ============================================================================

func cmdParse(args []string) {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	epochStr := fs.String("epoch", "", "Custom epoch as RFC 3339 (default: 2024-01-01T00:00:00Z)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: flake parse [flags] <id>\n")
		fmt.Fprintf(os.Stderr, "\nParse and inspect a flake ID. The ID may be decimal,\n")
		fmt.Fprintf(os.Stderr, "Base62, Base58, hex, or Base32.\n")
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  flake parse 1234567890123456789\n")
		fmt.Fprintf(os.Stderr, "  flake parse 7n42dgm5tflk  # Base62 format\n")
	}

	fs.Parse(args)
	if fs.NArg() < 1 {
		fs.Usage()
		os.Exit(1)
	}

	epoch, err := parseEpoch(*epochStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid epoch: %v\n", err)
		os.Exit(1)
	}

	idStr := fs.Arg(0)
	id, err := parseIDFlexible(idStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Unable to parse ID %q\n", idStr)
		os.Exit(1)
	}

	ts, machine, seq := id.Components()
	timestamp := id.Time(epoch)

	fmt.Printf("Flake ID: %s\n", id)
	fmt.Printf("\n")
	fmt.Printf("Components:\n")
	fmt.Printf("  Timestamp:  %s (%d ms since epoch)\n", timestamp.Format(time.RFC3339Nano), ts)
	fmt.Printf("  Machine ID: %d\n", machine)
	fmt.Printf("  Sequence:   %d\n", seq)
	fmt.Printf("\n")
	fmt.Printf("Encodings:\n")
	fmt.Printf("  Decimal:    %s\n", id.String())
	fmt.Printf("  Base62:     %s\n", id.Base62())
	fmt.Printf("  Base58:     %s\n", id.Base58())
	fmt.Printf("  Base32:     %s\n", id.Base32())
	fmt.Printf("  Hex:        %s\n", id.Hex())
	fmt.Printf("\n")
	fmt.Printf("Age:          %v\n", time.Since(timestamp).Round(time.Millisecond))
}

// ============================================================================
// Encode Command
// ============================================================================

func cmdEncode(args []string) {
	if len(args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: flake encode <id> <format>\n")
		fmt.Fprintf(os.Stderr, "\nConvert a flake ID to a different encoding format.\n")
		fmt.Fprintf(os.Stderr, "\nFormats:\n")
		fmt.Fprintf(os.Stderr, "  decimal, dec       Decimal string\n")
		fmt.Fprintf(os.Stderr, "  base62, b62        URL-safe Base62\n")
		fmt.Fprintf(os.Stderr, "  base58, b58        Bitcoin-style Base58\n")
		fmt.Fprintf(os.Stderr, "  base36, b36        Base36\n")
		fmt.Fprintf(os.Stderr, "  base32, b32        z-base-32\n")
		fmt.Fprintf(os.Stderr, "  base64, b64        Standard Base64\n")
		fmt.Fprintf(os.Stderr, "  hex, x             Hexadecimal\n")
		fmt.Fprintf(os.Stderr, "  binary, bin        Binary string\n")
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  flake encode 1234567890123456789 base62\n")
		fmt.Fprintf(os.Stderr, "  flake encode 7n42dgm5tflk decimal\n")
		os.Exit(1)
	}

	idStr := args[0]
	format := args[1]

	id, err := parseIDFlexible(idStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Unable to parse ID %q: %v\n", idStr, err)
		os.Exit(1)
	}

	fmt.Println(formatID(id, format))
}

func parseIDFlexible(idStr string) (flake.ID, error) {
	// Try decimal first, then the compact encodings.
	id, err := flake.ParseString(idStr)
	if err == nil {
		return id, nil
	}

	id, err = flake.ParseBase62(idStr)
	if err == nil {
		return id, nil
	}

	id, err = flake.ParseBase58(idStr)
	if err == nil {
		return id, nil
	}

	id, err = flake.ParseHex(idStr)
	if err == nil {
		return id, nil
	}

	return flake.ParseBase32(idStr)
}

// ============================================================================
// Benchmark Command
// ============================================================================

func cmdBench(args []string) {
	fs := flag.NewFlagSet("bench", flag.ExitOnError)
	duration := fs.Duration("duration", 3*time.Second, "Benchmark duration")
	machineID := fs.Int64("machine", 0, "Machine ID (0-1023)")
	batchSize := fs.Int("batch", 100, "Batch size for batch generation test")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: flake bench [flags]

Run performance benchmarks for ID generation.

Flags:
  --duration D      Benchmark duration (default: 3s)
  --machine N       Machine ID 0-1023 (default: 0)
  --batch N         Batch size for batch test (default: 100)

Examples:
  flake bench --duration 5s
  flake bench --machine 42 --duration 10s
`)
	}

	fs.Parse(args)

	gen, err := flake.New(flake.DefaultEpoch, *machineID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating generator: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Running benchmarks (duration: %v, machine: %d)\n\n", *duration, *machineID)

	// Benchmark 1: Single ID generation
	fmt.Printf("1. Single ID Generation:\n")
	count := 0
	start := time.Now()
	deadline := start.Add(*duration)
	for time.Now().Before(deadline) {
		_, err := gen.Next()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating ID: %v\n", err)
			break
		}
		count++
	}
	elapsed := time.Since(start)
	rate := float64(count) / elapsed.Seconds()
	nsPerOp := float64(elapsed.Nanoseconds()) / float64(count)

	fmt.Printf("   Generated:      %d IDs\n", count)
	fmt.Printf("   Duration:       %v\n", elapsed)
	fmt.Printf("   Rate:           %.0f IDs/sec (%.0f ns/op)\n", rate, nsPerOp)
	fmt.Printf("\n")

	// Benchmark 2: Batch generation
	fmt.Printf("2. Batch Generation (batch size: %d):\n", *batchSize)
	count = 0
	batchCount := 0
	start = time.Now()
	deadline = start.Add(*duration)
	for time.Now().Before(deadline) {
		ids, err := gen.NextBatch(*batchSize)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating batch: %v\n", err)
			break
		}
		count += len(ids)
		batchCount++
	}
	elapsed = time.Since(start)
	rate = float64(count) / elapsed.Seconds()
	nsPerOp = float64(elapsed.Nanoseconds()) / float64(count)

	fmt.Printf("   Generated:      %d IDs in %d batches\n", count, batchCount)
	fmt.Printf("   Duration:       %v\n", elapsed)
	fmt.Printf("   Rate:           %.0f IDs/sec (%.0f ns/op)\n", rate, nsPerOp)
	fmt.Printf("   Avg batch time: %.2f ms\n", float64(elapsed.Milliseconds())/float64(batchCount))
	fmt.Printf("\n")

	// Benchmark 3: Encoding performance
	fmt.Printf("3. Encoding Performance (1000 operations):\n")
	testID, err := gen.Next()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating test ID: %v\n", err)
		os.Exit(1)
	}

	encodingTests := []struct {
		name string
		fn   func() string
	}{
		{"Decimal", testID.String},
		{"Base62", testID.Base62},
		{"Base58", testID.Base58},
		{"Base32", testID.Base32},
		{"Hex", testID.Hex},
	}

	for _, test := range encodingTests {
		start := time.Now()
		for i := 0; i < 1000; i++ {
			_ = test.fn()
		}
		elapsed := time.Since(start)
		nsPerOp := float64(elapsed.Nanoseconds()) / 1000
		fmt.Printf("   %-8s %6.0f ns/op\n", test.name+":", nsPerOp)
	}

	// Final generator metrics
	m := gen.Snapshot()
	fmt.Printf("\nGenerator metrics:\n")
	fmt.Printf("   Generated:       %d\n", m.Generated)
	fmt.Printf("   Sequence waits:  %d\n", m.SequenceWaits)
	fmt.Printf("   Wait time:       %v\n", time.Duration(m.WaitMicros)*time.Microsecond)
	fmt.Printf("\nBenchmark complete!\n")
}
