package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"image-optimizer/internal/domain/entities"
	"image-optimizer/internal/infrastructure/catalog"
	"image-optimizer/internal/infrastructure/codec"
	"image-optimizer/internal/infrastructure/processor"
	"image-optimizer/internal/infrastructure/storage"
	"image-optimizer/internal/usecases"
	"image-optimizer/pkg/config"
	"image-optimizer/pkg/constants"
	"image-optimizer/pkg/file"
	"image-optimizer/pkg/helper"
	"image-optimizer/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	formats := flag.String("formats", constants.DefaultFormats, "comma separated output formats (png,jpeg,webp,avif)")
	outDir := flag.String("out", "optimized", "output directory")
	continueOnFail := flag.Bool("continue", false, "keep going when a file fails")
	channels := flag.Int("channels", constants.DefaultChannelCount, "number of output channels")
	routeByFormat := flag.Bool("route", false, "write each format to its own channel directory")
	concurrency := flag.Int("concurrency", 0, "max simultaneous encodes per file (0 = one per format)")
	timeout := flag.Duration("timeout", 0, "per-encode timeout (0 = none)")
	maxSize := flag.Int64("max-size", 0, "step lossy quality down until outputs fit this many bytes")
	catalogFile := flag.String("catalog", "", "YAML file with format option overrides")
	logLevel := flag.String("log-level", "warn", "log level")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: optimize [flags] files...\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	log, err := logger.New(*logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer log.Sync()

	cfg := &config.Config{Optimize: config.OptimizeConfig{CatalogFile: *catalogFile}}
	cat, err := cfg.LoadCatalog()
	if err != nil {
		log.Fatal("load catalog", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	records, err := readRecords(flag.Args())
	if err != nil {
		log.Fatal("read input", zap.Error(err))
	}

	store := storage.NewMemoryStorage()
	proc := processor.NewItemProcessor(codec.New(), store, cat, processor.Options{
		MaxConcurrency: *concurrency,
		EncodeTimeout:  *timeout,
		MaxFileSize:    *maxSize,
	}, log)
	orchestrator := usecases.NewBatchOrchestrator(proc, log)

	opts := usecases.RunOptions{
		BinaryField:    constants.DefaultBinaryField,
		Formats:        catalog.ParseFormats(*formats),
		ContinueOnFail: *continueOnFail,
		ChannelCount:   *channels,
		RouteByFormat:  *routeByFormat,
	}

	start := time.Now()
	out, runErr := orchestrator.Run(ctx, records, opts)
	written, writeErr := writeOutputs(*outDir, out, opts.BinaryField, flag.Args())
	if writeErr != nil {
		log.Error("write outputs", zap.Error(writeErr))
	}

	fmt.Printf("%d files, %d outputs written to %s in %s\n", len(records), written, *outDir, time.Since(start).Round(time.Millisecond))
	if runErr != nil || writeErr != nil {
		if runErr != nil {
			fmt.Fprintln(os.Stderr, "error:", runErr)
		}
		os.Exit(1)
	}
}

func readRecords(paths []string) ([]entities.InputRecord, error) {
	records := make([]entities.InputRecord, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		name := filepath.Base(path)
		mimeType := file.DetectMimeType(data)
		records = append(records, entities.InputRecord{
			JSON: map[string]any{"path": path},
			Binary: map[string]*entities.BinaryAttachment{
				constants.DefaultBinaryField: {
					Data:          data,
					FileType:      helper.KindFromMime(mimeType),
					FileName:      name,
					FileExtension: helper.Extension(name),
					MimeType:      mimeType,
					FileSize:      int64(len(data)),
				},
			},
		})
	}
	return records, nil
}

// writeOutputs stores every output under dir, or dir/channel-N when more than
// one channel is configured. Error entries are reported on stderr.
func writeOutputs(dir string, channels entities.OutputChannelSet, field string, inputs []string) (int, error) {
	written := 0
	for ch, outputs := range channels {
		target := dir
		if len(channels) > 1 {
			target = filepath.Join(dir, fmt.Sprintf("channel-%d", ch))
		}
		if err := os.MkdirAll(target, 0o755); err != nil {
			return written, err
		}
		used := make(map[string]bool)
		for _, out := range outputs {
			if out.IsError() {
				fmt.Fprintf(os.Stderr, "%s: %v\n", inputs[out.PairedItem], out.JSON["error"])
				continue
			}
			att := out.Binary[field]
			if att == nil || att.FileName == "" {
				continue
			}
			path := filepath.Join(target, uniqueName(used, att.FileName))
			if err := os.WriteFile(path, att.Data, 0o644); err != nil {
				return written, err
			}
			fmt.Printf("%s -> %s (%d bytes)\n", inputs[out.PairedItem], path, att.FileSize)
			written++
		}
	}
	return written, nil
}

// uniqueName returns name, or name with a numeric suffix before the
// extension when an earlier output of the same run already took it.
func uniqueName(used map[string]bool, name string) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	candidate := name
	for n := 2; used[candidate]; n++ {
		candidate = fmt.Sprintf("%s-%d%s", base, n, ext)
	}
	used[candidate] = true
	return candidate
}
