package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pendingScope/internal/config"
	"pendingScope/internal/extrinsic"
	"pendingScope/internal/metadata"
	"pendingScope/internal/model"
	"pendingScope/internal/pending"
	"pendingScope/internal/storage"
)

func runDecode(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadDecode(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Metadata == "" {
		return fmt.Errorf("metadata path is required")
	}
	if cfg.In == "" {
		return fmt.Errorf("input path is required")
	}
	if cfg.Errors == "" {
		return fmt.Errorf("errors path is required")
	}

	criteria, err := model.NewFilterCriteria(cfg.Filter.NetUID, cfg.Filter.CallFunctions)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	md, err := loadMetadataFile(cfg.Metadata)
	if err != nil {
		return err
	}

	inputFile, err := os.Open(cfg.In)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer inputFile.Close()

	outWriter, err := storage.NewJSONLWriter(cfg.Out, false)
	if err != nil {
		return err
	}
	defer outWriter.Close()

	errWriter, err := storage.NewJSONLWriter(cfg.Errors, false)
	if err != nil {
		return err
	}
	defer errWriter.Close()

	logger.Info("decode start",
		zap.String("metadata", cfg.Metadata),
		zap.Uint8("metadata_version", md.Version()),
		zap.String("in", cfg.In),
		zap.String("out", cfg.Out),
		zap.String("errors", cfg.Errors),
		zap.Bool("strict", cfg.Strict),
	)

	pipeline := pending.NewPipeline(pending.Config{Workers: cfg.Workers}, logger)
	stats, err := decodeStream(ctx, pipeline, md, inputFile, extrinsic.ModeFor(cfg.Strict), criteria, outWriter, errWriter)
	if err != nil {
		return err
	}

	logger.Info("decode complete",
		zap.Int("total", stats.total),
		zap.Int("decoded", stats.decoded),
		zap.Int("skipped", stats.skipped),
		zap.Int("failed", stats.failed),
	)
	return nil
}

type decodeStats struct {
	total, decoded, skipped, failed int
}

// decodeStream decodes one hex extrinsic per input line. Matches go to out,
// malformed lines and decode failures go to errs. Failure indices count
// non-empty input lines from zero.
func decodeStream(ctx context.Context, p *pending.Pipeline, md *metadata.Metadata, in io.Reader, mode extrinsic.Mode,
	criteria model.FilterCriteria, out, errs *storage.JSONLWriter) (decodeStats, error) {
	scanner := bufio.NewScanner(in)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	var (
		stats     decodeStats
		raw       [][]byte
		positions []int
	)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		index := stats.total
		stats.total++

		b, err := decodeHexLine(string(line))
		if err != nil {
			stats.failed++
			if err := errs.Write(model.DecodeFailure{Index: index, Kind: "invalid_hex", Error: err.Error()}); err != nil {
				return stats, err
			}
			continue
		}
		raw = append(raw, b)
		positions = append(positions, index)
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("scan input: %w", err)
	}

	batch, err := p.DecodeBatch(ctx, md, raw, mode)
	if err != nil {
		return stats, err
	}

	for _, failure := range batch.Failures {
		failure.Index = positions[failure.Index]
		if err := errs.Write(failure); err != nil {
			return stats, err
		}
	}
	stats.failed += len(batch.Failures)

	matched := pending.Filter(batch.Decoded, criteria)
	for _, ext := range matched {
		if err := out.Write(ext); err != nil {
			return stats, err
		}
	}
	stats.decoded = len(matched)
	stats.skipped = len(batch.Decoded) - len(matched)
	return stats, nil
}

func decodeHexLine(line string) ([]byte, error) {
	if !has0xPrefix(line) {
		line = "0x" + line
	}
	return hexutil.Decode(line)
}

func has0xPrefix(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

// loadMetadataFile accepts either the hex string returned by state_getMetadata
// or the raw SCALE bytes.
func loadMetadataFile(path string) (*metadata.Metadata, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}

	raw := content
	if trimmed := bytes.TrimSpace(content); has0xPrefix(string(trimmed)) {
		raw, err = hexutil.Decode(string(trimmed))
		if err != nil {
			return nil, fmt.Errorf("decode metadata hex: %w", err)
		}
	}

	md, err := metadata.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}
	return md, nil
}
