package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/require"

	"pendingScope/internal/extrinsic"
	"pendingScope/internal/metadata/metadatatest"
	"pendingScope/internal/model"
	"pendingScope/internal/pending"
	"pendingScope/internal/storage"
)

func TestDecodeStream(t *testing.T) {
	hotkey := metadatatest.Alice
	stake := metadatatest.Unsigned(metadatatest.AddStakeCall(hotkey, 8, 200))
	other := metadatatest.Unsigned(metadatatest.AddStakeCall(hotkey, 3, 100))
	remark := metadatatest.Unsigned(metadatatest.RemarkCall([]byte("hi")))

	input := strings.Join([]string{
		hexutil.Encode(stake),
		"",
		"zz",
		strings.TrimPrefix(hexutil.Encode(other), "0x"),
		hexutil.Encode(stake[:len(stake)-2]),
		hexutil.Encode(remark),
	}, "\n")

	criteria, err := model.NewFilterCriteria(8, []string{"add_stake"})
	require.NoError(t, err)

	var outBuf, errBuf bytes.Buffer
	out := storage.NewJSONLWriterTo(&outBuf)
	errs := storage.NewJSONLWriterTo(&errBuf)

	p := pending.NewPipeline(pending.Config{Workers: 2}, nil)
	stats, err := decodeStream(context.Background(), p, metadatatest.Subtensor(), strings.NewReader(input),
		extrinsic.Strict, criteria, out, errs)
	require.NoError(t, err)
	require.NoError(t, out.Close())
	require.NoError(t, errs.Close())

	require.Equal(t, decodeStats{total: 5, decoded: 1, skipped: 2, failed: 2}, stats)

	outLines := strings.Split(strings.TrimSpace(outBuf.String()), "\n")
	require.Len(t, outLines, 1)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(outLines[0]), &decoded))
	require.Equal(t, extrinsic.Hash(stake), decoded["extrinsic_hash"])

	errLines := strings.Split(strings.TrimSpace(errBuf.String()), "\n")
	require.Len(t, errLines, 2)
	var failures []model.DecodeFailure
	for _, line := range errLines {
		var f model.DecodeFailure
		require.NoError(t, json.Unmarshal([]byte(line), &f))
		failures = append(failures, f)
	}
	require.Equal(t, 1, failures[0].Index)
	require.Equal(t, "invalid_hex", failures[0].Kind)
	require.Equal(t, 3, failures[1].Index)
	require.NotEmpty(t, failures[1].Raw)
}

func TestLoadMetadataFile(t *testing.T) {
	dir := t.TempDir()
	blob := metadatatest.Encode(metadatatest.Subtensor(), 14)

	hexPath := filepath.Join(dir, "metadata.hex")
	require.NoError(t, os.WriteFile(hexPath, []byte(hexutil.Encode(blob)+"\n"), 0o644))
	md, err := loadMetadataFile(hexPath)
	require.NoError(t, err)
	_, ok := md.PalletByName("SubtensorModule")
	require.True(t, ok)

	binPath := filepath.Join(dir, "metadata.scale")
	require.NoError(t, os.WriteFile(binPath, blob, 0o644))
	md, err = loadMetadataFile(binPath)
	require.NoError(t, err)
	require.Equal(t, uint8(14), md.Version())

	badPath := filepath.Join(dir, "bad.hex")
	require.NoError(t, os.WriteFile(badPath, []byte("0x00"), 0o644))
	_, err = loadMetadataFile(badPath)
	require.Error(t, err)
}
