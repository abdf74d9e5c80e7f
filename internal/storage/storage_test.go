package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pendingScope/internal/model"
)

func sampleRecords() []model.PendingRecord {
	observed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return []model.PendingRecord{
		model.NewPendingRecord("Bittensor", 200, model.DecodedExtrinsic{Hash: "0xaa", Call: model.DecodedCall{Module: "SubtensorModule", Function: "add_stake"}}, observed),
		model.NewPendingRecord("Bittensor", 200, model.DecodedExtrinsic{Hash: "0xbb", Call: model.DecodedCall{Module: "SubtensorModule", Function: "remove_stake"}}, observed),
	}
}

func TestJSONLSinkAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "pending.jsonl")

	sink, err := NewJSONLSink(path)
	require.NoError(t, err)
	require.NoError(t, sink.PutPending(context.Background(), sampleRecords()))
	require.NoError(t, sink.PutPending(context.Background(), nil))
	require.NoError(t, sink.Close())

	sink, err = NewJSONLSink(path)
	require.NoError(t, err)
	require.NoError(t, sink.PutPending(context.Background(), sampleRecords()[:1]))
	require.NoError(t, sink.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var hashes []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec struct {
			Extrinsic struct {
				Hash string `json:"extrinsic_hash"`
			} `json:"extrinsic"`
		}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		hashes = append(hashes, rec.Extrinsic.Hash)
	}
	require.NoError(t, scanner.Err())
	require.Equal(t, []string{"0xaa", "0xbb", "0xaa"}, hashes)
}

func TestJSONLWriterTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("stale\n"), 0o644))

	w, err := NewJSONLWriter(path, false)
	require.NoError(t, err)
	require.NoError(t, w.Write(map[string]int{"a": 1}))
	require.NoError(t, w.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "{\"a\":1}\n", string(b))
}

type closeErrSink struct {
	Memory
	err error
}

func (s *closeErrSink) Close() error { return s.err }

func TestFanoutCombinesErrors(t *testing.T) {
	good := &Memory{}
	bad := &Memory{Err: errors.New("broker down")}
	closing := &closeErrSink{err: errors.New("close failed")}

	f := NewFanout(good, nil, bad, closing)
	require.Equal(t, 3, f.Len())

	err := f.PutPending(context.Background(), sampleRecords())
	require.Error(t, err)
	require.Contains(t, err.Error(), "broker down")
	require.Len(t, good.Records(), 2)
	require.Len(t, closing.Records(), 2)

	require.NoError(t, f.PutPending(context.Background(), nil))

	err = f.Close()
	require.Error(t, err)
	require.Contains(t, err.Error(), "close failed")
}
