package storage

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"rangepool/internal/model"
)

func readBack(t *testing.T, path string) []model.EventRecord {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	var out []model.EventRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec model.EventRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("unmarshal line: %v", err)
		}
		out = append(out, rec)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	return out
}

func TestJsonlStorageAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "events.jsonl")
	s := NewJsonlStorage(path)

	first := []model.EventRecord{
		{Seq: 1, Timestamp: 100, Pool: "0xb1", Kind: "swap", Data: []byte(`{"amount_in":"5"}`)},
		{Seq: 2, Timestamp: 110, Pool: "0xb1", Kind: "mint", Data: []byte(`{}`)},
	}
	if err := s.PutEventBatch(first); err != nil {
		t.Fatalf("PutEventBatch: %v", err)
	}
	if err := s.PutEventBatch([]model.EventRecord{{Seq: 3, Timestamp: 120, Pool: "0xb2", Kind: "burn", Data: []byte(`{}`)}}); err != nil {
		t.Fatalf("PutEventBatch append: %v", err)
	}

	got := readBack(t, path)
	if len(got) != 3 {
		t.Fatalf("records = %d, want 3", len(got))
	}
	for i, want := range []uint64{1, 2, 3} {
		if got[i].Seq != want {
			t.Fatalf("record %d seq = %d, want %d", i, got[i].Seq, want)
		}
	}
	if got[0].Kind != "swap" || string(got[0].Data) != `{"amount_in":"5"}` {
		t.Fatalf("record 0 = %+v", got[0])
	}
}

func TestJsonlStorageEmptyBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	if err := NewJsonlStorage(path).PutEventBatch(nil); err != nil {
		t.Fatalf("PutEventBatch: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("empty batch created the file")
	}
}
