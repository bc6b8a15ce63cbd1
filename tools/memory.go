package tools

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// embeddingDim is the fixed width of the bag-of-tokens embedding. Vectors
// are computed locally instead of calling out to an embedding API since
// there is no configured embedding provider in this build.
const embeddingDim = 256

// memoryVector is a flat L2-normalized embedding vector.
type memoryVector []float32

func embed(text string) memoryVector {
	v := make(memoryVector, embeddingDim)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		h := sha1.Sum([]byte(tok))
		bucket := int(h[0])<<8 | int(h[1])
		bucket %= embeddingDim
		v[bucket]++
	}
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return v
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}

func cosineSimilarity(a, b memoryVector) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

// memoryRecord is one JSONL line in the memory store.
type memoryRecord struct {
	ID   string         `json:"id"`
	TS   string         `json:"ts"`
	Text string         `json:"text"`
	Tags []string       `json:"tags,omitempty"`
	Meta map[string]any `json:"meta,omitempty"`
	Vec  memoryVector   `json:"vec"`
}

var memoryMu sync.Mutex

func memoryPath(configDir string) string {
	return filepath.Join(configDir, "memory.jsonl")
}

func loadMemoryRecords(configDir string) ([]memoryRecord, error) {
	path := memoryPath(configDir)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var records []memoryRecord
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var rec memoryRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// saveMemoryRecords performs an atomic rewrite of the whole file via a
// temp-file-rename.
func saveMemoryRecords(configDir string, records []memoryRecord) error {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return err
	}
	path := memoryPath(configDir)
	var buf strings.Builder
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(buf.String()), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func memoryAdd(ctx context.Context, tctx Context, args map[string]any) map[string]any {
	text := argString(args, "text")
	if text == "" {
		return errMap("text is required")
	}
	var tags []string
	if raw, ok := args["tags"].([]any); ok {
		for _, t := range raw {
			if s, ok := t.(string); ok {
				tags = append(tags, s)
			}
		}
	}

	memoryMu.Lock()
	defer memoryMu.Unlock()
	records, err := loadMemoryRecords(tctx.ConfigDir)
	if err != nil {
		return errMap(err.Error())
	}
	meta, _ := args["meta"].(map[string]any)
	rec := memoryRecord{
		ID:   uuid.NewString(),
		TS:   nowRFC3339(),
		Text: text,
		Tags: tags,
		Meta: meta,
		Vec:  embed(text),
	}
	records = append(records, rec)
	if err := saveMemoryRecords(tctx.ConfigDir, records); err != nil {
		return errMap(err.Error())
	}
	return map[string]any{"id": rec.ID}
}

func memorySearch(ctx context.Context, tctx Context, args map[string]any) map[string]any {
	query := argString(args, "query")
	if query == "" {
		return errMap("query is required")
	}
	limit := argInt(args, "limit", 5)

	memoryMu.Lock()
	records, err := loadMemoryRecords(tctx.ConfigDir)
	memoryMu.Unlock()
	if err != nil {
		return errMap(err.Error())
	}

	qv := embed(query)
	type scored struct {
		rec   memoryRecord
		score float64
	}
	results := make([]scored, 0, len(records))
	for _, rec := range records {
		results = append(results, scored{rec, cosineSimilarity(qv, rec.Vec)})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].score > results[j].score })
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	out := make([]map[string]any, 0, len(results))
	for _, r := range results {
		out = append(out, map[string]any{
			"id":    r.rec.ID,
			"text":  r.rec.Text,
			"tags":  r.rec.Tags,
			"score": r.score,
		})
	}
	return map[string]any{"results": out}
}

func memoryDelete(ctx context.Context, tctx Context, args map[string]any) map[string]any {
	id := argString(args, "id")
	if id == "" {
		return errMap("id is required")
	}

	memoryMu.Lock()
	defer memoryMu.Unlock()
	records, err := loadMemoryRecords(tctx.ConfigDir)
	if err != nil {
		return errMap(err.Error())
	}
	kept := records[:0]
	found := false
	for _, rec := range records {
		if rec.ID == id {
			found = true
			continue
		}
		kept = append(kept, rec)
	}
	if !found {
		return errMap(fmt.Sprintf("no memory record with id %q", id))
	}
	if err := saveMemoryRecords(tctx.ConfigDir, kept); err != nil {
		return errMap(err.Error())
	}
	return map[string]any{"deleted": id}
}

func memoryList(ctx context.Context, tctx Context, args map[string]any) map[string]any {
	memoryMu.Lock()
	records, err := loadMemoryRecords(tctx.ConfigDir)
	memoryMu.Unlock()
	if err != nil {
		return errMap(err.Error())
	}
	out := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		out = append(out, map[string]any{
			"id":   rec.ID,
			"ts":   rec.TS,
			"text": rec.Text,
			"tags": rec.Tags,
			"meta": rec.Meta,
		})
	}
	return map[string]any{"records": out}
}

func memoryUpdate(ctx context.Context, tctx Context, args map[string]any) map[string]any {
	id := argString(args, "id")
	if id == "" {
		return errMap("id is required")
	}
	text := argString(args, "text")

	memoryMu.Lock()
	defer memoryMu.Unlock()
	records, err := loadMemoryRecords(tctx.ConfigDir)
	if err != nil {
		return errMap(err.Error())
	}
	found := false
	for i := range records {
		if records[i].ID == id {
			found = true
			if text != "" {
				records[i].Text = text
				records[i].Vec = embed(text)
			}
			if raw, ok := args["tags"].([]any); ok {
				var tags []string
				for _, t := range raw {
					if s, ok := t.(string); ok {
						tags = append(tags, s)
					}
				}
				records[i].Tags = tags
			}
		}
	}
	if !found {
		return errMap(fmt.Sprintf("no memory record with id %q", id))
	}
	if err := saveMemoryRecords(tctx.ConfigDir, records); err != nil {
		return errMap(err.Error())
	}
	return map[string]any{"updated": id}
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}
