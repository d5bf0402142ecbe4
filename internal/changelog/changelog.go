package changelog

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"equity-advisor/internal/types"
)

// Journal appends recommendations and drift events to daily JSON-lines files.
type Journal struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

type RecommendationEntry struct {
	Time       string             `json:"time"`
	ID         string             `json:"id"`
	Symbol     string             `json:"symbol"`
	Action     types.Action       `json:"action"`
	Confidence float64            `json:"confidence"`
	Composite  float64            `json:"composite"`
	Scores     map[string]float64 `json:"scores"`
	Missing    []types.SignalKind `json:"missing,omitempty"`
}

type ChangeEntry struct {
	Time             string       `json:"time"`
	ID               string       `json:"id"`
	Symbol           string       `json:"symbol"`
	RecommendationID string       `json:"recommendation_id"`
	From             types.Action `json:"from"`
	To               types.Action `json:"to"`
	Confidence       float64      `json:"confidence"`
}

func New(dir string) *Journal {
	if dir == "" {
		dir = "logs"
	}
	return &Journal{dir: dir, now: time.Now}
}

func (j *Journal) recommendationsPath(t time.Time) string {
	return filepath.Join(j.dir, "recommendations", t.UTC().Format("2006-01-02")+".txt")
}

func (j *Journal) changesPath(t time.Time) string {
	return filepath.Join(j.dir, "changes", t.UTC().Format("2006-01-02")+".txt")
}

func (j *Journal) AppendRecommendation(rec types.Recommendation) error {
	scores := map[string]float64{}
	for _, kind := range types.AllSignals {
		if v := rec.Score(kind); v != nil {
			scores[string(kind)] = *v
		}
	}
	now := j.now()
	return j.append(j.recommendationsPath(now), RecommendationEntry{
		Time:       now.UTC().Format(time.RFC3339),
		ID:         rec.ID,
		Symbol:     rec.Symbol,
		Action:     rec.Action,
		Confidence: rec.Confidence,
		Composite:  rec.Composite,
		Scores:     scores,
		Missing:    rec.MissingSignals,
	})
}

func (j *Journal) AppendChange(c types.RecommendationChange) error {
	now := j.now()
	return j.append(j.changesPath(now), ChangeEntry{
		Time:             now.UTC().Format(time.RFC3339),
		ID:               c.ID,
		Symbol:           c.Symbol,
		RecommendationID: c.RecommendationID,
		From:             c.PreviousAction,
		To:               c.NewAction,
		Confidence:       c.Confidence,
	})
}

func (j *Journal) append(p string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// CompressOlder gzips journal files last modified more than retentionDays ago.
// It returns the number of files compressed and the first error met.
func (j *Journal) CompressOlder(retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	cutoff := j.now().AddDate(0, 0, -retentionDays)
	compressed := 0
	var firstErr error

	err := filepath.WalkDir(j.dir, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(p) != ".txt" {
			return nil
		}
		info, err := d.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			return nil
		}
		gz := p + ".gz"
		// already compressed by an earlier interrupted run
		if _, err := os.Stat(gz); err == nil {
			_ = os.Remove(p)
			return nil
		}
		if err := gzipFile(p, gz); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return nil
		}
		compressed++
		return nil
	})
	if os.IsNotExist(err) {
		err = nil
	}
	if firstErr == nil {
		firstErr = err
	}
	return compressed, firstErr
}

func gzipFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	gw := gzip.NewWriter(out)
	_, cerr := io.Copy(gw, in)
	gerr := gw.Close()
	ferr := out.Close()
	if err := firstOf(cerr, gerr, ferr); err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("compress %s: %w", src, err)
	}
	return os.Remove(src)
}

func firstOf(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// Files lists journal files (plain and compressed) relative to the journal dir.
func (j *Journal) Files() ([]string, error) {
	var out []string
	err := filepath.WalkDir(j.dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && (strings.HasSuffix(p, ".txt") || strings.HasSuffix(p, ".txt.gz")) {
			rel, _ := filepath.Rel(j.dir, p)
			out = append(out, filepath.ToSlash(rel))
		}
		return nil
	})
	if os.IsNotExist(err) {
		return nil, nil
	}
	return out, err
}
