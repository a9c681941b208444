package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/slopeviz/internal/geom"
	"github.com/san-kum/slopeviz/internal/render"
	"github.com/san-kum/slopeviz/internal/stats"
)

var (
	ErrRunNotFound  = errors.New("storage: run not found")
	ErrInvalidRunID = errors.New("storage: invalid run id")
)

// checkID keeps run ids to a single directory name under the store.
func checkID(runID string) error {
	if runID == "" || runID == "." || runID == ".." || strings.ContainsAny(runID, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidRunID, runID)
	}
	return nil
}

const (
	metadataFile = "metadata.json"
	framesFile   = "frames.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

// RunMetadata describes one recorded animation.
type RunMetadata struct {
	ID            string         `json:"id"`
	Timestamp     time.Time      `json:"timestamp"`
	Params        stats.Params   `json:"params"`
	Derived       stats.Derived  `json:"derived"`
	Bounds        stats.Bounds   `json:"bounds"`
	Coverage      stats.Coverage `json:"coverage"`
	StepsPerPhase int            `json:"steps_per_phase"`
	TickMillis    int64          `json:"tick_ms"`
	RoundSE       bool           `json:"round_se"`
	// Band is the polygon shown during the run, if any.
	Band   []geom.Point `json:"band,omitempty"`
	Frames int          `json:"frames"`
}

// Save writes a run and returns its id. An empty meta.ID gets a fresh one.
func (s *Store) Save(meta RunMetadata, frames []render.Frame) (string, error) {
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}
	if err := checkID(meta.ID); err != nil {
		return "", err
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	meta.Frames = len(frames)
	if meta.Band == nil {
		for _, f := range frames {
			if band := f.Scene.Series[render.SeriesBand]; len(band) > 0 {
				meta.Band = band
				break
			}
		}
	}

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()
	if err := WriteJSON(metaFile, meta, nil); err != nil {
		return "", fmt.Errorf("write metadata: %w", err)
	}

	csvFile, err := os.Create(filepath.Join(runDir, framesFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()
	if err := WriteFramesCSV(csvFile, frames); err != nil {
		return "", fmt.Errorf("write frames: %w", err)
	}

	return meta.ID, nil
}

// List returns all readable runs, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

// Latest returns the most recent run.
func (s *Store) Latest() (*RunMetadata, error) {
	runs, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, ErrRunNotFound
	}
	return &runs[len(runs)-1], nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	if err := checkID(runID); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse metadata %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadFrames rebuilds the recorded frames of a run.
func (s *Store) LoadFrames(runID string) ([]render.Frame, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filepath.Join(s.baseDir, runID, framesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ReadFramesCSV(file, meta.Band)
}

var frameHeader = []string{"index", "slope", "se", "x0", "y0", "x1", "y1", "band"}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

// WriteFramesCSV writes one row per frame. Frames without a line leave the
// coordinate columns empty.
func WriteFramesCSV(w io.Writer, frames []render.Frame) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(frameHeader); err != nil {
		return err
	}

	for _, f := range frames {
		row := []string{
			strconv.Itoa(f.Index),
			f.Scene.Readouts[render.ReadoutSlope],
			f.Scene.Readouts[render.ReadoutSE],
			"", "", "", "",
			"0",
		}
		if seg, ok := f.Line(); ok {
			row[3] = formatFloat(seg.A.X)
			row[4] = formatFloat(seg.A.Y)
			row[5] = formatFloat(seg.B.X)
			row[6] = formatFloat(seg.B.Y)
		}
		if len(f.Scene.Series[render.SeriesBand]) > 0 {
			row[7] = "1"
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadFramesCSV parses rows written by WriteFramesCSV. Rows flagged with
// the band get the given polygon.
func ReadFramesCSV(r io.Reader, band []geom.Point) ([]render.Frame, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(frameHeader)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []render.Frame{}, nil
	}

	frames := make([]render.Frame, 0, len(records)-1)
	for i, rec := range records[1:] {
		idx, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: bad index %q", i+1, rec[0])
		}

		scene := render.NewScene()
		if rec[1] != "" {
			scene.SetReadout(render.ReadoutSlope, rec[1])
		}
		if rec[2] != "" {
			scene.SetReadout(render.ReadoutSE, rec[2])
		}
		if rec[3] != "" {
			var v [4]float64
			for j := range v {
				v[j], err = strconv.ParseFloat(rec[3+j], 64)
				if err != nil {
					return nil, fmt.Errorf("row %d: %w", i+1, err)
				}
			}
			scene.SetSeries(render.SeriesLine, []geom.Point{{X: v[0], Y: v[1]}, {X: v[2], Y: v[3]}})
		}
		if rec[7] == "1" {
			scene.SetSeries(render.SeriesBand, band)
		}

		frames = append(frames, render.Frame{Index: idx, Scene: scene})
	}
	return frames, nil
}

// Export is the JSON form of a run with its frames.
type Export struct {
	RunMetadata
	Frames []render.Frame `json:"frame_list,omitempty"`
}

// WriteJSON writes meta, and frames when given, as indented JSON.
func WriteJSON(w io.Writer, meta RunMetadata, frames []render.Frame) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Export{RunMetadata: meta, Frames: frames})
}
