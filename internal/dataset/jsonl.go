package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/visgator-ml/visgator/internal/device"
)

// annotation is one line of a JSONL annotation file. The box is
// (x, y, width, height) in pixels of the original image.
type annotation struct {
	Image   string     `json:"image"`
	Caption string     `json:"caption"`
	BBox    [4]float32 `json:"bbox"`
}

// FileDataset reads grounding samples described by a JSONL annotation
// file. Images are decoded and resized lazily, one per Sample call.
type FileDataset struct {
	root    string
	maxSide int
	dev     device.Device
	entries []annotation
}

// OpenFile parses the annotation file at path. Image paths in the file
// are resolved relative to the file's directory. maxSide bounds the
// longer image side after resizing; zero disables resizing.
func OpenFile(path string, maxSide, maxSamples int, dev device.Device) (*FileDataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %s: %w", path, err)
	}
	defer f.Close()

	d := &FileDataset{root: filepath.Dir(path), maxSide: maxSide, dev: dev}

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}

		var a annotation
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, fmt.Errorf("dataset: %s line %d: %w", path, line, err)
		}
		if a.Image == "" {
			return nil, fmt.Errorf("dataset: %s line %d: missing image path", path, line)
		}
		if a.BBox[2] <= 0 || a.BBox[3] <= 0 {
			return nil, fmt.Errorf("dataset: %s line %d: box has non-positive extent", path, line)
		}

		d.entries = append(d.entries, a)
		if maxSamples > 0 && len(d.entries) == maxSamples {
			break
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("dataset: read %s: %w", path, err)
	}
	if len(d.entries) == 0 {
		return nil, fmt.Errorf("dataset: %s has no samples", path)
	}
	return d, nil
}

// Len returns the number of annotated samples.
func (d *FileDataset) Len() int { return len(d.entries) }

// Sample decodes entry i's image and returns it with the target box in
// XYXY pixel coordinates of the resized image.
func (d *FileDataset) Sample(i int) (Sample, error) {
	if i < 0 || i >= len(d.entries) {
		return Sample{}, fmt.Errorf("dataset: index %d out of range [0, %d)", i, len(d.entries))
	}
	a := d.entries[i]

	img, scale, err := LoadImage(filepath.Join(d.root, a.Image), d.maxSide, d.dev)
	if err != nil {
		return Sample{}, fmt.Errorf("dataset: sample %d: %w", i, err)
	}

	x, y, w, h := a.BBox[0]*scale, a.BBox[1]*scale, a.BBox[2]*scale, a.BBox[3]*scale
	return Sample{
		Image:   img,
		Caption: a.Caption,
		Target:  [4]float32{x, y, x + w, y + h},
	}, nil
}
