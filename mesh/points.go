package mesh

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// ParsePointsFile reads and parses a point file
func ParsePointsFile(path string) ([]orb.Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	defer f.Close()
	return ParsePoints(f)
}

// ParsePoints reads points as a JSON array of [x, y] pairs, a JSON array of
// {"x": .., "y": ..} objects, or plain text with one "x y" or "x,y" pair per
// line. Blank lines and lines starting with # are ignored in text input.
func ParsePoints(r io.Reader) ([]orb.Point, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading points: %w", err)
	}

	var points []orb.Point
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		points, err = parsePointsJSON(trimmed)
	} else {
		points, err = parsePointsText(data)
	}
	if err != nil {
		return nil, err
	}

	for i, p := range points {
		if math.IsNaN(p[0]) || math.IsNaN(p[1]) || math.IsInf(p[0], 0) || math.IsInf(p[1], 0) {
			return nil, fmt.Errorf("point %d has non-finite coordinates", i)
		}
	}
	return points, nil
}

// xy is the object form of a point in JSON input
type xy struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

func parsePointsJSON(data []byte) ([]orb.Point, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	points := make([]orb.Point, 0, len(raw))
	for i, item := range raw {
		var pair []float64
		if err := json.Unmarshal(item, &pair); err == nil {
			if len(pair) != 2 {
				return nil, fmt.Errorf("point %d: want [x, y], got %d values", i, len(pair))
			}
			points = append(points, orb.Point{pair[0], pair[1]})
			continue
		}

		var obj xy
		if err := json.Unmarshal(item, &obj); err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		if obj.X == nil || obj.Y == nil {
			return nil, fmt.Errorf("point %d: missing x or y", i)
		}
		points = append(points, orb.Point{*obj.X, *obj.Y})
	}
	return points, nil
}

func parsePointsText(data []byte) ([]orb.Point, error) {
	var points []orb.Point
	scanner := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.FieldsFunc(text, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == ';'
		})
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: want 2 coordinates, got %d", line, len(fields))
		}
		x, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		y, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		points = append(points, orb.Point{x, y})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning points: %w", err)
	}
	return points, nil
}

// WritePoints writes points as a JSON array of [x, y] pairs
func WritePoints(w io.Writer, points []orb.Point) error {
	data, err := json.Marshal(pairs(points))
	if err != nil {
		return fmt.Errorf("marshaling points: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing points: %w", err)
	}
	return nil
}

// WritePointsFile writes points to path in the format of WritePoints
func WritePointsFile(path string, points []orb.Point) error {
	var buf bytes.Buffer
	if err := WritePoints(&buf, points); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing points file: %w", err)
	}
	return nil
}
