package kbs

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/reusee/taicell/logs"
	"github.com/reusee/taicell/pkgs"
	"gopkg.in/yaml.v3"
)

// ReadJSONL reads one entry per line. Malformed or invalid lines are logged and skipped.
func ReadJSONL(r io.Reader, name string, logger logs.Logger) ([]Entry, error) {
	var ret []Entry
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		entry, err := parseChecked(line)
		if err != nil {
			logger.Warn("skip knowledge base line",
				"file", name,
				"line", lineNum,
				"error", err,
			)
			continue
		}
		ret = append(ret, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return ret, nil
}

// ReadYAML reads a list of entries. Invalid entries are logged and skipped.
func ReadYAML(r io.Reader, name string, logger logs.Logger) ([]Entry, error) {
	var docs []map[string]any
	if err := yaml.NewDecoder(r).Decode(&docs); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	var ret []Entry
	for i, doc := range docs {
		data, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("encode %s entry %d: %w", name, i, err)
		}
		entry, err := parseChecked(data)
		if err != nil {
			logger.Warn("skip knowledge base entry",
				"file", name,
				"index", i,
				"error", err,
			)
			continue
		}
		ret = append(ret, entry)
	}
	return ret, nil
}

func parseChecked(data []byte) (Entry, error) {
	entry, err := ParseEntry(data)
	if err != nil {
		return entry, err
	}
	if _, err := pkgs.FileOptions.Parse(entry.Title+".star", entry.Source, 0); err != nil {
		return entry, fmt.Errorf("source of %s: %w", entry.Title, err)
	}
	return entry, nil
}

// ReadFile picks the format by extension: .yaml and .yml are YAML, anything else JSONL.
func ReadFile(path string, logger logs.Logger) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ReadYAML(f, path, logger)
	}
	return ReadJSONL(f, path, logger)
}
