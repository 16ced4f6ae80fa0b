package appconfig

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/local/stopoverdispatch/internal/mapping"
)

type codec struct {
	marshal   func(v interface{}) ([]byte, error)
	unmarshal func(data []byte, v interface{}) error
}

func codecFor(path string) codec {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return codec{marshal: yaml.Marshal, unmarshal: yaml.Unmarshal}
	default:
		return codec{
			marshal: func(v interface{}) ([]byte, error) {
				b, err := json.MarshalIndent(v, "", "  ")
				if err != nil {
					return nil, err
				}
				return append(b, '\n'), nil
			},
			unmarshal: json.Unmarshal,
		}
	}
}

// write saves st next to the target as .tmp, syncs it and renames it over
// the target after copying the previous content to .bak.
func (s *Store) write(st State) error {
	data, err := s.codec.marshal(st)
	if err != nil {
		return fmt.Errorf("encode app config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	if _, err := os.Stat(s.path); err == nil {
		if err := copyFile(s.path, s.path+".bak"); err != nil {
			return fmt.Errorf("backup app config: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	defer os.Remove(tmp)
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync temp config: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp config: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace app config: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// sanitize rebuilds a State from a loosely decoded document, upper-casing
// codes, cleaning address lists and dropping values of the wrong type.
func sanitize(raw map[string]interface{}) State {
	st := defaultState()

	if list, ok := raw["stopovers"].([]interface{}); ok {
		for _, v := range list {
			s, ok := scalar(v)
			if !ok {
				continue
			}
			c := strings.ToUpper(strings.TrimSpace(s))
			if c != "" && !contains(st.Stopovers, c) {
				st.Stopovers = append(st.Stopovers, c)
			}
		}
	}

	for k, v := range asMap(raw["mappings"]) {
		var entries []string
		switch val := v.(type) {
		case string:
			entries = []string{val}
		case []interface{}:
			for _, e := range val {
				if s, ok := scalar(e); ok {
					entries = append(entries, s)
				}
			}
		}
		code := strings.ToUpper(strings.TrimSpace(k))
		if code == "" {
			continue
		}
		st.Mappings[code] = mapping.NormalizeAddresses(append(st.Mappings[code], entries...))
	}

	if t := asMap(raw["templates"]); t != nil {
		if s, ok := scalar(t["subject"]); ok {
			st.Templates.Subject = s
		}
		if s, ok := scalar(t["body"]); ok {
			st.Templates.Body = s
		}
	}

	for k, v := range asMap(raw["last_sent"]) {
		if s, ok := v.(string); ok {
			st.LastSent[strings.ToUpper(strings.TrimSpace(k))] = s
		}
	}
	return st
}

// asMap accepts both JSON objects and YAML mappings.
func asMap(v interface{}) map[string]interface{} {
	switch m := v.(type) {
	case map[string]interface{}:
		return m
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(m))
		for k, val := range m {
			if ks, ok := k.(string); ok {
				out[ks] = val
			}
		}
		return out
	}
	return nil
}

func scalar(v interface{}) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case int:
		return fmt.Sprint(val), true
	case float64:
		return fmt.Sprint(val), true
	}
	return "", false
}
