package crawler

import (
	"fmt"
	"log/slog"
	"os"

	json "github.com/goccy/go-json"

	"github.com/use-agent/sift/rule"
)

// JSONRuleStorage persists host rule sets to one JSON file keyed by
// host. Lookups and mutations go through an in-memory copy; Commit
// rewrites the file via temp-and-rename so readers never see a partial
// write. The file stays hand-editable: Watch picks up outside edits.
type JSONRuleStorage struct {
	mem        *MemoryRuleStorage
	path       string
	logger     *slog.Logger
	autoCommit bool
}

// StorageOption configures a JSONRuleStorage.
type StorageOption func(*JSONRuleStorage)

// WithAutoCommit makes every mutation persist immediately.
func WithAutoCommit(on bool) StorageOption {
	return func(s *JSONRuleStorage) {
		s.autoCommit = on
	}
}

// WithStorageLogger sets the logger; nil keeps slog.Default().
func WithStorageLogger(logger *slog.Logger) StorageOption {
	return func(s *JSONRuleStorage) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewJSONRuleStorage opens the rule file at path, loading it when it
// exists. A missing file starts the store empty; it is created on the
// first Commit.
func NewJSONRuleStorage(path string, opts ...StorageOption) (*JSONRuleStorage, error) {
	s := &JSONRuleStorage{
		mem:    NewMemoryRuleStorage(),
		path:   path,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("crawler: read rule file %s: %w", path, err)
	}
	hosts, err := decodeRuleFile(raw)
	if err != nil {
		return nil, fmt.Errorf("crawler: load rule file %s: %w", path, err)
	}
	s.mem.replace(hosts)
	return s, nil
}

// Path returns the backing file path.
func (s *JSONRuleStorage) Path() string {
	return s.path
}

func (s *JSONRuleStorage) FindCrawlerRule(url string) (*rule.CrawlerRule, error) {
	return s.mem.FindCrawlerRule(url)
}

func (s *JSONRuleStorage) AddCrawlerRule(r *rule.CrawlerRule) error {
	if err := s.mem.AddCrawlerRule(r); err != nil {
		return err
	}
	return s.maybeCommit()
}

func (s *JSONRuleStorage) PopCrawlerRule(host, name string) (*rule.CrawlerRule, error) {
	cr, err := s.mem.PopCrawlerRule(host, name)
	if err != nil {
		return nil, err
	}
	return cr, s.maybeCommit()
}

func (s *JSONRuleStorage) AddHostRuleSet(hs *rule.HostRuleSet) error {
	if err := s.mem.AddHostRuleSet(hs); err != nil {
		return err
	}
	return s.maybeCommit()
}

func (s *JSONRuleStorage) PopHostRuleSet(host string) (*rule.HostRuleSet, error) {
	hs, err := s.mem.PopHostRuleSet(host)
	if err != nil {
		return nil, err
	}
	return hs, s.maybeCommit()
}

func (s *JSONRuleStorage) Hosts() []string {
	return s.mem.Hosts()
}

// Commit writes the current rule sets to the backing file.
func (s *JSONRuleStorage) Commit() error {
	hosts := s.mem.snapshot()
	data, err := encodeRuleFile(hosts)
	if err != nil {
		return fmt.Errorf("crawler: encode rule file: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("crawler: write rule file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("crawler: replace rule file: %w", err)
	}
	s.logger.Debug("rule file committed", "path", s.path, "hosts", len(hosts))
	return nil
}

// Reload re-reads the backing file and swaps in its rule sets. A
// missing file empties the store.
func (s *JSONRuleStorage) Reload() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.mem.replace(make(map[string]*rule.HostRuleSet))
			return nil
		}
		return fmt.Errorf("crawler: read rule file %s: %w", s.path, err)
	}
	hosts, err := decodeRuleFile(raw)
	if err != nil {
		return fmt.Errorf("crawler: reload rule file %s: %w", s.path, err)
	}
	s.mem.replace(hosts)
	return nil
}

func (s *JSONRuleStorage) maybeCommit() error {
	if !s.autoCommit {
		return nil
	}
	return s.Commit()
}

// encodeRuleFile renders hosts as an indented JSON object. Map keys
// marshal sorted, so committed files diff cleanly.
func encodeRuleFile(hosts map[string]*rule.HostRuleSet) ([]byte, error) {
	entries := make(map[string]json.RawMessage, len(hosts))
	for h, hs := range hosts {
		raw, err := hs.Dump()
		if err != nil {
			return nil, err
		}
		entries[h] = json.RawMessage(raw)
	}
	return json.MarshalIndent(entries, "", "  ")
}

func decodeRuleFile(raw []byte) (map[string]*rule.HostRuleSet, error) {
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, err
	}
	hosts := make(map[string]*rule.HostRuleSet, len(entries))
	for key, entry := range entries {
		hs, err := rule.LoadHostRuleSet([]byte(entry))
		if err != nil {
			return nil, fmt.Errorf("host %q: %w", key, err)
		}
		if hs.Host != key {
			return nil, fmt.Errorf("host %q: rule set declares host %q", key, hs.Host)
		}
		hosts[key] = hs
	}
	return hosts, nil
}
