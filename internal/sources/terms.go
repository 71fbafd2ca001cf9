package sources

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LoadScamTerms reads adverse-coverage terms from a JSON file holding either a
// plain list or an object of category -> terms. Terms are lower-cased and deduplicated.
func LoadScamTerms(path string) ([]string, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read scam terms: %w", err)
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		var grouped map[string][]string
		if gerr := json.Unmarshal(data, &grouped); gerr != nil {
			return nil, fmt.Errorf("unmarshal scam terms: %w", err)
		}
		for _, terms := range grouped {
			list = append(list, terms...)
		}
	}

	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, term := range list {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		out = append(out, term)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("scam terms file %s is empty", path)
	}
	sort.Strings(out)
	return out, nil
}
