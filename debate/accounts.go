package debate

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// ReadAccounts loads the watched account identifiers from a plain-text file,
// one per line. Surrounding whitespace is trimmed and blank lines are skipped.
func ReadAccounts(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ReadAccounts: %w", err)
	}
	defer f.Close()

	var accounts []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		accounts = append(accounts, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("ReadAccounts: %w", err)
	}
	return accounts, nil
}
