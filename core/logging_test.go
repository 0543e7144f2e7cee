package core

import (
	"os"
	"strings"
	"testing"
)

// TestLedgerDoesNotUseFmtPrintf guards against reintroducing noisy debug
// statements that bypass structured logging when processing operations.
func TestLedgerDoesNotUseFmtPrintf(t *testing.T) {
	for _, name := range []string{"system.go", "operations.go", "query.go", "genesis.go"} {
		content, err := os.ReadFile(name)
		if err != nil {
			t.Fatalf("failed to read %s: %v", name, err)
		}
		source := string(content)
		if strings.Contains(source, "fmt.Printf(") {
			t.Fatalf("%s should not use fmt.Printf; prefer structured logging", name)
		}
		if strings.Contains(source, "log.Printf(") {
			t.Fatalf("%s should not use log.Printf; prefer structured logging", name)
		}
	}
}
