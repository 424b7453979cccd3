package buildinfo

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

func TestInfoAndLog(t *testing.T) {
	origVersion, origCommit, origDate := Version, Commit, Date
	t.Cleanup(func() {
		Version, Commit, Date = origVersion, origCommit, origDate
	})

	Version = "1.2.3"
	Commit = "abc123"
	Date = "2026-01-02"

	info := Info()
	if !strings.HasPrefix(info, "version=1.2.3 commit=abc123 date=2026-01-02 go=") {
		t.Fatalf("unexpected info: %s", info)
	}

	var buf bytes.Buffer
	origOutput := log.Writer()
	origFlags := log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(origOutput)
		log.SetFlags(origFlags)
	})

	Log("keyvalue-gateway")
	got := strings.TrimSpace(buf.String())
	if !strings.Contains(got, "keyvalue-gateway") || !strings.Contains(got, info) {
		t.Fatalf("unexpected log output: %s", got)
	}
}
