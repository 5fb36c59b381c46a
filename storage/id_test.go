package storage

import (
	"errors"
	"regexp"
	"testing"
	"testing/iotest"
)

func TestNewFileIDFormat(t *testing.T) {
	re := regexp.MustCompile(`^\d+-[0-9a-f]{16}$`)

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := newFileID()
		if !re.MatchString(id) {
			t.Fatalf("unexpected id format: %q", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id: %q", id)
		}
		seen[id] = true
	}
}

func TestRandomSuffixPanicsWithoutEntropy(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic when the entropy source fails")
		}
	}()
	randomSuffix(iotest.ErrReader(errors.New("no entropy")))
}
