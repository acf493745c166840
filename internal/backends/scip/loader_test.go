package scip

import (
	"os"
	"path/filepath"
	"testing"

	scippb "github.com/sourcegraph/scip/bindings/go/scip"
	"google.golang.org/protobuf/proto"

	"squint/internal/errors"
)

func writeIndex(t *testing.T, index *scippb.Index) string {
	t.Helper()
	data, err := proto.Marshal(index)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	path := filepath.Join(t.TempDir(), "index.scip")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoadIndex(t *testing.T) {
	path := writeIndex(t, testIndex())

	index, err := LoadIndex(path)
	if err != nil {
		t.Fatalf("LoadIndex: %v", err)
	}
	if len(index.Documents) != 3 {
		t.Errorf("documents = %d, want 3", len(index.Documents))
	}
}

func TestLoadIndexErrors(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.scip")
	if err := os.WriteFile(garbage, []byte{0xff, 0xff, 0xff, 0xff}, 0o644); err != nil {
		t.Fatal(err)
	}
	empty := writeIndex(t, &scippb.Index{})

	tests := []struct {
		name string
		path string
		want errors.ErrorCode
	}{
		{"missing", filepath.Join(dir, "nope.scip"), errors.IndexMissing},
		{"garbage", garbage, errors.IndexInvalid},
		{"empty", empty, errors.IndexInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadIndex(tt.path)
			if !errors.Is(err, tt.want) {
				t.Fatalf("LoadIndex error = %v, want code %s", err, tt.want)
			}
		})
	}
}

func TestExtractCommitFromToolInfo(t *testing.T) {
	tests := []struct {
		info *scippb.ToolInfo
		want string
	}{
		{&scippb.ToolInfo{Arguments: []string{"--commit=abc1234"}}, "abc1234"},
		{&scippb.ToolInfo{Arguments: []string{"-c", "deadbeef"}}, "deadbeef"},
		{&scippb.ToolInfo{Version: "0123456789ab"}, "0123456789ab"},
		{&scippb.ToolInfo{Version: "v0.3.1"}, ""},
	}
	for _, tt := range tests {
		if got := extractCommitFromToolInfo(tt.info); got != tt.want {
			t.Errorf("extractCommitFromToolInfo(%+v) = %q, want %q", tt.info, got, tt.want)
		}
	}
}
