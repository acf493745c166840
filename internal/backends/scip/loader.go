package scip

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	scippb "github.com/sourcegraph/scip/bindings/go/scip"
	"google.golang.org/protobuf/proto"

	"squint/internal/errors"
)

// ReadIndex reads the raw bytes of a SCIP index.
func ReadIndex(path string) ([]byte, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, errors.New(
			errors.IndexMissing,
			fmt.Sprintf("SCIP index not found at %s", path),
			err,
		)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(
			errors.InternalError,
			fmt.Sprintf("Failed to read SCIP index from %s", path),
			err,
		)
	}
	return data, nil
}

// DecodeIndex parses SCIP protobuf bytes.
func DecodeIndex(data []byte) (*scippb.Index, error) {
	var index scippb.Index
	if err := proto.Unmarshal(data, &index); err != nil {
		return nil, errors.New(errors.IndexInvalid, "Failed to parse SCIP index", err)
	}
	if len(index.Documents) == 0 && index.Metadata == nil {
		return nil, errors.New(errors.IndexInvalid, "SCIP index has no metadata and no documents", nil)
	}
	return &index, nil
}

// LoadIndex reads and decodes a SCIP index from path.
func LoadIndex(path string) (*scippb.Index, error) {
	data, err := ReadIndex(path)
	if err != nil {
		return nil, err
	}
	index, err := DecodeIndex(data)
	if err != nil {
		if se, ok := err.(*errors.SquintError); ok {
			se.Message = fmt.Sprintf("%s from %s", se.Message, path)
			se.SuggestedFixes = append(se.SuggestedFixes, errors.FixAction{
				Type:        errors.RunCommand,
				Command:     "scip print --index=" + path,
				Safe:        true,
				Description: "Verify SCIP index is valid",
			})
		}
		return nil, err
	}
	return index, nil
}

// IndexedCommit returns the git commit the index was built from, or "" when
// the tool info does not say.
func IndexedCommit(index *scippb.Index) string {
	if index.GetMetadata().GetToolInfo() == nil {
		return ""
	}
	return extractCommitFromToolInfo(index.Metadata.ToolInfo)
}

// extractCommitFromToolInfo attempts to extract git commit from tool info
func extractCommitFromToolInfo(toolInfo *scippb.ToolInfo) string {
	// Common patterns:
	// --commit=<hash>
	// --git-commit=<hash>
	// --module-version=<hash> (scip-go)
	// -c <hash>
	for i, arg := range toolInfo.Arguments {
		for _, prefix := range []string{"--commit=", "--git-commit=", "--module-version="} {
			if strings.HasPrefix(arg, prefix) && len(arg) > len(prefix) {
				return arg[len(prefix):]
			}
		}
		if arg == "-c" && i+1 < len(toolInfo.Arguments) {
			return toolInfo.Arguments[i+1]
		}
	}

	// Also check version field which scip-go populates
	if looksLikeCommitHash(toolInfo.Version) {
		return toolInfo.Version
	}

	return ""
}

// looksLikeCommitHash checks if a string looks like a git commit hash
func looksLikeCommitHash(s string) bool {
	if len(s) < 7 || len(s) > 40 {
		return false
	}
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}

// GetIndexPath returns the index path from config and repo root
func GetIndexPath(repoRoot string, configPath string) string {
	if filepath.IsAbs(configPath) {
		return configPath
	}
	return filepath.Join(repoRoot, configPath)
}
