package nftcontract

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

//go:embed octopusfun_artifact.json
var defaultArtifactJSON []byte

var (
	defaultArtifact  *Artifact
	parseDefaultOnce sync.Once
	errParseDefault  error
)

// Artifact is a compiled contract artifact as written by Hardhat.
// Only the interface descriptor is used; bytecode is ignored.
type Artifact struct {
	Format       string          `json:"_format"`
	ContractName string          `json:"contractName"`
	SourceName   string          `json:"sourceName"`
	RawABI       json.RawMessage `json:"abi"`

	ABI abi.ABI `json:"-"`
}

// DefaultArtifact returns the embedded OctopusFun artifact, parsed once.
func DefaultArtifact() (*Artifact, error) {
	parseDefaultOnce.Do(func() {
		defaultArtifact, errParseDefault = ParseArtifact(defaultArtifactJSON)
	})

	return defaultArtifact, errParseDefault
}

// LoadArtifact reads a Hardhat artifact from disk. An empty path selects the
// embedded default.
func LoadArtifact(path string) (*Artifact, error) {
	if path == "" {
		return DefaultArtifact()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading artifact file: %w", err)
	}

	return ParseArtifact(data)
}

// ParseArtifact decodes artifact JSON and parses its ABI.
func ParseArtifact(data []byte) (*Artifact, error) {
	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("failed to unmarshal artifact JSON: %w", err)
	}
	if len(artifact.RawABI) == 0 {
		return nil, fmt.Errorf("artifact %q has no abi", artifact.ContractName)
	}

	parsed, err := abi.JSON(bytes.NewReader(artifact.RawABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI: %w", err)
	}
	artifact.ABI = parsed

	return &artifact, nil
}
