package checkpoint

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"time"

	posexitcommon "github.com/0xPolygon/posexit/common"
	"github.com/ethereum/go-ethereum/common"
)

const (
	contentType = "application/json"

	checkpointQuery = `query ($block: BigInt!) {
  newHeaderBlockEntities(where: {start_lte: $block, end_gte: $block}) {
    headerBlockId
    start
    end
    root
  }
}`
)

// SubgraphIndexer asks a subgraph indexing NewHeaderBlock events for the
// checkpoint that contains a block
type SubgraphIndexer struct {
	client   *http.Client
	endpoint string
}

// NewSubgraphIndexer returns an indexer querying endpoint. A zero timeout means no timeout
func NewSubgraphIndexer(endpoint string, timeout time.Duration) (*SubgraphIndexer, error) {
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("invalid subgraph url %q: %w", endpoint, err)
	}
	return &SubgraphIndexer{
		client:   &http.Client{Timeout: timeout},
		endpoint: endpoint,
	}, nil
}

func (s *SubgraphIndexer) Name() string {
	return "subgraph"
}

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type headerBlockEntity struct {
	HeaderBlockID string `json:"headerBlockId"`
	Start         string `json:"start"`
	End           string `json:"end"`
	Root          string `json:"root"`
}

type checkpointQueryResponse struct {
	Data struct {
		Entities []headerBlockEntity `json:"newHeaderBlockEntities"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

// CheckpointForBlock implements Indexer
func (s *SubgraphIndexer) CheckpointForBlock(ctx context.Context, blockNumber uint64) (Checkpoint, error) {
	body, err := json.Marshal(graphQLRequest{
		Query:     checkpointQuery,
		Variables: map[string]interface{}{"block": fmt.Sprintf("%d", blockNumber)},
	})
	if err != nil {
		return Checkpoint{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return Checkpoint{}, err
	}
	req.Header.Set("accept", contentType)
	req.Header.Set("content-type", contentType)

	resp, err := s.client.Do(req)
	if err != nil {
		return Checkpoint{}, fmt.Errorf("subgraph request: %w: %w", posexitcommon.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Checkpoint{}, fmt.Errorf("subgraph response: %w: %w", posexitcommon.ErrUpstreamUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return Checkpoint{}, fmt.Errorf("subgraph returned status %d: %w", resp.StatusCode, posexitcommon.ErrUpstreamUnavailable)
	}

	var result checkpointQueryResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return Checkpoint{}, fmt.Errorf("decoding subgraph response: %w: %w", posexitcommon.ErrUpstreamUnavailable, err)
	}
	if len(result.Errors) > 0 {
		return Checkpoint{}, fmt.Errorf("subgraph error %q: %w", result.Errors[0].Message, posexitcommon.ErrUpstreamUnavailable)
	}
	if len(result.Data.Entities) == 0 {
		return Checkpoint{}, fmt.Errorf("subgraph, block %d: %w", blockNumber, ErrCheckpointNotFound)
	}
	return result.Data.Entities[0].toCheckpoint()
}

func (e headerBlockEntity) toCheckpoint() (Checkpoint, error) {
	id, ok := new(big.Int).SetString(e.HeaderBlockID, 10) //nolint:mnd
	if !ok {
		return Checkpoint{}, fmt.Errorf("invalid headerBlockId %q", e.HeaderBlockID)
	}
	start, ok := new(big.Int).SetString(e.Start, 10) //nolint:mnd
	if !ok {
		return Checkpoint{}, fmt.Errorf("invalid start %q", e.Start)
	}
	end, ok := new(big.Int).SetString(e.End, 10) //nolint:mnd
	if !ok {
		return Checkpoint{}, fmt.Errorf("invalid end %q", e.End)
	}
	root, err := parseRoot(e.Root)
	if err != nil {
		return Checkpoint{}, err
	}
	return Checkpoint{ID: id, Start: start, End: end, Root: root}, nil
}

func parseRoot(s string) (common.Hash, error) {
	b := common.FromHex(s)
	if len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("invalid root %q", s)
	}
	return common.BytesToHash(b), nil
}
