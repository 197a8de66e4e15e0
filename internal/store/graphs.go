package store

import (
	"bytes"
	"fmt"
	"io"

	"github.com/swarmcore/orchestrator/internal/dag"
)

// SaveGraph validates and atomically persists a graph document to
// swarms/<graphId>/dag.json.
func (s *FileStore) SaveGraph(g *dag.Graph) error {
	var buf bytes.Buffer
	if err := dag.WriteJSON(&buf, g); err != nil {
		return fmt.Errorf("store: encode graph %s: %w", g.ID, err)
	}
	return s.writeAtomic(GraphDocPath(g.ID), func(w io.Writer) error {
		_, err := w.Write(buf.Bytes())
		return err
	})
}

// LoadGraph reads and validates the graph document for graphID. A missing
// document returns ErrNotExist.
func (s *FileStore) LoadGraph(graphID string) (*dag.Graph, error) {
	raw, err := s.ReadText(GraphDocPath(graphID))
	if err != nil {
		return nil, err
	}
	g, err := dag.LoadJSON(bytes.NewReader([]byte(raw)))
	if err != nil {
		return nil, fmt.Errorf("store: decode graph %s: %w", graphID, err)
	}
	return g, nil
}

// ListGraphIDs returns every graph id with a persisted document.
func (s *FileStore) ListGraphIDs() ([]string, error) {
	return s.ListDir(SwarmsDir)
}

// SaveScratchpad writes a node's output to its content-addressed
// scratchpad file.
func (s *FileStore) SaveScratchpad(graphID, nodeID, content string) error {
	return s.WriteText(ScratchpadPath(graphID, nodeID), content)
}

// LoadScratchpad reads a node's output. A node with no output yet returns
// ErrNotExist.
func (s *FileStore) LoadScratchpad(graphID, nodeID string) (string, error) {
	return s.ReadText(ScratchpadPath(graphID, nodeID))
}
