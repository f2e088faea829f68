package cae

import (
	"context"
	"fmt"

	"github.com/iowarp/context-runtime/pkg/taxonomy"
)

// dagNode wraps a transfer with the channel its dependents wait on.
type dagNode struct {
	spec TransferSpec
	done chan struct{}
}

// buildDAG validates depends_on references (every predecessor must
// name another entry's dst) and returns one node per entry, keyed by
// dst.
func buildDAG(m *Manifest) (map[string]*dagNode, []string, error) {
	nodes := make(map[string]*dagNode, len(m.Transfers))
	order := make([]string, 0, len(m.Transfers))
	for _, t := range m.Transfers {
		if _, dup := nodes[t.Dst]; dup {
			return nil, nil, taxonomy.Wrap(taxonomy.ManifestInvalid, fmt.Errorf("duplicate dst %q", t.Dst))
		}
		nodes[t.Dst] = &dagNode{spec: t, done: make(chan struct{})}
		order = append(order, t.Dst)
	}
	for _, n := range nodes {
		if n.spec.DependsOn == "" {
			continue
		}
		if n.spec.DependsOn == n.spec.Dst {
			return nil, nil, taxonomy.Wrap(taxonomy.ManifestInvalid,
				fmt.Errorf("transfer %q depends_on itself", n.spec.Dst))
		}
		if _, ok := nodes[n.spec.DependsOn]; !ok {
			return nil, nil, taxonomy.Wrap(taxonomy.ManifestInvalid,
				fmt.Errorf("transfer %q depends_on unknown dst %q", n.spec.Dst, n.spec.DependsOn))
		}
	}
	return nodes, order, nil
}

// awaitDeps blocks until n's predecessor (if any) is terminal, or ctx
// is cancelled.
func awaitDeps(ctx context.Context, nodes map[string]*dagNode, n *dagNode) error {
	if n.spec.DependsOn == "" {
		return nil
	}
	pred := nodes[n.spec.DependsOn]
	select {
	case <-pred.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
