package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iowarp/context-runtime/pkg/admin"
	"github.com/iowarp/context-runtime/pkg/types"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate a container to another node",
	RunE: func(cmd *cobra.Command, args []string) error {
		poolStr, _ := cmd.Flags().GetString("pool-id")
		containerStr, _ := cmd.Flags().GetString("container-id")
		nodeStr, _ := cmd.Flags().GetString("node-id")
		dataDir, _ := cmd.Flags().GetString("data-dir")
		workers, _ := cmd.Flags().GetInt("workers")

		if poolStr == "" || containerStr == "" || nodeStr == "" {
			return fmt.Errorf("--pool-id, --container-id and --node-id are all required")
		}

		pool, err := parsePoolID(poolStr)
		if err != nil {
			return err
		}
		containerID, err := strconv.ParseUint(containerStr, 10, 32)
		if err != nil {
			return fmt.Errorf("parse container-id: %w", err)
		}
		nodeID, err := strconv.ParseUint(nodeStr, 10, 32)
		if err != nil {
			return fmt.Errorf("parse node-id: %w", err)
		}

		rt, err := newRuntime(1, dataDir, workers)
		if err != nil {
			return fmt.Errorf("start runtime: %w", err)
		}
		defer rt.Close()

		result := rt.admin.MigrateContainers([]admin.MigrationRequest{{
			PoolID:      pool,
			ContainerID: types.ContainerId(containerID),
			DestNodeID:  types.NodeId(nodeID),
		}})

		if result.NumMigrated == 0 {
			if result.Diagnostic != "" {
				return fmt.Errorf("migration failed: %s", result.Diagnostic)
			}
			return fmt.Errorf("migration failed")
		}

		fmt.Printf("Migrated %d container(s)\n", result.NumMigrated)
		return nil
	},
}

func init() {
	migrateCmd.Flags().String("pool-id", "", "Pool id as major.minor (required)")
	migrateCmd.Flags().String("container-id", "", "Container id to migrate (required)")
	migrateCmd.Flags().String("node-id", "", "Destination node id (required)")
}

// parsePoolID parses "major.minor" into a types.PoolId.
func parsePoolID(s string) (types.PoolId, error) {
	parts := strings.SplitN(s, ".", 2)
	if len(parts) != 2 {
		return types.PoolId{}, fmt.Errorf("pool-id must be major.minor, got %q", s)
	}
	major, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return types.PoolId{}, fmt.Errorf("parse pool-id major: %w", err)
	}
	minor, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return types.PoolId{}, fmt.Errorf("parse pool-id minor: %w", err)
	}
	return types.PoolId{Major: uint32(major), Minor: uint32(minor)}, nil
}
