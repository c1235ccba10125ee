package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Generation is layout-before-link: a crash between generating a child
// floor and linking it into its parent leaves floor nodes whose dungeon
// node never materialized. The tree self-heals, the orphaned geometry
// doesn't. This script finds and optionally deletes it.
func main() {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatal("Failed to parse Redis URL:", err)
	}

	client := redis.NewClient(opt)
	ctx := context.Background()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}

	fmt.Println("Connected to Redis:", redisURL)
	fmt.Println("Scanning for orphaned floor geometry...")

	floors, err := client.SMembers(ctx, "floornode:floors").Result()
	if err != nil {
		log.Fatal("Failed to read floor index:", err)
	}

	var orphaned []string
	for _, floor := range floors {
		exists, err := client.Exists(ctx, "dungeonnode:"+floor).Result()
		if err != nil {
			fmt.Printf("Error checking %s: %v\n", floor, err)
			continue
		}
		if exists == 0 {
			orphaned = append(orphaned, floor)
			fmt.Printf("Orphaned floor: %s (no dungeon node)\n", floor)
		}
	}

	fmt.Printf("\nChecked %d floors, found %d orphaned\n", len(floors), len(orphaned))

	if len(orphaned) == 0 {
		return
	}

	if len(os.Args) < 2 || os.Args[1] != "--fix" {
		fmt.Println("\nDry run. Re-run with --fix to delete orphaned geometry.")
		return
	}

	for _, floor := range orphaned {
		indexKey := "floornode:floor:" + floor

		nodes, err := client.SMembers(ctx, indexKey).Result()
		if err != nil {
			fmt.Printf("Error listing nodes for %s: %v\n", floor, err)
			continue
		}

		keys := make([]string, 0, len(nodes)+1)
		for _, node := range nodes {
			keys = append(keys, "floornode:"+node)
		}
		keys = append(keys, indexKey)

		if err := client.Del(ctx, keys...).Err(); err != nil {
			fmt.Printf("Error deleting %s: %v\n", floor, err)
			continue
		}
		if err := client.SRem(ctx, "floornode:floors", floor).Err(); err != nil {
			fmt.Printf("Error unindexing %s: %v\n", floor, err)
			continue
		}
		fmt.Printf("Deleted %s (%s)\n", floor, strings.Join(nodes, ", "))
	}

	fmt.Println("Done.")
}
