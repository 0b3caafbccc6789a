package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	redis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mirkobrombin/go-lounge/v1/lock"
	"github.com/mirkobrombin/go-lounge/v1/lounge"
	"github.com/mirkobrombin/go-lounge/v1/store"
)

var (
	concurrency = flag.Int("c", 16, "Concurrent provider workers")
	visitors    = flag.Int("n", 10000, "Visitors to push through the queue")
	target      = flag.String("target", "memory", "Target: memory, redis")
	redisAddr   = flag.String("redis-addr", "localhost:6379", "Redis address")
)

// lounge-bench pushes visitors through a full enqueue/pickup/complete cycle
// and reports throughput and pickup latency percentiles.
func main() {
	flag.Parse()

	for _, t := range strings.Split(*target, ",") {
		runBenchmark(strings.TrimSpace(t))
	}
}

func buildCoordinator(name string) (*lounge.Coordinator, func(), error) {
	switch name {
	case "memory":
		return lounge.New(
			lock.NewInMemory(),
			store.NewInMemoryWaiting(),
			store.NewInMemoryExam(),
			nil,
			nil,
		), func() {}, nil

	case "redis":
		client := redis.NewClient(&redis.Options{Addr: *redisAddr})
		db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			client.Close()
			return nil, nil, err
		}
		coord := lounge.New(
			lock.NewRedis(client),
			store.NewRedisWaiting(client, store.WithWaitingPrefix("lounge_bench:waiting")),
			store.NewGormExam(db),
			nil,
			nil,
			lounge.WithLockKey("lounge_bench:position:global"),
		)
		return coord, func() { client.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown target %q", name)
	}
}

func runBenchmark(name string) {
	coord, cleanup, err := buildCoordinator(name)
	if err != nil {
		log.Printf("%s: %v", name, err)
		return
	}
	defer cleanup()

	ctx := context.Background()
	total := *visitors
	latencies := make([]int64, total)
	var next, served int64

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < *concurrency; w++ {
		provider := fmt.Sprintf("bench-provider-%d", w)
		g.Go(func() error {
			for {
				i := atomic.AddInt64(&next, 1) - 1
				if i >= int64(total) {
					return nil
				}
				id := fmt.Sprintf("bench-visitor-%d", i)
				if _, err := coord.Enqueue(gctx, lounge.Visitor{ID: id, UserID: id}, "bench"); err != nil {
					return err
				}
				reqStart := time.Now()
				res, err := coord.Pickup(gctx, provider, id)
				if err != nil {
					return err
				}
				latencies[i] = time.Since(reqStart).Nanoseconds()
				if _, err := coord.Complete(gctx, provider, res.VisitorID); err != nil {
					return err
				}
				atomic.AddInt64(&served, 1)
			}
		})
	}
	if err := g.Wait(); err != nil {
		fmt.Printf("| %-10s | %-10s | %-12s | %-12s |\n", name, "ERROR", "-", "-")
		log.Printf("%s: %v", name, err)
		return
	}
	elapsed := time.Since(start)

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	p50 := latencies[len(latencies)/2]
	p99Idx := int(float64(len(latencies)) * 0.99)
	if p99Idx >= len(latencies) {
		p99Idx = len(latencies) - 1
	}

	fmt.Printf("| %-10s | %-10s | %-12s | %-12s |\n", "Target", "Visits/sec", "P50 Pickup", "P99 Pickup")
	fmt.Println("|:---|:---|:---|:---|")
	fmt.Printf("| %-10s | %-10.0f | %-12s | %-12s |\n",
		name,
		float64(served)/elapsed.Seconds(),
		time.Duration(p50).String(),
		time.Duration(latencies[p99Idx]).String(),
	)
}
