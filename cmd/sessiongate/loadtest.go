package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/sessiongate"
	"github.com/MrEthical07/sessiongate/directory"
	"github.com/MrEthical07/sessiongate/password"
	"github.com/MrEthical07/sessiongate/session"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type loadtestOptions struct {
	accounts    int
	concurrency int
	ops         int
	loginOps    int
	redisAddr   string
	prefix      string
}

func loadtestCmd() *cobra.Command {
	var opts loadtestOptions

	cmd := &cobra.Command{
		Use:   "loadtest",
		Short: "Measure evaluation throughput over seeded sessions",
		Long: `Seed accounts and Redis-backed sessions, then run two phases:

  session  load a random session from Redis and evaluate it
  login    evaluate a login, including the password hash check`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.accounts <= 0 || opts.concurrency <= 0 || opts.ops <= 0 || opts.loginOps < 0 {
				return errors.New("accounts, concurrency and ops must be > 0")
			}
			return runLoadtest(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().IntVar(&opts.accounts, "accounts", 10000, "number of accounts and sessions to seed")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 256, "number of concurrent workers")
	cmd.Flags().IntVar(&opts.ops, "ops", 200000, "operations in the session phase")
	cmd.Flags().IntVar(&opts.loginOps, "login-ops", 200, "operations in the login phase; 0 skips it")
	cmd.Flags().StringVar(&opts.redisAddr, "redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	cmd.Flags().StringVar(&opts.prefix, "prefix", "sg:loadtest", "session key prefix")

	return cmd
}

const loadtestPassword = "correct-horse"

func runLoadtest(ctx context.Context, out io.Writer, opts loadtestOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	client, closeRedis, err := openRedis(opts.redisAddr, out)
	if err != nil {
		return err
	}
	defer closeRedis()

	hasher, err := password.NewArgon2(password.DefaultConfig())
	if err != nil {
		return err
	}
	// One hash shared by every account keeps seeding fast.
	hash, err := hasher.Hash(loadtestPassword)
	if err != nil {
		return err
	}

	dir := directory.NewMemory(hasher)
	engine, err := sessiongate.New().WithDirectory(dir).WithLatencyHistograms(true).Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	store := session.NewRedisStore(client, session.WithKeyPrefix(opts.prefix), session.WithTTL(time.Hour))

	fmt.Fprintf(out, "seeding %d accounts and sessions...\n", opts.accounts)
	startSeed := time.Now()
	ids := make([]string, opts.accounts)
	now := time.Now().Unix()
	for i := range ids {
		account := directory.Account{Username: fmt.Sprintf("user-%d", i)}
		dir.PutHash(account, hash)

		ids[i] = uuid.NewString()
		values := session.Values{
			session.KeyUser:        account,
			session.KeyLastRequest: now,
		}
		if err := store.Put(ctx, ids[i], values); err != nil {
			return fmt.Errorf("seed session: %w", err)
		}
	}
	fmt.Fprintf(out, "seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	sessionStats := runPhase(opts.ops, opts.concurrency, 7919, func(r *rand.Rand) error {
		values, err := store.Get(ctx, ids[r.Intn(len(ids))])
		if err != nil {
			return err
		}
		ev, err := engine.Evaluate(ctx, sessionView(values))
		if err != nil {
			return err
		}
		if !ev.Authenticated {
			return errors.New("session not admitted")
		}
		return nil
	})

	var loginStats phaseStats
	if opts.loginOps > 0 {
		// Each password check allocates the full argon2 memory cost, so the
		// login phase runs at most one worker per CPU.
		workers := min(opts.concurrency, runtime.NumCPU())
		loginStats = runPhase(opts.loginOps, workers, 6151, func(r *rand.Rand) error {
			view := sessiongate.RequestView{
				Path:     "/login",
				Method:   "POST",
				Username: sessiongate.String(fmt.Sprintf("user-%d", r.Intn(len(ids)))),
				Password: sessiongate.String(loadtestPassword),
			}
			ev, err := engine.Evaluate(ctx, view)
			if err != nil {
				return err
			}
			if !ev.Authenticated {
				return errors.New("login rejected")
			}
			return nil
		})
	}

	fmt.Fprintln(out, "---- results ----")
	printStats(out, "session", sessionStats)
	if opts.loginOps > 0 {
		printStats(out, "login", loginStats)
	}
	return nil
}

func sessionView(values session.Values) sessiongate.RequestView {
	view := sessiongate.RequestView{Path: "/", Method: "GET"}
	if ts, ok := values.Int64(session.KeyLastRequest); ok {
		view.Session.LastRequest = &ts
	}
	view.Session.User = values[session.KeyUser]
	return view
}

// runPhase spreads ops calls to op across concurrency workers and collects
// per-call latency.
func runPhase(ops, concurrency int, seedStep int64, op func(r *rand.Rand) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*seedStep))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(r)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(out io.Writer, name string, s phaseStats) {
	fmt.Fprintf(out, "%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
